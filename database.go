package sqlkit

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/roach88/sqlkit/dburl"
	"github.com/roach88/sqlkit/schema"
)

// Database owns one engine (a pooled connection handle bound to a
// resolved descriptor) and issues scoped Sessions against it.
//
// Construction materializes every declared table that is absent;
// existing tables are left untouched. A Database is safe for
// concurrent use. After Drop it must be discarded.
type Database struct {
	resolved *dburl.Resolved
	schema   *schema.Schema
	dialect  schema.Dialect
	db       *sql.DB
	log      *zap.Logger
	echo     bool
}

type config struct {
	mustExist bool
	logger    *zap.Logger
	echo      bool
}

// Option configures Open.
type Option func(*config)

// MustExist makes Open fail with DatabaseNotFoundError instead of
// creating an absent database.
func MustExist() Option {
	return func(c *config) { c.mustExist = true }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Echo logs every statement and its arguments at debug level. Useful
// when chasing down query behavior; noisy otherwise.
func Echo() Option {
	return func(c *config) { c.echo = true }
}

// Open resolves a connection descriptor, builds the backend engine,
// and materializes the schema.
//
// Unless MustExist is set, an absent database is created: a
// CREATE DATABASE statement for server backends, directory and file
// creation for single-file SQLite. The existence check and creation
// are separate steps with no cross-process lock; two concurrent
// creators may race (documented limitation).
//
// A nil schema skips table creation; queries then run against whatever
// the database already holds.
func Open(ctx context.Context, descriptor string, sch *schema.Schema, opts ...Option) (*Database, error) {
	cfg := config{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	resolved, err := dburl.Resolve(descriptor)
	if err != nil {
		return nil, err
	}

	pool, err := openEngine(ctx, resolved, cfg.mustExist, cfg.logger)
	if err != nil {
		return nil, err
	}

	d := &Database{
		resolved: resolved,
		schema:   sch,
		dialect:  dialectFor(resolved.Kind),
		db:       pool,
		log:      cfg.logger,
		echo:     cfg.echo,
	}

	if sch != nil {
		for _, table := range sch.Tables {
			ddl := table.CreateSQL(d.dialect)
			d.logSQL(ddl, nil)
			if _, err := d.db.ExecContext(ctx, ddl); err != nil {
				d.db.Close()
				return nil, fmt.Errorf("create table %s: %w", table.Name, err)
			}
		}
	}

	return d, nil
}

// URL returns the resolved descriptor, credentials included.
func (d *Database) URL() string {
	return d.resolved.URL
}

// String returns the redacted descriptor.
func (d *Database) String() string {
	return d.resolved.Redacted()
}

// Dialect returns the SQL dialect of the backend.
func (d *Database) Dialect() schema.Dialect {
	return d.dialect
}

// Schema returns the schema the Database was constructed with. May be
// nil.
func (d *Database) Schema() *schema.Schema {
	return d.schema
}

// DB returns the underlying sql.DB for direct queries. Use with
// caution; prefer Sessions, which guarantee transactional scoping.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Close releases the connection pool. The Database must not be used
// afterward.
func (d *Database) Close() error {
	return d.db.Close()
}

// Drop destroys the database irreversibly.
//
// Requires confirmed=true; without it the call fails with
// ConfirmationRequiredError and the database is untouched. Single-file
// SQLite databases are deleted from disk, in-memory databases are
// discarded with the engine, and server databases are removed with a
// DROP DATABASE statement through an admin connection.
//
// After a successful Drop no further operations can be made on the
// Database, and any outstanding Sessions should be discarded.
func (d *Database) Drop(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return &ConfirmationRequiredError{}
	}

	switch d.resolved.Kind {
	case dburl.KindSQLiteMemory:
		d.log.Info("dropping in-memory database")
		return d.db.Close()

	case dburl.KindSQLiteFile:
		if err := d.db.Close(); err != nil {
			return fmt.Errorf("drop %s: %w", d.resolved.Redacted(), err)
		}
		d.log.Info("dropping database file", zap.String("path", d.resolved.Path))
		if err := os.Remove(d.resolved.Path); err != nil {
			return fmt.Errorf("drop %s: %w", d.resolved.Redacted(), err)
		}
		return nil

	case dburl.KindMySQL:
		if err := d.db.Close(); err != nil {
			return fmt.Errorf("drop %s: %w", d.resolved.Redacted(), err)
		}
		// MySQL only accepts backticks for quoting database names.
		stmt := fmt.Sprintf("DROP DATABASE IF EXISTS `%s`", d.resolved.Database)
		return d.adminExec(ctx, stmt)

	case dburl.KindPostgres:
		if err := d.db.Close(); err != nil {
			return fmt.Errorf("drop %s: %w", d.resolved.Redacted(), err)
		}
		stmt := fmt.Sprintf(`DROP DATABASE IF EXISTS "%s"`, d.resolved.Database)
		return d.adminExec(ctx, stmt)

	default:
		return &UnsupportedOperationError{Op: "drop", URL: d.resolved.Redacted()}
	}
}

// adminExec runs a statement on a fresh server-level connection.
func (d *Database) adminExec(ctx context.Context, stmt string) error {
	admin, err := sql.Open(d.resolved.Driver, d.resolved.AdminDSN)
	if err != nil {
		return fmt.Errorf("open admin connection: %w", err)
	}
	defer admin.Close()

	d.log.Info("executing admin statement", zap.String("sql", stmt))
	if _, err := admin.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("admin statement failed: %w", err)
	}
	return nil
}

// SessionOption configures a Session scope.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	commit bool
}

// CommitOnSuccess commits the session's transaction when fn returns
// nil. Without it the transaction is rolled back at scope exit, so
// the scope is effectively read-only.
func CommitOnSuccess() SessionOption {
	return func(c *sessionConfig) { c.commit = true }
}

// Session provides a transactional scope around a unit of work.
//
// One connection is checked out from the pool and a transaction is
// begun on it; fn runs inside that transaction. If fn returns an error
// or panics, the transaction is rolled back before the error or panic
// propagates. On normal return the transaction commits only when
// CommitOnSuccess was given. The connection returns to the pool on
// every exit path.
//
// Callers requesting a Session beyond the pool's capacity block until
// one is released. The Session must not be used concurrently from
// more than one goroutine, and must not outlive fn.
func (d *Database) Session(ctx context.Context, fn func(*Session) error, opts ...SessionOption) error {
	var cfg sessionConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	conn, err := d.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("check out connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			// Rollback on error, panic, and the plain no-commit exit.
			// No-op after commit.
			tx.Rollback()
		}
	}()

	session := &Session{db: d, tx: tx}
	if err := fn(session); err != nil {
		return err
	}

	if cfg.commit {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		committed = true
	}
	return nil
}

// logSQL echoes a statement when the Echo option is set.
func (d *Database) logSQL(query string, args []any) {
	if !d.echo {
		return
	}
	d.log.Debug("sql", zap.String("query", query), zap.Any("args", args))
}

func dialectFor(k dburl.Kind) schema.Dialect {
	switch k {
	case dburl.KindMySQL:
		return schema.DialectMySQL
	case dburl.KindPostgres:
		return schema.DialectPostgres
	default:
		return schema.DialectSQLite
	}
}
