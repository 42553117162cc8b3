package sqlkit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	// Drivers for the supported backend kinds.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/sqlkit/dburl"
)

// openEngine performs backend-specific existence checks and creation,
// then returns the connection pool for the resolved descriptor.
//
// One connection is checked out and returned immediately before
// handing back the pool: sql.Open is lazy, and for SQLite this first
// connection is what actually creates the file.
func openEngine(ctx context.Context, r *dburl.Resolved, mustExist bool, log *zap.Logger) (*sql.DB, error) {
	switch r.Kind {
	case dburl.KindSQLiteMemory:
		if mustExist {
			return nil, &ConfigurationError{
				Reason: "must-exist is not valid for an in-memory database",
			}
		}

	case dburl.KindSQLiteFile:
		if err := ensureSQLiteFile(r, mustExist); err != nil {
			return nil, err
		}

	case dburl.KindMySQL:
		if err := ensureServerDatabase(ctx, r, mustExist, log,
			"SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?",
			// MySQL only accepts backticks for quoting database names.
			fmt.Sprintf("CREATE DATABASE `%s`", r.Database),
		); err != nil {
			return nil, err
		}

	case dburl.KindPostgres:
		if err := ensureServerDatabase(ctx, r, mustExist, log,
			"SELECT 1 FROM pg_database WHERE datname = $1",
			// PostgreSQL does not allow single quoting of database names.
			fmt.Sprintf(`CREATE DATABASE "%s"`, r.Database),
		); err != nil {
			return nil, err
		}

	default:
		return nil, &dburl.UnsupportedBackendError{URL: r.Redacted()}
	}

	db, err := sql.Open(r.Driver, r.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if r.Kind == dburl.KindSQLiteMemory || r.Kind == dburl.KindSQLiteFile {
		// SQLite supports one writer at a time; a single pooled
		// connection avoids SQLITE_BUSY and keeps :memory: state
		// alive for the Database's lifetime.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	conn.Close()

	return db, nil
}

// ensureSQLiteFile checks for the database file on disk. When the
// database may be created, the parent directory is made idempotently;
// the file itself appears with the first connection.
func ensureSQLiteFile(r *dburl.Resolved, mustExist bool) error {
	info, err := os.Stat(r.Path)
	switch {
	case err == nil:
		if info.IsDir() {
			return &ConfigurationError{
				Reason: fmt.Sprintf("database path %q is a directory", r.Path),
			}
		}
		return nil
	case os.IsNotExist(err):
		if mustExist {
			return &DatabaseNotFoundError{URL: r.Redacted()}
		}
		if err := os.MkdirAll(filepath.Dir(r.Path), 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("stat database file: %w", err)
	}
}

// ensureServerDatabase checks whether the named database exists on the
// server, using a throwaway admin connection bound to the server but
// not to the target database. Absent databases are created unless
// mustExist is set.
//
// The existence query and the CREATE DATABASE are separate statements;
// a concurrent creator can win the race between them and make the
// create fail. That window is documented behavior, not guarded.
func ensureServerDatabase(ctx context.Context, r *dburl.Resolved, mustExist bool, log *zap.Logger, existsQuery, createStmt string) error {
	admin, err := sql.Open(r.Driver, r.AdminDSN)
	if err != nil {
		return fmt.Errorf("open admin connection: %w", err)
	}
	defer admin.Close()

	var found string
	err = admin.QueryRowContext(ctx, existsQuery, r.Database).Scan(&found)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		if mustExist {
			return &DatabaseNotFoundError{URL: r.Redacted()}
		}
		log.Info("creating database",
			zap.String("database", r.Database),
			zap.String("url", r.Redacted()))
		if _, err := admin.ExecContext(ctx, createStmt); err != nil {
			return fmt.Errorf("create database: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("check database existence: %w", err)
	}
}
