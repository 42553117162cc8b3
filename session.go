package sqlkit

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/sqlkit/schema"
)

// Fields maps column names to values. Used for record lookups,
// staging inserts, and message mapping.
type Fields map[string]any

// DBTX is the execution surface shared by *sql.DB and *sql.Tx.
// Sessions implement it too, so query helpers can run inside or
// outside a transaction without caring which.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Compile-time verification of the DBTX implementors.
var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
	_ DBTX = (*Session)(nil)
)

// Session is a transactional unit of work bound to one pooled
// connection. Sessions are issued by Database.Session and live only
// for the scope of its callback; see that method for the commit and
// rollback contract.
//
// A Session is not internally locked and must not be used from more
// than one goroutine.
type Session struct {
	db *Database
	tx *sql.Tx
}

// ExecContext runs a statement in the session's transaction.
func (s *Session) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	s.db.logSQL(query, args)
	return s.tx.ExecContext(ctx, query, args...)
}

// QueryContext runs a query in the session's transaction. Callers are
// responsible for closing the returned rows.
func (s *Session) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	s.db.logSQL(query, args)
	return s.tx.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query in the session's
// transaction.
func (s *Session) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	s.db.logSQL(query, args)
	return s.tx.QueryRowContext(ctx, query, args...)
}

// Get looks up the first record in table matching all filter fields
// exactly. Returns nil Fields (and nil error) when no record matches.
func (s *Session) Get(ctx context.Context, table *schema.Table, filter Fields) (Fields, error) {
	query, args := s.selectSQL(table, filter)
	rows, err := s.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get from %s: %w", table.Name, err)
	}
	defer rows.Close()

	records, err := scanFields(rows)
	if err != nil {
		return nil, fmt.Errorf("get from %s: %w", table.Name, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// GetOrCreate looks up a record matching all filter fields exactly.
// If found it is returned unchanged. Otherwise a new record is built
// from the filter fields merged with defaults (filter values win) and
// staged for insertion in the current transaction. No commit occurs;
// the Session's scope governs durability.
//
// Concurrent callers racing on the same filter in separate Sessions
// may both insert. Uniqueness is the schema's job, via a unique
// constraint on the filter columns, not this method's.
func (s *Session) GetOrCreate(ctx context.Context, table *schema.Table, filter, defaults Fields) (Fields, error) {
	existing, err := s.Get(ctx, table, filter)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	record := Fields{}
	for k, v := range defaults {
		record[k] = v
	}
	for k, v := range filter {
		record[k] = v
	}

	if err := s.Insert(ctx, table, record); err != nil {
		return nil, err
	}
	s.db.log.Debug("new record",
		zap.String("table", table.Name),
		zap.Any("fields", record))
	return record, nil
}

// Insert stages one record for insertion in the current transaction.
func (s *Session) Insert(ctx context.Context, table *schema.Table, fields Fields) error {
	d := s.db.dialect
	cols := sortedKeys(fields)

	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		quoted[i] = d.Quote(col)
		placeholders[i] = d.Placeholder(i + 1)
		args[i] = fields[col]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.Quote(table.Name),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "))
	if _, err := s.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", table.Name, err)
	}
	return nil
}

// All runs a query and materializes every row as Fields. Convenient
// for small result sets; use Batches for anything that might not fit
// in memory.
func (s *Session) All(ctx context.Context, query string, args ...any) ([]Fields, error) {
	rows, err := s.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFields(rows)
}

// Count returns the number of rows in table, as seen by the current
// transaction.
func (s *Session) Count(ctx context.Context, table *schema.Table) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.db.dialect.Quote(table.Name))
	var n int64
	if err := s.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table.Name, err)
	}
	return n, nil
}

// selectSQL builds a single-row equality lookup over all mapped
// columns. Filter keys are sorted so the statement text is
// deterministic.
func (s *Session) selectSQL(table *schema.Table, filter Fields) (string, []any) {
	d := s.db.dialect

	cols := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		cols[i] = d.Quote(c.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(cols, ", "), d.Quote(table.Name))

	keys := sortedKeys(filter)
	args := make([]any, 0, len(keys))
	for i, key := range keys {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		fmt.Fprintf(&b, "%s = %s", d.Quote(key), d.Placeholder(i+1))
		args = append(args, filter[key])
	}
	b.WriteString(" LIMIT 1")

	return b.String(), args
}

// scanFields reads all remaining rows into Fields maps keyed by the
// result's column names.
func scanFields(rows *sql.Rows) ([]Fields, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Fields
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		record := make(Fields, len(cols))
		for i, col := range cols {
			record[col] = values[i]
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func sortedKeys(fields Fields) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
