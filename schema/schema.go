package schema

import (
	"fmt"
	"strings"
)

// Dialect identifies a SQL dialect for DDL rendering, identifier
// quoting, and statement placeholders. The set is closed and mirrors
// the supported backend kinds.
type Dialect int

const (
	// DialectSQLite renders for SQLite.
	DialectSQLite Dialect = iota

	// DialectMySQL renders for MySQL.
	DialectMySQL

	// DialectPostgres renders for PostgreSQL.
	DialectPostgres
)

// String returns the dialect's name.
func (d Dialect) String() string {
	switch d {
	case DialectSQLite:
		return "sqlite"
	case DialectMySQL:
		return "mysql"
	case DialectPostgres:
		return "postgres"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// Quote returns ident quoted for the dialect. MySQL only accepts
// backticks for identifier quoting; the others use double quotes.
func (d Dialect) Quote(ident string) string {
	if d == DialectMySQL {
		return "`" + ident + "`"
	}
	return `"` + ident + `"`
}

// Placeholder returns the n-th statement placeholder (1-based).
// PostgreSQL numbers its placeholders; the others are positional.
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Type is a portable column type.
type Type int

const (
	// Integer is a 32-bit integer.
	Integer Type = iota

	// BigInt is a 64-bit integer.
	BigInt

	// Bool is a boolean.
	Bool

	// Float is a double-precision float.
	Float

	// Text is unbounded unicode text.
	Text

	// Binary is a fixed-length byte array; Column.Size gives the
	// length.
	Binary

	// DatetimeMS is a datetime with millisecond precision.
	DatetimeMS
)

// String returns the type's name as used in CUE schema files.
func (t Type) String() string {
	switch t {
	case Integer:
		return "integer"
	case BigInt:
		return "bigint"
	case Bool:
		return "bool"
	case Float:
		return "float"
	case Text:
		return "text"
	case Binary:
		return "binary"
	case DatetimeMS:
		return "datetime"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// TypeFromName returns the Type named by s, as used in CUE schema
// files.
func TypeFromName(s string) (Type, error) {
	switch s {
	case "integer":
		return Integer, nil
	case "bigint":
		return BigInt, nil
	case "bool":
		return Bool, nil
	case "float":
		return Float, nil
	case "text":
		return Text, nil
	case "binary":
		return Binary, nil
	case "datetime":
		return DatetimeMS, nil
	default:
		return 0, fmt.Errorf("unknown column type %q", s)
	}
}

// Column is one typed column in a table.
type Column struct {
	// Name is the column name.
	Name string

	// Type is the portable column type.
	Type Type

	// Size is the length for Binary columns; ignored otherwise.
	Size int

	// Nullable permits NULL values. Columns are NOT NULL by default.
	Nullable bool

	// Auto marks an auto-assigned integer key. Must be the table's
	// single primary key column.
	Auto bool

	// Default is a raw SQL default expression, rendered verbatim.
	Default string
}

// Table is a named table definition.
type Table struct {
	// Name is the table name.
	Name string

	// Columns are the table's columns, in declaration order.
	Columns []Column

	// PrimaryKey names the primary key columns.
	PrimaryKey []string

	// Uniques are sets of column names, each rendered as a UNIQUE
	// constraint.
	Uniques [][]string
}

// ColumnNames returns the names of all columns in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// Schema is a set of table definitions.
type Schema struct {
	// Tables are the declared tables.
	Tables []*Table
}

// Table returns the named table, or nil.
func (s *Schema) Table(name string) *Table {
	for _, t := range s.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// TableName converts a CamelCaps Go type name to a snake_case table
// name, e.g. "TrainingSample" becomes "training_sample". Use this to
// keep table naming consistent with record type naming without
// inheriting it from anywhere.
func TableName(goName string) string {
	var b strings.Builder
	for i, r := range goName {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
