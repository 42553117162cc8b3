package schema

import (
	"fmt"
	"strings"
)

// CreateSQL renders the table as a CREATE TABLE IF NOT EXISTS
// statement for the dialect. The rendering is deterministic: columns
// appear in declaration order, then the primary key, then unique
// constraints.
func (t *Table) CreateSQL(d Dialect) string {
	var defs []string
	for _, c := range t.Columns {
		defs = append(defs, "  "+columnSQL(d, c))
	}

	if pk := t.tableLevelPrimaryKey(); len(pk) > 0 {
		defs = append(defs, fmt.Sprintf("  PRIMARY KEY (%s)", quoteList(d, pk)))
	}
	for _, unique := range t.Uniques {
		defs = append(defs, fmt.Sprintf("  UNIQUE (%s)", quoteList(d, unique)))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)",
		d.Quote(t.Name), strings.Join(defs, ",\n"))
}

// tableLevelPrimaryKey returns the primary key columns, or nil when
// the key is a single Auto column (those render the key inline).
func (t *Table) tableLevelPrimaryKey() []string {
	if len(t.PrimaryKey) == 1 {
		if c := t.Column(t.PrimaryKey[0]); c != nil && c.Auto {
			return nil
		}
	}
	return t.PrimaryKey
}

func columnSQL(d Dialect, c Column) string {
	parts := []string{d.Quote(c.Name)}

	if c.Auto {
		parts = append(parts, autoSQL(d, c.Type))
		return strings.Join(parts, " ")
	}

	parts = append(parts, typeSQL(d, c.Type, c.Size))
	if !c.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if c.Default != "" {
		parts = append(parts, "DEFAULT "+c.Default)
	}
	return strings.Join(parts, " ")
}

// autoSQL renders an auto-assigned integer primary key. SQLite needs
// the exact INTEGER PRIMARY KEY spelling to alias the rowid; the
// others use their native auto mechanisms.
func autoSQL(d Dialect, t Type) string {
	switch d {
	case DialectSQLite:
		return "INTEGER PRIMARY KEY"
	case DialectMySQL:
		return typeSQL(d, t, 0) + " NOT NULL AUTO_INCREMENT PRIMARY KEY"
	case DialectPostgres:
		if t == BigInt {
			return "BIGSERIAL PRIMARY KEY"
		}
		return "SERIAL PRIMARY KEY"
	default:
		return ""
	}
}

func typeSQL(d Dialect, t Type, size int) string {
	switch t {
	case Integer:
		return "INTEGER"
	case BigInt:
		if d == DialectSQLite {
			// SQLite integers are 64-bit already.
			return "INTEGER"
		}
		return "BIGINT"
	case Bool:
		return "BOOLEAN"
	case Float:
		if d == DialectSQLite {
			return "REAL"
		}
		return "DOUBLE PRECISION"
	case Text:
		if d == DialectMySQL {
			// Unbounded unicode text. 2^32 chars should be enough.
			return "LONGTEXT"
		}
		return "TEXT"
	case Binary:
		switch d {
		case DialectMySQL:
			return fmt.Sprintf("BINARY(%d)", size)
		case DialectPostgres:
			return "BYTEA"
		default:
			return "BLOB"
		}
	case DatetimeMS:
		switch d {
		case DialectMySQL:
			return "DATETIME(3)"
		case DialectPostgres:
			return "TIMESTAMP(3)"
		default:
			return "DATETIME"
		}
	default:
		return ""
	}
}

func quoteList(d Dialect, names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.Quote(n)
	}
	return strings.Join(quoted, ", ")
}
