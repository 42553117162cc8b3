package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"
)

// SchemaError is a schema declaration error with CUE position
// information when available.
type SchemaError struct {
	// Table is the table being parsed, if known.
	Table string

	// Field is the offending field, if known.
	Field string

	// Message is a human-readable description.
	Message string

	// Pos is the CUE source position, if available.
	Pos token.Pos
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	msg := e.Message
	if e.Table != "" && e.Field != "" {
		msg = fmt.Sprintf("table %s, field %s: %s", e.Table, e.Field, e.Message)
	} else if e.Table != "" {
		msg = fmt.Sprintf("table %s: %s", e.Table, e.Message)
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), msg)
	}
	return msg
}

// Load reads a schema declaration from a single CUE file.
//
// The file declares tables under the "table" field:
//
//	table: samples: {
//		columns: [
//			{name: "id", type: "bigint", auto: true},
//			{name: "sha256", type: "binary", size: 32},
//			{name: "contents", type: "text"},
//		]
//		unique: [["sha256"]]
//	}
//
// Column types are the names accepted by TypeFromName.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}

	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, &SchemaError{Message: fmt.Sprintf("compiling CUE: %v", err)}
	}

	return compileSchema(value)
}

// LoadDir loads a schema from every CUE file directly inside a
// directory, merged into a single declaration. Declaring the same
// table in two files is an error.
func LoadDir(dir string) (*Schema, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read schema directory: %w", err)
	}

	merged := &Schema{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".cue" {
			continue
		}
		sch, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		for _, table := range sch.Tables {
			if merged.Table(table.Name) != nil {
				return nil, &SchemaError{
					Table:   table.Name,
					Message: fmt.Sprintf("table declared twice (second time in %s)", entry.Name()),
				}
			}
			merged.Tables = append(merged.Tables, table)
		}
	}

	if len(merged.Tables) == 0 {
		return nil, &SchemaError{
			Message: fmt.Sprintf("no CUE schema files found in %s", dir),
		}
	}
	return merged, nil
}

// compileSchema walks the "table" field of a CUE value and builds the
// schema.
func compileSchema(value cue.Value) (*Schema, error) {
	tablesVal := value.LookupPath(cue.ParsePath("table"))
	if !tablesVal.Exists() {
		return nil, &SchemaError{
			Message: "no tables declared (expected a top-level \"table\" field)",
			Pos:     value.Pos(),
		}
	}

	iter, err := tablesVal.Fields()
	if err != nil {
		return nil, &SchemaError{
			Message: fmt.Sprintf("iterating tables: %v", err),
			Pos:     tablesVal.Pos(),
		}
	}

	sch := &Schema{}
	for iter.Next() {
		table, err := compileTable(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		sch.Tables = append(sch.Tables, table)
	}

	if len(sch.Tables) == 0 {
		return nil, &SchemaError{
			Message: "at least one table is required",
			Pos:     tablesVal.Pos(),
		}
	}
	return sch, nil
}

func compileTable(name string, v cue.Value) (*Table, error) {
	table := &Table{Name: name}

	colsVal := v.LookupPath(cue.ParsePath("columns"))
	if !colsVal.Exists() {
		return nil, &SchemaError{
			Table:   name,
			Field:   "columns",
			Message: "columns is required",
			Pos:     v.Pos(),
		}
	}
	colIter, err := colsVal.List()
	if err != nil {
		return nil, &SchemaError{
			Table:   name,
			Field:   "columns",
			Message: fmt.Sprintf("columns must be a list: %v", err),
			Pos:     colsVal.Pos(),
		}
	}
	for colIter.Next() {
		col, err := compileColumn(name, colIter.Value())
		if err != nil {
			return nil, err
		}
		table.Columns = append(table.Columns, col)
	}
	if len(table.Columns) == 0 {
		return nil, &SchemaError{
			Table:   name,
			Field:   "columns",
			Message: "at least one column is required",
			Pos:     colsVal.Pos(),
		}
	}

	table.PrimaryKey, err = stringList(v.LookupPath(cue.ParsePath("primaryKey")))
	if err != nil {
		return nil, &SchemaError{
			Table:   name,
			Field:   "primaryKey",
			Message: err.Error(),
			Pos:     v.Pos(),
		}
	}

	uniqueVal := v.LookupPath(cue.ParsePath("unique"))
	if uniqueVal.Exists() {
		uniqueIter, err := uniqueVal.List()
		if err != nil {
			return nil, &SchemaError{
				Table:   name,
				Field:   "unique",
				Message: fmt.Sprintf("unique must be a list of column lists: %v", err),
				Pos:     uniqueVal.Pos(),
			}
		}
		for uniqueIter.Next() {
			cols, err := stringList(uniqueIter.Value())
			if err != nil {
				return nil, &SchemaError{
					Table:   name,
					Field:   "unique",
					Message: err.Error(),
					Pos:     uniqueIter.Value().Pos(),
				}
			}
			table.Uniques = append(table.Uniques, cols)
		}
	}

	// Auto columns imply a single-column primary key; declaring one in
	// CUE without primaryKey is the common case.
	for _, c := range table.Columns {
		if c.Auto && len(table.PrimaryKey) == 0 {
			table.PrimaryKey = []string{c.Name}
		}
	}

	return table, nil
}

func compileColumn(tableName string, v cue.Value) (Column, error) {
	var col Column

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return col, &SchemaError{
			Table:   tableName,
			Field:   "columns",
			Message: "column name is required",
			Pos:     v.Pos(),
		}
	}
	name, err := nameVal.String()
	if err != nil {
		return col, &SchemaError{
			Table:   tableName,
			Field:   "columns",
			Message: fmt.Sprintf("column name must be a string: %v", err),
			Pos:     nameVal.Pos(),
		}
	}
	col.Name = name

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return col, &SchemaError{
			Table:   tableName,
			Field:   name,
			Message: "column type is required",
			Pos:     v.Pos(),
		}
	}
	typeName, err := typeVal.String()
	if err != nil {
		return col, &SchemaError{
			Table:   tableName,
			Field:   name,
			Message: fmt.Sprintf("column type must be a string: %v", err),
			Pos:     typeVal.Pos(),
		}
	}
	col.Type, err = TypeFromName(typeName)
	if err != nil {
		return col, &SchemaError{
			Table:   tableName,
			Field:   name,
			Message: err.Error(),
			Pos:     typeVal.Pos(),
		}
	}

	if sizeVal := v.LookupPath(cue.ParsePath("size")); sizeVal.Exists() {
		size, err := sizeVal.Int64()
		if err != nil {
			return col, &SchemaError{
				Table:   tableName,
				Field:   name,
				Message: fmt.Sprintf("size must be an integer: %v", err),
				Pos:     sizeVal.Pos(),
			}
		}
		col.Size = int(size)
	}
	if col.Type == Binary && col.Size <= 0 {
		return col, &SchemaError{
			Table:   tableName,
			Field:   name,
			Message: "binary columns require a positive size",
			Pos:     v.Pos(),
		}
	}

	if b, ok, err := boolField(v, "nullable"); err != nil {
		return col, &SchemaError{Table: tableName, Field: name, Message: err.Error(), Pos: v.Pos()}
	} else if ok {
		col.Nullable = b
	}
	if b, ok, err := boolField(v, "auto"); err != nil {
		return col, &SchemaError{Table: tableName, Field: name, Message: err.Error(), Pos: v.Pos()}
	} else if ok {
		col.Auto = b
	}

	if defVal := v.LookupPath(cue.ParsePath("default")); defVal.Exists() {
		def, err := defVal.String()
		if err != nil {
			return col, &SchemaError{
				Table:   tableName,
				Field:   name,
				Message: fmt.Sprintf("default must be a string: %v", err),
				Pos:     defVal.Pos(),
			}
		}
		col.Default = def
	}

	return col, nil
}

func boolField(v cue.Value, field string) (value, present bool, err error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return false, false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, true, fmt.Errorf("%s must be a bool: %v", field, err)
	}
	return b, true, nil
}

func stringList(v cue.Value) ([]string, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, fmt.Errorf("expected a list of strings: %v", err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, fmt.Errorf("expected a string: %v", err)
		}
		out = append(out, s)
	}
	return out, nil
}
