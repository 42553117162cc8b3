package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableName(t *testing.T) {
	cases := map[string]string{
		"Sample":           "sample",
		"TrainingSample":   "training_sample",
		"PreprocessedFile": "preprocessed_file",
		"lowercase":        "lowercase",
		"ABC":              "a_b_c",
	}
	for in, want := range cases {
		assert.Equal(t, want, TableName(in), "TableName(%q)", in)
	}
}

func TestDialect_Quote(t *testing.T) {
	assert.Equal(t, "`samples`", DialectMySQL.Quote("samples"))
	assert.Equal(t, `"samples"`, DialectSQLite.Quote("samples"))
	assert.Equal(t, `"samples"`, DialectPostgres.Quote("samples"))
}

func TestDialect_Placeholder(t *testing.T) {
	assert.Equal(t, "?", DialectSQLite.Placeholder(1))
	assert.Equal(t, "?", DialectMySQL.Placeholder(3))
	assert.Equal(t, "$1", DialectPostgres.Placeholder(1))
	assert.Equal(t, "$3", DialectPostgres.Placeholder(3))
}

func TestTable_ColumnNames(t *testing.T) {
	table := &Table{
		Name: "samples",
		Columns: []Column{
			{Name: "id", Type: BigInt},
			{Name: "name", Type: Text},
		},
	}
	assert.Equal(t, []string{"id", "name"}, table.ColumnNames())
	assert.Equal(t, Text, table.Column("name").Type)
	assert.Nil(t, table.Column("missing"))
}

func TestTypeFromName_RoundTrip(t *testing.T) {
	for _, typ := range []Type{Integer, BigInt, Bool, Float, Text, Binary, DatetimeMS} {
		got, err := TypeFromName(typ.String())
		assert.NoError(t, err)
		assert.Equal(t, typ, got)
	}

	_, err := TypeFromName("jsonb")
	assert.Error(t, err)
}
