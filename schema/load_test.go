package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_CorpusSchema(t *testing.T) {
	sch, err := Load(filepath.Join("testdata", "corpus.cue"))
	require.NoError(t, err)
	require.Len(t, sch.Tables, 2)

	samples := sch.Table("samples")
	require.NotNil(t, samples)
	assert.Equal(t, []string{"id", "sha256", "contents", "added_at"}, samples.ColumnNames())

	id := samples.Column("id")
	assert.Equal(t, BigInt, id.Type)
	assert.True(t, id.Auto)
	// An auto column implies the primary key when none is declared.
	assert.Equal(t, []string{"id"}, samples.PrimaryKey)

	sha := samples.Column("sha256")
	assert.Equal(t, Binary, sha.Type)
	assert.Equal(t, 32, sha.Size)
	assert.Equal(t, [][]string{{"sha256"}}, samples.Uniques)

	assert.True(t, samples.Column("contents").Nullable)
	assert.Equal(t, "CURRENT_TIMESTAMP", samples.Column("added_at").Default)

	results := sch.Table("results")
	require.NotNil(t, results)
	assert.Equal(t, []string{"sample_id", "epoch"}, results.PrimaryKey)
}

func TestLoadDir(t *testing.T) {
	sch, err := LoadDir("testdata")
	require.NoError(t, err)
	assert.NotNil(t, sch.Table("samples"))
	assert.NotNil(t, sch.Table("results"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.cue"))
	assert.Error(t, err)
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]struct {
		cue     string
		message string
	}{
		"no tables": {
			cue:     `other: 1`,
			message: "no tables declared",
		},
		"missing columns": {
			cue:     `table: samples: {}`,
			message: "columns is required",
		},
		"unknown type": {
			cue:     `table: samples: columns: [{name: "a", type: "jsonb"}]`,
			message: "unknown column type",
		},
		"missing type": {
			cue:     `table: samples: columns: [{name: "a"}]`,
			message: "column type is required",
		},
		"binary without size": {
			cue:     `table: samples: columns: [{name: "a", type: "binary"}]`,
			message: "positive size",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "schema.cue")
			require.NoError(t, os.WriteFile(path, []byte(tc.cue), 0o644))

			_, err := Load(path)
			var se *SchemaError
			require.ErrorAs(t, err, &se)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}
