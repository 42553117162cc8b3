// Package testutil provides shared fixtures for the sqlkit test
// suites.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/roach88/sqlkit/schema"
)

// SampleSchema returns the table set used across the test suites: a
// "samples" table with an auto key, a unique name, and optional
// contents.
func SampleSchema() *schema.Schema {
	return &schema.Schema{
		Tables: []*schema.Table{
			{
				Name: "samples",
				Columns: []schema.Column{
					{Name: "id", Type: schema.BigInt, Auto: true},
					{Name: "name", Type: schema.Text},
					{Name: "contents", Type: schema.Text, Nullable: true},
				},
				PrimaryKey: []string{"id"},
				Uniques:    [][]string{{"name"}},
			},
		},
	}
}

// Samples returns the samples table from SampleSchema.
func Samples() *schema.Table {
	return SampleSchema().Table("samples")
}

// DBPath returns a unique database file path under the test's temp
// directory. The file does not exist yet.
func DBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), uuid.NewString()+".db")
}

// FileDescriptor returns the single-file SQLite descriptor for an
// absolute path.
func FileDescriptor(path string) string {
	return "sqlite:///" + path
}
