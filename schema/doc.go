// Package schema declares database tables and renders them as DDL.
//
// A Schema is a set of named tables with typed columns, supplied by
// the caller at Database construction. The layer only ever creates
// absent tables (CREATE TABLE IF NOT EXISTS); existing tables are
// never altered, and there is no migration machinery.
//
// Column types are a closed set chosen to render portably across the
// supported dialects: for example Text is unbounded unicode text
// (LONGTEXT on MySQL), Binary is a fixed-length byte array (BINARY(n)
// on MySQL, BYTEA on PostgreSQL), and DatetimeMS keeps millisecond
// precision (DATETIME(3) on MySQL, TIMESTAMP(3) on PostgreSQL).
//
// Schemas can be declared in Go or loaded from CUE files; see Load.
package schema
