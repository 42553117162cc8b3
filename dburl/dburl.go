package dburl

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// Kind identifies a resolved backend. The set is closed: every Resolved
// value carries exactly one Kind, and downstream code dispatches on it
// instead of re-parsing the descriptor.
type Kind int

const (
	// KindSQLiteMemory is an in-process, in-memory SQLite database.
	KindSQLiteMemory Kind = iota

	// KindSQLiteFile is a single-file SQLite database on local disk.
	KindSQLiteFile

	// KindMySQL is a MySQL server database.
	KindMySQL

	// KindPostgres is a PostgreSQL server database.
	KindPostgres
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindSQLiteMemory:
		return "sqlite-memory"
	case KindSQLiteFile:
		return "sqlite-file"
	case KindMySQL:
		return "mysql"
	case KindPostgres:
		return "postgres"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Resolved is a fully resolved connection descriptor. It carries
// everything an engine needs to connect: the driver name, the target
// DSN, and for server backends an admin DSN bound to the server but
// not to the target database (used for existence checks, creation,
// and drops).
type Resolved struct {
	// Kind tags the backend.
	Kind Kind

	// URL is the normalized descriptor after any file:// indirection.
	URL string

	// Driver is the database/sql driver name to open with.
	Driver string

	// DSN is the driver-specific data source name for the target
	// database.
	DSN string

	// AdminDSN connects to the server without selecting the target
	// database. Empty for SQLite kinds.
	AdminDSN string

	// Database is the named database on the server. Empty for SQLite
	// kinds.
	Database string

	// Path is the database file path. Only set for KindSQLiteFile.
	Path string

	redacted string
}

// Redacted returns the descriptor with any password masked. Safe for
// logging.
func (r *Resolved) Redacted() string {
	return r.redacted
}

// Indirection chains deeper than this fail resolution. Guards against
// a file whose contents point back at itself.
const maxIndirection = 10

// Resolve parses and validates a connection descriptor.
//
// For file:// descriptors the referenced file is read, comment lines
// are stripped, and the result is resolved recursively; see the
// package documentation for the grammar.
//
// Errors: *UnsupportedBackendError for an unrecognized scheme,
// *ConfigurationError for a relative SQLite path, *ResolutionError for
// a broken file:// indirection.
func Resolve(descriptor string) (*Resolved, error) {
	return resolve(descriptor, 0)
}

func resolve(descriptor string, depth int) (*Resolved, error) {
	switch {
	case strings.HasPrefix(descriptor, "sqlite://"):
		return resolveSQLite(descriptor)
	case strings.HasPrefix(descriptor, "mysql://"):
		return resolveMySQL(descriptor)
	case strings.HasPrefix(descriptor, "postgresql://"):
		return resolvePostgres(descriptor)
	case strings.HasPrefix(descriptor, "file://"):
		return resolveIndirect(descriptor, depth)
	default:
		return nil, &UnsupportedBackendError{URL: descriptor}
	}
}

// resolveSQLite handles "sqlite://" (in-memory) and
// "sqlite:////absolute/path" (single file). Relative paths are
// rejected: three-slash forms like "sqlite:///relative.db" resolve
// against the working directory, which breaks under sandboxed builds,
// so only the absolute four-slash form is accepted.
func resolveSQLite(descriptor string) (*Resolved, error) {
	if descriptor == "sqlite://" {
		return &Resolved{
			Kind:     KindSQLiteMemory,
			URL:      descriptor,
			Driver:   "sqlite3",
			DSN:      ":memory:",
			redacted: descriptor,
		}, nil
	}

	if !strings.HasPrefix(descriptor, "sqlite:////") {
		return nil, &ConfigurationError{
			Reason: "relative path to SQLite database is not allowed",
		}
	}

	// Strip "sqlite:///", keeping the leading slash of the path.
	path := descriptor[len("sqlite:///"):]
	return &Resolved{
		Kind:     KindSQLiteFile,
		URL:      descriptor,
		Driver:   "sqlite3",
		DSN:      path,
		Path:     path,
		redacted: descriptor,
	}, nil
}

// resolveMySQL parses a mysql:// URL into target and admin DSNs using
// the driver's own Config type, so DSN quoting and parameter encoding
// stay the driver's problem.
func resolveMySQL(descriptor string) (*Resolved, error) {
	u, err := url.Parse(descriptor)
	if err != nil {
		return nil, fmt.Errorf("parse mysql descriptor: %w", err)
	}

	database := strings.TrimPrefix(u.Path, "/")

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = database
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	for key, vals := range u.Query() {
		if len(vals) == 0 {
			continue
		}
		if cfg.Params == nil {
			cfg.Params = map[string]string{}
		}
		cfg.Params[key] = vals[0]
	}

	dsn := cfg.FormatDSN()
	cfg.DBName = ""
	adminDSN := cfg.FormatDSN()

	return &Resolved{
		Kind:     KindMySQL,
		URL:      descriptor,
		Driver:   "mysql",
		DSN:      dsn,
		AdminDSN: adminDSN,
		Database: database,
		redacted: redactURL(u),
	}, nil
}

// resolvePostgres validates a postgresql:// URL via pq.ParseURL and
// derives an admin DSN pointed at the "postgres" maintenance database.
func resolvePostgres(descriptor string) (*Resolved, error) {
	u, err := url.Parse(descriptor)
	if err != nil {
		return nil, fmt.Errorf("parse postgresql descriptor: %w", err)
	}

	dsn, err := pq.ParseURL(descriptor)
	if err != nil {
		return nil, fmt.Errorf("parse postgresql descriptor: %w", err)
	}

	admin := *u
	admin.Path = "/postgres"
	adminDSN, err := pq.ParseURL(admin.String())
	if err != nil {
		return nil, fmt.Errorf("derive postgresql admin descriptor: %w", err)
	}

	return &Resolved{
		Kind:     KindPostgres,
		URL:      descriptor,
		Driver:   "postgres",
		DSN:      dsn,
		AdminDSN: adminDSN,
		Database: strings.TrimPrefix(u.Path, "/"),
		redacted: redactURL(u),
	}, nil
}

// resolveIndirect reads a descriptor from a local file and resolves
// it recursively. The payload is "<path>[?<suffix>]": everything after
// the first '?' is appended verbatim to the file contents.
func resolveIndirect(descriptor string, depth int) (*Resolved, error) {
	if depth >= maxIndirection {
		return nil, &ResolutionError{
			Path:   descriptor,
			Reason: fmt.Sprintf("indirection deeper than %d levels", maxIndirection),
		}
	}

	payload := descriptor[len("file://"):]
	path, suffix, _ := strings.Cut(payload, "?")

	if !filepath.IsAbs(path) {
		return nil, &ResolutionError{
			Path:   path,
			Reason: "relative path to file:// is not allowed",
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ResolutionError{
			Path:   path,
			Reason: fmt.Sprintf("cannot read descriptor file: %v", err),
		}
	}

	// Drop comment lines, join the rest, append the suffix verbatim.
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		lines = append(lines, line)
	}
	inner := strings.TrimSpace(strings.Join(lines, "\n")) + suffix

	return resolve(inner, depth+1)
}

// redactURL formats a server URL with the password masked.
func redactURL(u *url.URL) string {
	if u.User == nil {
		return u.String()
	}
	masked := *u
	if _, has := u.User.Password(); has {
		masked.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return masked.String()
}
