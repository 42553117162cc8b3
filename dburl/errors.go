package dburl

import (
	"errors"
	"fmt"
)

// UnsupportedBackendError indicates a descriptor whose scheme does not
// match any supported backend. The full descriptor is preserved for
// diagnostics; it is reported verbatim, so callers holding credentials
// in descriptors should prefer file:// indirection.
type UnsupportedBackendError struct {
	// URL is the descriptor that failed to resolve.
	URL string
}

// Error implements the error interface.
func (e *UnsupportedBackendError) Error() string {
	return fmt.Sprintf("unsupported database URL %q", e.URL)
}

// ConfigurationError indicates a descriptor or option combination that
// is semantically invalid, such as a relative SQLite path or
// must-exist on an in-memory database.
type ConfigurationError struct {
	// Reason describes what was invalid.
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return e.Reason
}

// ResolutionError indicates that a file:// indirection could not be
// followed: the file is missing, the path is not absolute, or the
// indirection chain is too deep.
type ResolutionError struct {
	// Path is the file the indirection pointed at.
	Path string

	// Reason describes why it could not be followed.
	Reason string
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving %q: %s", e.Path, e.Reason)
}

// IsUnsupportedBackend reports whether err is an UnsupportedBackendError.
// Uses errors.As to handle wrapped errors.
func IsUnsupportedBackend(err error) bool {
	var ue *UnsupportedBackendError
	return errors.As(err, &ue)
}

// IsConfiguration reports whether err is a ConfigurationError.
// Uses errors.As to handle wrapped errors.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsResolution reports whether err is a ResolutionError.
// Uses errors.As to handle wrapped errors.
func IsResolution(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}
