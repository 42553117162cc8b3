package sqlkit

import (
	"errors"
	"fmt"

	"github.com/roach88/sqlkit/dburl"
)

// ConfigurationError indicates a semantically invalid descriptor or
// option combination. Shared with the resolver so IsConfiguration
// matches errors from either layer.
type ConfigurationError = dburl.ConfigurationError

// IsConfiguration reports whether err is a ConfigurationError.
func IsConfiguration(err error) bool {
	return dburl.IsConfiguration(err)
}

// DatabaseNotFoundError indicates MustExist was set but the target
// database does not exist.
type DatabaseNotFoundError struct {
	// URL is the descriptor of the missing database, redacted.
	URL string
}

// Error implements the error interface.
func (e *DatabaseNotFoundError) Error() string {
	return fmt.Sprintf("database not found: %q", e.URL)
}

// IsNotFound reports whether err is a DatabaseNotFoundError.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var ne *DatabaseNotFoundError
	return errors.As(err, &ne)
}

// ConfirmationRequiredError indicates Drop was called without the
// confirmation flag. The safety gate is deliberate; there is no way to
// bypass it.
type ConfirmationRequiredError struct{}

// Error implements the error interface.
func (e *ConfirmationRequiredError) Error() string {
	return "drop requires explicit confirmation"
}

// IsConfirmationRequired reports whether err is a
// ConfirmationRequiredError.
func IsConfirmationRequired(err error) bool {
	var ce *ConfirmationRequiredError
	return errors.As(err, &ce)
}

// UnsupportedOperationError indicates an operation that is not defined
// for the resolved backend.
type UnsupportedOperationError struct {
	// Op names the operation.
	Op string

	// URL is the redacted descriptor.
	URL string
}

// Error implements the error interface.
func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported operation %s for database %q", e.Op, e.URL)
}

// IsUnsupportedOperation reports whether err is an
// UnsupportedOperationError.
func IsUnsupportedOperation(err error) bool {
	var ue *UnsupportedOperationError
	return errors.As(err, &ue)
}

// DeserializationError indicates a missing or malformed serialized
// message file.
type DeserializationError struct {
	// Path is the file that failed to deserialize.
	Path string

	// Err is the underlying read or decode error.
	Err error
}

// Error implements the error interface.
func (e *DeserializationError) Error() string {
	return fmt.Sprintf("deserializing %q: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *DeserializationError) Unwrap() error {
	return e.Err
}

// IsDeserialization reports whether err is a DeserializationError.
func IsDeserialization(err error) bool {
	var de *DeserializationError
	return errors.As(err, &de)
}

// NotImplementedError indicates a record type opted into the message
// mapping contract but left a required method on the embedded
// UnimplementedMapping. This is a programming error, surfaced at the
// first call rather than silently producing an empty message.
type NotImplementedError struct {
	// Message is the message type the mapping is parameterized over.
	Message string

	// Method is the unimplemented method name.
	Method string
}

// Error implements the error interface.
func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("%s not implemented for message type %s", e.Method, e.Message)
}

// IsNotImplemented reports whether err is a NotImplementedError.
func IsNotImplemented(err error) bool {
	var ne *NotImplementedError
	return errors.As(err, &ne)
}
