package sqlkit

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MessageBacked is the serialization capability a record type opts
// into. M is the record's paired message type: a plain struct
// serialized as YAML.
//
// A record type declares the pairing by implementing both methods, or
// by embedding UnimplementedMapping[M] and overriding them. Leaving a
// method on the embedded zero implementation is a programming error
// that surfaces as NotImplementedError at the first call; the mapping
// never silently produces an empty message.
type MessageBacked[M any] interface {
	// SetMessage populates msg from the record's fields.
	SetMessage(msg *M) error

	// FromMessage produces constructor fields for a new record from
	// msg. The receiver's own field values are not consulted; a zero
	// record works.
	FromMessage(msg *M) (Fields, error)
}

// UnimplementedMapping reserves the MessageBacked contract for a
// record type without implementing it. Embed it and override both
// methods.
type UnimplementedMapping[M any] struct{}

// SetMessage fails with NotImplementedError.
func (UnimplementedMapping[M]) SetMessage(msg *M) error {
	return &NotImplementedError{Message: messageName[M](), Method: "SetMessage"}
}

// FromMessage fails with NotImplementedError.
func (UnimplementedMapping[M]) FromMessage(msg *M) (Fields, error) {
	return nil, &NotImplementedError{Message: messageName[M](), Method: "FromMessage"}
}

// ToMessage builds a fully populated message from a record.
func ToMessage[M any](record MessageBacked[M]) (*M, error) {
	msg := new(M)
	if err := record.SetMessage(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// FieldsFromFile reads a serialized message from the file at path and
// produces constructor fields for a new record:
//
//	fields, err := sqlkit.FieldsFromFile[SampleMessage](Sample{}, path)
//	...
//	record, err := session.GetOrCreate(ctx, samples, fields, nil)
//
// Missing or malformed files fail with DeserializationError.
func FieldsFromFile[M any](record MessageBacked[M], path string) (Fields, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DeserializationError{Path: path, Err: err}
	}
	msg := new(M)
	if err := yaml.Unmarshal(data, msg); err != nil {
		return nil, &DeserializationError{Path: path, Err: err}
	}
	return record.FromMessage(msg)
}

// WriteMessageFile serializes a record's message to the file at path.
// The inverse of FieldsFromFile.
func WriteMessageFile[M any](record MessageBacked[M], path string) error {
	msg, err := ToMessage(record)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(msg)
	if err != nil {
		return fmt.Errorf("serialize message: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write message file: %w", err)
	}
	return nil
}

func messageName[M any]() string {
	return fmt.Sprintf("%T", *new(M))
}
