package sqlkit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleMessage is the serialization form paired with sampleRecord.
type sampleMessage struct {
	Name      string `yaml:"name"`
	Contents  string `yaml:"contents"`
	LineCount int64  `yaml:"line_count"`
}

// sampleRecord implements the full mapping contract.
type sampleRecord struct {
	Name      string
	Contents  string
	LineCount int64
}

func (r sampleRecord) SetMessage(msg *sampleMessage) error {
	msg.Name = r.Name
	msg.Contents = r.Contents
	msg.LineCount = r.LineCount
	return nil
}

func (r sampleRecord) FromMessage(msg *sampleMessage) (Fields, error) {
	return Fields{
		"name":       msg.Name,
		"contents":   msg.Contents,
		"line_count": msg.LineCount,
	}, nil
}

// stubRecord opts into the contract but implements nothing.
type stubRecord struct {
	UnimplementedMapping[sampleMessage]
}

var (
	_ MessageBacked[sampleMessage] = sampleRecord{}
	_ MessageBacked[sampleMessage] = stubRecord{}
)

func (r sampleRecord) fields() Fields {
	return Fields{
		"name":       r.Name,
		"contents":   r.Contents,
		"line_count": r.LineCount,
	}
}

func TestMapping_RoundTrip(t *testing.T) {
	records := map[string]sampleRecord{
		"all fields populated": {Name: "kernel_a", Contents: "int main() {}", LineCount: 1},
		"all fields empty":     {},
		"boundary values": {
			Name:      strings.Repeat("n", 255),
			Contents:  strings.Repeat("x", 1<<16),
			LineCount: 1<<63 - 1,
		},
	}

	for name, record := range records {
		t.Run(name, func(t *testing.T) {
			msg, err := ToMessage[sampleMessage](record)
			require.NoError(t, err)

			fields, err := record.FromMessage(msg)
			require.NoError(t, err)
			assert.Equal(t, record.fields(), fields)
		})
	}
}

func TestMapping_UnimplementedFailsLoudly(t *testing.T) {
	_, err := ToMessage[sampleMessage](stubRecord{})
	require.True(t, IsNotImplemented(err))
	assert.Contains(t, err.Error(), "SetMessage")

	_, err = stubRecord{}.FromMessage(&sampleMessage{})
	require.True(t, IsNotImplemented(err))
	assert.Contains(t, err.Error(), "FromMessage")
}

func TestFieldsFromFile_RoundTrip(t *testing.T) {
	record := sampleRecord{Name: "kernel_a", Contents: "kernel void a() {}", LineCount: 1}
	path := filepath.Join(t.TempDir(), "sample.yaml")
	require.NoError(t, WriteMessageFile[sampleMessage](record, path))

	fields, err := FieldsFromFile[sampleMessage](sampleRecord{}, path)
	require.NoError(t, err)
	assert.Equal(t, record.fields(), fields)
}

func TestFieldsFromFile_MissingFile(t *testing.T) {
	_, err := FieldsFromFile[sampleMessage](sampleRecord{},
		filepath.Join(t.TempDir(), "absent.yaml"))
	require.True(t, IsDeserialization(err))
}

func TestFieldsFromFile_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [unterminated"), 0o644))

	_, err := FieldsFromFile[sampleMessage](sampleRecord{}, path)
	require.True(t, IsDeserialization(err))

	var de *DeserializationError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, path, de.Path)
}

func TestFieldsFromFile_DelegatesToFromMessage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: from_disk\nline_count: 3\n"), 0o644))

	_, err := FieldsFromFile[sampleMessage](stubRecord{}, path)
	// Deserialization succeeded; the unimplemented FromMessage is what
	// fails.
	require.True(t, IsNotImplemented(err))
}
