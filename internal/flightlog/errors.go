package flightlog

import (
	"fmt"
	"io/fs"
)

// ConfigError reports a log whose declared record size does not match the
// compiled-in record layout. No records can be decoded from such a file.
type ConfigError struct {
	Declared int    // Record size declared by the file header
	Expected int    // Record size of the compiled-in layout
	Version  uint16 // Format version declared by the file header
}

func NewConfigError(declared, expected int, version uint16) *ConfigError {
	return &ConfigError{Declared: declared, Expected: expected, Version: version}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("record size mismatch: file declares %d bytes (format version %d), expected %d",
		e.Declared, e.Version, e.Expected)
}

// TruncatedRecordError describes a trailing partial record. It is not fatal:
// every record before it was decoded, and the partial bytes are dropped.
type TruncatedRecordError struct {
	Offset     int64 // Byte offset of the partial record in the stream
	Length     int   // Number of bytes available
	RecordSize int
}

func (e *TruncatedRecordError) Error() string {
	return fmt.Sprintf("truncated trailing record at offset %d: %d of %d bytes", e.Offset, e.Length, e.RecordSize)
}

// MissingInputError is returned when the log file does not exist.
type MissingInputError struct {
	Path string
	err  error
}

func NewMissingInputError(path string, err error) *MissingInputError {
	return &MissingInputError{Path: path, err: err}
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("log file '%s' does not exist", e.Path)
}

func (e *MissingInputError) Unwrap() error {
	if e.err == nil {
		return fs.ErrNotExist
	}
	return e.err
}
