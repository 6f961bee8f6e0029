package telemetry

import (
	"fmt"

	"github.com/pkg/errors"
)

// TruncatedHeaderError is returned when the stream ends before the version tag is complete.
type TruncatedHeaderError struct {
	// Part is one of "version", "subversion" or "subsubversion".
	Part string
	Need int
	Got  int
}

func (err *TruncatedHeaderError) Error() string {
	return fmt.Sprintf("truncated header: %s needs %d bytes, got %d", err.Part, err.Need, err.Got)
}

// SchemaError is returned for a version, subversion, subsubversion or discriminant byte that
// does not name a registered layout or controller variant.
type SchemaError struct {
	Tag    VersionTag
	Reason string
}

func (err *SchemaError) Error() string {
	return fmt.Sprintf("schema error: %s (version %v)", err.Reason, err.Tag)
}

// LengthError is returned when a record is shorter than its layout requires.
type LengthError struct {
	// Record is the zero-based index of the record in its session, -1 outside of a session.
	Record int
	Need   int
	Got    int
}

func (err *LengthError) Error() string {
	if err.Record < 0 {
		return fmt.Sprintf("length error: record needs %d bytes, got %d", err.Need, err.Got)
	}
	return fmt.Sprintf("length error: record %d needs %d bytes, got %d", err.Record, err.Need, err.Got)
}

func newSchemaError(tag VersionTag, format string, args ...interface{}) *SchemaError {
	return &SchemaError{Tag: tag, Reason: fmt.Sprintf(format, args...)}
}

// IsTruncatedHeader returns true if `err` is or wraps a *TruncatedHeaderError.
func IsTruncatedHeader(err error) bool {
	var target *TruncatedHeaderError
	return errors.As(err, &target)
}

// IsSchemaError returns true if `err` is or wraps a *SchemaError.
func IsSchemaError(err error) bool {
	var target *SchemaError
	return errors.As(err, &target)
}

// IsLengthError returns true if `err` is or wraps a *LengthError.
func IsLengthError(err error) bool {
	var target *LengthError
	return errors.As(err, &target)
}
