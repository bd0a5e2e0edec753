// Package protosql extends an embedded SQLite database with the ability to
// treat protobuf-serialized blob columns as first-class, queryable data.
//
// See the sub-packages for the actual machinery:
//
//   - protoreflectx: per-thread prototype/message cache
//   - pathlang: the "$.a.b[i]" path mini-language parser
//   - extract: path extraction, JSON/text conversion, enum lookup
//   - prototable: declarative proto-table schema compiler and installer
//   - txbatch: reentrant transaction batching for bulk ingestion
//   - rowio: streaming row reader/writer for proto-table rows
//   - protosqlite: registers every SQL function against a *sql.DB
package protosql

import (
	"errors"
	"fmt"
)

// Sentinel errors for the conditions spec'd as recoverable-by-signature
// rather than by typed inspection.
var (
	// ErrInvalidPath is returned when a path expression does not start
	// with "$" or otherwise fails to parse.
	ErrInvalidPath = errors.New("protosql: invalid path")

	// ErrFieldNotFound is returned when a path step names a field that
	// does not exist on the current message.
	ErrFieldNotFound = errors.New("protosql: invalid field name")

	// ErrEnumValueNotFound is returned when an enum-suffix step (".name")
	// cannot resolve the underlying numeric value to a symbol.
	ErrEnumValueNotFound = errors.New("protosql: enum value not found")

	// ErrNonMessageTraversal is returned when a path continues past a
	// scalar, non-enum field.
	ErrNonMessageTraversal = errors.New("protosql: path traverses non-message elements")

	// ErrWrongArity is returned when protobuf_extract is called with
	// anything other than 3 or 4 arguments.
	ErrWrongArity = errors.New("protosql: wrong number of arguments")

	// ErrTypeNotFound is returned when a fully qualified message name
	// cannot be resolved in the process-wide descriptor registry.
	ErrTypeNotFound = errors.New("protosql: message type not found")
)

// PathError carries the offending path alongside one of the sentinel
// traversal errors above, so callers that want the path back (for a SQL
// error message) don't have to re-derive it.
type PathError struct {
	Path string
	Err  error
}

// Error returns the error string.
func (e *PathError) Error() string {
	return fmt.Sprintf("protosql: %s: %q", e.Err, e.Path)
}

// Unwrap returns the underlying sentinel error.
func (e *PathError) Unwrap() error {
	return e.Err
}

// NewPathError wraps err with the offending path.
func NewPathError(path string, err error) *PathError {
	return &PathError{Path: path, Err: err}
}

// IsInvalidPath returns true if err is, or wraps, ErrInvalidPath.
func IsInvalidPath(err error) bool {
	return errors.Is(err, ErrInvalidPath)
}

// ParseError represents a protobuf, JSON, or text-format decode failure
// encountered while parsing a user-supplied payload.
type ParseError struct {
	Format  string // "protobuf", "json", or "text"
	Message string // fully qualified message name
	Err     error
}

// Error returns the error string.
func (e *ParseError) Error() string {
	return fmt.Sprintf("protosql: failed to parse %s as %s: %v", e.Format, e.Message, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError returns a new ParseError.
func NewParseError(format, message string, err error) *ParseError {
	return &ParseError{Format: format, Message: message, Err: err}
}

// IsParseError returns true if the error is a ParseError.
func IsParseError(err error) bool {
	var e *ParseError
	return errors.As(err, &e)
}

// SerializeError represents a failure to re-encode a message, e.g. when
// emitting the blob result of a path that terminates on a submessage.
type SerializeError struct {
	Message string
	Err     error
}

// Error returns the error string.
func (e *SerializeError) Error() string {
	return fmt.Sprintf("protosql: failed to serialize %s: %v", e.Message, e.Err)
}

// Unwrap returns the underlying encode error.
func (e *SerializeError) Unwrap() error {
	return e.Err
}

// NewSerializeError returns a new SerializeError.
func NewSerializeError(message string, err error) *SerializeError {
	return &SerializeError{Message: message, Err: err}
}

// InstallError wraps an error encountered while installing the DDL script
// for a proto-table, together with the table name, per spec.md's "surfaces
// the error and the table name" requirement.
type InstallError struct {
	Table string
	Err   error
}

// Error returns the error string.
func (e *InstallError) Error() string {
	return fmt.Sprintf("protosql: installing proto-table %q: %v", e.Table, e.Err)
}

// Unwrap returns the underlying error.
func (e *InstallError) Unwrap() error {
	return e.Err
}

// NewInstallError returns a new InstallError.
func NewInstallError(table string, err error) *InstallError {
	return &InstallError{Table: table, Err: err}
}

// IsInstallError returns true if the error is an InstallError.
func IsInstallError(err error) bool {
	var e *InstallError
	return errors.As(err, &e)
}
