package books

import (
	"fmt"
	"strings"
)

// ErrorCode identifies the kind of failure reported by a store.
type ErrorCode string

const (
	// CodeDuplicateSignature is returned when a present Signature is already used by another record
	CodeDuplicateSignature ErrorCode = "DUPLICATE_SIGNATURE"
	// CodeRecordNotFound is returned when no record matches the lookup ISBN
	CodeRecordNotFound ErrorCode = "RECORD_NOT_FOUND"
	// CodeInvalidIndex is returned when a position is outside the record list
	CodeInvalidIndex ErrorCode = "INVALID_INDEX"
	// CodeSchemaMismatch is returned when a source lacks required columns
	CodeSchemaMismatch ErrorCode = "SCHEMA_MISMATCH"
	// CodeIO is returned when a file or database cannot be accessed
	CodeIO ErrorCode = "IO_ERROR"
	// CodeEmptyExport is returned when there is nothing to export
	CodeEmptyExport ErrorCode = "EMPTY_EXPORT"
	// CodeUnsupported is returned when a backend lacks an operation
	CodeUnsupported ErrorCode = "UNSUPPORTED"
)

// Error is a store failure with a code, a message and optional details.
//
// Two errors match with errors.Is when their codes are equal, so callers can
// compare against the Err* sentinels.
type Error struct {
	code       ErrorCode
	message    string
	details    map[string]any
	wrappedErr error
}

// Sentinels for errors.Is.
var (
	ErrDuplicateSignature = &Error{code: CodeDuplicateSignature, message: "signature already exists"}
	ErrRecordNotFound     = &Error{code: CodeRecordNotFound, message: "record not found"}
	ErrInvalidIndex       = &Error{code: CodeInvalidIndex, message: "invalid record index"}
	ErrSchemaMismatch     = &Error{code: CodeSchemaMismatch, message: "missing required columns"}
	ErrIO                 = &Error{code: CodeIO, message: "i/o error"}
	ErrEmptyExport        = &Error{code: CodeEmptyExport, message: "no records to export"}
	ErrUnsupported        = &Error{code: CodeUnsupported, message: "operation not supported"}
)

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		code:    code,
		message: message,
		details: make(map[string]any),
	}
}

// WithDetail adds a single detail to the error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.details == nil {
		e.details = make(map[string]any)
	}
	e.details[key] = value
	return e
}

// Wrap wraps an underlying error.
func (e *Error) Wrap(err error) *Error {
	e.wrappedErr = err
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.wrappedErr != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrappedErr)
	}
	return e.message
}

// Code returns the error code.
func (e *Error) Code() ErrorCode {
	return e.code
}

// Details returns additional error details.
func (e *Error) Details() map[string]any {
	return e.details
}

// Unwrap returns the wrapped error if any.
func (e *Error) Unwrap() error {
	return e.wrappedErr
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.code == e.code
}

// ExitCode maps the error to a process exit status for the command line
// front-ends.
func (e *Error) ExitCode() int {
	switch e.code {
	case CodeEmptyExport:
		return 0
	case CodeUnsupported:
		return 2
	case CodeDuplicateSignature:
		return 3
	case CodeRecordNotFound:
		return 4
	case CodeInvalidIndex:
		return 5
	case CodeSchemaMismatch:
		return 6
	case CodeIO:
		return 7
	}
	return 1
}

// DuplicateSignature reports a Signature collision on add, update or import.
func DuplicateSignature(signature string) *Error {
	return NewError(CodeDuplicateSignature, fmt.Sprintf("signature %q already exists", signature)).
		WithDetail("signature", signature)
}

// RecordNotFound reports an update whose lookup ISBN matched nothing.
func RecordNotFound(isbn string) *Error {
	return NewError(CodeRecordNotFound, fmt.Sprintf("book with ISBN %q not found", isbn)).
		WithDetail("isbn", isbn)
}

// InvalidIndex reports a position outside [0, n).
func InvalidIndex(pos, n int) *Error {
	return NewError(CodeInvalidIndex, fmt.Sprintf("invalid record index %d (%d records)", pos, n)).
		WithDetail("index", pos).
		WithDetail("count", n)
}

// SchemaMismatch reports the required columns absent from a source header.
func SchemaMismatch(missing []string) *Error {
	return NewError(CodeSchemaMismatch, "missing required columns: "+strings.Join(missing, ", ")).
		WithDetail("missing", missing)
}

// IOError wraps a file or database access failure.
func IOError(op string, err error) *Error {
	return NewError(CodeIO, op).Wrap(err)
}

// EmptyExport reports an export of zero records. It is a warning, not a
// failure.
func EmptyExport() *Error {
	return NewError(CodeEmptyExport, "no records to export")
}

// Unsupported reports an operation the backend does not provide.
func Unsupported(op string) *Error {
	return NewError(CodeUnsupported, op+" is not supported by this backend").WithDetail("operation", op)
}
