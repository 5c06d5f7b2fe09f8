// Package errors defines the error taxonomy of a flowmap run.
//
// Every failure that leaves a package boundary carries a [Code] so the CLI
// can report it and tests can assert on it without string matching:
//
//	err := errors.New(errors.CodeInvalidSource, "vertex %d out of range", v)
//	if errors.Is(err, errors.CodeInvalidSource) {
//	    // ...
//	}
//
// None of these errors is retried. A run either completes or stops at the
// first coded error.
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error category.
type Code string

const (
	// CodeIO means the graph source could not be read or was truncated.
	CodeIO Code = "IO"
	// CodeMalformedRecord means record counts, sizes or indices are inconsistent.
	CodeMalformedRecord Code = "MALFORMED_RECORD"
	// CodeInvalidSource means the shortest-path source vertex is out of range.
	CodeInvalidSource Code = "INVALID_SOURCE"
	// CodeNotFound means an external node identifier is absent from the graph.
	CodeNotFound Code = "NOT_FOUND"
	// CodePersistence means the spatial store was unreachable or a write failed.
	CodePersistence Code = "PERSISTENCE"
	// CodeRender means the canvas or document sink failed.
	CodeRender Code = "RENDER"
	// CodeInvalidInput means options or configuration were rejected.
	CodeInvalidInput Code = "INVALID_INPUT"
	// CodeCache means the result cache failed. Callers treat it as a miss.
	CodeCache Code = "CACHE"
)

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an Error wrapping cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether any *Error in err's chain has the given code.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode returns the code of the outermost *Error in err's chain,
// or the empty string if there is none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message without the code prefix.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}
