// Package errors provides structured error types for pathwaygraph.
//
// Every error that crosses a package boundary carries a machine-readable
// [Code] so hosts (CLI, HTTP server, terminal explorer) can decide how to
// surface it. The layout core only produces three kinds of failure:
//
//   - Structural errors (MISSING_START, DANGLING_TRANSITION): the graph
//     cannot be laid out at all. Hosts must show an explicit fallback
//     instead of a partial diagram.
//   - LAYOUT_FAILED: the layered layout primitive rejected the input. The
//     caller receives an empty layout, never a partial one.
//   - Input errors (INVALID_*): bad flags, bad request bodies, bad ids.
//
// Degenerate geometry and missing measurements are absorbed inside the core
// and never surface as errors.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMissingStart, "pathway %q has no Start node", id)
//	if errors.IsStructural(err) {
//	    // render the "no pathway loaded" fallback
//	}
//
//	err := errors.Wrap(errors.ErrCodeLayoutFailed, cause, "dot layout")
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidEngine Code = "INVALID_ENGINE"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Structural errors: the graph cannot be rendered
	ErrCodeMissingStart       Code = "MISSING_START"
	ErrCodeDanglingTransition Code = "DANGLING_TRANSITION"

	// Layout primitive failures
	ErrCodeLayoutFailed Code = "LAYOUT_FAILED"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
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

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// The outermost *Error in the chain decides.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsStructural reports whether err means the graph itself is not renderable.
func IsStructural(err error) bool {
	switch GetCode(err) {
	case ErrCodeMissingStart, ErrCodeDanglingTransition:
		return true
	default:
		return false
	}
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
