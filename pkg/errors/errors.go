// Package errors provides structured error types for stippler.
//
// Error codes let the CLI, the HTTP API and library callers tell apart the
// three failure classes of a relaxation run:
//   - DEGENERATE_GEOMETRY: zero-extent diagram bounds, empty or oversized cell
//     boundaries. The current pass is aborted.
//   - INDEX_MISMATCH: the partition and the point array disagree on the number
//     of sites. Fatal for the run.
//   - INVALID_*: bad user input (options, files, formats).
//
// An empty cell (zero accumulated weight) is a normal outcome and never an error.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeDegenerateGeometry, "cell %d has no vertices", i)
//	if errors.Is(err, errors.ErrCodeDegenerateGeometry) {
//	    // abort the pass
//	}
//
//	err := errors.Wrap(errors.ErrCodeInvalidImage, origErr, "decode %s", path)
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
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidImage    Code = "INVALID_IMAGE"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidPolarity Code = "INVALID_POLARITY"
	ErrCodeInvalidSeeding  Code = "INVALID_SEEDING"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"

	// Geometry errors raised by the relaxation core
	ErrCodeDegenerateGeometry Code = "DEGENERATE_GEOMETRY"
	ErrCodeIndexMismatch      Code = "INDEX_MISMATCH"

	// Resource errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeNetwork      Code = "NETWORK_ERROR"

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
// It unwraps the error chain looking for an *Error with a matching code.
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

// IsInputError reports whether err was caused by the caller's input rather
// than by an internal failure. The HTTP API maps these to 400 responses.
func IsInputError(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidImage, ErrCodeInvalidFormat,
		ErrCodeInvalidPolarity, ErrCodeInvalidSeeding, ErrCodeInvalidPath,
		ErrCodeInvalidConfig, ErrCodeDegenerateGeometry:
		return true
	}
	return false
}
