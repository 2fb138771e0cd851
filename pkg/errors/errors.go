// Package errors provides structured error types for npmmeta.
//
// Every failure that crosses a package boundary carries a machine-readable
// [Code]. The HTTP server maps codes to status codes with [HTTPStatus] and
// batch items report [UserMessage], which is the message without the code
// prefix.
//
// # Error Codes
//
//   - INVALID_SPECIFIER: the specifier could not be parsed or is not a valid npm name
//   - UNSUPPORTED_SPECIFIER: the specifier parsed but is an alias, file, directory, git or remote spec
//   - UPSTREAM_ERROR: the registry could not be reached or answered with a non-2xx status
//   - BATCH_FAILED: a batch item failed while the caller asked for errors to be thrown
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidSpecifier, "invalid package name: %q", name)
//	if errors.Is(err, errors.ErrCodeInvalidSpecifier) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch %s", url)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Specifier errors
	ErrCodeInvalidSpecifier     Code = "INVALID_SPECIFIER"
	ErrCodeUnsupportedSpecifier Code = "UNSUPPORTED_SPECIFIER"

	// Registry errors
	ErrCodeUpstream Code = "UPSTREAM_ERROR"

	// Batch errors
	ErrCodeBatchFailed Code = "BATCH_FAILED"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidEntry  Code = "INVALID_ENTRY"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Network errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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

// HTTPStatus maps an error to the status code the HTTP API answers with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidSpecifier, ErrCodeUnsupportedSpecifier, ErrCodeBatchFailed, ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUpstream, ErrCodeNetwork:
		return http.StatusBadGateway
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// InvalidSpecifier reports a specifier that could not be parsed.
func InvalidSpecifier(spec string, reason string) *Error {
	return New(ErrCodeInvalidSpecifier, "invalid specifier %q: %s", spec, reason)
}

// UnsupportedSpecifier reports a specifier whose type cannot be resolved
// against registry metadata.
func UnsupportedSpecifier(spec, kind string) *Error {
	return New(ErrCodeUnsupportedSpecifier, "unsupported specifier type %q for %q", kind, spec)
}

// Upstream reports a registry failure. The message is kept verbatim so it can
// be persisted as a negative cache entry and replayed later.
func Upstream(msg string) *Error {
	return &Error{Code: ErrCodeUpstream, Message: msg}
}

// BatchFailed wraps the first failing batch item.
func BatchFailed(cause error) *Error {
	return &Error{Code: ErrCodeBatchFailed, Message: UserMessage(cause), Cause: cause}
}
