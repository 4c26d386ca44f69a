// Package errors provides coded domain errors for the catalog.
//
// Usage:
//
//	// In the store - return typed errors
//	if current != expected {
//	    return errors.Conflictf("ebook %s: expected version %d, found %d", id, expected, current)
//	}
//
//	// In callers - check with errors.Is
//	if errors.Is(err, errors.ErrConflict) {
//	    // re-read and retry with the fresh version
//	}
//
//	// Or switch on the Code
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeNotFound:
//	    case errors.CodeTimeout, errors.CodeStorageUnavailable:
//	    }
//	}
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the catalog.
const (
	CodeValidation         Code = "VALIDATION"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConflict           Code = "CONFLICT"
	CodeUniqueConstraint   Code = "UNIQUE_CONSTRAINT"
	CodeIndexSyncFailure   Code = "INDEX_SYNC_FAILURE"
	CodeTimeout            Code = "TIMEOUT"
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"
	CodeInternal           Code = "INTERNAL"
)

// Retryable reports whether an operation failing with this code may succeed
// when repeated unchanged. Conflicts are not retryable: the caller has to
// re-read the entity first.
func (c Code) Retryable() bool {
	switch c {
	case CodeTimeout, CodeStorageUnavailable:
		return true
	default:
		return false
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithDetails returns a copy of the error carrying details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

// WithCause returns a copy of the error wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

// Sentinel errors for use with errors.Is().
var (
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation error"}
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrConflict           = &Error{Code: CodeConflict, Message: "version conflict"}
	ErrUniqueConstraint   = &Error{Code: CodeUniqueConstraint, Message: "unique constraint violated"}
	ErrIndexSyncFailure   = &Error{Code: CodeIndexSyncFailure, Message: "index sync failed"}
	ErrTimeout            = &Error{Code: CodeTimeout, Message: "operation timed out"}
	ErrStorageUnavailable = &Error{Code: CodeStorageUnavailable, Message: "storage unavailable"}
	ErrInternal           = &Error{Code: CodeInternal, Message: "internal error"}
)

// CodeOf extracts the code of a domain error. Context deadline errors map to
// CodeTimeout; anything else that is not a domain error is CodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	return CodeInternal
}

// IsRetryable reports whether err carries a retryable code.
func IsRetryable(err error) bool {
	return err != nil && CodeOf(err).Retryable()
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflictf creates a version conflict error with formatted message.
func Conflictf(format string, args ...any) *Error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// UniqueConstraint creates a unique constraint error.
func UniqueConstraint(msg string) *Error {
	return &Error{Code: CodeUniqueConstraint, Message: msg}
}

// UniqueConstraintf creates a unique constraint error with formatted message.
func UniqueConstraintf(format string, args ...any) *Error {
	return &Error{Code: CodeUniqueConstraint, Message: fmt.Sprintf(format, args...)}
}

// Timeout wraps err as a timeout.
func Timeout(err error, msg string) *Error {
	return &Error{Code: CodeTimeout, Message: msg, cause: err}
}

// StorageUnavailable wraps err as a transient storage failure.
func StorageUnavailable(err error, msg string) *Error {
	return &Error{Code: CodeStorageUnavailable, Message: msg, cause: err}
}

// IndexSyncFailure wraps err as a failed search index write.
func IndexSyncFailure(err error, msg string) *Error {
	return &Error{Code: CodeIndexSyncFailure, Message: msg, cause: err}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
