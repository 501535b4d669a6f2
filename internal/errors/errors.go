// Package errors defines the coded error taxonomy used across an inventory
// run. Every error that decides whether a run continues or aborts carries one
// of the codes below so callers can branch on it with HasCode or CodeOf.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a failure by how it propagates through a run.
type ErrorCode string

const (
	// ErrCodeValidation marks a missing or empty required input. Fatal, and
	// raised before any upstream call is made.
	ErrCodeValidation ErrorCode = "VALIDATION"
	// ErrCodeResolution marks a scope that cannot be resolved to accounts. Fatal.
	ErrCodeResolution ErrorCode = "RESOLUTION"
	// ErrCodeNotFound marks an account or OU name with no match.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInvalidScope marks an unknown scope kind.
	ErrCodeInvalidScope ErrorCode = "INVALID_SCOPE"
	// ErrCodeCredential marks a failed role assumption. The account is skipped.
	ErrCodeCredential ErrorCode = "CREDENTIAL"
	// ErrCodeCollection marks a collection unit that failed after retries.
	ErrCodeCollection ErrorCode = "COLLECTION"
	// ErrCodeIO marks a failure writing tables or the archive. Fatal.
	ErrCodeIO ErrorCode = "IO"
	// ErrCodeNotification marks a notification that failed after retries. Fatal.
	ErrCodeNotification ErrorCode = "NOTIFICATION"
	// ErrCodeInternal marks anything else.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// StructuredError carries a code, a human-readable message, the underlying
// cause, and optional context for log correlation.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a new StructuredError with the given code and message.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
	}
}

// Newf is New with a format string.
func Newf(code ErrorCode, format string, args ...any) *StructuredError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with a code and message.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithContext wraps an error with additional context information.
func WrapWithContext(code ErrorCode, message string, cause error, context map[string]any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: context,
	}
}

// CodeOf returns the code of the outermost StructuredError in err's chain,
// or ErrCodeInternal when the chain has none. A nil error has no code.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var se *StructuredError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether any StructuredError in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var se *StructuredError
		if !errors.As(err, &se) {
			return false
		}
		if se.Code == code {
			return true
		}
		err = se.Cause
	}
	return false
}
