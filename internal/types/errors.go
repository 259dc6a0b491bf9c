package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for stixtoneolib errors.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
	CONFIG_NOT_FOUND         ErrorCode = "CONFIG_NOT_FOUND"
)

// Run-ledger database error codes
const (
	DB_OPEN_FAILED      ErrorCode = "DB_OPEN_FAILED"
	DB_MIGRATION_FAILED ErrorCode = "DB_MIGRATION_FAILED"
	DB_QUERY_FAILED     ErrorCode = "DB_QUERY_FAILED"
)

// Input error codes
const (
	INPUT_OPEN_FAILED  ErrorCode = "INPUT_OPEN_FAILED"
	INPUT_READ_FAILED  ErrorCode = "INPUT_READ_FAILED"
	INPUT_UNSUPPORTED  ErrorCode = "INPUT_UNSUPPORTED"
	INPUT_RESET_FAILED ErrorCode = "INPUT_RESET_FAILED"
)

// StixError represents a structured error with error code, message, and optional cause.
// It supports error wrapping and retryability hints for error handling logic.
type StixError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *StixError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
// This enables using errors.Is() and errors.As() with wrapped errors.
func (e *StixError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
// Returns true if target is a StixError with the same Code.
func (e *StixError) Is(target error) bool {
	var stixErr *StixError
	if errors.As(target, &stixErr) {
		return e.Code == stixErr.Code
	}
	return false
}

// NewError creates a new non-retryable StixError with the given code and message.
func NewError(code ErrorCode, message string) *StixError {
	return &StixError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     nil,
	}
}

// NewRetryableError creates a new retryable StixError with the given code and message.
// Use this for transient errors that may succeed on retry (e.g., storage timeouts).
func NewRetryableError(code ErrorCode, message string) *StixError {
	return &StixError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     nil,
	}
}

// WrapError creates a new non-retryable StixError that wraps an existing error.
// The wrapped error is accessible via Unwrap() for error chain inspection.
func WrapError(code ErrorCode, message string, cause error) *StixError {
	return &StixError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     cause,
	}
}

// IsRetryable reports whether err (or any error in its chain) is a retryable StixError.
func IsRetryable(err error) bool {
	var stixErr *StixError
	if errors.As(err, &stixErr) {
		return stixErr.Retryable
	}
	return false
}

// CodeOf extracts the error code from err if it is a StixError, or an empty
// code otherwise.
func CodeOf(err error) ErrorCode {
	var stixErr *StixError
	if errors.As(err, &stixErr) {
		return stixErr.Code
	}
	return ""
}
