package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Complete error code constants.
// All components MUST use these constants instead of hardcoded strings.
const (
	// Absence signals. Non-fatal: the caller treats the subject as
	// missing and continues. Never propagated past a component boundary.
	ErrCodeNotFoundObject   ErrorCode = "not_found_object"
	ErrCodeNotFoundMetadata ErrorCode = "not_found_metadata"
	ErrCodeNotFoundResults  ErrorCode = "not_found_results"
	ErrCodeNotFoundSeries   ErrorCode = "not_found_series"

	// Malformed data. Non-fatal: the smallest containing unit (a row,
	// a sidecar) is skipped and processing continues.
	ErrCodeMalformedJSON ErrorCode = "malformed_json"
	ErrCodeMalformedCSV  ErrorCode = "malformed_csv"

	// Configuration.
	ErrCodeConfigInvalid ErrorCode = "config_invalid"

	// Storage/transport. Fatal: propagated up through every phase and
	// surfaced to the operator. Retry, if any, belongs to the SDK.
	ErrCodeStorageUnavailable ErrorCode = "storage_unavailable"

	// Internal
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// AppError is the standard application error type used throughout the
// collector. All component errors should be expressed as AppError to enable
// consistent classification (absence vs malformed vs fatal) and error chain
// support.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFound constructs an absence-signal error for the given subject.
func NewNotFound(code ErrorCode, subject string) *AppError {
	return &AppError{Code: code, Message: subject + " not found"}
}

// IsNotFound reports whether err carries a not_found_* code anywhere in
// its chain. Not-found errors are absence signals, never failures.
func IsNotFound(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return strings.HasPrefix(string(appErr.Code), "not_found_")
	}
	return false
}

// IsMalformed reports whether err carries a malformed_* code.
func IsMalformed(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return strings.HasPrefix(string(appErr.Code), "malformed_")
	}
	return false
}

// IsFatal reports whether err must abort the run. Absence signals and
// malformed-data errors are recoverable; everything else (storage access,
// unexpected internals) is fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !IsNotFound(err) && !IsMalformed(err)
}
