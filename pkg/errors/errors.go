// Package errors provides standardized error definitions for the SDK.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Error represents a structured client-side error. HTTPStatus carries the
// remote status code when the failure came from an HTTP response, 0 otherwise.
type Error struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	HTTPStatus int         `json:"-"`
	Details    interface{} `json:"details,omitempty"`
	Err        error       `json:"-"` // Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetails returns a copy of the error with details attached. Copying
// keeps the predefined errors below safe to share.
func (e *Error) WithDetails(details interface{}) *Error {
	clone := *e
	clone.Details = details
	return &clone
}

// WithError returns a copy of the error wrapping another error.
func (e *Error) WithError(err error) *Error {
	clone := *e
	clone.Err = err
	return &clone
}

// New creates a new Error.
func New(code, message string, httpStatus int) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an existing error with error code and message.
func Wrap(err error, code, message string, httpStatus int) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// Common error codes
const (
	// Credential errors
	ErrCodeCredentialMissing = "CREDENTIAL_MISSING"

	// Validation errors
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeMissingField     = "MISSING_FIELD"

	// Catalog errors
	ErrCodeCatalogNotFound = "CATALOG_NOT_FOUND"

	// Transport errors
	ErrCodeNetwork    = "NETWORK_ERROR"
	ErrCodeHTTPStatus = "HTTP_STATUS"
	ErrCodeDecode     = "DECODE_FAILED"
	ErrCodeWbiSign    = "WBI_SIGN_FAILED"

	// Upload errors
	ErrCodeUploadRejected = "UPLOAD_REJECTED"
	ErrCodeUploadAborted  = "UPLOAD_ABORTED"

	// State errors
	ErrCodeInvalidState = "INVALID_STATE"
	ErrCodeStore        = "STORE_ERROR"

	// Fallback
	ErrCodeUnknown = "UNKNOWN"
)

// Predefined errors
var (
	ErrUploadAborted = New(ErrCodeUploadAborted, "Upload aborted by caller", 0)
	ErrUploadBusy    = New(ErrCodeInvalidState, "Upload already in progress", 0)
)

// IsError checks if an error is a specific application error, matching by
// code anywhere in the wrap chain.
func IsError(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	return IsCode(err, target.Code)
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code string) bool {
	var appErr *Error
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}

// GetHTTPStatus returns the remote HTTP status attached to an error.
// If the error carries none, returns 0.
func GetHTTPStatus(err error) int {
	var appErr *Error
	if !stderrors.As(err, &appErr) {
		return 0
	}
	return appErr.HTTPStatus
}

// GetCode returns the error code for an error.
// If the error is not an *Error, returns UNKNOWN.
func GetCode(err error) string {
	if err == nil {
		return ""
	}
	var appErr *Error
	if !stderrors.As(err, &appErr) {
		return ErrCodeUnknown
	}
	return appErr.Code
}
