package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

// Error codes used across all packages
const (
	// Generic errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"

	// User/account errors
	ErrCodeUserNotFound      ErrorCode = "USER_NOT_FOUND"
	ErrCodeUserAlreadyExists ErrorCode = "USER_ALREADY_EXISTS"
	ErrCodeUserDeleted       ErrorCode = "USER_DELETED"

	// Authentication errors
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeTokenInvalid       ErrorCode = "TOKEN_INVALID"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"

	// MFA errors
	ErrCodeBadPrecondition  ErrorCode = "BAD_PRECONDITION"
	ErrCodeTwoFARequired    ErrorCode = "TWO_FA_REQUIRED"
	ErrCodeTwoFAInvalid     ErrorCode = "TWO_FA_INVALID"
	ErrCodeRedemptionFailed ErrorCode = "REDEMPTION_FAILED"
	ErrCodeInvalidState     ErrorCode = "INVALID_STATE"

	// Storage errors
	ErrCodePersistence ErrorCode = "PERSISTENCE_ERROR"
)

// Error represents a structured error with code, message, and optional details.
// The wrapped cause is preserved for server-side logging but is never part of
// the client-facing message.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *Error) HTTPStatusCode() int {
	return MapErrorCodeToHTTPStatus(e.Code)
}

// New creates a new Error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with code and message
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsCode checks if an error has a specific error code
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error.
// Returns ErrCodeInternal if the error is not a structured Error.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// MapErrorCodeToHTTPStatus maps error codes to HTTP status codes
func MapErrorCodeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidInput, ErrCodeBadPrecondition, ErrCodeInvalidState:
		return http.StatusBadRequest

	case ErrCodeUnauthorized, ErrCodeInvalidCredentials, ErrCodeTokenInvalid,
		ErrCodeTokenExpired, ErrCodeTwoFARequired, ErrCodeTwoFAInvalid,
		ErrCodeRedemptionFailed:
		return http.StatusUnauthorized

	case ErrCodeForbidden, ErrCodeUserDeleted:
		return http.StatusForbidden

	case ErrCodeNotFound, ErrCodeUserNotFound:
		return http.StatusNotFound

	case ErrCodeConflict, ErrCodeUserAlreadyExists:
		return http.StatusConflict

	case ErrCodeInternal, ErrCodePersistence:
		fallthrough
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors

// UserNotFound creates a "user not found" error
func UserNotFound(identifier string) *Error {
	return Newf(ErrCodeUserNotFound, "user not found: %s", identifier)
}

// BadPrecondition creates a "bad precondition" error
func BadPrecondition(message string) *Error {
	return New(ErrCodeBadPrecondition, message)
}

// RedemptionFailed creates the intentionally non-specific recovery code
// redemption failure. The underlying reason is kept only in the wrapped error.
func RedemptionFailed(err error) *Error {
	return &Error{
		Code:    ErrCodeRedemptionFailed,
		Message: "recovery code redemption failed",
		Err:     err,
	}
}

// Persistence wraps an underlying storage failure
func Persistence(err error, message string) *Error {
	return Wrap(err, ErrCodePersistence, message)
}

// Internal creates an "internal error"
func Internal(message string) *Error {
	return New(ErrCodeInternal, message)
}
