// Package apperr defines the closed error taxonomy shared by every
// request path. All failures a caller can observe collapse to one of
// these codes; anything else is an opaque internal error.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// Code identifies a user-facing failure class
type Code string

// The full set of caller-visible error codes
const (
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeSuspended       Code = "SUSPENDED"
	CodeRateLimited     Code = "RATE_LIMITED"
	CodeValidationError Code = "VALIDATION_ERROR"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
)

var statusByCode = map[Code]int{
	CodeUnauthorized:    http.StatusUnauthorized,
	CodeForbidden:       http.StatusForbidden,
	CodeSuspended:       http.StatusForbidden,
	CodeRateLimited:     http.StatusTooManyRequests,
	CodeValidationError: http.StatusBadRequest,
	CodeNotFound:        http.StatusNotFound,
	CodeConflict:        http.StatusConflict,
}

var defaultMessageByCode = map[Code]string{
	CodeUnauthorized:    "Unauthorized",
	CodeForbidden:       "Forbidden",
	CodeSuspended:       "Account is suspended",
	CodeRateLimited:     "Too many requests",
	CodeValidationError: "Invalid request payload",
	CodeNotFound:        "Resource not found",
	CodeConflict:        "Conflict",
}

// Error is a taxonomy error carrying its wire status
type Error struct {
	Code    Code
	Status  int
	Message string
	Details interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New creates a taxonomy error; an empty message uses the code default
func New(code Code, message string) *Error {
	if message == "" {
		message = defaultMessageByCode[code]
	}
	return &Error{
		Code:    code,
		Status:  statusByCode[code],
		Message: message,
	}
}

// WithDetails attaches structured details to the error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// Unauthorized returns an UNAUTHORIZED error
func Unauthorized(message string) *Error { return New(CodeUnauthorized, message) }

// Forbidden returns a FORBIDDEN error
func Forbidden(message string) *Error { return New(CodeForbidden, message) }

// Suspended returns a SUSPENDED error
func Suspended(message string) *Error { return New(CodeSuspended, message) }

// RateLimited returns a RATE_LIMITED error
func RateLimited(message string) *Error { return New(CodeRateLimited, message) }

// Validation returns a VALIDATION_ERROR error
func Validation(message string) *Error { return New(CodeValidationError, message) }

// NotFound returns a NOT_FOUND error
func NotFound(message string) *Error { return New(CodeNotFound, message) }

// Conflict returns a CONFLICT error
func Conflict(message string) *Error { return New(CodeConflict, message) }

// As extracts a taxonomy error from an error chain
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsDuplicateKey reports whether err is a store uniqueness violation
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// FromStore translates raw storage errors into the taxonomy. Singleton
// lookups that find nothing become NOT_FOUND; unique violations become
// CONFLICT. Anything else passes through for the boundary to log.
func FromStore(err error, notFoundMessage string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(notFoundMessage)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return Conflict("")
	}
	return err
}
