package apperr

import (
	"errors"
	"net/http"
)

// Code classifies an error into one of the operation outcome classes.
type Code string

const (
	CodeValidation   Code = "VALIDATION"
	CodeConflict     Code = "CONFLICT"
	CodeNotFound     Code = "NOT_FOUND"
	CodeAccessDenied Code = "ACCESS_DENIED"
	CodeRateLimited  Code = "RATE_LIMITED"
	CodeStore        Code = "STORE"
)

// Error is a classified application error. Every operation boundary
// converts failures into one of these; none propagate as a crash.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is the text shown to the end user. Store failures are
// reported generically; the cause stays in logs only.
func (e *Error) UserMessage() string {
	if e.Code == CodeStore {
		return "An error occurred. Please try again."
	}
	return e.Message
}

// HTTPStatus maps the error class to a status code for the ops API.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAccessDenied:
		return http.StatusForbidden
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Validation creates a recoverable malformed-input error.
func Validation(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

// Conflict creates a duplicate-state error (subscription exists,
// conversation already active).
func Conflict(message string) *Error {
	return &Error{Code: CodeConflict, Message: message}
}

// NotFound creates an absent-target error.
func NotFound(message string) *Error {
	if message == "" {
		message = "Nothing found."
	}
	return &Error{Code: CodeNotFound, Message: message}
}

// AccessDenied creates a role-gate error. No detail beyond the role
// mismatch is included.
func AccessDenied(message string) *Error {
	if message == "" {
		message = "❌ Access denied."
	}
	return &Error{Code: CodeAccessDenied, Message: message}
}

// RateLimited creates a throttling error, terminal for this request only.
func RateLimited() *Error {
	return &Error{Code: CodeRateLimited, Message: "⚠️ Too many requests. Please wait a bit."}
}

// Store wraps a backing-store failure.
func Store(err error) *Error {
	return &Error{Code: CodeStore, Message: "store failure", Err: err}
}

// CodeOf returns the class of err, or CodeStore for unclassified errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeStore
}

// Is reports whether err carries the given class.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
