package apperror

import (
	"errors"
	"net/http"
)

// AppError carries the HTTP status an error maps to plus a client-safe message.
type AppError struct {
	Code    int    // HTTP status code (400, 403, 404, 409, 429)
	Message string // returned to the client as-is
	Err     error  // internal cause, never exposed
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches sentinel AppErrors by identity, and fresh ones by code and message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e == t || (e.Code == t.Code && e.Message == t.Message)
}

// New creates an AppError with a status code and message.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates an AppError around an internal cause.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func Validation(message string) *AppError { return New(http.StatusBadRequest, message) }
func NotFound(message string) *AppError   { return New(http.StatusNotFound, message) }
func Forbidden(message string) *AppError  { return New(http.StatusForbidden, message) }
func Conflict(message string) *AppError   { return New(http.StatusConflict, message) }

// CodeOf returns the status code of the first AppError in err's chain, or 500.
func CodeOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
