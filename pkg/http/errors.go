package http

import (
	"fmt"
	"net/http"
)

// AppError represents application-level error with HTTP status.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(code, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// BadRequest creates a 400 application error.
func BadRequest(code, message string) *AppError {
	return NewAppError(code, message, http.StatusBadRequest)
}

// Internal wraps err as a 500 application error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "ERR_INTERNAL",
		Message: "internal error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}
