package web

import (
	"fmt"
	"net/http"
)

// Error is an HTTP-mapped error. Handlers and providers may return one to
// control the response status; anything else maps to 500.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an HTTP error with an explicit status.
func NewError(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// BadRequest creates a 400 error.
func BadRequest(message string) *Error {
	return NewError(http.StatusBadRequest, message)
}

// NotFound creates a 404 error.
func NotFound(message string) *Error {
	return NewError(http.StatusNotFound, message)
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *Error {
	return NewError(http.StatusUnauthorized, message)
}

// BindError indicates a request value could not be decoded into its declared
// type. Bind errors map to 400 responses, distinct from provider failures
// which map to 500.
type BindError struct {
	Source string // "path", "query", "header", or "body"
	Name   string // parameter name, empty for body
	Cause  error
}

func (e *BindError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("binding %s: %v", e.Source, e.Cause)
	}
	return fmt.Sprintf("binding %s parameter %q: %v", e.Source, e.Name, e.Cause)
}

func (e *BindError) Unwrap() error {
	return e.Cause
}
