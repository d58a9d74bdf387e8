package apierrors

import (
	"fmt"
	"net/http"
)

// APIError is the internal representation of an error response. Handlers
// never build these directly; they hand raw processor errors to
// RespondWithError, which maps them here.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Internal   error
}

func (e *APIError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Internal
}

// BadRequest builds a 400 error
func BadRequest(code, message string) *APIError {
	return &APIError{StatusCode: http.StatusBadRequest, Code: code, Message: message}
}

// NotFound builds a 404 error
func NotFound(code, message string) *APIError {
	return &APIError{StatusCode: http.StatusNotFound, Code: code, Message: message}
}

// Conflict builds a 409 error
func Conflict(code, message string) *APIError {
	return &APIError{StatusCode: http.StatusConflict, Code: code, Message: message}
}

// Unauthorized builds a 401 error
func Unauthorized(code, message string) *APIError {
	return &APIError{StatusCode: http.StatusUnauthorized, Code: code, Message: message}
}

// Forbidden builds a 403 error
func Forbidden(message string) *APIError {
	return &APIError{StatusCode: http.StatusForbidden, Code: CodeForbidden, Message: message}
}

// BadGateway builds a 502 error carrying the upstream-provided message
func BadGateway(code, message string, internalErr error) *APIError {
	return &APIError{StatusCode: http.StatusBadGateway, Code: code, Message: message, Internal: internalErr}
}

// GatewayTimeout builds a 504 error for exceeded call budgets
func GatewayTimeout(code, message string, internalErr error) *APIError {
	return &APIError{StatusCode: http.StatusGatewayTimeout, Code: code, Message: message, Internal: internalErr}
}

// ServiceUnavailable builds a 503 error and keeps the internal error for logging
func ServiceUnavailable(code, message string, internalErr error) *APIError {
	return &APIError{StatusCode: http.StatusServiceUnavailable, Code: code, Message: message, Internal: internalErr}
}

// InternalError builds a sanitized 500 error - never exposes internal details
func InternalError(internalErr error) *APIError {
	return &APIError{
		StatusCode: http.StatusInternalServerError,
		Code:       CodeInternalError,
		Message:    "An internal error occurred. Please try again later.",
		Internal:   internalErr,
	}
}
