package apierror

import (
	"fmt"
	"net/http"
)

// APIError is an error that carries its HTTP status and client-facing message.
type APIError struct {
	Code       string `json:"-"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithData returns a copy of e carrying extra response data.
func (e *APIError) WithData(data any) *APIError {
	clone := *e
	clone.Data = data
	return &clone
}

func New(code string, message string, status int) *APIError {
	return &APIError{Code: code, Message: message, HTTPStatus: status}
}

func BadRequest(message string) *APIError {
	return New("BAD_REQUEST", message, http.StatusBadRequest)
}

func Unauthorized(message string) *APIError {
	return New("UNAUTHORIZED", message, http.StatusUnauthorized)
}

func Forbidden(message string) *APIError {
	return New("FORBIDDEN", message, http.StatusForbidden)
}

func NotFound(message string) *APIError {
	return New("NOT_FOUND", message, http.StatusNotFound)
}

func Conflict(message string) *APIError {
	return New("CONFLICT", message, http.StatusConflict)
}

func TooManyRequests(message string) *APIError {
	return New("TOO_MANY_REQUESTS", message, http.StatusTooManyRequests)
}

func BadGateway(message string) *APIError {
	return New("BAD_GATEWAY", message, http.StatusBadGateway)
}

func Internal(message string) *APIError {
	return New("INTERNAL_ERROR", message, http.StatusInternalServerError)
}
