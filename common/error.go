package common

import (
	"fmt"
	"net/http"
)

// APIError is an error with the HTTP status it should be rendered with.
// Fields carries per-field details for validation failures.
type APIError struct {
	Status  int            `json:"-"`
	Message string         `json:"error"`
	Fields  map[string]any `json:"fields,omitempty"`
}

func (e APIError) Error() string {
	return e.Message
}

func Errf(status int, format string, args ...any) APIError {
	return APIError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// NewAPIError creates an APIError with status, message, and optional fields
func NewAPIError(status int, message string, fields map[string]any) APIError {
	return APIError{
		Status:  status,
		Message: message,
		Fields:  fields,
	}
}

// ValidationFailed is the 400 returned when input is rejected before
// anything is persisted.
func ValidationFailed(fields map[string]any) APIError {
	return NewAPIError(http.StatusBadRequest, "validation failed", fields)
}

// FieldError is ValidationFailed for a single field.
func FieldError(field string, detail any) APIError {
	return ValidationFailed(map[string]any{field: detail})
}
