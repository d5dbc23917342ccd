// Package apierror defines the error body returned by the API:
//
//	{"success":false,"error":{"code":"CONFLICT","message":"..."}}
package apierror

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Error is an API error with its HTTP status and machine-readable code.
type Error struct {
	StatusCode int          `json:"-"`
	Code       string       `json:"code"`
	Message    string       `json:"message"`
	Details    []FieldError `json:"details,omitempty"`
}

// FieldError describes a problem with one request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// ToJSON renders the error body.
func (e *Error) ToJSON() []byte {
	body := struct {
		Success bool   `json:"success"`
		Error   *Error `json:"error"`
	}{Error: e}

	data, _ := json.Marshal(body)
	return data
}

// From returns err as an *Error if it is one or wraps one.
func From(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func newError(status int, code, message, fallback string) *Error {
	if message == "" {
		message = fallback
	}
	return &Error{StatusCode: status, Code: code, Message: message}
}

// BadRequest is a 400 for a malformed request.
func BadRequest(message string) *Error {
	return newError(http.StatusBadRequest, "BAD_REQUEST", message, "Bad request")
}

// ValidationError is a 400 naming the offending fields.
func ValidationError(message string, details ...FieldError) *Error {
	e := newError(http.StatusBadRequest, "VALIDATION_ERROR", message, "Validation failed")
	e.Details = details
	return e
}

// PreconditionFailed is a 400 for an action the resource's current state
// does not allow. The client's view is stale and should be refreshed.
func PreconditionFailed(message string) *Error {
	return newError(http.StatusBadRequest, "PRECONDITION_FAILED", message, "Precondition failed")
}

func Unauthorized(message string) *Error {
	return newError(http.StatusUnauthorized, "UNAUTHORIZED", message, "Authentication required")
}

func Forbidden(message string) *Error {
	return newError(http.StatusForbidden, "FORBIDDEN", message, "Access denied")
}

func NotFound(message string) *Error {
	return newError(http.StatusNotFound, "NOT_FOUND", message, "Resource not found")
}

// Conflict is a 409, returned when another writer won a race for the
// resource or a unique value is taken.
func Conflict(message string) *Error {
	return newError(http.StatusConflict, "CONFLICT", message, "Conflict")
}

// InternalError is a 500. message must not carry internal details.
func InternalError(message string) *Error {
	return newError(http.StatusInternalServerError, "INTERNAL_ERROR", message, "An unexpected error occurred")
}
