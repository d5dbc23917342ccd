// Package response writes the envelope shared by every endpoint:
// {"success":true,"data":...} on success and the apierror body otherwise.
package response

import (
	"encoding/json"
	"net/http"

	"giftlist-api/pkg/apierror"
)

// Envelope is the body of a successful response. Data is always present,
// so empty collections are sent as [] rather than dropped.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// JSON sends data in the envelope with the given status code. If data
// cannot be encoded nothing is written but a 500.
func JSON(w http.ResponseWriter, statusCode int, data any) {
	body, err := json.Marshal(Envelope{Success: true, Data: data})
	if err != nil {
		Error(w, apierror.InternalError(""))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write(append(body, '\n'))
}

// Error sends an error response. Errors that are not *apierror.Error are
// answered with a generic 500.
func Error(w http.ResponseWriter, err error) {
	apiErr, ok := apierror.From(err)
	if !ok {
		apiErr = apierror.InternalError("")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(apiErr.StatusCode)
	_, _ = w.Write(apiErr.ToJSON())
}

// NoContent sends a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Created sends a 201 Created response with the created resource.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// OK sends a 200 OK response.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}
