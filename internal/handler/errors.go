package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"giftlist-api/internal/middleware"
	"giftlist-api/internal/repository"
	"giftlist-api/internal/reservation"
	"giftlist-api/internal/service"
	"giftlist-api/pkg/apierror"
	"giftlist-api/pkg/response"

	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// ConnectionIDHeader carries the live connection id of the acting client,
// which is then skipped when the change is broadcast.
const ConnectionIDHeader = "X-Connection-ID"

// toAPIError maps domain errors to API errors. The bool is false for
// unexpected errors, which map to a 500.
func toAPIError(err error) (*apierror.Error, bool) {
	if apiErr, ok := apierror.From(err); ok {
		return apiErr, true
	}

	switch {
	case errors.Is(err, reservation.ErrConflict):
		return apierror.Conflict("Item is no longer available"), true
	case errors.Is(err, reservation.ErrNotReserved):
		return apierror.PreconditionFailed("Item is not reserved"), true
	case errors.Is(err, reservation.ErrNotEditable):
		return apierror.PreconditionFailed("Item can only be edited while available"), true
	case errors.Is(err, reservation.ErrPurchaserRequired):
		return apierror.ValidationError("Purchaser name is required", apierror.FieldError{
			Field:   "purchaserName",
			Message: "required",
		}), true
	case errors.Is(err, reservation.ErrPurchaserNameTooLong):
		return apierror.ValidationError(fmt.Sprintf("Purchaser name must have at most %d characters", reservation.MaxPurchaserNameLength), apierror.FieldError{
			Field:   "purchaserName",
			Message: "too long",
		}), true
	case errors.Is(err, service.ErrInvalidInput):
		return apierror.BadRequest(strings.TrimPrefix(err.Error(), service.ErrInvalidInput.Error()+": ")), true
	case errors.Is(err, repository.ErrNotFound):
		return apierror.NotFound(""), true
	case errors.Is(err, repository.ErrDuplicate):
		return apierror.Conflict(err.Error()), true
	case errors.Is(err, service.ErrForbidden):
		return apierror.Forbidden(""), true
	case errors.Is(err, service.ErrInvalidCredentials):
		return apierror.Unauthorized("Invalid email or password"), true
	case errors.Is(err, service.ErrInvalidToken):
		return apierror.Unauthorized("Invalid or expired token"), true
	}
	return apierror.InternalError(""), false
}

// writeError sends err as an API error. Unexpected errors are logged with
// their cause and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	apiErr, known := toAPIError(err)
	if !known {
		log.WithError(err).WithFields(logrus.Fields{
			"path":       r.URL.Path,
			"request_id": middleware.GetRequestID(r.Context()),
		}).Error("Request failed")
	}
	response.Error(w, apiErr)
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apierror.BadRequest("request body is required")
		}
		return apierror.BadRequest(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

func origin(r *http.Request) string {
	return r.Header.Get(ConnectionIDHeader)
}
