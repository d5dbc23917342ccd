package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"giftlist-api/internal/repository"
	"giftlist-api/internal/reservation"
	"giftlist-api/internal/service"
	"giftlist-api/pkg/apierror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToAPIError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"conflict", fmt.Errorf("%w: status is RESERVED", reservation.ErrConflict), http.StatusConflict, "CONFLICT"},
		{"not reserved", reservation.ErrNotReserved, http.StatusBadRequest, "PRECONDITION_FAILED"},
		{"not editable", reservation.ErrNotEditable, http.StatusBadRequest, "PRECONDITION_FAILED"},
		{"purchaser required", reservation.ErrPurchaserRequired, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"purchaser too long", reservation.ErrPurchaserNameTooLong, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"not found", fmt.Errorf("get item: %w", repository.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"duplicate", repository.ErrDuplicate, http.StatusConflict, "CONFLICT"},
		{"forbidden", service.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"token", service.ErrInvalidToken, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"api error", apierror.BadRequest("nope"), http.StatusBadRequest, "BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr, known := toAPIError(tt.err)
			assert.True(t, known)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.code, apiErr.Code)
		})
	}
}

func TestToAPIError_Unexpected(t *testing.T) {
	apiErr, known := toAPIError(fmt.Errorf("disk on fire"))

	assert.False(t, known)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.NotContains(t, apiErr.Message, "disk")
}

func TestToAPIError_InvalidInputMessage(t *testing.T) {
	err := fmt.Errorf("%w: name is required", service.ErrInvalidInput)

	apiErr, known := toAPIError(err)
	require.True(t, known)
	assert.Equal(t, "name is required", apiErr.Message)
}

func TestDecodeJSON(t *testing.T) {
	var v struct{ Name string }

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Ana"}`))
	require.NoError(t, decodeJSON(r, &v))
	assert.Equal(t, "Ana", v.Name)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	err := decodeJSON(r, &v)
	apiErr, ok := apierror.From(err)
	require.True(t, ok)
	assert.Equal(t, "request body is required", apiErr.Message)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	assert.Error(t, decodeJSON(r, &v))
}

func TestOrigin(t *testing.T) {
	r := httptest.NewRequest(http.MethodPatch, "/", nil)
	assert.Empty(t, origin(r))

	r.Header.Set(ConnectionIDHeader, "conn-1")
	assert.Equal(t, "conn-1", origin(r))
}
