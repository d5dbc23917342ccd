package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"giftlist-api/pkg/apierror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOK_EmptySliceIsKept(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, []string{})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":[]}`, rec.Body.String())
}

func TestOK_RawMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, json.RawMessage(`{"slug":"cha-da-ana"}`))

	assert.JSONEq(t, `{"success":true,"data":{"slug":"cha-da-ana"}}`, rec.Body.String())
}

func TestJSON_UnencodableIs500(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusOK, make(chan int))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, apierror.Conflict("Item is no longer available"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body struct {
		Success bool
		Error   struct{ Code, Message string }
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "CONFLICT", body.Error.Code)

	rec = httptest.NewRecorder()
	Error(rec, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}
