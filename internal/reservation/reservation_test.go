package reservation

import (
	"strings"
	"testing"

	"giftlist-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func availableItem() model.Item {
	return model.Item{ID: "i1", Name: "Toaster", CategoryID: "c1", Status: model.StatusAvailable, Revision: 1}
}

func TestReserve(t *testing.T) {
	next, err := Reserve(availableItem(), "  Maria ", "")
	require.NoError(t, err)

	assert.Equal(t, model.StatusReserved, next.Status)
	require.NotNil(t, next.PurchaserName)
	assert.Equal(t, "Maria", *next.PurchaserName)
	assert.Nil(t, next.PurchaserEmail, "empty email must be stored as null")
}

func TestReserve_WithEmail(t *testing.T) {
	next, err := Reserve(availableItem(), "Maria", "maria@example.com")
	require.NoError(t, err)

	require.NotNil(t, next.PurchaserEmail)
	assert.Equal(t, "maria@example.com", *next.PurchaserEmail)
}

func TestReserve_RequiresName(t *testing.T) {
	item := availableItem()
	next, err := Reserve(item, "   ", "x@example.com")

	assert.ErrorIs(t, err, ErrPurchaserRequired)
	assert.Equal(t, item, next)
}

func TestReserve_NameLength(t *testing.T) {
	item := availableItem()

	next, err := Reserve(item, strings.Repeat("á", MaxPurchaserNameLength), "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusReserved, next.Status)

	next, err = Reserve(item, strings.Repeat("a", MaxPurchaserNameLength+1), "")
	assert.ErrorIs(t, err, ErrPurchaserNameTooLong)
	assert.Equal(t, item, next)
}

func TestReserve_NotAvailable(t *testing.T) {
	for _, status := range []model.ItemStatus{model.StatusReserved, model.StatusPurchased} {
		t.Run(string(status), func(t *testing.T) {
			item := availableItem()
			item.Status = status
			item.PurchaserName = strPtr("Ana")

			next, err := Reserve(item, "Maria", "")

			assert.ErrorIs(t, err, ErrConflict)
			assert.Equal(t, item, next, "rejected transition must not change the item")
		})
	}
}

func TestConfirm(t *testing.T) {
	reserved, err := Reserve(availableItem(), "Maria", "m@example.com")
	require.NoError(t, err)

	next, err := Confirm(reserved)
	require.NoError(t, err)

	assert.Equal(t, model.StatusPurchased, next.Status)
	assert.Equal(t, reserved.PurchaserName, next.PurchaserName)
	assert.Equal(t, reserved.PurchaserEmail, next.PurchaserEmail)
}

func TestConfirm_RequiresReserved(t *testing.T) {
	item := availableItem()
	next, err := Confirm(item)

	assert.ErrorIs(t, err, ErrNotReserved)
	assert.Equal(t, model.StatusAvailable, next.Status)
}

func TestCancel_RoundTrip(t *testing.T) {
	original := availableItem()
	reserved, err := Reserve(original, "Maria", "m@example.com")
	require.NoError(t, err)

	cancelled, err := Cancel(reserved)
	require.NoError(t, err)

	assert.Equal(t, original, cancelled)
}

func TestCancel_RejectsPurchased(t *testing.T) {
	reserved, _ := Reserve(availableItem(), "Maria", "")
	purchased, _ := Confirm(reserved)

	next, err := Cancel(purchased)

	assert.ErrorIs(t, err, ErrNotReserved)
	assert.Equal(t, model.StatusPurchased, next.Status)
}

func TestCheckEditable(t *testing.T) {
	assert.NoError(t, CheckEditable(availableItem()))

	reserved, _ := Reserve(availableItem(), "Maria", "")
	assert.ErrorIs(t, CheckEditable(reserved), ErrNotEditable)
}

func TestFailedTransition(t *testing.T) {
	assert.ErrorIs(t, FailedTransition(model.StatusAvailable), ErrConflict)
	assert.ErrorIs(t, FailedTransition(model.StatusReserved), ErrNotReserved)
}
