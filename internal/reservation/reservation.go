// Package reservation implements the item reservation lifecycle:
//
//	AVAILABLE --reserve--> RESERVED --confirm--> PURCHASED
//	              RESERVED --cancel--> AVAILABLE
//
// The functions are pure. They validate a transition against the item they
// are given and return the next state; callers must persist the result with
// a conditional update keyed on the status they started from.
package reservation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"giftlist-api/internal/model"
)

var (
	// ErrConflict is returned when reserving an item that is not AVAILABLE.
	ErrConflict = errors.New("item is no longer available for reservation")

	// ErrNotReserved is returned when confirming or cancelling an item that
	// is not RESERVED.
	ErrNotReserved = errors.New("item is not reserved")

	// ErrNotEditable is returned when editing an item that is not AVAILABLE.
	ErrNotEditable = errors.New("item can only be edited while available")

	// ErrPurchaserRequired is returned when reserving without a name.
	ErrPurchaserRequired = errors.New("purchaser name is required")

	// ErrPurchaserNameTooLong is returned when the name exceeds
	// MaxPurchaserNameLength characters.
	ErrPurchaserNameTooLong = errors.New("purchaser name is too long")
)

// MaxPurchaserNameLength bounds the purchaser name in characters.
const MaxPurchaserNameLength = 200

// Reserve moves an AVAILABLE item to RESERVED for the given purchaser.
// email may be empty.
func Reserve(item model.Item, name, email string) (model.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return item, ErrPurchaserRequired
	}
	if utf8.RuneCountInString(name) > MaxPurchaserNameLength {
		return item, ErrPurchaserNameTooLong
	}
	if item.Status != model.StatusAvailable {
		return item, fmt.Errorf("%w: status is %s", ErrConflict, item.Status)
	}

	next := item
	next.Status = model.StatusReserved
	next.PurchaserName = &name
	next.PurchaserEmail = nil
	if email = strings.TrimSpace(email); email != "" {
		next.PurchaserEmail = &email
	}
	return next, nil
}

// Confirm moves a RESERVED item to PURCHASED, keeping the purchaser.
func Confirm(item model.Item) (model.Item, error) {
	if item.Status != model.StatusReserved {
		return item, fmt.Errorf("%w: status is %s", ErrNotReserved, item.Status)
	}

	next := item
	next.Status = model.StatusPurchased
	return next, nil
}

// Cancel returns a RESERVED item to AVAILABLE and clears the purchaser.
func Cancel(item model.Item) (model.Item, error) {
	if item.Status != model.StatusReserved {
		return item, fmt.Errorf("%w: status is %s", ErrNotReserved, item.Status)
	}

	next := item
	next.Status = model.StatusAvailable
	next.PurchaserName = nil
	next.PurchaserEmail = nil
	return next, nil
}

// CheckEditable reports whether the owner may change the item's details.
func CheckEditable(item model.Item) error {
	if item.Status != model.StatusAvailable {
		return fmt.Errorf("%w: status is %s", ErrNotEditable, item.Status)
	}
	return nil
}

// FailedTransition maps a lost conditional update to the error the caller
// would have seen had it read the winning state: a conflict for reserve,
// not-reserved for confirm and cancel.
func FailedTransition(expected model.ItemStatus) error {
	if expected == model.StatusAvailable {
		return ErrConflict
	}
	return ErrNotReserved
}
