package model

import "time"

// ItemStatus is the reservation state of an item.
type ItemStatus string

const (
	StatusAvailable ItemStatus = "AVAILABLE"
	StatusReserved  ItemStatus = "RESERVED"
	StatusPurchased ItemStatus = "PURCHASED"
)

// Valid reports whether s is one of the known statuses.
func (s ItemStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusReserved, StatusPurchased:
		return true
	}
	return false
}

// Item is a reservable gift entry. PurchaserName is set if and only if the
// status is not AVAILABLE; PurchaserEmail is optional.
type Item struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Description    *string    `json:"description"`
	Price          *float64   `json:"price"`
	LinkURL        *string    `json:"linkUrl"`
	ImageURL       *string    `json:"imageUrl"`
	Status         ItemStatus `json:"status"`
	PurchaserName  *string    `json:"purchaserName"`
	PurchaserEmail *string    `json:"purchaserEmail"`
	CategoryID     string     `json:"categoryId"`
	Revision       int64      `json:"revision"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// ItemDetails holds the owner-editable fields of an item.
type ItemDetails struct {
	Name        string
	Description *string
	Price       *float64
	LinkURL     *string
	ImageURL    *string
	CategoryID  string
}

// ItemScope is an item together with the list it belongs to, used for
// ownership checks and to resolve the live room.
type ItemScope struct {
	Item     Item
	ListID   string
	ListSlug string
	OwnerID  string
}

// ItemRef identifies a deleted item.
type ItemRef struct {
	ID         string `json:"id"`
	CategoryID string `json:"categoryId"`
}
