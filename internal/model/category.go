package model

import "time"

// Category is an ordered grouping of items within one list.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ListID    string    `json:"listId"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CategoryScope is a category with its list's slug and owner.
type CategoryScope struct {
	Category Category
	ListSlug string
	OwnerID  string
}

// CategoryRef identifies a deleted category.
type CategoryRef struct {
	ID string `json:"id"`
}

// CategoryView is a category with its items, as shown on the public page.
type CategoryView struct {
	Category
	Items []Item `json:"items"`
}
