package model

import (
	"regexp"
	"time"
)

// GiftList is the shareable unit. Slug is immutable and doubles as the
// live room identifier.
type GiftList struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	EventDate   *time.Time `json:"eventDate"`
	UserID      string     `json:"userId"`
	Revision    int64      `json:"revision"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// GiftListDetails holds the owner-editable fields of a list.
type GiftListDetails struct {
	Title       string
	Description *string
	EventDate   *time.Time
}

// ListView is the public representation of a list with its content.
type ListView struct {
	GiftList
	OwnerName  string         `json:"ownerName"`
	Categories []CategoryView `json:"categories"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidSlug reports whether slug is URL-safe: lowercase letters, digits and
// single dashes, 3 to 64 characters.
func ValidSlug(slug string) bool {
	return len(slug) >= 3 && len(slug) <= 64 && slugPattern.MatchString(slug)
}
