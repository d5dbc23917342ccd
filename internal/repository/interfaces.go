package repository

import (
	"context"
	"errors"

	"giftlist-api/internal/model"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a unique constraint (list slug, user
	// email) is violated.
	ErrDuplicate = errors.New("already exists")
)

// ItemRepository defines item data access methods.
type ItemRepository interface {
	// CreateItem inserts a new AVAILABLE item at revision 1.
	CreateItem(ctx context.Context, item *model.Item) error

	// GetItem retrieves an item by ID.
	GetItem(ctx context.Context, id string) (*model.Item, error)

	// GetItemScope retrieves an item with its list's id, slug and owner.
	GetItemScope(ctx context.Context, id string) (*model.ItemScope, error)

	// TransitionItem writes next's status and purchaser fields only if the
	// stored status still equals expected. It reports whether a row was
	// updated; false means another writer got there first.
	TransitionItem(ctx context.Context, next *model.Item, expected model.ItemStatus) (bool, error)

	// UpdateItemDetails writes the editable fields only while the stored
	// status is AVAILABLE. It reports whether a row was updated.
	UpdateItemDetails(ctx context.Context, item *model.Item) (bool, error)

	// DeleteItem removes an item in any status. It reports whether a row
	// was deleted.
	DeleteItem(ctx context.Context, id string) (bool, error)

	// ListItemsByList returns all items of a list ordered by category
	// position and creation time.
	ListItemsByList(ctx context.Context, listID string) ([]model.Item, error)
}

// CategoryRepository defines category data access methods.
type CategoryRepository interface {
	// CreateCategory appends a category at the end of its list.
	CreateCategory(ctx context.Context, category *model.Category) error

	// GetCategoryScope retrieves a category with its list's slug and owner.
	GetCategoryScope(ctx context.Context, id string) (*model.CategoryScope, error)

	// UpdateCategory writes the category's name.
	UpdateCategory(ctx context.Context, category *model.Category) error

	// DeleteCategory removes a category and, by cascade, its items.
	DeleteCategory(ctx context.Context, id string) error

	// ListCategoriesByList returns the categories of a list in order.
	ListCategoriesByList(ctx context.Context, listID string) ([]model.Category, error)
}

// GiftListRepository defines gift list data access methods.
type GiftListRepository interface {
	CreateList(ctx context.Context, list *model.GiftList) error
	GetList(ctx context.Context, id string) (*model.GiftList, error)
	GetListBySlug(ctx context.Context, slug string) (*model.GiftList, error)
	ListByOwner(ctx context.Context, userID string) ([]model.GiftList, error)

	// UpdateListDetails writes title, description and event date and bumps
	// the revision.
	UpdateListDetails(ctx context.Context, list *model.GiftList) error

	// DeleteList removes a list with its categories and items.
	DeleteList(ctx context.Context, id string) error
}

// UserRepository defines owner account data access methods.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// Store is the full record store.
type Store interface {
	ItemRepository
	CategoryRepository
	GiftListRepository
	UserRepository

	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// Close closes the repository connection.
	Close() error
}
