package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"giftlist-api/internal/model"
)

const itemColumns = `i.id, i.name, i.description, i.price, i.link_url, i.image_url, i.status,
	i.purchaser_name, i.purchaser_email, i.category_id, i.revision, i.created_at, i.updated_at`

func scanItem(row scanner, item *model.Item, extra ...any) error {
	var (
		description, linkURL, imageURL sql.NullString
		purchaserName, purchaserEmail  sql.NullString
		price                          sql.NullFloat64
		status                         string
	)

	dest := []any{
		&item.ID, &item.Name, &description, &price, &linkURL, &imageURL, &status,
		&purchaserName, &purchaserEmail, &item.CategoryID, &item.Revision, &item.CreatedAt, &item.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}

	item.Description = stringPtr(description)
	item.Price = floatPtr(price)
	item.LinkURL = stringPtr(linkURL)
	item.ImageURL = stringPtr(imageURL)
	item.Status = model.ItemStatus(status)
	item.PurchaserName = stringPtr(purchaserName)
	item.PurchaserEmail = stringPtr(purchaserEmail)
	return nil
}

// CreateItem inserts a new AVAILABLE item at revision 1.
func (s *SQLStore) CreateItem(ctx context.Context, item *model.Item) error {
	now := s.now()
	item.Status = model.StatusAvailable
	item.PurchaserName = nil
	item.PurchaserEmail = nil
	item.Revision = 1
	item.CreatedAt = now
	item.UpdatedAt = now

	query := `
		INSERT INTO items (id, name, description, price, link_url, image_url, status,
			purchaser_name, purchaser_email, category_id, revision, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL, NULL, ?, ?, ?, ?)`

	_, err := s.exec(ctx, query,
		item.ID, item.Name, nullString(item.Description), nullFloat(item.Price),
		nullString(item.LinkURL), nullString(item.ImageURL), string(item.Status),
		item.CategoryID, item.Revision, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// GetItem retrieves an item by ID.
func (s *SQLStore) GetItem(ctx context.Context, id string) (*model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items i WHERE i.id = ?`

	var item model.Item
	if err := scanItem(s.queryRow(ctx, query, id), &item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

// GetItemScope retrieves an item with its list's id, slug and owner.
func (s *SQLStore) GetItemScope(ctx context.Context, id string) (*model.ItemScope, error) {
	query := `
		SELECT ` + itemColumns + `, l.id, l.slug, l.user_id
		FROM items i
		JOIN categories c ON c.id = i.category_id
		JOIN gift_lists l ON l.id = c.list_id
		WHERE i.id = ?`

	var scope model.ItemScope
	err := scanItem(s.queryRow(ctx, query, id), &scope.Item, &scope.ListID, &scope.ListSlug, &scope.OwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get item scope: %w", err)
	}
	return &scope, nil
}

// TransitionItem writes next's status and purchaser fields only if the
// stored status is still expected. On success next carries the new
// revision and update time.
func (s *SQLStore) TransitionItem(ctx context.Context, next *model.Item, expected model.ItemStatus) (bool, error) {
	now := s.now()
	query := `
		UPDATE items
		SET status = ?, purchaser_name = ?, purchaser_email = ?,
			revision = revision + 1, updated_at = ?
		WHERE id = ? AND status = ?`

	ok, err := s.execAffected(ctx, query,
		string(next.Status), nullString(next.PurchaserName), nullString(next.PurchaserEmail),
		now, next.ID, string(expected))
	if err != nil {
		return false, fmt.Errorf("failed to transition item: %w", err)
	}
	if !ok {
		return false, nil
	}

	if err := s.refreshRevision(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateItemDetails writes the editable fields while the stored status is
// AVAILABLE.
func (s *SQLStore) UpdateItemDetails(ctx context.Context, item *model.Item) (bool, error) {
	now := s.now()
	query := `
		UPDATE items
		SET name = ?, description = ?, price = ?, link_url = ?, image_url = ?, category_id = ?,
			revision = revision + 1, updated_at = ?
		WHERE id = ? AND status = ?`

	ok, err := s.execAffected(ctx, query,
		item.Name, nullString(item.Description), nullFloat(item.Price),
		nullString(item.LinkURL), nullString(item.ImageURL), item.CategoryID,
		now, item.ID, string(model.StatusAvailable))
	if err != nil {
		return false, fmt.Errorf("failed to update item: %w", err)
	}
	if !ok {
		return false, nil
	}

	if err := s.refreshRevision(ctx, item); err != nil {
		return false, err
	}
	return true, nil
}

// refreshRevision reloads the revision and update time after a write. The
// caller holds the item's lock so the values belong to its own write.
func (s *SQLStore) refreshRevision(ctx context.Context, item *model.Item) error {
	err := s.queryRow(ctx, `SELECT revision, updated_at FROM items WHERE id = ?`, item.ID).
		Scan(&item.Revision, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read item revision: %w", err)
	}
	return nil
}

// DeleteItem removes an item in any status.
func (s *SQLStore) DeleteItem(ctx context.Context, id string) (bool, error) {
	ok, err := s.execAffected(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete item: %w", err)
	}
	return ok, nil
}

// ListItemsByList returns all items of a list ordered by category position
// and creation time.
func (s *SQLStore) ListItemsByList(ctx context.Context, listID string) ([]model.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items i
		JOIN categories c ON c.id = i.category_id
		WHERE c.list_id = ?
		ORDER BY c.position, i.created_at, i.id`

	rows, err := s.query(ctx, query, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := make([]model.Item, 0)
	for rows.Next() {
		var item model.Item
		if err := scanItem(rows, &item); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
