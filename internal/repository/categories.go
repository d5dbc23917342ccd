package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"giftlist-api/internal/model"
)

// CreateCategory appends a category after the list's last one.
func (s *SQLStore) CreateCategory(ctx context.Context, category *model.Category) error {
	var maxPosition sql.NullInt64
	err := s.queryRow(ctx, `SELECT MAX(position) FROM categories WHERE list_id = ?`, category.ListID).
		Scan(&maxPosition)
	if err != nil {
		return fmt.Errorf("failed to read category position: %w", err)
	}

	now := s.now()
	category.Position = 0
	if maxPosition.Valid {
		category.Position = int(maxPosition.Int64) + 1
	}
	category.CreatedAt = now
	category.UpdatedAt = now

	query := `
		INSERT INTO categories (id, name, list_id, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err = s.exec(ctx, query,
		category.ID, category.Name, category.ListID, category.Position, category.CreatedAt, category.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// GetCategoryScope retrieves a category with its list's slug and owner.
func (s *SQLStore) GetCategoryScope(ctx context.Context, id string) (*model.CategoryScope, error) {
	query := `
		SELECT c.id, c.name, c.list_id, c.position, c.created_at, c.updated_at, l.slug, l.user_id
		FROM categories c
		JOIN gift_lists l ON l.id = c.list_id
		WHERE c.id = ?`

	var scope model.CategoryScope
	c := &scope.Category
	err := s.queryRow(ctx, query, id).
		Scan(&c.ID, &c.Name, &c.ListID, &c.Position, &c.CreatedAt, &c.UpdatedAt, &scope.ListSlug, &scope.OwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &scope, nil
}

// UpdateCategory writes the category's name.
func (s *SQLStore) UpdateCategory(ctx context.Context, category *model.Category) error {
	category.UpdatedAt = s.now()

	ok, err := s.execAffected(ctx, `UPDATE categories SET name = ?, updated_at = ? WHERE id = ?`,
		category.Name, category.UpdatedAt, category.ID)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory removes a category; its items go with it by cascade.
func (s *SQLStore) DeleteCategory(ctx context.Context, id string) error {
	ok, err := s.execAffected(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// ListCategoriesByList returns the categories of a list in order.
func (s *SQLStore) ListCategoriesByList(ctx context.Context, listID string) ([]model.Category, error) {
	query := `
		SELECT id, name, list_id, position, created_at, updated_at
		FROM categories
		WHERE list_id = ?
		ORDER BY position, created_at`

	rows, err := s.query(ctx, query, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ListID, &c.Position, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
