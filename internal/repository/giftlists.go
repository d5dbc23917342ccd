package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"giftlist-api/internal/model"
)

const listColumns = `id, slug, title, description, event_date, user_id, revision, created_at, updated_at`

func scanList(row scanner, list *model.GiftList) error {
	var (
		description sql.NullString
		eventDate   sql.NullTime
	)
	err := row.Scan(&list.ID, &list.Slug, &list.Title, &description, &eventDate,
		&list.UserID, &list.Revision, &list.CreatedAt, &list.UpdatedAt)
	if err != nil {
		return err
	}
	list.Description = stringPtr(description)
	list.EventDate = timePtr(eventDate)
	return nil
}

// CreateList inserts a list at revision 1. A taken slug yields ErrDuplicate.
func (s *SQLStore) CreateList(ctx context.Context, list *model.GiftList) error {
	now := s.now()
	list.Revision = 1
	list.CreatedAt = now
	list.UpdatedAt = now

	query := `INSERT INTO gift_lists (` + listColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.exec(ctx, query,
		list.ID, list.Slug, list.Title, nullString(list.Description), nullTime(list.EventDate),
		list.UserID, list.Revision, list.CreatedAt, list.UpdatedAt)
	if err != nil {
		if s.dialect.isUniqueViolation(err) {
			return fmt.Errorf("slug %q: %w", list.Slug, ErrDuplicate)
		}
		return fmt.Errorf("failed to create list: %w", err)
	}
	return nil
}

// GetList retrieves a list by ID.
func (s *SQLStore) GetList(ctx context.Context, id string) (*model.GiftList, error) {
	return s.getListBy(ctx, "id", id)
}

// GetListBySlug retrieves a list by its public slug.
func (s *SQLStore) GetListBySlug(ctx context.Context, slug string) (*model.GiftList, error) {
	return s.getListBy(ctx, "slug", slug)
}

func (s *SQLStore) getListBy(ctx context.Context, column, value string) (*model.GiftList, error) {
	query := `SELECT ` + listColumns + ` FROM gift_lists WHERE ` + column + ` = ?`

	var list model.GiftList
	if err := scanList(s.queryRow(ctx, query, value), &list); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get list: %w", err)
	}
	return &list, nil
}

// ListByOwner returns a user's lists, newest first.
func (s *SQLStore) ListByOwner(ctx context.Context, userID string) ([]model.GiftList, error) {
	query := `SELECT ` + listColumns + ` FROM gift_lists WHERE user_id = ? ORDER BY created_at DESC, id`

	rows, err := s.query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list gift lists: %w", err)
	}
	defer rows.Close()

	lists := make([]model.GiftList, 0)
	for rows.Next() {
		var list model.GiftList
		if err := scanList(rows, &list); err != nil {
			return nil, fmt.Errorf("failed to scan gift list: %w", err)
		}
		lists = append(lists, list)
	}
	return lists, rows.Err()
}

// UpdateListDetails writes title, description and event date and bumps
// the revision. The slug is never touched.
func (s *SQLStore) UpdateListDetails(ctx context.Context, list *model.GiftList) error {
	list.UpdatedAt = s.now()

	query := `
		UPDATE gift_lists
		SET title = ?, description = ?, event_date = ?, revision = revision + 1, updated_at = ?
		WHERE id = ?`

	ok, err := s.execAffected(ctx, query,
		list.Title, nullString(list.Description), nullTime(list.EventDate), list.UpdatedAt, list.ID)
	if err != nil {
		return fmt.Errorf("failed to update list: %w", err)
	}
	if !ok {
		return ErrNotFound
	}

	if err := s.queryRow(ctx, `SELECT revision FROM gift_lists WHERE id = ?`, list.ID).Scan(&list.Revision); err != nil {
		return fmt.Errorf("failed to read list revision: %w", err)
	}
	return nil
}

// DeleteList removes a list with its categories and items.
func (s *SQLStore) DeleteList(ctx context.Context, id string) error {
	ok, err := s.execAffected(ctx, `DELETE FROM gift_lists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
