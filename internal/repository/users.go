package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"giftlist-api/internal/model"
)

// CreateUser inserts an owner account. A taken email yields ErrDuplicate.
func (s *SQLStore) CreateUser(ctx context.Context, user *model.User) error {
	user.CreatedAt = s.now()

	_, err := s.exec(ctx, `INSERT INTO users (id, email, name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.Name, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if s.dialect.isUniqueViolation(err) {
			return fmt.Errorf("email %q: %w", user.Email, ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by email.
func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUserBy(ctx, "email", email)
}

// GetUserByID retrieves a user by ID.
func (s *SQLStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.getUserBy(ctx, "id", id)
}

func (s *SQLStore) getUserBy(ctx context.Context, column, value string) (*model.User, error) {
	query := `SELECT id, email, name, password_hash, created_at FROM users WHERE ` + column + ` = ?`

	var u model.User
	err := s.queryRow(ctx, query, value).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
