package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pavel-fokin/media-catalog/internal/catalog"
)

// CreateUser stores a user and sets its ID
func (r *Repository) CreateUser(ctx context.Context, user *catalog.User) error {
	result, err := r.db.ExecContext(ctx, `INSERT INTO users (name, email) VALUES (?, ?)`, user.Name, user.Email)
	if err != nil {
		return fmt.Errorf("failed to create user record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user id: %w", err)
	}
	user.ID = id

	return nil
}

// FindUser retrieves a user by ID
func (r *Repository) FindUser(ctx context.Context, id int64) (*catalog.User, error) {
	var user catalog.User
	err := r.db.QueryRowContext(ctx, `SELECT id, name, email FROM users WHERE id = ?`, id).
		Scan(&user.ID, &user.Name, &user.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return &user, nil
}

// ListUsers retrieves all users
func (r *Repository) ListUsers(ctx context.Context) ([]*catalog.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, email FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []*catalog.User{}
	for rows.Next() {
		var user catalog.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

// DeleteUser removes a user; the user's playlists go with it
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user record: %w", err)
	}
	return affected(result, catalog.ErrUserNotFound)
}
