package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pavel-fokin/media-catalog/internal/catalog"
)

// CreateCreator stores a creator and sets its ID
func (r *Repository) CreateCreator(ctx context.Context, creator *catalog.Creator) error {
	result, err := r.db.ExecContext(ctx, `INSERT INTO creators (name) VALUES (?)`, creator.Name)
	if err != nil {
		return fmt.Errorf("failed to create creator record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get creator id: %w", err)
	}
	creator.ID = id

	return nil
}

// FindCreator retrieves a creator by ID
func (r *Repository) FindCreator(ctx context.Context, id int64) (*catalog.Creator, error) {
	var creator catalog.Creator
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM creators WHERE id = ?`, id).
		Scan(&creator.ID, &creator.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrCreatorNotFound
		}
		return nil, fmt.Errorf("failed to find creator: %w", err)
	}

	return &creator, nil
}

// ListCreators retrieves all creators
func (r *Repository) ListCreators(ctx context.Context) ([]*catalog.Creator, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM creators ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query creators: %w", err)
	}
	defer rows.Close()

	creators := []*catalog.Creator{}
	for rows.Next() {
		var creator catalog.Creator
		if err := rows.Scan(&creator.ID, &creator.Name); err != nil {
			return nil, fmt.Errorf("failed to scan creator row: %w", err)
		}
		creators = append(creators, &creator)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating creator rows: %w", err)
	}

	return creators, nil
}

// UpdateCreator stores the name of an existing creator
func (r *Repository) UpdateCreator(ctx context.Context, creator *catalog.Creator) error {
	result, err := r.db.ExecContext(ctx, `UPDATE creators SET name = ? WHERE id = ?`, creator.Name, creator.ID)
	if err != nil {
		return fmt.Errorf("failed to update creator record: %w", err)
	}
	return affected(result, catalog.ErrCreatorNotFound)
}

// DeleteCreator removes a creator; its contents go with it
func (r *Repository) DeleteCreator(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM creators WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete creator record: %w", err)
	}
	return affected(result, catalog.ErrCreatorNotFound)
}
