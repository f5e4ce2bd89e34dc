package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pavel-fokin/media-catalog/internal/catalog"
)

const contentColumns = `id, title, category, creator_id, stored_file_name, media_type`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(row rowScanner) (*catalog.Content, error) {
	var (
		content   catalog.Content
		fileName  sql.NullString
		mediaType sql.NullString
	)
	if err := row.Scan(
		&content.ID,
		&content.Title,
		&content.Category,
		&content.CreatorID,
		&fileName,
		&mediaType,
	); err != nil {
		return nil, err
	}
	if fileName.Valid {
		content.Media = &catalog.Binding{FileName: fileName.String, MediaType: mediaType.String}
	}
	return &content, nil
}

// CreateContent stores a content item without a binding and sets its ID
func (r *Repository) CreateContent(ctx context.Context, content *catalog.Content) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO contents (title, category, creator_id) VALUES (?, ?, ?)`,
		content.Title,
		content.Category,
		content.CreatorID,
	)
	if err != nil {
		return fmt.Errorf("failed to create content record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get content id: %w", err)
	}
	content.ID = id
	content.Media = nil

	return nil
}

// FindContent retrieves a content item by ID
func (r *Repository) FindContent(ctx context.Context, id int64) (*catalog.Content, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM contents WHERE id = ?`, id)
	content, err := scanContent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to find content: %w", err)
	}
	return content, nil
}

// FindContentByFileName retrieves the content item bound to a stored file
func (r *Repository) FindContentByFileName(ctx context.Context, fileName string) (*catalog.Content, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM contents WHERE stored_file_name = ?`, fileName)
	content, err := scanContent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to find content by file name: %w", err)
	}
	return content, nil
}

// ListContents retrieves all content items
func (r *Repository) ListContents(ctx context.Context) ([]*catalog.Content, error) {
	return r.listContents(ctx, `SELECT `+contentColumns+` FROM contents ORDER BY id`)
}

// ListContentsByCreator retrieves the content items of one creator
func (r *Repository) ListContentsByCreator(ctx context.Context, creatorID int64) ([]*catalog.Content, error) {
	return r.listContents(ctx, `SELECT `+contentColumns+` FROM contents WHERE creator_id = ? ORDER BY id`, creatorID)
}

func (r *Repository) listContents(ctx context.Context, query string, args ...any) ([]*catalog.Content, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contents: %w", err)
	}
	defer rows.Close()

	contents := []*catalog.Content{}
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content row: %w", err)
		}
		contents = append(contents, content)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content rows: %w", err)
	}

	return contents, nil
}

// UpdateContent stores the title and category of an existing content item
func (r *Repository) UpdateContent(ctx context.Context, content *catalog.Content) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE contents SET title = ?, category = ? WHERE id = ?`,
		content.Title,
		content.Category,
		content.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update content record: %w", err)
	}
	return affected(result, catalog.ErrContentNotFound)
}

// DeleteContent removes a content item
func (r *Repository) DeleteContent(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM contents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete content record: %w", err)
	}
	return affected(result, catalog.ErrContentNotFound)
}

// ReplaceBinding sets the binding of a content item and returns the
// previous one, both inside one transaction
func (r *Repository) ReplaceBinding(ctx context.Context, contentID int64, binding catalog.Binding) (*catalog.Binding, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var fileName, mediaType sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT stored_file_name, media_type FROM contents WHERE id = ?`, contentID,
	).Scan(&fileName, &mediaType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to read binding: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE contents SET stored_file_name = ?, media_type = ? WHERE id = ?`,
		binding.FileName,
		binding.MediaType,
		contentID,
	); err != nil {
		return nil, fmt.Errorf("failed to update binding: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit binding: %w", err)
	}

	if !fileName.Valid {
		return nil, nil
	}
	return &catalog.Binding{FileName: fileName.String, MediaType: mediaType.String}, nil
}

// ClearBinding removes the binding of a content item if it still names
// fileName. It reports whether a binding was cleared.
func (r *Repository) ClearBinding(ctx context.Context, contentID int64, fileName string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE contents SET stored_file_name = NULL, media_type = NULL WHERE id = ? AND stored_file_name = ?`,
		contentID,
		fileName,
	)
	if err != nil {
		return false, fmt.Errorf("failed to clear binding: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM contents WHERE id = ?`, contentID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, catalog.ErrContentNotFound
		}
		return false, fmt.Errorf("failed to find content: %w", err)
	}
	return false, nil
}
