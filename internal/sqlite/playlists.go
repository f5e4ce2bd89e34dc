package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pavel-fokin/media-catalog/internal/catalog"
)

// CreatePlaylist stores an empty playlist and sets its ID
func (r *Repository) CreatePlaylist(ctx context.Context, playlist *catalog.Playlist) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO playlists (name, user_id) VALUES (?, ?)`,
		playlist.Name,
		playlist.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to create playlist record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get playlist id: %w", err)
	}
	playlist.ID = id
	playlist.ContentIDs = []int64{}

	return nil
}

// FindPlaylist retrieves a playlist and its items by ID
func (r *Repository) FindPlaylist(ctx context.Context, id int64) (*catalog.Playlist, error) {
	var playlist catalog.Playlist
	err := r.db.QueryRowContext(ctx, `SELECT id, name, user_id FROM playlists WHERE id = ?`, id).
		Scan(&playlist.ID, &playlist.Name, &playlist.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrPlaylistNotFound
		}
		return nil, fmt.Errorf("failed to find playlist: %w", err)
	}

	items, err := r.playlistItems(ctx, `WHERE playlist_id = ?`, id)
	if err != nil {
		return nil, err
	}
	playlist.ContentIDs = items[id]
	if playlist.ContentIDs == nil {
		playlist.ContentIDs = []int64{}
	}

	return &playlist, nil
}

// ListPlaylists retrieves all playlists with their items
func (r *Repository) ListPlaylists(ctx context.Context) ([]*catalog.Playlist, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, user_id FROM playlists ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	playlists := []*catalog.Playlist{}
	for rows.Next() {
		var playlist catalog.Playlist
		if err := rows.Scan(&playlist.ID, &playlist.Name, &playlist.UserID); err != nil {
			return nil, fmt.Errorf("failed to scan playlist row: %w", err)
		}
		playlists = append(playlists, &playlist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating playlist rows: %w", err)
	}
	rows.Close()

	items, err := r.playlistItems(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, playlist := range playlists {
		playlist.ContentIDs = items[playlist.ID]
		if playlist.ContentIDs == nil {
			playlist.ContentIDs = []int64{}
		}
	}

	return playlists, nil
}

// playlistItems returns content IDs per playlist in insertion order
func (r *Repository) playlistItems(ctx context.Context, where string, args ...any) (map[int64][]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT playlist_id, content_id FROM playlist_items `+where+` ORDER BY rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist items: %w", err)
	}
	defer rows.Close()

	items := make(map[int64][]int64)
	for rows.Next() {
		var playlistID, contentID int64
		if err := rows.Scan(&playlistID, &contentID); err != nil {
			return nil, fmt.Errorf("failed to scan playlist item row: %w", err)
		}
		items[playlistID] = append(items[playlistID], contentID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating playlist item rows: %w", err)
	}

	return items, nil
}

// RenamePlaylist changes the name of a playlist
func (r *Repository) RenamePlaylist(ctx context.Context, id int64, name string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE playlists SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("failed to rename playlist: %w", err)
	}
	return affected(result, catalog.ErrPlaylistNotFound)
}

// DeletePlaylist removes a playlist and its items
func (r *Repository) DeletePlaylist(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM playlists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist record: %w", err)
	}
	return affected(result, catalog.ErrPlaylistNotFound)
}

// AddPlaylistItem appends a content item; adding it twice is a no-op
func (r *Repository) AddPlaylistItem(ctx context.Context, playlistID, contentID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO playlist_items (playlist_id, content_id) VALUES (?, ?)`,
		playlistID,
		contentID,
	)
	if err != nil {
		return fmt.Errorf("failed to add playlist item: %w", err)
	}
	return nil
}

// RemovePlaylistItem removes a content item from a playlist
func (r *Repository) RemovePlaylistItem(ctx context.Context, playlistID, contentID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM playlist_items WHERE playlist_id = ? AND content_id = ?`,
		playlistID,
		contentID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove playlist item: %w", err)
	}
	return affected(result, catalog.ErrPlaylistItemNotFound)
}
