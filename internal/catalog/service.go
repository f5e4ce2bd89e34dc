package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// FileCleaner removes the stored media file bound to a content item.
// It runs before the content row goes away so no file is left behind.
type FileCleaner interface {
	ContentRecordDeleted(ctx context.Context, contentID int64) error
}

// Service provides the catalog CRUD operations
type Service struct {
	repo   Repository
	files  FileCleaner
	logger *slog.Logger
}

// NewService creates a new catalog service
func NewService(repo Repository, files FileCleaner, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		files:  files,
		logger: logger.With("component", "catalog"),
	}
}

// ContentInput carries the writable fields of a content item
type ContentInput struct {
	Title     string `json:"title"`
	Category  string `json:"category"`
	CreatorID int64  `json:"creatorId"`
}

// CreateCreator validates and stores a new creator
func (s *Service) CreateCreator(ctx context.Context, name string) (*Creator, error) {
	name = strings.TrimSpace(name)
	if err := validateCreatorName(name); err != nil {
		return nil, err
	}

	creator := &Creator{Name: name}
	if err := s.repo.CreateCreator(ctx, creator); err != nil {
		return nil, fmt.Errorf("failed to create creator: %w", err)
	}
	return creator, nil
}

// GetCreator returns a creator by ID
func (s *Service) GetCreator(ctx context.Context, id int64) (*Creator, error) {
	return s.repo.FindCreator(ctx, id)
}

// ListCreators returns all creators
func (s *Service) ListCreators(ctx context.Context) ([]*Creator, error) {
	return s.repo.ListCreators(ctx)
}

// UpdateCreator renames a creator
func (s *Service) UpdateCreator(ctx context.Context, id int64, name string) (*Creator, error) {
	creator, err := s.repo.FindCreator(ctx, id)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if err := validateCreatorName(name); err != nil {
		return nil, err
	}
	creator.Name = name

	if err := s.repo.UpdateCreator(ctx, creator); err != nil {
		return nil, fmt.Errorf("failed to update creator: %w", err)
	}
	return creator, nil
}

// DeleteCreator removes a creator together with its contents and their files
func (s *Service) DeleteCreator(ctx context.Context, id int64) error {
	if _, err := s.repo.FindCreator(ctx, id); err != nil {
		return err
	}

	contents, err := s.repo.ListContentsByCreator(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list creator contents: %w", err)
	}
	// A failure keeps the creator and every content row. Contents cleaned
	// before it stay in place without their files.
	for i, content := range contents {
		if err := s.cleanupFile(ctx, content.ID); err != nil {
			s.logger.Error("Creator delete aborted",
				"error", err,
				"creator_id", id,
				"content_id", content.ID,
				"cleaned", i,
				"contents", len(contents),
			)
			return err
		}
	}

	if err := s.repo.DeleteCreator(ctx, id); err != nil {
		return fmt.Errorf("failed to delete creator: %w", err)
	}

	s.logger.Info("Creator deleted", "creator_id", id, "contents", len(contents))
	return nil
}

// CreateContent validates and stores a new content item without a media binding
func (s *Service) CreateContent(ctx context.Context, in ContentInput) (*Content, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}
	if err := validateCategory(in.Category); err != nil {
		return nil, err
	}
	if err := s.requireCreator(ctx, in.CreatorID); err != nil {
		return nil, err
	}

	content := &Content{
		Title:     in.Title,
		Category:  in.Category,
		CreatorID: in.CreatorID,
	}
	if err := s.repo.CreateContent(ctx, content); err != nil {
		return nil, fmt.Errorf("failed to create content: %w", err)
	}
	return content, nil
}

// GetContent returns a content item by ID
func (s *Service) GetContent(ctx context.Context, id int64) (*Content, error) {
	return s.repo.FindContent(ctx, id)
}

// ListContents returns all content items
func (s *Service) ListContents(ctx context.Context) ([]*Content, error) {
	return s.repo.ListContents(ctx)
}

// UpdateContent applies the non-blank title and category of in
func (s *Service) UpdateContent(ctx context.Context, id int64, in ContentInput) (*Content, error) {
	content, err := s.repo.FindContent(ctx, id)
	if err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(in.Title); title != "" {
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		content.Title = title
	}
	if category := strings.TrimSpace(in.Category); category != "" {
		if err := validateCategory(category); err != nil {
			return nil, err
		}
		content.Category = category
	}

	if err := s.repo.UpdateContent(ctx, content); err != nil {
		return nil, fmt.Errorf("failed to update content: %w", err)
	}
	return content, nil
}

// DeleteContent removes a content item after cleaning up its media file
func (s *Service) DeleteContent(ctx context.Context, id int64) error {
	if _, err := s.repo.FindContent(ctx, id); err != nil {
		return err
	}
	if err := s.cleanupFile(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteContent(ctx, id); err != nil {
		return fmt.Errorf("failed to delete content: %w", err)
	}

	s.logger.Info("Content deleted", "content_id", id)
	return nil
}

// CreateUser validates and stores a new user
func (s *Service) CreateUser(ctx context.Context, name, email string) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if err := validateUser(name, email); err != nil {
		return nil, err
	}

	user := &User{Name: name, Email: email}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUser returns a user by ID
func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.FindUser(ctx, id)
}

// ListUsers returns all users
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.repo.ListUsers(ctx)
}

// DeleteUser removes a user and, through the store, the user's playlists
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.repo.DeleteUser(ctx, id)
}

// CreatePlaylist validates and stores a new empty playlist
func (s *Service) CreatePlaylist(ctx context.Context, name string, userID int64) (*Playlist, error) {
	name = strings.TrimSpace(name)
	if err := validatePlaylistName(name); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindUser(ctx, userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, errUserMissing
		}
		return nil, err
	}

	playlist := &Playlist{Name: name, UserID: userID, ContentIDs: []int64{}}
	if err := s.repo.CreatePlaylist(ctx, playlist); err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}
	return playlist, nil
}

// GetPlaylist returns a playlist with its items
func (s *Service) GetPlaylist(ctx context.Context, id int64) (*Playlist, error) {
	return s.repo.FindPlaylist(ctx, id)
}

// ListPlaylists returns all playlists with their items
func (s *Service) ListPlaylists(ctx context.Context) ([]*Playlist, error) {
	return s.repo.ListPlaylists(ctx)
}

// RenamePlaylist changes the name of a playlist
func (s *Service) RenamePlaylist(ctx context.Context, id int64, name string) (*Playlist, error) {
	name = strings.TrimSpace(name)
	if err := validatePlaylistName(name); err != nil {
		return nil, err
	}
	if err := s.repo.RenamePlaylist(ctx, id, name); err != nil {
		return nil, err
	}
	return s.repo.FindPlaylist(ctx, id)
}

// DeletePlaylist removes a playlist
func (s *Service) DeletePlaylist(ctx context.Context, id int64) error {
	return s.repo.DeletePlaylist(ctx, id)
}

// AddPlaylistItem appends a content item to a playlist. Adding an item
// that is already present is a no-op.
func (s *Service) AddPlaylistItem(ctx context.Context, playlistID, contentID int64) (*Playlist, error) {
	if _, err := s.repo.FindPlaylist(ctx, playlistID); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindContent(ctx, contentID); err != nil {
		if errors.Is(err, ErrContentNotFound) {
			return nil, errContentMissing
		}
		return nil, err
	}

	if err := s.repo.AddPlaylistItem(ctx, playlistID, contentID); err != nil {
		return nil, fmt.Errorf("failed to add playlist item: %w", err)
	}
	return s.repo.FindPlaylist(ctx, playlistID)
}

// RemovePlaylistItem removes a content item from a playlist
func (s *Service) RemovePlaylistItem(ctx context.Context, playlistID, contentID int64) error {
	return s.repo.RemovePlaylistItem(ctx, playlistID, contentID)
}

func (s *Service) requireCreator(ctx context.Context, id int64) error {
	if _, err := s.repo.FindCreator(ctx, id); err != nil {
		if errors.Is(err, ErrCreatorNotFound) {
			return errCreatorMissing
		}
		return err
	}
	return nil
}

func (s *Service) cleanupFile(ctx context.Context, contentID int64) error {
	if s.files == nil {
		return nil
	}
	if err := s.files.ContentRecordDeleted(ctx, contentID); err != nil {
		return fmt.Errorf("failed to clean up media of content %d: %w", contentID, err)
	}
	return nil
}
