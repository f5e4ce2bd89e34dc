package catalog

import "context"

// Creator is the author a content item belongs to
type Creator struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Binding links a content item to exactly one stored media file.
// Both fields are always set together.
type Binding struct {
	FileName  string `json:"fileName"`
	MediaType string `json:"mediaType"`
}

// Content represents a media content item
type Content struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Category  string   `json:"category"`
	CreatorID int64    `json:"creatorId"`
	Media     *Binding `json:"media,omitempty"`
}

// User owns playlists
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Playlist is an ordered-by-insertion set of content items owned by a user
type Playlist struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	UserID     int64   `json:"userId"`
	ContentIDs []int64 `json:"contentIds"`
}

// CreatorRepository defines the interface for creator persistence
type CreatorRepository interface {
	CreateCreator(ctx context.Context, creator *Creator) error
	FindCreator(ctx context.Context, id int64) (*Creator, error)
	ListCreators(ctx context.Context) ([]*Creator, error)
	UpdateCreator(ctx context.Context, creator *Creator) error
	DeleteCreator(ctx context.Context, id int64) error
}

// ContentRepository defines the interface for content persistence.
// UpdateContent only touches title and category; the media binding is
// owned by ReplaceBinding and ClearBinding.
type ContentRepository interface {
	CreateContent(ctx context.Context, content *Content) error
	FindContent(ctx context.Context, id int64) (*Content, error)
	FindContentByFileName(ctx context.Context, fileName string) (*Content, error)
	ListContents(ctx context.Context) ([]*Content, error)
	ListContentsByCreator(ctx context.Context, creatorID int64) ([]*Content, error)
	UpdateContent(ctx context.Context, content *Content) error
	DeleteContent(ctx context.Context, id int64) error

	// ReplaceBinding sets the binding and returns the one it replaced, if any
	ReplaceBinding(ctx context.Context, contentID int64, binding Binding) (*Binding, error)

	// ClearBinding clears the binding only while it still names fileName
	ClearBinding(ctx context.Context, contentID int64, fileName string) (bool, error)
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	FindUser(ctx context.Context, id int64) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// PlaylistRepository defines the interface for playlist persistence
type PlaylistRepository interface {
	CreatePlaylist(ctx context.Context, playlist *Playlist) error
	FindPlaylist(ctx context.Context, id int64) (*Playlist, error)
	ListPlaylists(ctx context.Context) ([]*Playlist, error)
	RenamePlaylist(ctx context.Context, id int64, name string) error
	DeletePlaylist(ctx context.Context, id int64) error
	AddPlaylistItem(ctx context.Context, playlistID, contentID int64) error
	RemovePlaylistItem(ctx context.Context, playlistID, contentID int64) error
}

// Repository is the full relational store the catalog runs on
type Repository interface {
	CreatorRepository
	ContentRepository
	UserRepository
	PlaylistRepository
}
