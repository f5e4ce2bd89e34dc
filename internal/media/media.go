// Package media binds uploaded media files to catalog content items and keeps
// the file store and the content repository consistent with each other.
//
// Write ordering is the consistency contract. A file is written completely
// before any content refers to it, a replaced file is deleted only after the
// new binding is committed, and a removed file is deleted before its binding
// is cleared. The worst outcome of a crash or a lost race is an orphaned
// file, which the Sweeper collects later; a binding never names a file that
// was not fully written.
package media

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/pavel-fokin/media-catalog/internal/catalog"
)

// DefaultMaxSize is the largest accepted media payload (50 MiB)
const DefaultMaxSize int64 = 50 << 20

// FallbackMediaType is served for files no content item refers to
const FallbackMediaType = "application/octet-stream"

var supportedMediaTypes = map[string]struct{}{
	"video/mp4":  {},
	"audio/mp3":  {},
	"audio/mpeg": {},
	"video/avi":  {},
	"video/mov":  {},
}

// Supported reports whether mediaType may be bound to a content item
func Supported(mediaType string) bool {
	_, ok := supportedMediaTypes[mediaType]
	return ok
}

var (
	ErrEmptyUpload          = catalog.Validation("no file uploaded")
	ErrUnsupportedMediaType = catalog.Validation("unsupported media type, use MP4, MP3, AVI or MOV")
	ErrPayloadTooLarge      = catalog.Validation("file too large")
	ErrContentNotFound      = catalog.ErrContentNotFound
	ErrFileNotFound         = catalog.NotFound("file not found")

	// ErrStorage marks file store I/O failures
	ErrStorage = errors.New("storage failure")
)

// StoredFile describes a file held by the file store
type StoredFile struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// FileStorage defines the interface for the physical file storage
type FileStorage interface {
	// Save writes content under a name that must not exist yet and returns
	// the number of bytes written. On error nothing is left under name.
	Save(ctx context.Context, name string, content io.Reader) (int64, error)

	// Open returns the content of an existing file, or ErrFileNotFound
	Open(ctx context.Context, name string) (io.ReadCloser, *StoredFile, error)

	// Delete removes a file. Deleting an absent file is not an error.
	Delete(ctx context.Context, name string) error

	// List returns every stored file
	List(ctx context.Context) ([]StoredFile, error)
}

// ContentRepository is the part of the catalog store the binding service needs
type ContentRepository interface {
	FindContent(ctx context.Context, id int64) (*catalog.Content, error)
	FindContentByFileName(ctx context.Context, fileName string) (*catalog.Content, error)
	ReplaceBinding(ctx context.Context, contentID int64, binding catalog.Binding) (*catalog.Binding, error)
	ClearBinding(ctx context.Context, contentID int64, fileName string) (bool, error)
}

// Config tunes the binding service
type Config struct {
	MaxSize   int64
	CacheSize int
	CacheTTL  time.Duration
}

// UploadRequest represents a media upload for one content item
type UploadRequest struct {
	ContentID int64
	FileName  string
	MediaType string
	Size      int64
	Content   io.Reader
}

// BindingResult represents the binding created by an upload
type BindingResult struct {
	ContentID int64  `json:"contentId"`
	FileName  string `json:"fileName"`
	MediaType string `json:"mediaType"`
	Size      int64  `json:"size"`
}

// FileResult is a stored file ready to be served. The caller closes Content.
type FileResult struct {
	FileName  string
	MediaType string
	Size      int64
	Content   io.ReadCloser
}

// RemovalResult reports what Remove did
type RemovalResult struct {
	ContentID int64  `json:"contentId"`
	FileName  string `json:"fileName,omitempty"`
	Removed   bool   `json:"removed"`
}
