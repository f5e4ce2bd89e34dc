package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/pavel-fokin/media-catalog/internal/catalog"
)

// Service binds media files to content items
type Service struct {
	storage FileStorage
	repo    ContentRepository
	maxSize int64
	cache   *mediaTypeCache
	logger  *slog.Logger
}

// NewService creates a new media binding service
func NewService(storage FileStorage, repo ContentRepository, cfg Config, logger *slog.Logger) *Service {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		storage: storage,
		repo:    repo,
		maxSize: cfg.MaxSize,
		cache:   newMediaTypeCache(cfg.CacheSize, cfg.CacheTTL),
		logger:  logger.With("component", "media"),
	}
}

// MaxSize returns the largest accepted payload in bytes
func (s *Service) MaxSize() int64 {
	return s.maxSize
}

// Upload stores a media file and binds it to a content item, replacing and
// discarding any previously bound file.
//
// Checks run in order: empty payload, unknown content, unsupported media
// type, oversized payload. req.Size is the declared size; the bytes actually
// read are checked against the same limits.
func (s *Service) Upload(ctx context.Context, req *UploadRequest) (result *BindingResult, err error) {
	defer func() { observe("upload", err) }()

	if req.Content == nil || req.Size == 0 {
		return nil, ErrEmptyUpload
	}
	if _, err := s.repo.FindContent(ctx, req.ContentID); err != nil {
		return nil, err
	}
	if !Supported(req.MediaType) {
		return nil, ErrUnsupportedMediaType
	}
	if req.Size > s.maxSize {
		return nil, ErrPayloadTooLarge
	}

	name := storageName(req.ContentID, req.FileName)

	written, err := s.storage.Save(ctx, name, io.LimitReader(req.Content, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to save %s: %w", ErrStorage, name, err)
	}
	if written == 0 {
		s.discard(ctx, name)
		return nil, ErrEmptyUpload
	}
	if written > s.maxSize {
		s.discard(ctx, name)
		return nil, ErrPayloadTooLarge
	}

	binding := catalog.Binding{FileName: name, MediaType: req.MediaType}
	previous, err := s.repo.ReplaceBinding(ctx, req.ContentID, binding)
	if err != nil {
		s.discard(ctx, name)
		return nil, fmt.Errorf("failed to bind %s to content %d: %w", name, req.ContentID, err)
	}
	s.cache.set(name, req.MediaType)
	uploadedBytesTotal.Add(float64(written))

	if previous != nil && previous.FileName != name {
		s.cache.invalidate(previous.FileName)
		if err := s.storage.Delete(ctx, previous.FileName); err != nil {
			orphanedFilesTotal.WithLabelValues("replace").Inc()
			s.logger.Warn("Failed to delete replaced file",
				"error", err,
				"content_id", req.ContentID,
				"file_name", previous.FileName,
			)
		}
	}

	s.logger.Info("Media bound",
		"content_id", req.ContentID,
		"file_name", name,
		"media_type", req.MediaType,
		"size", written,
	)

	return &BindingResult{
		ContentID: req.ContentID,
		FileName:  name,
		MediaType: req.MediaType,
		Size:      written,
	}, nil
}

// RejectOversized returns the error for an upload whose payload is known to
// exceed the limit without being read. The content and media type checks
// still come first; an empty mediaType skips the type check.
func (s *Service) RejectOversized(ctx context.Context, contentID int64, mediaType string) (err error) {
	defer func() { observe("upload", err) }()

	if _, err := s.repo.FindContent(ctx, contentID); err != nil {
		return err
	}
	if mediaType != "" && !Supported(mediaType) {
		return ErrUnsupportedMediaType
	}
	return ErrPayloadTooLarge
}

// Download opens a stored file. The media type comes from the content the
// file is bound to and falls back to FallbackMediaType for orphans.
func (s *Service) Download(ctx context.Context, fileName string) (result *FileResult, err error) {
	defer func() { observe("download", err) }()

	if !ValidFileName(fileName) {
		return nil, ErrFileNotFound
	}

	content, info, err := s.storage.Open(ctx, fileName)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("%w: failed to open %s: %w", ErrStorage, fileName, err)
	}

	return &FileResult{
		FileName:  fileName,
		MediaType: s.resolveMediaType(ctx, fileName),
		Size:      info.Size,
		Content:   content,
	}, nil
}

// Remove deletes the file bound to a content item and clears the binding.
// Removing from a content item without a binding succeeds and does nothing.
func (s *Service) Remove(ctx context.Context, contentID int64) (result *RemovalResult, err error) {
	defer func() { observe("remove", err) }()
	return s.unbind(ctx, contentID)
}

// ContentRecordDeleted cleans up the file of a content item that is about
// to be deleted.
func (s *Service) ContentRecordDeleted(ctx context.Context, contentID int64) (err error) {
	defer func() { observe("cascade", err) }()
	_, err = s.unbind(ctx, contentID)
	return err
}

func (s *Service) unbind(ctx context.Context, contentID int64) (*RemovalResult, error) {
	content, err := s.repo.FindContent(ctx, contentID)
	if err != nil {
		return nil, err
	}

	result := &RemovalResult{ContentID: contentID}
	if content.Media == nil {
		return result, nil
	}
	fileName := content.Media.FileName
	s.cache.invalidate(fileName)

	// The file goes first; the binding is cleared whatever happened to it.
	deleteErr := s.storage.Delete(ctx, fileName)

	cleared, err := s.repo.ClearBinding(ctx, contentID, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to clear binding of content %d: %w", contentID, err)
	}
	if !cleared {
		s.logger.Info("Binding changed during removal", "content_id", contentID, "file_name", fileName)
	}

	if deleteErr != nil {
		orphanedFilesTotal.WithLabelValues("remove").Inc()
		s.logger.Error("Failed to delete bound file",
			"error", deleteErr,
			"content_id", contentID,
			"file_name", fileName,
		)
		return nil, fmt.Errorf("%w: failed to delete %s: %w", ErrStorage, fileName, deleteErr)
	}

	s.logger.Info("Media unbound", "content_id", contentID, "file_name", fileName)

	result.FileName = fileName
	result.Removed = true
	return result, nil
}

func (s *Service) resolveMediaType(ctx context.Context, fileName string) string {
	if mediaType, ok := s.cache.get(fileName); ok {
		return mediaType
	}

	content, err := s.repo.FindContentByFileName(ctx, fileName)
	switch {
	case err == nil && content.Media != nil:
		s.cache.set(fileName, content.Media.MediaType)
		return content.Media.MediaType
	case err == nil || errors.Is(err, catalog.ErrContentNotFound):
		s.logger.Debug("Serving unreferenced file", "file_name", fileName)
	default:
		s.logger.Warn("Failed to resolve media type", "error", err, "file_name", fileName)
	}
	return FallbackMediaType
}

// discard deletes a file written by a failed upload
func (s *Service) discard(ctx context.Context, name string) {
	if err := s.storage.Delete(ctx, name); err != nil {
		orphanedFilesTotal.WithLabelValues("discard").Inc()
		s.logger.Warn("Failed to discard uploaded file", "error", err, "file_name", name)
	}
}
