package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pavel-fokin/media-catalog/internal/media"
)

// ErrFileExists is returned when saving under a name that is already taken
var ErrFileExists = errors.New("file already exists")

const stagingDir = ".tmp"

// Storage implements media.FileStorage on a flat directory
type Storage struct {
	dataDir string
}

// NewStorage creates a filesystem storage rooted at dataDir, creating the
// directory if needed
func NewStorage(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Join(dataDir, stagingDir), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}
	return &Storage{dataDir: dataDir}, nil
}

// Save writes content to a staging file, syncs it and links it into place.
// Linking fails instead of replacing when name exists, so an existing file
// is never modified and a partially written file is never visible.
func (s *Storage) Save(ctx context.Context, name string, content io.Reader) (int64, error) {
	filePath, err := s.path(name)
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(filepath.Join(s.dataDir, stagingDir), name+".*")
	if err != nil {
		return 0, fmt.Errorf("failed to create staging file: %w", err)
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, &contextReader{ctx: ctx, r: content})
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to write file content: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Link(tmp.Name(), filePath); err != nil {
		if errors.Is(err, os.ErrExist) {
			return 0, fmt.Errorf("%s: %w", name, ErrFileExists)
		}
		return 0, fmt.Errorf("failed to link file into place: %w", err)
	}

	return size, nil
}

// Open returns a reader for the file content
func (s *Storage) Open(ctx context.Context, name string) (io.ReadCloser, *media.StoredFile, error) {
	filePath, err := s.path(name)
	if err != nil {
		return nil, nil, media.ErrFileNotFound
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, media.ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		file.Close()
		return nil, nil, media.ErrFileNotFound
	}

	return file, &media.StoredFile{Name: name, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Delete removes a file by name
func (s *Storage) Delete(ctx context.Context, name string) error {
	filePath, err := s.path(name)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return nil // File already deleted
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// List returns the stored files, skipping the staging area
func (s *Storage) List(ctx context.Context) ([]media.StoredFile, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	files := make([]media.StoredFile, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}
		files = append(files, media.StoredFile{
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	return files, nil
}

// path maps a file name to its location, refusing anything that could
// escape the data directory
func (s *Storage) path(name string) (string, error) {
	if !media.ValidFileName(name) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(s.dataDir, name), nil
}

// contextReader stops a copy once ctx is done
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *contextReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
