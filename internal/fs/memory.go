package fs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/pavel-fokin/media-catalog/internal/media"
)

// MemoryStorage implements media.FileStorage in memory
type MemoryStorage struct {
	mu    sync.RWMutex
	files map[string]memoryFile
}

type memoryFile struct {
	data    []byte
	modTime time.Time
}

// NewMemoryStorage creates an empty in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{files: make(map[string]memoryFile)}
}

// Save stores content under name
func (s *MemoryStorage) Save(ctx context.Context, name string, content io.Reader) (int64, error) {
	data, err := io.ReadAll(&contextReader{ctx: ctx, r: content})
	if err != nil {
		return 0, fmt.Errorf("failed to read file content: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[name]; ok {
		return 0, fmt.Errorf("%s: %w", name, ErrFileExists)
	}
	s.files[name] = memoryFile{data: data, modTime: time.Now()}

	return int64(len(data)), nil
}

// Open returns a reader for the file content
func (s *MemoryStorage) Open(ctx context.Context, name string) (io.ReadCloser, *media.StoredFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, ok := s.files[name]
	if !ok {
		return nil, nil, media.ErrFileNotFound
	}

	info := &media.StoredFile{Name: name, Size: int64(len(file.data)), ModTime: file.modTime}
	return io.NopCloser(bytes.NewReader(file.data)), info, nil
}

// Delete removes a file by name
func (s *MemoryStorage) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.files, name)
	return nil
}

// List returns the stored files ordered by name
func (s *MemoryStorage) List(ctx context.Context) ([]media.StoredFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := make([]media.StoredFile, 0, len(s.files))
	for name, file := range s.files {
		files = append(files, media.StoredFile{Name: name, Size: int64(len(file.data)), ModTime: file.modTime})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	return files, nil
}

// Exists reports whether a file is stored under name
func (s *MemoryStorage) Exists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.files[name]
	return ok
}
