package media_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavel-fokin/media-catalog/internal/catalog"
	"github.com/pavel-fokin/media-catalog/internal/fs"
	"github.com/pavel-fokin/media-catalog/internal/media"
)

// fakeRepo is an in-memory media.ContentRepository
type fakeRepo struct {
	mu         sync.Mutex
	contents   map[int64]*catalog.Content
	replaceErr error
	lookupErr  error
}

func newFakeRepo(ids ...int64) *fakeRepo {
	r := &fakeRepo{contents: make(map[int64]*catalog.Content)}
	for _, id := range ids {
		r.contents[id] = &catalog.Content{ID: id, Title: fmt.Sprintf("content %d", id), Category: "video", CreatorID: 1}
	}
	return r
}

func (r *fakeRepo) FindContent(ctx context.Context, id int64) (*catalog.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	content, ok := r.contents[id]
	if !ok {
		return nil, catalog.ErrContentNotFound
	}
	return clone(content), nil
}

func (r *fakeRepo) FindContentByFileName(ctx context.Context, fileName string) (*catalog.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	for _, content := range r.contents {
		if content.Media != nil && content.Media.FileName == fileName {
			return clone(content), nil
		}
	}
	return nil, catalog.ErrContentNotFound
}

func (r *fakeRepo) ReplaceBinding(ctx context.Context, id int64, binding catalog.Binding) (*catalog.Binding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.replaceErr != nil {
		return nil, r.replaceErr
	}
	content, ok := r.contents[id]
	if !ok {
		return nil, catalog.ErrContentNotFound
	}
	previous := content.Media
	content.Media = &binding
	return previous, nil
}

func (r *fakeRepo) ClearBinding(ctx context.Context, id int64, fileName string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	content, ok := r.contents[id]
	if !ok {
		return false, catalog.ErrContentNotFound
	}
	if content.Media == nil || content.Media.FileName != fileName {
		return false, nil
	}
	content.Media = nil
	return true, nil
}

func (r *fakeRepo) binding(id int64) *catalog.Binding {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b := r.contents[id].Media; b != nil {
		copied := *b
		return &copied
	}
	return nil
}

func (r *fakeRepo) delete(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.contents, id)
}

func clone(c *catalog.Content) *catalog.Content {
	copied := *c
	if c.Media != nil {
		b := *c.Media
		copied.Media = &b
	}
	return &copied
}

// flakyStorage fails deletes on demand
type flakyStorage struct {
	*fs.MemoryStorage
	deleteErr error
}

func (s *flakyStorage) Delete(ctx context.Context, name string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.MemoryStorage.Delete(ctx, name)
}

var errDisk = errors.New("disk on fire")

func newService(t *testing.T, storage media.FileStorage, repo media.ContentRepository, maxSize int64) *media.Service {
	t.Helper()
	return media.NewService(storage, repo, media.Config{MaxSize: maxSize}, nil)
}

func uploadRequest(contentID int64, data []byte, name, mediaType string) *media.UploadRequest {
	return &media.UploadRequest{
		ContentID: contentID,
		FileName:  name,
		MediaType: mediaType,
		Size:      int64(len(data)),
		Content:   bytes.NewReader(data),
	}
}

func download(t *testing.T, svc *media.Service, name string) ([]byte, string) {
	t.Helper()
	result, err := svc.Download(context.Background(), name)
	require.NoError(t, err)
	defer result.Content.Close()

	data, err := io.ReadAll(result.Content)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), result.Size)
	return data, result.MediaType
}

func storedNames(t *testing.T, storage media.FileStorage) []string {
	t.Helper()
	files, err := storage.List(context.Background())
	require.NoError(t, err)

	names := []string{}
	for _, f := range files {
		names = append(names, f.Name)
	}
	return names
}

func TestUploadThenDownloadReturnsSameBytes(t *testing.T) {
	types := map[string]string{
		"video/mp4":  "clip.mp4",
		"audio/mp3":  "song.mp3",
		"audio/mpeg": "song.mpeg",
		"video/avi":  "movie.avi",
		"video/mov":  "movie.mov",
	}

	for mediaType, fileName := range types {
		t.Run(mediaType, func(t *testing.T) {
			storage := fs.NewMemoryStorage()
			svc := newService(t, storage, newFakeRepo(1), 0)
			data := []byte("payload for " + mediaType)

			result, err := svc.Upload(context.Background(), uploadRequest(1, data, fileName, mediaType))
			require.NoError(t, err)
			assert.Equal(t, int64(1), result.ContentID)
			assert.Equal(t, mediaType, result.MediaType)
			assert.Equal(t, int64(len(data)), result.Size)

			got, gotType := download(t, svc, result.FileName)
			assert.Equal(t, data, got)
			assert.Equal(t, mediaType, gotType)
		})
	}
}

func TestUploadValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     *media.UploadRequest
		wantErr error
	}{
		{
			name:    "empty payload is checked before the content",
			req:     uploadRequest(99, nil, "clip.mp4", "video/mp4"),
			wantErr: media.ErrEmptyUpload,
		},
		{
			name:    "missing reader",
			req:     &media.UploadRequest{ContentID: 1, FileName: "clip.mp4", MediaType: "video/mp4", Size: 10},
			wantErr: media.ErrEmptyUpload,
		},
		{
			name:    "unknown content is checked before the media type",
			req:     uploadRequest(99, []byte("data"), "doc.pdf", "application/pdf"),
			wantErr: media.ErrContentNotFound,
		},
		{
			name:    "unsupported media type is checked before the size",
			req:     uploadRequest(1, bytes.Repeat([]byte("x"), 64), "doc.pdf", "application/pdf"),
			wantErr: media.ErrUnsupportedMediaType,
		},
		{
			name:    "declared size over the limit",
			req:     uploadRequest(1, bytes.Repeat([]byte("x"), 33), "clip.mp4", "video/mp4"),
			wantErr: media.ErrPayloadTooLarge,
		},
		{
			name: "actual bytes over the limit",
			req: &media.UploadRequest{
				ContentID: 1, FileName: "clip.mp4", MediaType: "video/mp4",
				Size: 8, Content: bytes.NewReader(bytes.Repeat([]byte("x"), 100)),
			},
			wantErr: media.ErrPayloadTooLarge,
		},
		{
			name: "declared size but no bytes",
			req: &media.UploadRequest{
				ContentID: 1, FileName: "clip.mp4", MediaType: "video/mp4",
				Size: 8, Content: bytes.NewReader(nil),
			},
			wantErr: media.ErrEmptyUpload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := fs.NewMemoryStorage()
			repo := newFakeRepo(1)
			svc := newService(t, storage, repo, 32)

			_, err := svc.Upload(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, storedNames(t, storage))
			assert.Nil(t, repo.binding(1))
		})
	}
}

func TestUploadErrorsAreClassified(t *testing.T) {
	assert.ErrorIs(t, media.ErrEmptyUpload, catalog.ErrValidation)
	assert.ErrorIs(t, media.ErrUnsupportedMediaType, catalog.ErrValidation)
	assert.ErrorIs(t, media.ErrPayloadTooLarge, catalog.ErrValidation)
	assert.ErrorIs(t, media.ErrContentNotFound, catalog.ErrNotFound)
	assert.ErrorIs(t, media.ErrFileNotFound, catalog.ErrNotFound)
}

func TestRejectOversized(t *testing.T) {
	storage := fs.NewMemoryStorage()
	svc := newService(t, storage, newFakeRepo(1), 0)
	ctx := context.Background()

	tests := []struct {
		name      string
		contentID int64
		mediaType string
		wantErr   error
	}{
		{"supported type", 1, "video/mp4", media.ErrPayloadTooLarge},
		{"type unknown", 1, "", media.ErrPayloadTooLarge},
		{"unsupported type", 1, "application/pdf", media.ErrUnsupportedMediaType},
		{"unknown content", 2, "video/mp4", media.ErrContentNotFound},
		{"unknown content and unsupported type", 2, "application/pdf", media.ErrContentNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, svc.RejectOversized(ctx, tt.contentID, tt.mediaType), tt.wantErr)
		})
	}
	assert.Empty(t, storedNames(t, storage))
}

func TestUploadUnsupportedTypeKeepsBinding(t *testing.T) {
	storage := fs.NewMemoryStorage()
	repo := newFakeRepo(1)
	svc := newService(t, storage, repo, 0)

	first, err := svc.Upload(context.Background(), uploadRequest(1, []byte("video"), "clip.mp4", "video/mp4"))
	require.NoError(t, err)

	_, err = svc.Upload(context.Background(), uploadRequest(1, []byte("%PDF"), "doc.pdf", "application/pdf"))
	assert.ErrorIs(t, err, media.ErrUnsupportedMediaType)

	assert.Equal(t, &catalog.Binding{FileName: first.FileName, MediaType: "video/mp4"}, repo.binding(1))
	assert.Equal(t, []string{first.FileName}, storedNames(t, storage))
}

func TestUploadReplacesBinding(t *testing.T) {
	storage := fs.NewMemoryStorage()
	repo := newFakeRepo(1)
	svc := newService(t, storage, repo, 0)

	first, err := svc.Upload(context.Background(), uploadRequest(1, []byte("first"), "a.mp4", "video/mp4"))
	require.NoError(t, err)
	second, err := svc.Upload(context.Background(), uploadRequest(1, []byte("second"), "b.mp3", "audio/mpeg"))
	require.NoError(t, err)
	assert.NotEqual(t, first.FileName, second.FileName)

	_, err = svc.Download(context.Background(), first.FileName)
	assert.ErrorIs(t, err, media.ErrFileNotFound)

	data, mediaType := download(t, svc, second.FileName)
	assert.Equal(t, []byte("second"), data)
	assert.Equal(t, "audio/mpeg", mediaType)

	assert.Equal(t, []string{second.FileName}, storedNames(t, storage))
	assert.Equal(t, second.FileName, repo.binding(1).FileName)
}

func TestUploadBindFailureDiscardsNewFile(t *testing.T) {
	storage := fs.NewMemoryStorage()
	repo := newFakeRepo(1)
	repo.replaceErr = errors.New("database is locked")
	svc := newService(t, storage, repo, 0)

	_, err := svc.Upload(context.Background(), uploadRequest(1, []byte("data"), "clip.mp4", "video/mp4"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, catalog.ErrValidation)

	assert.Empty(t, storedNames(t, storage))
	assert.Nil(t, repo.binding(1))
}

func TestUploadContentDeletedBeforeBind(t *testing.T) {
	storage := fs.NewMemoryStorage()
	repo := newFakeRepo(1)
	repo.replaceErr = catalog.ErrContentNotFound
	svc := newService(t, storage, repo, 0)

	_, err := svc.Upload(context.Background(), uploadRequest(1, []byte("data"), "clip.mp4", "video/mp4"))
	assert.ErrorIs(t, err, media.ErrContentNotFound)
	assert.Empty(t, storedNames(t, storage))
}

func TestUploadTolerantOfOldFileDeleteFailure(t *testing.T) {
	storage := &flakyStorage{MemoryStorage: fs.NewMemoryStorage()}
	repo := newFakeRepo(1)
	svc := newService(t, storage, repo, 0)

	first, err := svc.Upload(context.Background(), uploadRequest(1, []byte("first"), "a.mp4", "video/mp4"))
	require.NoError(t, err)

	storage.deleteErr = errDisk
	second, err := svc.Upload(context.Background(), uploadRequest(1, []byte("second"), "b.mp4", "video/mp4"))
	require.NoError(t, err)

	// The new binding is committed; the old file is left as an orphan.
	assert.Equal(t, second.FileName, repo.binding(1).FileName)
	assert.True(t, storage.Exists(first.FileName))
	assert.True(t, storage.Exists(second.FileName))
}

func TestUploadNamesFile(t *testing.T) {
	svc := newService(t, fs.NewMemoryStorage(), newFakeRepo(42), 0)

	tests := []struct {
		declared string
		pattern  string
	}{
		{declared: "clip.mp4", pattern: `^42_[0-9a-f-]{36}\.mp4$`},
		{declared: "Clip.MOV", pattern: `^42_[0-9a-f-]{36}\.MOV$`},
		{declared: "noext", pattern: `^42_[0-9a-f-]{36}$`},
		{declared: "../../etc/passwd", pattern: `^42_[0-9a-f-]{36}$`},
		{declared: `C:\videos\clip.avi`, pattern: `^42_[0-9a-f-]{36}\.avi$`},
		{declared: "clip.mp4/../../x", pattern: `^42_[0-9a-f-]{36}$`},
	}

	for _, tt := range tests {
		t.Run(tt.declared, func(t *testing.T) {
			result, err := svc.Upload(context.Background(), uploadRequest(42, []byte("x"), tt.declared, "video/mp4"))
			require.NoError(t, err)
			assert.Regexp(t, tt.pattern, result.FileName)
		})
	}
}

func TestDownload(t *testing.T) {
	t.Run("unknown file", func(t *testing.T) {
		svc := newService(t, fs.NewMemoryStorage(), newFakeRepo(1), 0)
		_, err := svc.Download(context.Background(), "1_missing.mp4")
		assert.ErrorIs(t, err, media.ErrFileNotFound)
	})

	t.Run("invalid names", func(t *testing.T) {
		svc := newService(t, fs.NewMemoryStorage(), newFakeRepo(1), 0)
		for _, name := range []string{"", "..", "../secret", ".tmp", "a/b", `a\b`} {
			_, err := svc.Download(context.Background(), name)
			assert.ErrorIs(t, err, media.ErrFileNotFound, name)
		}
	})

	t.Run("orphan falls back to generic type", func(t *testing.T) {
		storage := fs.NewMemoryStorage()
		svc := newService(t, storage, newFakeRepo(1), 0)
		_, err := storage.Save(context.Background(), "1_orphan.mp4", bytes.NewReader([]byte("bytes")))
		require.NoError(t, err)

		data, mediaType := download(t, svc, "1_orphan.mp4")
		assert.Equal(t, []byte("bytes"), data)
		assert.Equal(t, media.FallbackMediaType, mediaType)
	})

	t.Run("metadata lookup failure falls back to generic type", func(t *testing.T) {
		storage := fs.NewMemoryStorage()
		repo := newFakeRepo(1)
		repo.lookupErr = errors.New("connection reset")
		svc := newService(t, storage, repo, 0)
		_, err := storage.Save(context.Background(), "1_file.mp4", bytes.NewReader([]byte("bytes")))
		require.NoError(t, err)

		_, mediaType := download(t, svc, "1_file.mp4")
		assert.Equal(t, media.FallbackMediaType, mediaType)
	})
}

func TestRemove(t *testing.T) {
	storage := fs.NewMemoryStorage()
	repo := newFakeRepo(1)
	svc := newService(t, storage, repo, 0)

	uploaded, err := svc.Upload(context.Background(), uploadRequest(1, []byte("data"), "clip.mp4", "video/mp4"))
	require.NoError(t, err)

	result, err := svc.Remove(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, &media.RemovalResult{ContentID: 1, FileName: uploaded.FileName, Removed: true}, result)

	assert.Nil(t, repo.binding(1))
	_, err = svc.Download(context.Background(), uploaded.FileName)
	assert.ErrorIs(t, err, media.ErrFileNotFound)
}

func TestRemoveWithoutBindingIsIdempotent(t *testing.T) {
	storage := fs.NewMemoryStorage()
	repo := newFakeRepo(1)
	svc := newService(t, storage, repo, 0)

	for i := 0; i < 3; i++ {
		result, err := svc.Remove(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, &media.RemovalResult{ContentID: 1}, result)
	}
	assert.Nil(t, repo.binding(1))
}

func TestRemoveUnknownContent(t *testing.T) {
	svc := newService(t, fs.NewMemoryStorage(), newFakeRepo(), 0)

	_, err := svc.Remove(context.Background(), 5)
	assert.ErrorIs(t, err, media.ErrContentNotFound)
}

func TestRemoveFileAlreadyGone(t *testing.T) {
	storage := fs.NewMemoryStorage()
	repo := newFakeRepo(1)
	svc := newService(t, storage, repo, 0)

	uploaded, err := svc.Upload(context.Background(), uploadRequest(1, []byte("data"), "clip.mp4", "video/mp4"))
	require.NoError(t, err)
	require.NoError(t, storage.Delete(context.Background(), uploaded.FileName))

	result, err := svc.Remove(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, result.Removed)
	assert.Nil(t, repo.binding(1))
}

func TestRemoveDeleteFailureStillClearsBinding(t *testing.T) {
	storage := &flakyStorage{MemoryStorage: fs.NewMemoryStorage()}
	repo := newFakeRepo(1)
	svc := newService(t, storage, repo, 0)

	_, err := svc.Upload(context.Background(), uploadRequest(1, []byte("data"), "clip.mp4", "video/mp4"))
	require.NoError(t, err)

	storage.deleteErr = errDisk
	_, err = svc.Remove(context.Background(), 1)
	assert.ErrorIs(t, err, media.ErrStorage)
	assert.ErrorIs(t, err, errDisk)
	assert.Nil(t, repo.binding(1))
}

func TestContentRecordDeleted(t *testing.T) {
	storage := fs.NewMemoryStorage()
	repo := newFakeRepo(1, 2)
	svc := newService(t, storage, repo, 0)

	uploaded, err := svc.Upload(context.Background(), uploadRequest(1, []byte("data"), "clip.mp4", "video/mp4"))
	require.NoError(t, err)

	require.NoError(t, svc.ContentRecordDeleted(context.Background(), 1))
	require.NoError(t, svc.ContentRecordDeleted(context.Background(), 2))
	repo.delete(1)

	_, err = svc.Download(context.Background(), uploaded.FileName)
	assert.ErrorIs(t, err, media.ErrFileNotFound)
	assert.Empty(t, storedNames(t, storage))

	assert.ErrorIs(t, svc.ContentRecordDeleted(context.Background(), 1), media.ErrContentNotFound)
}

func TestUploadDownloadRemoveScenario(t *testing.T) {
	storage := fs.NewMemoryStorage()
	svc := newService(t, storage, newFakeRepo(7), media.DefaultMaxSize)
	payload := bytes.Repeat([]byte{0x00, 0x00, 0x00, 0x20, 'f', 't', 'y', 'p'}, 2<<20/8)

	result, err := svc.Upload(context.Background(), uploadRequest(7, payload, "clip.mp4", "video/mp4"))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^7_[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.mp4$`), result.FileName)

	data, mediaType := download(t, svc, result.FileName)
	assert.True(t, bytes.Equal(payload, data))
	assert.Equal(t, "video/mp4", mediaType)

	_, err = svc.Remove(context.Background(), 7)
	require.NoError(t, err)

	_, err = svc.Download(context.Background(), result.FileName)
	assert.ErrorIs(t, err, media.ErrFileNotFound)
}

func TestConcurrentUploadsGetDistinctNames(t *testing.T) {
	storage := fs.NewMemoryStorage()
	repo := newFakeRepo(1, 2)
	svc := newService(t, storage, repo, 0)

	const uploads = 20
	names := make([]string, uploads)
	var wg sync.WaitGroup
	for i := 0; i < uploads; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			contentID := int64(i%2 + 1)
			result, err := svc.Upload(context.Background(), uploadRequest(contentID, []byte{byte(i)}, "clip.mp4", "video/mp4"))
			if assert.NoError(t, err) {
				names[i] = result.FileName
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, name := range names {
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
	}

	// Whatever the interleaving, each content ends up bound to a stored file.
	for _, id := range []int64{1, 2} {
		binding := repo.binding(id)
		require.NotNil(t, binding)
		assert.True(t, seen[binding.FileName])
		assert.True(t, storage.Exists(binding.FileName))
	}
}
