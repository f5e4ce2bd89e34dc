package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pavel-fokin/media-catalog/internal/catalog"
)

// DefaultGracePeriod protects files of uploads that have been written but
// not yet bound.
const DefaultGracePeriod = time.Hour

// SweepResult summarises one sweep
type SweepResult struct {
	Scanned  int
	Deleted  int
	Errors   int
	Duration time.Duration
}

// Sweeper deletes stored files that no content item refers to
type Sweeper struct {
	storage FileStorage
	repo    ContentRepository
	grace   time.Duration
	logger  *slog.Logger

	mu sync.Mutex
}

// NewSweeper creates an orphan sweeper
func NewSweeper(storage FileStorage, repo ContentRepository, grace time.Duration, logger *slog.Logger) *Sweeper {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		storage: storage,
		repo:    repo,
		grace:   grace,
		logger:  logger.With("component", "orphan_sweeper"),
	}
}

// RunOnce scans the file store once. Concurrent calls are serialised.
func (sw *Sweeper) RunOnce(ctx context.Context) (SweepResult, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	start := time.Now()
	sweepRunsTotal.Inc()

	var result SweepResult
	files, err := sw.storage.List(ctx)
	if err != nil {
		return result, fmt.Errorf("%w: failed to list files: %w", ErrStorage, err)
	}

	cutoff := start.Add(-sw.grace)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Scanned++
		if file.ModTime.After(cutoff) {
			continue
		}

		_, err := sw.repo.FindContentByFileName(ctx, file.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, catalog.ErrContentNotFound) {
			result.Errors++
			sw.logger.Warn("Failed to look up file owner", "error", err, "file_name", file.Name)
			continue
		}

		if err := sw.storage.Delete(ctx, file.Name); err != nil {
			result.Errors++
			sw.logger.Warn("Failed to delete orphaned file", "error", err, "file_name", file.Name)
			continue
		}
		result.Deleted++
		sweptFilesTotal.Inc()
		sw.logger.Info("Orphaned file deleted", "file_name", file.Name, "size", file.Size)
	}

	result.Duration = time.Since(start)
	sweepDuration.Observe(result.Duration.Seconds())
	sw.logger.Info("Orphan sweep finished",
		"scanned", result.Scanned,
		"deleted", result.Deleted,
		"errors", result.Errors,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}
