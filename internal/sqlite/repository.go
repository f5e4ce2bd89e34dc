package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/pavel-fokin/media-catalog/internal/catalog"
	_ "modernc.org/sqlite"
)

var _ catalog.Repository = (*Repository)(nil)

// Repository implements catalog.Repository using SQLite
type Repository struct {
	db *sql.DB
}

// NewRepository opens the database at dbPath and migrates it to the
// latest schema
func NewRepository(dbPath string, logger *slog.Logger) (*Repository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dsn := dataSourceName(dbPath)

	if err := migrateUp(dsn, logger.With("component", "migrate")); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serialises writers, so a read-modify-write inside
	// a transaction cannot interleave with another one.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping checks that the database is reachable
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func dataSourceName(dbPath string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	return "file:" + dbPath + "?" + q.Encode()
}

// affected maps a zero row count to notFound
func affected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
