package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/pavel-fokin/media-catalog/internal/catalog"
	"github.com/pavel-fokin/media-catalog/internal/fs"
	"github.com/pavel-fokin/media-catalog/internal/media"
	"github.com/pavel-fokin/media-catalog/internal/sqlite"
)

// Version is reported by the health endpoints
var Version = "dev"

// multipartOverhead is the allowance for multipart framing on top of the
// largest media payload
const multipartOverhead = 1 << 20

const uploadPath = "/api/arquivos/upload/"

type Config struct {
	Addr           string        `env:"CATALOG_ADDR" envDefault:":5011"`
	DataDir        string        `env:"CATALOG_DATA_DIR,required"`
	DBPath         string        `env:"CATALOG_DB_PATH,required"`
	MaxUploadSize  int64         `env:"CATALOG_MAX_UPLOAD_SIZE" envDefault:"52428800"`
	AdminToken     string        `env:"CATALOG_ADMIN_TOKEN"`
	LogLevel       slog.Level    `env:"CATALOG_LOG_LEVEL" envDefault:"info"`
	ReadTimeout    time.Duration `env:"CATALOG_READ_TIMEOUT" envDefault:"1m"`
	WriteTimeout   time.Duration `env:"CATALOG_WRITE_TIMEOUT" envDefault:"2m"`
	OrphanSweep    string        `env:"CATALOG_ORPHAN_SWEEP" envDefault:"@hourly"`
	OrphanGrace    time.Duration `env:"CATALOG_ORPHAN_GRACE" envDefault:"1h"`
	MediaCacheSize int           `env:"CATALOG_MEDIA_CACHE_SIZE" envDefault:"1024"`
	MediaCacheTTL  time.Duration `env:"CATALOG_MEDIA_CACHE_TTL" envDefault:"10m"`
}

// Server is the catalog HTTP server together with the resources it owns
type Server struct {
	*http.Server

	repo      *sqlite.Repository
	sweeper   *media.Sweeper
	scheduler *cron.Cron
	logger    *slog.Logger
}

func New(cfg *Config) (*Server, error) {
	// Initialize structured logger with JSON handler
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// Initialize storage and repository
	storage, err := fs.NewStorage(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	repo, err := sqlite.NewRepository(cfg.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	// Initialize services
	mediaService := media.NewService(storage, repo, media.Config{
		MaxSize:   cfg.MaxUploadSize,
		CacheSize: cfg.MediaCacheSize,
		CacheTTL:  cfg.MediaCacheTTL,
	}, logger)
	catalogService := catalog.NewService(repo, mediaService, logger)

	srv := &Server{
		repo:    repo,
		sweeper: media.NewSweeper(storage, repo, cfg.OrphanGrace, logger),
		logger:  logger,
	}

	if cfg.OrphanSweep != "" && cfg.OrphanSweep != "off" {
		srv.scheduler = cron.New()
		if _, err := srv.scheduler.AddFunc(cfg.OrphanSweep, srv.sweepOrphans); err != nil {
			repo.Close()
			return nil, fmt.Errorf("invalid orphan sweep schedule %q: %w", cfg.OrphanSweep, err)
		}
		srv.scheduler.Start()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", index)
	mux.HandleFunc("GET /healthz", healthz)
	mux.HandleFunc("GET /health", health(repo))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST "+uploadPath+"{contentId}", auth(cfg.AdminToken, uploadMedia(mediaService)))
	mux.HandleFunc("GET /api/arquivos/download/{fileName}", downloadMedia(mediaService))
	mux.HandleFunc("DELETE /api/arquivos/remove/{contentId}", auth(cfg.AdminToken, removeMedia(mediaService)))

	mux.HandleFunc("POST /api/criadores", auth(cfg.AdminToken, createCreator(catalogService)))
	mux.HandleFunc("GET /api/criadores", listCreators(catalogService))
	mux.HandleFunc("GET /api/criadores/{id}", getCreator(catalogService))
	mux.HandleFunc("PUT /api/criadores/{id}", auth(cfg.AdminToken, updateCreator(catalogService)))
	mux.HandleFunc("DELETE /api/criadores/{id}", auth(cfg.AdminToken, deleteCreator(catalogService)))

	mux.HandleFunc("POST /api/conteudos", auth(cfg.AdminToken, createContent(catalogService)))
	mux.HandleFunc("GET /api/conteudos", listContents(catalogService))
	mux.HandleFunc("GET /api/conteudos/{id}", getContent(catalogService))
	mux.HandleFunc("PUT /api/conteudos/{id}", auth(cfg.AdminToken, updateContent(catalogService)))
	mux.HandleFunc("DELETE /api/conteudos/{id}", auth(cfg.AdminToken, deleteContent(catalogService)))

	mux.HandleFunc("POST /api/usuarios", auth(cfg.AdminToken, createUser(catalogService)))
	mux.HandleFunc("GET /api/usuarios", listUsers(catalogService))
	mux.HandleFunc("GET /api/usuarios/{id}", getUser(catalogService))
	mux.HandleFunc("DELETE /api/usuarios/{id}", auth(cfg.AdminToken, deleteUser(catalogService)))

	mux.HandleFunc("POST /api/playlists", auth(cfg.AdminToken, createPlaylist(catalogService)))
	mux.HandleFunc("GET /api/playlists", listPlaylists(catalogService))
	mux.HandleFunc("GET /api/playlists/{id}", getPlaylist(catalogService))
	mux.HandleFunc("PUT /api/playlists/{id}", auth(cfg.AdminToken, renamePlaylist(catalogService)))
	mux.HandleFunc("DELETE /api/playlists/{id}", auth(cfg.AdminToken, deletePlaylist(catalogService)))
	mux.HandleFunc("POST /api/playlists/{id}/itens", auth(cfg.AdminToken, addPlaylistItem(catalogService)))
	mux.HandleFunc("DELETE /api/playlists/{id}/itens/{contentId}", auth(cfg.AdminToken, removePlaylistItem(catalogService)))

	maxBody := mediaService.MaxSize() + multipartOverhead
	handler := loggingMiddleware(logger, metricsMiddleware(cors(limitBody(mux, maxBody))))

	srv.Server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return srv, nil
}

// Shutdown stops accepting requests, waits for running ones and a running
// orphan sweep, then closes the database
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Server.Shutdown(ctx)

	if s.scheduler != nil {
		select {
		case <-s.scheduler.Stop().Done():
		case <-ctx.Done():
			err = errors.Join(err, ctx.Err())
		}
	}

	if cerr := s.repo.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("failed to close repository: %w", cerr))
	}
	return err
}

func (s *Server) sweepOrphans() {
	if _, err := s.sweeper.RunOnce(context.Background()); err != nil {
		s.logger.Error("Orphan sweep failed", "error", err)
	}
}

func index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Media catalog is running",
		"version":   Version,
		"timestamp": time.Now().UTC(),
		"endpoints": map[string]string{
			"api":     "/api",
			"health":  "/health",
			"metrics": "/metrics",
		},
	})
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

type pinger interface {
	Ping(ctx context.Context) error
}

var startedAt = time.Now()

func health(db pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status, database, code := "healthy", "connected", http.StatusOK
		if err := db.Ping(ctx); err != nil {
			slog.Warn("Database ping failed", "error", err)
			status, database, code = "unhealthy", "unavailable", http.StatusServiceUnavailable
		}

		writeJSON(w, code, map[string]any{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"uptime":    time.Since(startedAt).Round(time.Second).String(),
			"version":   Version,
			"database":  database,
		})
	}
}
