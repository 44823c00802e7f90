// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/bandsite/internal/blob"
	"github.com/olegiv/bandsite/internal/cache"
	"github.com/olegiv/bandsite/internal/config"
	"github.com/olegiv/bandsite/internal/geoip"
	"github.com/olegiv/bandsite/internal/handler"
	"github.com/olegiv/bandsite/internal/i18n"
	"github.com/olegiv/bandsite/internal/imaging"
	"github.com/olegiv/bandsite/internal/logging"
	"github.com/olegiv/bandsite/internal/middleware"
	"github.com/olegiv/bandsite/internal/scheduler"
	"github.com/olegiv/bandsite/internal/service"
	"github.com/olegiv/bandsite/internal/session"
	"github.com/olegiv/bandsite/internal/store"
	"github.com/olegiv/bandsite/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "bandsite - band website admin service\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BAND_SESSION_SECRET         Session and CSRF key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BAND_DB_DRIVER              sqlite|sqlite3|mysql (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BAND_DB_DSN                 Database DSN or path (default: ./data/bandsite.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BAND_SERVER_PORT            Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BAND_ENV                    Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BAND_SESSION_STORE          memory|sqlite (default: memory)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BAND_BLOB_BACKEND           local|s3 (default: local)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BAND_UPLOADS_DIR            Local image directory (default: ./uploads)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BAND_S3_BUCKET              Bucket for BAND_BLOB_BACKEND=s3\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BAND_REDIS_URL              Redis URL for the public listing cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BAND_LEGACY_ADMIN_PASSWORD  Enables the single-password admin login (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BAND_GEOIP_DB_PATH          GeoLite2-Country database for audit log countries (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("bandsite %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if err := i18n.Init(logger); err != nil {
		return fmt.Errorf("initializing i18n: %w", err)
	}
	slog.Info("i18n system initialized", "languages", i18n.SupportedLanguages)

	if cfg.DBDriver != config.DriverMySQL {
		if err := ensureDir(sqlitePath(cfg.DBDSN)); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	slog.Info("initializing database", "driver", cfg.DBDriver)
	db, err := store.NewDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db, cfg.DBDriver); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing blob storage: %w", err)
	}
	slog.Info("blob storage ready", "backend", cfg.BlobBackend)

	cacheTTL := time.Duration(cfg.CacheTTL) * time.Second
	publicCache, cacheBackend := cache.New(ctx, cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cacheTTL,
		MaxSize:    cfg.CacheMaxSize,
	}, logger)
	defer func() {
		if err := publicCache.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()

	assets := service.NewAssets(blobs, imaging.NewProcessor(cfg.MaxUploadBytes()), logger)
	credentials := service.NewCredentialStore(db, logger)
	tourDates := service.NewTourDateService(db, publicCache, logger)
	gallery := service.NewGalleryService(db, assets, publicCache, logger)
	timeline := service.NewTimelineService(db, assets, publicCache, logger)
	events := service.NewEventService(db, logger)

	locator, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		slog.Warn("geoip disabled", "path", cfg.GeoIPDBPath, "error", err)
	} else if locator.Enabled() {
		slog.Info("geoip enabled", "path", cfg.GeoIPDBPath)
	}
	defer func() { _ = locator.Close() }()
	events.SetCountryResolver(locator)

	created, err := credentials.BootstrapDefaults(ctx, cfg.DefaultAdminPassword, cfg.DefaultMemberPassword)
	if err != nil {
		return fmt.Errorf("seeding accounts: %w", err)
	}
	if created > 0 {
		slog.Info("seeded default accounts", "count", created)
		if !cfg.IsDevelopment() {
			slog.Warn("default accounts use the configured bootstrap passwords; change them after the first login")
		}
	}
	if cfg.LegacyLoginEnabled() {
		slog.Info("legacy single-password login enabled")
	}

	sessionManager, err := session.New(session.Options{
		Store:    cfg.SessionStore,
		DB:       db,
		Lifetime: cfg.SessionLifetime,
		IsDev:    cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing sessions: %w", err)
	}
	slog.Info("session manager initialized", "store", cfg.SessionStore)

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer loginProtection.Stop()

	sched := scheduler.New(logger)
	if cfg.AssetSweepSchedule != "" {
		janitor := scheduler.NewAssetJanitor(db, blobs, cfg.AssetSweepGrace, logger)
		if err := sched.AddJob("asset-sweep", "Delete image blobs no record references", cfg.AssetSweepSchedule, janitor.Run); err != nil {
			return err
		}
	}
	if cfg.EventPruneSchedule != "" {
		if err := sched.AddJob("event-prune", "Delete audit events past retention", cfg.EventPruneSchedule,
			scheduler.PruneEventsJob(events, cfg.EventRetention, logger)); err != nil {
			return err
		}
	}
	if cfg.GeoIPDBPath != "" && cfg.GeoIPReload != "" {
		if err := sched.AddJob("geoip-reload", "Reload the GeoIP database when the file changes", cfg.GeoIPReload, locator.Reload); err != nil {
			return err
		}
	}
	sched.Start()
	defer sched.Stop()

	deps := handler.Deps{
		DB:              db,
		Sessions:        sessionManager,
		Credentials:     credentials,
		TourDates:       tourDates,
		Gallery:         gallery,
		Timeline:        timeline,
		Events:          events,
		Cache:           publicCache,
		CacheBackend:    cacheBackend,
		CacheTTL:        cacheTTL,
		Scheduler:       sched,
		LoginProtection: loginProtection,
		CSRF:            middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.TrustedOrigins),
		Security:        middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment()),
		LegacyPassword:  cfg.LegacyAdminPassword,
		MaxUploadBytes:  cfg.MaxUploadBytes(),
		Version:         versionInfo,
	}
	if cfg.BlobBackend == config.BlobBackendLocal {
		deps.UploadsDir = cfg.UploadsDir
		deps.UploadsPath = cfg.UploadsURL
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           handler.NewRouter(deps),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // uploads on slow connections
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// newBlobStore picks the image storage backend.
func newBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	if cfg.BlobBackend == config.BlobBackendS3 {
		return blob.NewS3Store(ctx, blob.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
			PathStyle: cfg.S3UsePathStyle,
		})
	}
	if err := os.MkdirAll(cfg.UploadsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads directory: %w", err)
	}
	return blob.NewLocalStore(cfg.UploadsDir, cfg.UploadsURL)
}

// sqlitePath extracts the file path from a SQLite DSN.
func sqlitePath(dsn string) string {
	p := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return p
}

func ensureDir(dbPath string) error {
	if dbPath == "" || dbPath == ":memory:" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(dbPath), 0o755)
}
