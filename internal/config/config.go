// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the service configuration from BAND_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Supported values for enumerated settings.
const (
	DriverSQLite    = "sqlite"  // modernc.org/sqlite, pure Go
	DriverSQLiteCGO = "sqlite3" // github.com/mattn/go-sqlite3
	DriverMySQL     = "mysql"

	SessionStoreMemory = "memory"
	SessionStoreSQLite = "sqlite"

	BlobBackendLocal = "local"
	BlobBackendS3    = "s3"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBDriver      string `env:"BAND_DB_DRIVER" envDefault:"sqlite"`
	DBDSN         string `env:"BAND_DB_DSN" envDefault:"./data/bandsite.db"`
	SessionSecret string `env:"BAND_SESSION_SECRET,required"`
	ServerHost    string `env:"BAND_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"BAND_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"BAND_ENV" envDefault:"development"`
	LogLevel      string `env:"BAND_LOG_LEVEL" envDefault:"info"`

	// Session configuration
	SessionStore    string        `env:"BAND_SESSION_STORE" envDefault:"memory"`
	SessionLifetime time.Duration `env:"BAND_SESSION_LIFETIME" envDefault:"12h"`
	TrustedOrigins  []string      `env:"BAND_TRUSTED_ORIGINS" envSeparator:","`

	// Blob storage
	BlobBackend    string `env:"BAND_BLOB_BACKEND" envDefault:"local"`
	UploadsDir     string `env:"BAND_UPLOADS_DIR" envDefault:"./uploads"`
	UploadsURL     string `env:"BAND_UPLOADS_URL" envDefault:"/uploads"`
	MaxUploadMB    int64  `env:"BAND_MAX_UPLOAD_MB" envDefault:"20"`
	S3Bucket       string `env:"BAND_S3_BUCKET"`
	S3Region       string `env:"BAND_S3_REGION" envDefault:"us-east-1"`
	S3Endpoint     string `env:"BAND_S3_ENDPOINT"`   // e.g. http://127.0.0.1:9000 for MinIO
	S3AccessKey    string `env:"BAND_S3_ACCESS_KEY"` // empty = default AWS credential chain
	S3SecretKey    string `env:"BAND_S3_SECRET_KEY"`
	S3PublicURL    string `env:"BAND_S3_PUBLIC_URL"` // base URL used for stored image URLs
	S3UsePathStyle bool   `env:"BAND_S3_PATH_STYLE" envDefault:"false"`

	// Cache configuration
	RedisURL     string `env:"BAND_REDIS_URL"`                        // Optional Redis URL for the public cache
	CachePrefix  string `env:"BAND_CACHE_PREFIX" envDefault:"band:"`  // Redis key prefix
	CacheTTL     int    `env:"BAND_CACHE_TTL" envDefault:"300"`       // Public listing TTL in seconds
	CacheMaxSize int    `env:"BAND_CACHE_MAX_SIZE" envDefault:"1000"` // Max memory cache entries

	// Credentials
	DefaultAdminPassword  string `env:"BAND_DEFAULT_ADMIN_PASSWORD" envDefault:"ohnelimit2024"`
	DefaultMemberPassword string `env:"BAND_DEFAULT_MEMBER_PASSWORD" envDefault:"band2024"`
	LegacyAdminPassword   string `env:"BAND_LEGACY_ADMIN_PASSWORD"` // single-password login, binds to the admin record

	// Asset janitor
	AssetSweepSchedule string        `env:"BAND_ASSET_SWEEP_SCHEDULE" envDefault:"@hourly"` // empty disables
	AssetSweepGrace    time.Duration `env:"BAND_ASSET_SWEEP_GRACE" envDefault:"1h"`

	// Audit log
	EventPruneSchedule string        `env:"BAND_EVENT_PRUNE_SCHEDULE" envDefault:"@daily"` // empty disables
	EventRetention     time.Duration `env:"BAND_EVENT_RETENTION" envDefault:"2160h"`

	// GeoIP country tagging of audit events
	GeoIPDBPath string `env:"BAND_GEOIP_DB_PATH"` // GeoLite2-Country.mmdb, empty disables
	GeoIPReload string `env:"BAND_GEOIP_RELOAD_SCHEDULE" envDefault:"@weekly"`
}

// Built-in bootstrap passwords, accepted in development only.
const (
	seedAdminPassword  = "ohnelimit2024"
	seedMemberPassword = "band2024"
)

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// LegacyLoginEnabled reports whether the single-password login is active.
func (c Config) LegacyLoginEnabled() bool {
	return c.LegacyAdminPassword != ""
}

// MaxUploadBytes returns the upload limit in bytes.
func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB * 1024 * 1024
}

// MinSessionSecretLength is the minimum required length for the session secret.
// The secret doubles as the CSRF key, which needs 32 bytes.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("BAND_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("BAND_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(c.SessionSecret))
	}
	for _, weak := range knownWeakSecrets {
		if c.SessionSecret == weak {
			return fmt.Errorf("BAND_SESSION_SECRET is a known default value and must not be used")
		}
	}

	switch c.DBDriver {
	case DriverSQLite, DriverSQLiteCGO, DriverMySQL:
	default:
		return fmt.Errorf("BAND_DB_DRIVER %q is not supported (sqlite, sqlite3, mysql)", c.DBDriver)
	}

	switch c.SessionStore {
	case SessionStoreMemory:
	case SessionStoreSQLite:
		if c.DBDriver == DriverMySQL {
			return fmt.Errorf("BAND_SESSION_STORE=sqlite requires a sqlite database driver")
		}
	default:
		return fmt.Errorf("BAND_SESSION_STORE %q is not supported (memory, sqlite)", c.SessionStore)
	}

	switch c.BlobBackend {
	case BlobBackendLocal:
	case BlobBackendS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("BAND_S3_BUCKET is required when BAND_BLOB_BACKEND=s3")
		}
	default:
		return fmt.Errorf("BAND_BLOB_BACKEND %q is not supported (local, s3)", c.BlobBackend)
	}

	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("BAND_MAX_UPLOAD_MB must be positive")
	}
	if c.EventRetention <= 0 {
		return fmt.Errorf("BAND_EVENT_RETENTION must be positive")
	}
	if c.DefaultAdminPassword == "" || c.DefaultMemberPassword == "" {
		return fmt.Errorf("default bootstrap passwords must not be empty")
	}
	if !c.IsDevelopment() {
		if c.DefaultAdminPassword == seedAdminPassword {
			return fmt.Errorf("BAND_DEFAULT_ADMIN_PASSWORD must be changed from the built-in default outside development")
		}
		if c.DefaultMemberPassword == seedMemberPassword {
			return fmt.Errorf("BAND_DEFAULT_MEMBER_PASSWORD must be changed from the built-in default outside development")
		}
	}
	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
