// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store is the SQL persistence layer: connection setup, embedded
// goose migrations per dialect and the hand-written query set.
package store

import (
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3" // registers "sqlite3" (cgo)
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers "sqlite" (pure Go)
)

//go:embed migrations/sqlite/*.sql migrations/mysql/*.sql
var migrations embed.FS

// Supported database/sql driver names.
const (
	DriverSQLite    = "sqlite"
	DriverSQLiteCGO = "sqlite3"
	DriverMySQL     = "mysql"
)

// DBConfig holds connection pool options.
type DBConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultDBConfig returns sensible pool defaults.
func DefaultDBConfig() DBConfig {
	return DBConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// NewDB opens a database for driver with the default pool configuration.
func NewDB(driver, dsn string) (*sql.DB, error) {
	return NewDBWithConfig(driver, dsn, DefaultDBConfig())
}

// NewDBWithConfig opens a database for driver and verifies the connection.
func NewDBWithConfig(driver, dsn string, cfg DBConfig) (*sql.DB, error) {
	dsn, err := prepareDSN(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// prepareDSN adds the per-connection settings each driver needs.
// SQLite pragmas go into the DSN so every pooled connection gets them.
func prepareDSN(driver, dsn string) (string, error) {
	switch driver {
	case DriverSQLite:
		return withQuery(dsn,
			"_pragma=journal_mode(WAL)",
			"_pragma=busy_timeout(5000)",
			"_pragma=synchronous(NORMAL)",
			"_pragma=foreign_keys(1)",
		), nil
	case DriverSQLiteCGO:
		return withQuery(dsn,
			"_journal_mode=WAL",
			"_busy_timeout=5000",
			"_synchronous=NORMAL",
			"_foreign_keys=1",
		), nil
	case DriverMySQL:
		mc, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("parsing mysql dsn: %w", err)
		}
		mc.ParseTime = true
		mc.Loc = time.UTC
		// Report matched rather than changed rows so updates can detect missing ids.
		mc.ClientFoundRows = true
		return mc.FormatDSN(), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

func withQuery(dsn string, params ...string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + strings.Join(params, "&")
	}
	return dsn + "?" + strings.Join(params, "&")
}

// Migrate runs all pending migrations for the driver's dialect.
func Migrate(db *sql.DB, driver string) error {
	dialect, dir := "sqlite3", "migrations/sqlite"
	if driver == DriverMySQL {
		dialect, dir = "mysql", "migrations/mysql"
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}
