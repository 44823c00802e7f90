// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session keeps the admin session: who is signed in and which
// admin tab is open. Sessions live in memory by default, so a restart
// signs everybody out.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

const (
	keyUserID    = "user_id"
	keyActiveTab = "active_tab"

	devCookieName  = "band_session"
	prodCookieName = "__Host-session"
)

// Options configures New.
type Options struct {
	Store    string  // StoreMemory or StoreSQLite
	DB       *sql.DB // required for StoreSQLite
	Lifetime time.Duration
	IsDev    bool
}

// New creates the session manager. Production cookies use the __Host-
// prefix, which requires Secure and Path=/.
func New(opts Options) (*scs.SessionManager, error) {
	sm := scs.New()

	switch opts.Store {
	case StoreMemory, "":
		sm.Store = memstore.New()
	case StoreSQLite:
		if opts.DB == nil {
			return nil, errors.New("sqlite session store needs a database")
		}
		sm.Store = sqlite3store.New(opts.DB)
	default:
		return nil, fmt.Errorf("unknown session store %q", opts.Store)
	}

	sm.Lifetime = opts.Lifetime
	if sm.Lifetime <= 0 {
		sm.Lifetime = 12 * time.Hour
	}
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Secure = !opts.IsDev
	sm.Cookie.Name = devCookieName
	if !opts.IsDev {
		sm.Cookie.Name = prodCookieName
	}

	return sm, nil
}

// Login binds userID to the session under a fresh token.
func Login(ctx context.Context, sm *scs.SessionManager, userID, firstTab string) error {
	if err := sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}
	sm.Put(ctx, keyUserID, userID)
	sm.Put(ctx, keyActiveTab, firstTab)
	return nil
}

// Logout discards the session.
func Logout(ctx context.Context, sm *scs.SessionManager) error {
	return sm.Destroy(ctx)
}

// UserID returns the signed-in user's id, or "".
func UserID(ctx context.Context, sm *scs.SessionManager) string {
	return sm.GetString(ctx, keyUserID)
}

// PutActiveTab remembers the open admin tab.
func PutActiveTab(ctx context.Context, sm *scs.SessionManager, tab string) {
	sm.Put(ctx, keyActiveTab, tab)
}

// ActiveTab returns the open admin tab, or "".
func ActiveTab(ctx context.Context, sm *scs.SessionManager) string {
	return sm.GetString(ctx, keyActiveTab)
}
