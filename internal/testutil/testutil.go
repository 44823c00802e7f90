// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the band site.
package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/olegiv/bandsite/internal/blob"
	"github.com/olegiv/bandsite/internal/store"
)

// TestLogger creates a test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a logger that discards everything.
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a migrated SQLite database in a temp directory. It is
// closed automatically when the test ends.
func TestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := store.NewDB(store.DriverSQLite, filepath.Join(t.TempDir(), "band-test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db, store.DriverSQLite); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

// PNG returns an encoded w x h PNG image.
func PNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 5), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

// ErrInjected is returned by MemBlobStore when a failure is switched on.
var ErrInjected = errors.New("injected blob failure")

// MemBlobStore is an in-memory blob.Store with switchable failures.
type MemBlobStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	modTimes map[string]time.Time
	FailPut  bool
	FailDel  bool
	DelCalls []string
	BaseURL  string
}

// NewMemBlobStore returns an empty store serving URLs under baseURL.
func NewMemBlobStore() *MemBlobStore {
	return &MemBlobStore{
		objects:  map[string][]byte{},
		modTimes: map[string]time.Time{},
		BaseURL:  "https://blobs.test",
	}
}

// Put stores r under key.
func (m *MemBlobStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPut {
		return "", ErrInjected
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.objects[key] = data
	m.modTimes[key] = time.Now()
	return m.URL(key), nil
}

// Delete removes key.
func (m *MemBlobStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DelCalls = append(m.DelCalls, key)
	if m.FailDel {
		return ErrInjected
	}
	delete(m.objects, key)
	delete(m.modTimes, key)
	return nil
}

// List returns the objects under prefix sorted by key.
func (m *MemBlobStore) List(_ context.Context, prefix string) ([]blob.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []blob.Object
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, blob.Object{Key: k, Size: int64(len(v)), ModTime: m.modTimes[k]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// URL returns the public URL of key.
func (m *MemBlobStore) URL(key string) string {
	return m.BaseURL + "/" + key
}

// Has reports whether key is stored.
func (m *MemBlobStore) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// Keys returns all stored keys, sorted.
func (m *MemBlobStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetModTime backdates key.
func (m *MemBlobStore) SetModTime(key string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modTimes[key] = t
}

var _ blob.Store = (*MemBlobStore)(nil)
