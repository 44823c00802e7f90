// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package blob stores binary assets (images) under slash separated keys
// such as "gallery/1700000000000-live.jpg".
package blob

import (
	"context"
	"io"
	"time"
)

// Object describes a stored blob.
type Object struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Store is a blob storage backend.
type Store interface {
	// Put writes r under key and returns the public retrieval URL.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns all objects whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]Object, error)
	// URL returns the retrieval URL for key without touching storage.
	URL(key string) string
}
