// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/bandsite/internal/blob"
	"github.com/olegiv/bandsite/internal/cache"
	"github.com/olegiv/bandsite/internal/imaging"
	"github.com/olegiv/bandsite/internal/util"
)

// Upload is an image submitted with a create request.
type Upload struct {
	Filename string
	Content  io.Reader
}

// StoredAsset is where an upload ended up.
type StoredAsset struct {
	Key string
	URL string
}

// Assets normalizes uploads and stores them in blob storage under
// "{collection}/{unixMillis}-{sanitized name}-{suffix}". The random
// suffix keeps same-named uploads in one millisecond apart, so every
// record owns its own blob.
type Assets struct {
	blobs  blob.Store
	images *imaging.Processor
	logger *slog.Logger
	now    func() time.Time
}

// NewAssets creates an Assets helper.
func NewAssets(blobs blob.Store, images *imaging.Processor, logger *slog.Logger) *Assets {
	return &Assets{
		blobs:  blobs,
		images: images,
		logger: logger,
		now:    time.Now,
	}
}

// Store normalizes up and uploads it. Rejected images come back as a
// *ValidationError on the "image" field.
func (a *Assets) Store(ctx context.Context, collection string, up *Upload) (StoredAsset, error) {
	res, err := a.images.Normalize(up.Content)
	switch {
	case errors.Is(err, imaging.ErrTooLarge):
		return StoredAsset{}, &ValidationError{Fields: map[string]string{"image": "error.image_too_large"}}
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		return StoredAsset{}, &ValidationError{Fields: map[string]string{"image": "error.image_invalid"}}
	case err != nil:
		return StoredAsset{}, fmt.Errorf("processing image: %w", err)
	}

	key := a.keyFor(collection, up.Filename, res.Ext)
	url, err := a.blobs.Put(ctx, key, bytes.NewReader(res.Data), int64(len(res.Data)), res.ContentType)
	if err != nil {
		return StoredAsset{}, persistErr("uploading image", err)
	}

	a.logger.Debug("asset stored", "key", key, "bytes", len(res.Data), "width", res.Width, "height", res.Height)
	return StoredAsset{Key: key, URL: url}, nil
}

// keyFor builds the storage key. The extension follows the re-encoded
// format, which differs from the upload for WebP.
func (a *Assets) keyFor(collection, filename, ext string) string {
	name := util.SanitizeFilename(filename)
	stem := strings.TrimSuffix(name, path.Ext(name))
	return fmt.Sprintf("%s/%d-%s-%s%s", collection, a.now().UnixMilli(), stem, keySuffix(), ext)
}

// keySuffix returns 8 random hex characters.
func keySuffix() string {
	id := uuid.New()
	return hex.EncodeToString(id[:4])
}

// Remove deletes key, logging instead of failing. Asset cleanup never
// blocks a metadata change.
func (a *Assets) Remove(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := a.blobs.Delete(ctx, key); err != nil {
		a.logger.Warn("failed to delete asset", "key", key, "error", err)
	}
}

// invalidate starts a new cache generation for a public listing. A nil
// cache is allowed.
func invalidate(ctx context.Context, c cache.Cacher, logger *slog.Logger, key string) {
	if c == nil {
		return
	}
	if err := cache.Invalidate(ctx, c, key); err != nil {
		logger.Warn("failed to invalidate cache", "key", key, "error", err)
	}
}
