// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/bandsite/internal/cache"
	"github.com/olegiv/bandsite/internal/model"
	"github.com/olegiv/bandsite/internal/store"
)

// GalleryInput holds the text of a new gallery photo.
type GalleryInput struct {
	Headline    string `json:"headline"`
	Subheadline string `json:"subheadline"`
}

// GalleryPatch updates the photo text. The image itself is immutable.
type GalleryPatch struct {
	Headline    *string `json:"headline"`
	Subheadline *string `json:"subheadline"`
}

// GalleryService manages gallery photos and their images.
type GalleryService struct {
	queries *store.Queries
	assets  *Assets
	cache   cache.Cacher
	logger  *slog.Logger
	now     func() time.Time
}

// NewGalleryService creates a GalleryService. c may be nil.
func NewGalleryService(db *sql.DB, assets *Assets, c cache.Cacher, logger *slog.Logger) *GalleryService {
	return &GalleryService{
		queries: store.New(db),
		assets:  assets,
		cache:   c,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// List returns all photos by order ascending.
func (s *GalleryService) List(ctx context.Context) ([]store.GalleryPhoto, error) {
	items, err := s.queries.ListGalleryPhotos(ctx)
	if err != nil {
		return nil, persistErr("listing gallery", err)
	}
	return items, nil
}

// Get returns one photo.
func (s *GalleryService) Get(ctx context.Context, id string) (store.GalleryPhoto, error) {
	p, err := s.queries.GetGalleryPhoto(ctx, id)
	if err != nil {
		return store.GalleryPhoto{}, lookupErr("loading photo", err)
	}
	return p, nil
}

// Create uploads up (when given) and inserts the photo at the end of the
// gallery. If the insert fails the uploaded image is removed again.
func (s *GalleryService) Create(ctx context.Context, in GalleryInput, up *Upload) (store.GalleryPhoto, error) {
	now := s.now()
	p := store.GalleryPhoto{
		ID:          uuid.NewString(),
		Headline:    clean(in.Headline),
		Subheadline: clean(in.Subheadline),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validateGalleryText(p); err != nil {
		return store.GalleryPhoto{}, err
	}

	if up != nil {
		asset, err := s.assets.Store(ctx, model.CollectionGallery, up)
		if err != nil {
			return store.GalleryPhoto{}, err
		}
		p.ImageURL, p.StoragePath = asset.URL, asset.Key
	}

	if err := s.queries.CreateGalleryPhoto(ctx, p); err != nil {
		s.assets.Remove(ctx, p.StoragePath)
		return store.GalleryPhoto{}, persistErr("creating photo", err)
	}
	invalidate(ctx, s.cache, s.logger, cache.KeyGallery)

	created, err := s.queries.GetGalleryPhoto(ctx, p.ID)
	if err != nil {
		return store.GalleryPhoto{}, persistErr("reading created photo", err)
	}
	return created, nil
}

// Update changes headline and subheadline.
func (s *GalleryService) Update(ctx context.Context, id string, patch GalleryPatch) (store.GalleryPhoto, error) {
	p, err := s.queries.GetGalleryPhoto(ctx, id)
	if err != nil {
		return store.GalleryPhoto{}, lookupErr("loading photo", err)
	}
	if v := cleanPtr(patch.Headline); v != nil {
		p.Headline = *v
	}
	if v := cleanPtr(patch.Subheadline); v != nil {
		p.Subheadline = *v
	}
	if err := validateGalleryText(p); err != nil {
		return store.GalleryPhoto{}, err
	}

	p.UpdatedAt = s.now()
	n, err := s.queries.UpdateGalleryPhotoText(ctx, id, p.Headline, p.Subheadline, p.UpdatedAt)
	if err != nil {
		return store.GalleryPhoto{}, persistErr("updating photo", err)
	}
	if n == 0 {
		return store.GalleryPhoto{}, ErrNotFound
	}
	invalidate(ctx, s.cache, s.logger, cache.KeyGallery)
	return p, nil
}

// Delete removes the image (best effort) and then the photo. Unknown
// ids are ignored.
func (s *GalleryService) Delete(ctx context.Context, id string) error {
	p, err := s.queries.GetGalleryPhoto(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return persistErr("loading photo", err)
	}

	s.assets.Remove(ctx, p.StoragePath)

	if err := s.queries.DeleteGalleryPhoto(ctx, id); err != nil {
		return persistErr("deleting photo", err)
	}
	invalidate(ctx, s.cache, s.logger, cache.KeyGallery)
	return nil
}

func validateGalleryText(p store.GalleryPhoto) error {
	var v validator
	v.required("headline", p.Headline)
	v.maxLen("headline", p.Headline, maxShortText)
	v.required("subheadline", p.Subheadline)
	v.maxLen("subheadline", p.Subheadline, maxShortText)
	return v.err()
}
