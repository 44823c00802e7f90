// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/bandsite/internal/cache"
	"github.com/olegiv/bandsite/internal/model"
	"github.com/olegiv/bandsite/internal/store"
)

// TimelineInput holds the fields of a new timeline event.
type TimelineInput struct {
	Date    string `json:"date"`
	Badge   string `json:"badge"`
	Title   string `json:"title"`
	Caption string `json:"caption"`
}

// TimelinePatch is a partial update; the image cannot be replaced.
type TimelinePatch struct {
	Date    *string `json:"date"`
	Badge   *string `json:"badge"`
	Title   *string `json:"title"`
	Caption *string `json:"caption"`
}

// TimelineService manages timeline events.
type TimelineService struct {
	queries *store.Queries
	assets  *Assets
	cache   cache.Cacher
	logger  *slog.Logger
	now     func() time.Time
}

// NewTimelineService creates a TimelineService. c may be nil.
func NewTimelineService(db *sql.DB, assets *Assets, c cache.Cacher, logger *slog.Logger) *TimelineService {
	return &TimelineService{
		queries: store.New(db),
		assets:  assets,
		cache:   c,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// List returns all events, newest date first.
func (s *TimelineService) List(ctx context.Context) ([]store.TimelineEvent, error) {
	items, err := s.queries.ListTimelineEvents(ctx)
	if err != nil {
		return nil, persistErr("listing timeline", err)
	}
	return items, nil
}

// Get returns one event.
func (s *TimelineService) Get(ctx context.Context, id string) (store.TimelineEvent, error) {
	e, err := s.queries.GetTimelineEvent(ctx, id)
	if err != nil {
		return store.TimelineEvent{}, lookupErr("loading timeline event", err)
	}
	return e, nil
}

// Create uploads up (optional) and inserts the event. If the insert fails
// the uploaded image is removed again.
func (s *TimelineService) Create(ctx context.Context, in TimelineInput, up *Upload) (store.TimelineEvent, error) {
	now := s.now()
	badge, _ := model.ParseBadge(in.Badge)
	e := store.TimelineEvent{
		ID:        uuid.NewString(),
		Date:      strings.TrimSpace(in.Date),
		Badge:     string(badge),
		Title:     clean(in.Title),
		Caption:   clean(in.Caption),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := validateTimelineEvent(e); err != nil {
		return store.TimelineEvent{}, err
	}

	if up != nil {
		asset, err := s.assets.Store(ctx, model.CollectionTimeline, up)
		if err != nil {
			return store.TimelineEvent{}, err
		}
		e.ImageURL, e.StoragePath = asset.URL, asset.Key
	}

	if err := s.queries.CreateTimelineEvent(ctx, e); err != nil {
		s.assets.Remove(ctx, e.StoragePath)
		return store.TimelineEvent{}, persistErr("creating timeline event", err)
	}
	invalidate(ctx, s.cache, s.logger, cache.KeyTimeline)
	return e, nil
}

// Update applies patch to the event.
func (s *TimelineService) Update(ctx context.Context, id string, patch TimelinePatch) (store.TimelineEvent, error) {
	e, err := s.queries.GetTimelineEvent(ctx, id)
	if err != nil {
		return store.TimelineEvent{}, lookupErr("loading timeline event", err)
	}

	if patch.Date != nil {
		e.Date = strings.TrimSpace(*patch.Date)
	}
	if patch.Badge != nil {
		badge, _ := model.ParseBadge(*patch.Badge)
		e.Badge = string(badge)
	}
	if v := cleanPtr(patch.Title); v != nil {
		e.Title = *v
	}
	if v := cleanPtr(patch.Caption); v != nil {
		e.Caption = *v
	}
	if err := validateTimelineEvent(e); err != nil {
		return store.TimelineEvent{}, err
	}

	e.UpdatedAt = s.now()
	n, err := s.queries.UpdateTimelineEvent(ctx, e)
	if err != nil {
		return store.TimelineEvent{}, persistErr("updating timeline event", err)
	}
	if n == 0 {
		return store.TimelineEvent{}, ErrNotFound
	}
	invalidate(ctx, s.cache, s.logger, cache.KeyTimeline)
	return e, nil
}

// Delete removes the image (best effort) and then the event. Unknown ids
// are ignored.
func (s *TimelineService) Delete(ctx context.Context, id string) error {
	e, err := s.queries.GetTimelineEvent(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return persistErr("loading timeline event", err)
	}

	s.assets.Remove(ctx, e.StoragePath)

	if err := s.queries.DeleteTimelineEvent(ctx, id); err != nil {
		return persistErr("deleting timeline event", err)
	}
	invalidate(ctx, s.cache, s.logger, cache.KeyTimeline)
	return nil
}

func validateTimelineEvent(e store.TimelineEvent) error {
	var v validator
	v.date("date", e.Date)
	if !model.Badge(e.Badge).Valid() {
		v.fail("badge", "validation.badge")
	}
	v.required("title", e.Title)
	v.maxLen("title", e.Title, maxShortText)
	v.required("caption", e.Caption)
	v.maxLen("caption", e.Caption, maxLongText)
	return v.err()
}
