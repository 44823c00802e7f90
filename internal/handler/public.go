// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/olegiv/bandsite/internal/cache"
	"github.com/olegiv/bandsite/internal/markup"
	"github.com/olegiv/bandsite/internal/service"
	"github.com/olegiv/bandsite/internal/store"
)

// PublicTimelineEvent is a timeline event with its caption rendered.
type PublicTimelineEvent struct {
	store.TimelineEvent
	CaptionHTML string `json:"caption_html"`
}

// PublicHandler serves the read-only listings the marketing site renders.
// Listings are cached and the services invalidate them on writes.
type PublicHandler struct {
	tourDates *service.TourDateService
	gallery   *service.GalleryService
	timeline  *service.TimelineService

	tourDateCache *cache.TypedCache[[]store.TourDate]
	galleryCache  *cache.TypedCache[[]store.GalleryPhoto]
	timelineCache *cache.TypedCache[[]PublicTimelineEvent]
}

// NewPublicHandler creates a new PublicHandler. c must not be nil.
func NewPublicHandler(tourDates *service.TourDateService, gallery *service.GalleryService,
	timeline *service.TimelineService, c cache.Cacher, ttl time.Duration) *PublicHandler {
	return &PublicHandler{
		tourDates:     tourDates,
		gallery:       gallery,
		timeline:      timeline,
		tourDateCache: cache.NewTypedCache[[]store.TourDate](c, ttl),
		galleryCache:  cache.NewTypedCache[[]store.GalleryPhoto](c, ttl),
		timelineCache: cache.NewTypedCache[[]PublicTimelineEvent](c, ttl),
	}
}

// TourDates handles GET /api/v1/tour-dates.
func (h *PublicHandler) TourDates(w http.ResponseWriter, r *http.Request) {
	items, err := h.tourDateCache.GetOrSet(r.Context(), cache.KeyTourDates, h.tourDates.List)
	if err != nil {
		writeServiceError(w, r, err, "error.load_failed")
		return
	}
	WriteList(w, items)
}

// Gallery handles GET /api/v1/gallery.
func (h *PublicHandler) Gallery(w http.ResponseWriter, r *http.Request) {
	items, err := h.galleryCache.GetOrSet(r.Context(), cache.KeyGallery, h.gallery.List)
	if err != nil {
		writeServiceError(w, r, err, "error.load_failed")
		return
	}
	WriteList(w, items)
}

// Timeline handles GET /api/v1/timeline.
func (h *PublicHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	items, err := h.timelineCache.GetOrSet(r.Context(), cache.KeyTimeline, h.loadTimeline)
	if err != nil {
		writeServiceError(w, r, err, "error.load_failed")
		return
	}
	WriteList(w, items)
}

func (h *PublicHandler) loadTimeline(ctx context.Context) ([]PublicTimelineEvent, error) {
	events, err := h.timeline.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PublicTimelineEvent, 0, len(events))
	for _, e := range events {
		out = append(out, PublicTimelineEvent{TimelineEvent: e, CaptionHTML: markup.RenderCaption(e.Caption)})
	}
	return out, nil
}
