// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/bandsite/internal/middleware"
	"github.com/olegiv/bandsite/internal/model"
	"github.com/olegiv/bandsite/internal/service"
)

// TimelineHandler handles timeline management.
type TimelineHandler struct {
	timeline       *service.TimelineService
	events         *service.EventService
	maxUploadBytes int64
}

// NewTimelineHandler creates a new TimelineHandler.
func NewTimelineHandler(timeline *service.TimelineService, events *service.EventService, maxUploadBytes int64) *TimelineHandler {
	return &TimelineHandler{timeline: timeline, events: events, maxUploadBytes: maxUploadBytes}
}

// List handles GET /admin/timeline.
func (h *TimelineHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.timeline.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "error.load_failed")
		return
	}
	WriteList(w, items)
}

// Create handles POST /admin/timeline. Like the gallery, the multipart
// form must carry an image.
func (h *TimelineHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r, h.maxUploadBytes) {
		return
	}
	defer cleanupMultipart(r)

	up, closeUpload, err := formUpload(r)
	if err != nil {
		writeBadRequest(w, r)
		return
	}
	defer closeUpload()
	if up == nil {
		writeValidationField(w, r, http.StatusUnprocessableEntity, middleware.CodeValidation,
			formFieldImage, "error.image_required")
		return
	}

	in := service.TimelineInput{
		Date:    r.FormValue("date"),
		Badge:   r.FormValue("badge"),
		Title:   r.FormValue("title"),
		Caption: r.FormValue("caption"),
	}
	ev, err := h.timeline.Create(r.Context(), in, up)
	if err != nil {
		writeServiceError(w, r, err, "error.save_failed")
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryTimeline, "Timeline event created", middleware.ActorFrom(r),
		map[string]any{"id": ev.ID, "date": ev.Date, "badge": ev.Badge, "title": ev.Title})
	WriteCreated(w, ev)
}

// Update handles PUT and PATCH /admin/timeline/{id}.
func (h *TimelineHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch service.TimelinePatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	ev, err := h.timeline.Update(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, r, err, "error.save_failed")
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryTimeline, "Timeline event updated", middleware.ActorFrom(r),
		map[string]any{"id": ev.ID, "date": ev.Date, "badge": ev.Badge})
	WriteSuccess(w, ev)
}

// Delete handles DELETE /admin/timeline/{id}.
func (h *TimelineHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.timeline.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "error.delete_failed")
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryTimeline, "Timeline event deleted", middleware.ActorFrom(r),
		map[string]any{"id": id})
	w.WriteHeader(http.StatusNoContent)
}
