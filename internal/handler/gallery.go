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

// GalleryHandler handles gallery management.
type GalleryHandler struct {
	gallery        *service.GalleryService
	events         *service.EventService
	maxUploadBytes int64
}

// NewGalleryHandler creates a new GalleryHandler.
func NewGalleryHandler(gallery *service.GalleryService, events *service.EventService, maxUploadBytes int64) *GalleryHandler {
	return &GalleryHandler{gallery: gallery, events: events, maxUploadBytes: maxUploadBytes}
}

// List handles GET /admin/gallery.
func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.gallery.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "error.load_failed")
		return
	}
	WriteList(w, items)
}

// Create handles POST /admin/gallery. The multipart form must carry an
// image next to headline and subheadline.
func (h *GalleryHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	in := service.GalleryInput{
		Headline:    r.FormValue("headline"),
		Subheadline: r.FormValue("subheadline"),
	}
	photo, err := h.gallery.Create(r.Context(), in, up)
	if err != nil {
		writeServiceError(w, r, err, "error.save_failed")
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryGallery, "Gallery photo added", middleware.ActorFrom(r),
		map[string]any{"id": photo.ID, "headline": photo.Headline, "key": photo.StoragePath})
	WriteCreated(w, photo)
}

// Update handles PUT and PATCH /admin/gallery/{id}. Only the text changes.
func (h *GalleryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch service.GalleryPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	photo, err := h.gallery.Update(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, r, err, "error.save_failed")
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryGallery, "Gallery photo updated", middleware.ActorFrom(r),
		map[string]any{"id": photo.ID, "headline": photo.Headline})
	WriteSuccess(w, photo)
}

// Delete handles DELETE /admin/gallery/{id}.
func (h *GalleryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.gallery.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "error.delete_failed")
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryGallery, "Gallery photo deleted", middleware.ActorFrom(r),
		map[string]any{"id": id})
	w.WriteHeader(http.StatusNoContent)
}
