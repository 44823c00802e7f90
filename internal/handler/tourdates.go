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

// TourDatesHandler handles tour date management.
type TourDatesHandler struct {
	tourDates *service.TourDateService
	events    *service.EventService
}

// NewTourDatesHandler creates a new TourDatesHandler.
func NewTourDatesHandler(tourDates *service.TourDateService, events *service.EventService) *TourDatesHandler {
	return &TourDatesHandler{tourDates: tourDates, events: events}
}

// List handles GET /admin/tour-dates.
func (h *TourDatesHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.tourDates.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "error.load_failed")
		return
	}
	WriteList(w, items)
}

// Create handles POST /admin/tour-dates.
func (h *TourDatesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.TourDateInput
	if !decodeJSON(w, r, &in) {
		return
	}

	td, err := h.tourDates.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err, "error.save_failed")
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryTourDates, "Tour date created", middleware.ActorFrom(r),
		map[string]any{"id": td.ID, "date": td.Date, "city": td.City})
	WriteCreated(w, td)
}

// Update handles PUT and PATCH /admin/tour-dates/{id}.
func (h *TourDatesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch service.TourDatePatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	td, err := h.tourDates.Update(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, r, err, "error.save_failed")
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryTourDates, "Tour date updated", middleware.ActorFrom(r),
		map[string]any{"id": td.ID, "date": td.Date, "city": td.City, "soldOut": td.SoldOut})
	WriteSuccess(w, td)
}

// Delete handles DELETE /admin/tour-dates/{id}.
func (h *TourDatesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.tourDates.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "error.delete_failed")
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryTourDates, "Tour date deleted", middleware.ActorFrom(r),
		map[string]any{"id": id})
	w.WriteHeader(http.StatusNoContent)
}
