// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/olegiv/bandsite/internal/service"
)

// EventsHandler serves the audit log.
type EventsHandler struct {
	events *service.EventService
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(events *service.EventService) *EventsHandler {
	return &EventsHandler{events: events}
}

// List handles GET /admin/events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.events.ListRecent(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "error.load_failed")
		return
	}
	WriteList(w, entries)
}
