// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/bandsite/internal/middleware"
	"github.com/olegiv/bandsite/internal/model"
	"github.com/olegiv/bandsite/internal/service"
)

// UsersHandler handles user management.
type UsersHandler struct {
	sessionManager *scs.SessionManager
	users          *service.CredentialStore
	events         *service.EventService
	legacyPassword string
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(sm *scs.SessionManager, users *service.CredentialStore, events *service.EventService, legacyPassword string) *UsersHandler {
	return &UsersHandler{
		sessionManager: sm,
		users:          users,
		events:         events,
		legacyPassword: legacyPassword,
	}
}

// List handles GET /admin/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "error.load_failed")
		return
	}
	WriteList(w, users)
}

// Create handles POST /admin/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateUserInput
	if !decodeJSON(w, r, &in) {
		return
	}

	user, err := h.users.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err, "error.save_failed")
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryUser, "User created", middleware.ActorFrom(r),
		map[string]any{"target_id": user.ID, "username": user.Username, "role": user.Role})
	WriteCreated(w, user)
}

// Update handles PUT and PATCH /admin/users/{id}.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in service.UpdateUserInput
	if !decodeJSON(w, r, &in) {
		return
	}

	user, err := h.users.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err, "error.save_failed")
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryUser, "User updated", middleware.ActorFrom(r),
		map[string]any{
			"target_id":        user.ID,
			"username":         user.Username,
			"role":             user.Role,
			"password_changed": in.Password != nil && *in.Password != "",
		})
	WriteSuccess(w, user)
}

// Delete handles DELETE /admin/users/{id}. The request goes through the
// admin shell, which refuses the reserved account before anything is
// removed. Unknown ids succeed.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	target, err := h.users.Get(r.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeServiceError(w, r, err, "error.delete_failed")
		return
	}

	sh := restoreShell(r, h.sessionManager, h.legacyPassword)
	if err := sh.DeleteUser(r.Context(), h.users, target.ID, target.Username); err != nil {
		if errors.Is(err, service.ErrProtectedUser) {
			_ = h.events.LogWarning(r.Context(), model.EventCategoryUser, "Attempt to delete protected user",
				middleware.ActorFrom(r), map[string]any{"username": target.Username})
		}
		writeServiceError(w, r, err, "error.delete_failed")
		return
	}

	_ = h.events.LogInfo(r.Context(), model.EventCategoryUser, "User deleted", middleware.ActorFrom(r),
		map[string]any{"target_id": target.ID, "username": target.Username})
	w.WriteHeader(http.StatusNoContent)
}
