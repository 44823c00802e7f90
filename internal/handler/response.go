// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the HTTP handlers of the band site: the public
// read API and the JSON admin API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/bandsite/internal/i18n"
	"github.com/olegiv/bandsite/internal/middleware"
	"github.com/olegiv/bandsite/internal/service"
	"github.com/olegiv/bandsite/internal/shell"
)

// maxJSONBody limits JSON request bodies.
const maxJSONBody = 1 << 20

// Response is the success envelope.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta carries list metadata.
type Meta struct {
	Total int `json:"total"`
}

// WriteJSON writes data as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// WriteSuccess writes a 200 response wrapping data.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Response{Data: data})
}

// WriteList writes a 200 response wrapping a list and its size.
func WriteList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	WriteJSON(w, http.StatusOK, Response{Data: items, Meta: &Meta{Total: len(items)}})
}

// WriteCreated writes a 201 response wrapping data.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// writeServiceError maps a service or shell error to an HTTP error.
// fallbackKey is the message used for persistence and unknown failures.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallbackKey string) {
	lang := middleware.GetLang(r)

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		details := make(map[string]string, len(verr.Fields))
		for field, key := range verr.Fields {
			details[field] = i18n.T(lang, key)
		}
		middleware.WriteAPIError(w, http.StatusUnprocessableEntity, middleware.CodeValidation,
			i18n.T(lang, "error.validation"), details)
		return
	}

	switch {
	case errors.Is(err, service.ErrDuplicateUsername):
		writeValidationField(w, r, http.StatusConflict, middleware.CodeConflict, "username", "error.username_taken")
	case errors.Is(err, service.ErrNotFound):
		middleware.WriteLocalizedError(w, r, http.StatusNotFound, middleware.CodeNotFound, "error.not_found")
	case errors.Is(err, service.ErrInvalidCredentials):
		middleware.WriteLocalizedError(w, r, http.StatusUnauthorized, middleware.CodeUnauthorized, "error.wrong_password")
	case errors.Is(err, service.ErrProtectedUser):
		middleware.WriteLocalizedError(w, r, http.StatusForbidden, middleware.CodeForbidden, "error.admin_protected")
	case errors.Is(err, shell.ErrTabNotAllowed):
		middleware.WriteLocalizedError(w, r, http.StatusForbidden, middleware.CodeForbidden, "error.tab_not_allowed")
	case errors.Is(err, shell.ErrForbidden):
		middleware.WriteLocalizedError(w, r, http.StatusForbidden, middleware.CodeForbidden, "error.forbidden")
	case errors.Is(err, shell.ErrNotAuthenticated):
		middleware.WriteLocalizedError(w, r, http.StatusUnauthorized, middleware.CodeUnauthorized, "error.unauthorized")
	case errors.Is(err, shell.ErrPasswordRequired):
		writeValidationField(w, r, http.StatusUnprocessableEntity, middleware.CodeValidation, "password", "error.password_required")
	case errors.Is(err, shell.ErrLoginInProgress):
		middleware.WriteLocalizedError(w, r, http.StatusConflict, middleware.CodeConflict, "error.login_in_progress")
	case errors.Is(err, shell.ErrAlreadyAuthenticated):
		middleware.WriteLocalizedError(w, r, http.StatusConflict, middleware.CodeConflict, "error.already_authenticated")
	default:
		slog.Error("request failed", "path", r.URL.Path, "method", r.Method, "error", err)
		middleware.WriteLocalizedError(w, r, http.StatusInternalServerError, middleware.CodeInternal, fallbackKey)
	}
}

// writeValidationField writes an error whose message is also attached to
// a single form field.
func writeValidationField(w http.ResponseWriter, r *http.Request, status int, code, field, key string) {
	msg := i18n.T(middleware.GetLang(r), key)
	middleware.WriteAPIError(w, status, code, msg, map[string]string{field: msg})
}

// writeBadRequest writes a localized 400.
func writeBadRequest(w http.ResponseWriter, r *http.Request) {
	middleware.WriteLocalizedError(w, r, http.StatusBadRequest, middleware.CodeBadRequest, "error.bad_request")
}

// decodeJSON reads a size-limited JSON body into dst. On failure it writes
// a 400 and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		slog.Debug("invalid JSON body", "path", r.URL.Path, "error", err)
		writeBadRequest(w, r)
		return false
	}
	return true
}
