// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, login throttling and request context handling.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/bandsite/internal/auth"
	"github.com/olegiv/bandsite/internal/model"
	"github.com/olegiv/bandsite/internal/service"
	"github.com/olegiv/bandsite/internal/session"
	"github.com/olegiv/bandsite/internal/store"
	"github.com/olegiv/bandsite/internal/util"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyUser holds the signed-in store.User.
const ContextKeyUser ContextKey = "user"

// UserLoader resolves the user id stored in the session.
// *service.CredentialStore implements it.
type UserLoader interface {
	Get(ctx context.Context, id string) (store.User, error)
}

// EventLogger records audit events. *service.EventService implements it.
type EventLogger interface {
	LogWarning(ctx context.Context, category, message string, actor service.Actor, metadata map[string]any) error
}

// LoadUser puts the signed-in user into the request context. A session
// pointing at a deleted account is destroyed and the request continues
// anonymously.
func LoadUser(sm *scs.SessionManager, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := session.UserID(r.Context(), sm)
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.Get(r.Context(), userID)
			if errors.Is(err, service.ErrNotFound) {
				_ = session.Logout(r.Context(), sm)
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				slog.Error("failed to load session user", "user_id", userID, "error", err)
				WriteLocalizedError(w, r, http.StatusInternalServerError, CodeInternal, "error.load_failed")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *store.User {
	user, ok := r.Context().Value(ContextKeyUser).(store.User)
	if !ok {
		return nil
	}
	return &user
}

// ActorFrom describes who sent r for the audit log.
func ActorFrom(r *http.Request) service.Actor {
	actor := service.Actor{
		IPAddress:  util.ClientIP(r),
		RequestURL: r.URL.Path,
		UserAgent:  r.UserAgent(),
	}
	if user := GetUser(r); user != nil {
		actor.UserID = user.ID
	}
	return actor
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUser(r) == nil {
			WriteLocalizedError(w, r, http.StatusUnauthorized, CodeUnauthorized, "error.unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireCapability lets a request through only when the user's role
// holds capability. Denials go to the audit log when events is not nil;
// the log line stays at info so the event log handler does not record
// them twice.
func RequireCapability(capability string, events EventLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				WriteLocalizedError(w, r, http.StatusUnauthorized, CodeUnauthorized, "error.unauthorized")
				return
			}

			if !auth.HasCapability(user.Role, capability) {
				slog.Info("access denied",
					"user_id", user.ID,
					"role", user.Role,
					"capability", capability,
					"path", r.URL.Path,
				)
				if events != nil {
					_ = events.LogWarning(r.Context(), model.EventCategoryAuth, "Access denied", ActorFrom(r),
						map[string]any{"capability": capability, "role": user.Role, "username": user.Username})
				}
				WriteLocalizedError(w, r, http.StatusForbidden, CodeForbidden, "error.forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
