// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/bandsite/internal/auth"
	"github.com/olegiv/bandsite/internal/i18n"
	"github.com/olegiv/bandsite/internal/middleware"
	"github.com/olegiv/bandsite/internal/model"
	"github.com/olegiv/bandsite/internal/service"
	"github.com/olegiv/bandsite/internal/session"
	"github.com/olegiv/bandsite/internal/shell"
	"github.com/olegiv/bandsite/internal/store"
)

// AuthHandler handles login, logout and the admin session.
type AuthHandler struct {
	sessionManager  *scs.SessionManager
	users           *service.CredentialStore
	events          *service.EventService
	loginProtection *middleware.LoginProtection
	legacyPassword  string
}

// NewAuthHandler creates a new AuthHandler. An empty legacyPassword
// disables the username-less admin login.
func NewAuthHandler(sm *scs.SessionManager, users *service.CredentialStore, events *service.EventService,
	lp *middleware.LoginProtection, legacyPassword string) *AuthHandler {
	return &AuthHandler{
		sessionManager:  sm,
		users:           users,
		events:          events,
		loginProtection: lp,
		legacyPassword:  legacyPassword,
	}
}

// LoginRequest is the body of POST /admin/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TabView is a tab as shown in the admin navigation.
type TabView struct {
	ID    shell.Tab `json:"id"`
	Label string    `json:"label"`
}

// SessionView describes the signed-in user and what they may do.
type SessionView struct {
	User         store.User        `json:"user"`
	Capabilities auth.Capabilities `json:"capabilities"`
	Tabs         []TabView         `json:"tabs"`
	ActiveTab    shell.Tab         `json:"activeTab"`
}

func newSessionView(r *http.Request, sh *shell.Shell) SessionView {
	user, _ := sh.User()
	lang := middleware.GetLang(r)

	tabs := sh.Tabs()
	views := make([]TabView, 0, len(tabs))
	for _, t := range tabs {
		views = append(views, TabView{ID: t, Label: i18n.T(lang, "tab."+string(t))})
	}

	return SessionView{
		User:         user,
		Capabilities: sh.Capabilities(),
		Tabs:         views,
		ActiveTab:    sh.ActiveTab(),
	}
}

// restoreShell rebuilds the admin shell of the current request from the
// user loaded by middleware.LoadUser and the session's active tab.
func restoreShell(r *http.Request, sm *scs.SessionManager, legacyPassword string) *shell.Shell {
	user := middleware.GetUser(r)
	if user == nil {
		return shell.New(legacyPassword)
	}
	tab := shell.Tab(session.ActiveTab(r.Context(), sm))
	return shell.Restore(*user, tab, legacyPassword)
}

// Login handles POST /admin/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	username := strings.TrimSpace(req.Username)
	// Legacy logins are bound to the admin account, so they share its lockout.
	lockKey := username
	if lockKey == "" {
		lockKey = model.ReservedUsername
	}
	actor := middleware.ActorFrom(r)

	if locked, remaining := h.loginProtection.IsAccountLocked(lockKey); locked {
		_ = h.events.LogWarning(r.Context(), model.EventCategoryAuth, "Login attempt on locked account", actor,
			map[string]any{"username": lockKey})
		middleware.WriteRateLimited(w, r, remaining)
		return
	}

	sh := restoreShell(r, h.sessionManager, h.legacyPassword)
	user, err := sh.SubmitLogin(r.Context(), h.users, username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			nowLocked, lockDuration := h.loginProtection.RecordFailedAttempt(lockKey)
			_ = h.events.LogWarning(r.Context(), model.EventCategoryAuth, "Failed login attempt", actor,
				map[string]any{
					"username":          lockKey,
					"remainingAttempts": h.loginProtection.GetRemainingAttempts(lockKey),
				})
			if nowLocked {
				middleware.WriteRateLimited(w, r, lockDuration)
				return
			}
		}
		writeServiceError(w, r, err, "error.load_failed")
		return
	}

	h.loginProtection.RecordSuccessfulLogin(lockKey)

	if err := h.users.RecordLogin(r.Context(), user.ID); err != nil {
		slog.Error("failed to record last login", "user_id", user.ID, "error", err)
	}

	if err := session.Login(r.Context(), h.sessionManager, user.ID, string(sh.ActiveTab())); err != nil {
		writeServiceError(w, r, err, "error.internal")
		return
	}

	actor.UserID = user.ID
	_ = h.events.LogInfo(r.Context(), model.EventCategoryAuth, "User logged in", actor,
		map[string]any{"username": user.Username, "legacy": username == ""})

	WriteSuccess(w, newSessionView(r, sh))
}

// Logout handles POST /admin/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if user := middleware.GetUser(r); user != nil {
		_ = h.events.LogInfo(r.Context(), model.EventCategoryAuth, "User logged out", middleware.ActorFrom(r),
			map[string]any{"username": user.Username})
	}

	if err := session.Logout(r.Context(), h.sessionManager); err != nil {
		writeServiceError(w, r, err, "error.internal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /admin/session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	sh := restoreShell(r, h.sessionManager, h.legacyPassword)
	WriteSuccess(w, newSessionView(r, sh))
}

// SelectTabRequest is the body of PUT /admin/session/tab.
type SelectTabRequest struct {
	Tab string `json:"tab"`
}

// SelectTab handles PUT /admin/session/tab.
func (h *AuthHandler) SelectTab(w http.ResponseWriter, r *http.Request) {
	var req SelectTabRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sh := restoreShell(r, h.sessionManager, h.legacyPassword)
	if err := sh.SelectTab(shell.Tab(req.Tab)); err != nil {
		writeServiceError(w, r, err, "error.internal")
		return
	}

	session.PutActiveTab(r.Context(), h.sessionManager, string(sh.ActiveTab()))
	WriteSuccess(w, newSessionView(r, sh))
}
