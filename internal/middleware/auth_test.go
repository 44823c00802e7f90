// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/bandsite/internal/auth"
	"github.com/olegiv/bandsite/internal/service"
	"github.com/olegiv/bandsite/internal/session"
	"github.com/olegiv/bandsite/internal/store"
)

type fakeUsers map[string]store.User

func (f fakeUsers) Get(_ context.Context, id string) (store.User, error) {
	if id == "broken" {
		return store.User{}, &service.PersistenceError{Op: "loading user", Err: errors.New("db down")}
	}
	u, ok := f[id]
	if !ok {
		return store.User{}, service.ErrNotFound
	}
	return u, nil
}

type recordedEvent struct {
	category, message string
	actor             service.Actor
	metadata          map[string]any
}

type fakeEvents struct{ events []recordedEvent }

func (f *fakeEvents) LogWarning(_ context.Context, category, message string, actor service.Actor, metadata map[string]any) error {
	f.events = append(f.events, recordedEvent{category, message, actor, metadata})
	return nil
}

func withUser(r *http.Request, u store.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ContextKeyUser, u))
}

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var body APIError
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return body
}

func TestGetUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if u := GetUser(req); u != nil {
		t.Errorf("GetUser() = %v, want nil", u)
	}

	req = withUser(req, store.User{ID: "u-1", Username: "andy"})
	u := GetUser(req)
	if u == nil || u.ID != "u-1" || u.Username != "andy" {
		t.Errorf("GetUser() = %+v", u)
	}
}

func TestActorFrom(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/admin/users/u-2", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	req.Header.Set("User-Agent", "curl/8.0")
	req = withUser(req, store.User{ID: "u-1"})

	actor := ActorFrom(req)
	want := service.Actor{UserID: "u-1", IPAddress: "10.1.2.3", RequestURL: "/admin/users/u-2", UserAgent: "curl/8.0"}
	if actor != want {
		t.Errorf("ActorFrom() = %+v, want %+v", actor, want)
	}
}

// sessionWith returns a cookie for a session holding userID.
func sessionWith(t *testing.T, sm *scs.SessionManager, userID string) *http.Cookie {
	t.Helper()
	h := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := session.Login(r.Context(), sm, userID, "gallery"); err != nil {
			t.Fatalf("Login: %v", err)
		}
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/login", nil))
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie")
	}
	return cookies[0]
}

func TestLoadUser(t *testing.T) {
	sm, err := session.New(session.Options{IsDev: true})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	users := fakeUsers{"u-1": {ID: "u-1", Username: "andy", Role: auth.RoleBandmember}}

	var seen *store.User
	h := sm.LoadAndSave(LoadUser(sm, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUser(r)
	})))

	tests := []struct {
		name       string
		userID     string
		wantStatus int
		wantUser   string
	}{
		{"anonymous", "", http.StatusOK, ""},
		{"known user", "u-1", http.StatusOK, "andy"},
		{"deleted user", "gone", http.StatusOK, ""},
		{"store failure", "broken", http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/admin/session", nil)
			if tt.userID != "" {
				req.AddCookie(sessionWith(t, sm, tt.userID))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			got := ""
			if seen != nil {
				got = seen.Username
			}
			if got != tt.wantUser {
				t.Errorf("user = %q, want %q", got, tt.wantUser)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/session", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", rec.Code)
	}
	body := decodeAPIError(t, rec)
	if body.Error.Code != CodeUnauthorized || body.Error.Message != "Bitte anmelden" {
		t.Errorf("error = %+v", body.Error)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/admin/session", nil), store.User{ID: "u-1"}))
	if rec.Code != http.StatusNoContent {
		t.Errorf("signed-in status = %d, want 204", rec.Code)
	}
}

func TestRequireCapability(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		capability string
		anonymous  bool
		wantStatus int
	}{
		{"admin manages tour dates", auth.RoleAdmin, auth.CapManageTourDates, false, http.StatusOK},
		{"bandmember manages gallery", auth.RoleBandmember, auth.CapManageGallery, false, http.StatusOK},
		{"bandmember denied tour dates", auth.RoleBandmember, auth.CapManageTourDates, false, http.StatusForbidden},
		{"bandmember denied users", auth.RoleBandmember, auth.CapManageUsers, false, http.StatusForbidden},
		{"unknown role denied", "roadie", auth.CapManageGallery, false, http.StatusForbidden},
		{"anonymous", "", auth.CapManageGallery, true, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := &fakeEvents{}
			h := RequireCapability(tt.capability, events)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/admin/tour-dates", nil)
			if !tt.anonymous {
				req = withUser(req, store.User{ID: "u-1", Username: "andy", Role: tt.role})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusForbidden {
				if len(events.events) != 1 {
					t.Fatalf("events = %d, want 1", len(events.events))
				}
				if got := events.events[0].metadata["capability"]; got != tt.capability {
					t.Errorf("logged capability = %v", got)
				}
			} else if len(events.events) != 0 {
				t.Errorf("unexpected events: %+v", events.events)
			}
		})
	}
}

func TestRequireCapabilityNilEvents(t *testing.T) {
	h := RequireCapability(auth.CapManageUsers, nil)(http.NotFoundHandler())
	req := withUser(httptest.NewRequest(http.MethodGet, "/admin/users", nil), store.User{Role: auth.RoleBandmember})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
