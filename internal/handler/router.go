// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/bandsite/internal/auth"
	"github.com/olegiv/bandsite/internal/cache"
	"github.com/olegiv/bandsite/internal/middleware"
	"github.com/olegiv/bandsite/internal/scheduler"
	"github.com/olegiv/bandsite/internal/service"
	"github.com/olegiv/bandsite/internal/version"
)

// Route patterns.
const (
	RouteHealth       = "/health"
	RouteAPI          = "/api/v1"
	RouteAdmin        = "/admin"
	RouteLogin        = "/login"
	RouteLogout       = "/logout"
	RouteSession      = "/session"
	RouteSessionTab   = "/session/tab"
	RouteTourDates    = "/tour-dates"
	RouteGallery      = "/gallery"
	RouteTimeline     = "/timeline"
	RouteUsers        = "/users"
	RouteEvents       = "/events"
	RouteSystem       = "/system"
	RouteSystemJobRun = "/system/jobs/{name}/run"
	RouteParamID      = "/{id}"
)

// requestTimeout bounds every request, uploads included.
const requestTimeout = 60 * time.Second

// Deps are the services the router wires into handlers.
type Deps struct {
	DB              *sql.DB
	Sessions        *scs.SessionManager
	Credentials     *service.CredentialStore
	TourDates       *service.TourDateService
	Gallery         *service.GalleryService
	Timeline        *service.TimelineService
	Events          *service.EventService
	Cache           cache.Cacher
	CacheBackend    string
	CacheTTL        time.Duration
	Scheduler       *scheduler.Scheduler
	LoginProtection *middleware.LoginProtection
	CSRF            middleware.CSRFConfig
	Security        middleware.SecurityHeadersConfig
	LegacyPassword  string
	MaxUploadBytes  int64
	Version         version.Info

	// UploadsDir and UploadsPath serve locally stored images. Both empty
	// when blobs live in S3.
	UploadsDir  string
	UploadsPath string
}

// crudHandlers are the standard handlers of an admin collection.
type crudHandlers struct {
	List   http.HandlerFunc
	Create http.HandlerFunc
	Update http.HandlerFunc
	Delete http.HandlerFunc
}

// registerCRUD mounts a collection and guards it with capability.
func registerCRUD(r chi.Router, base, capability string, events middleware.EventLogger, h crudHandlers) {
	r.Route(base, func(r chi.Router) {
		r.Use(middleware.RequireCapability(capability, events))
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Put(RouteParamID, h.Update)
		r.Patch(RouteParamID, h.Update)
		r.Delete(RouteParamID, h.Delete)
	})
}

// NewRouter builds the HTTP routes of the site.
func NewRouter(d Deps) http.Handler {
	authHandler := NewAuthHandler(d.Sessions, d.Credentials, d.Events, d.LoginProtection, d.LegacyPassword)
	usersHandler := NewUsersHandler(d.Sessions, d.Credentials, d.Events, d.LegacyPassword)
	tourDatesHandler := NewTourDatesHandler(d.TourDates, d.Events)
	galleryHandler := NewGalleryHandler(d.Gallery, d.Events, d.MaxUploadBytes)
	timelineHandler := NewTimelineHandler(d.Timeline, d.Events, d.MaxUploadBytes)
	eventsHandler := NewEventsHandler(d.Events)
	publicHandler := NewPublicHandler(d.TourDates, d.Gallery, d.Timeline, d.Cache, d.CacheTTL)
	healthHandler := NewHealthHandler(d.DB, d.Cache, d.CacheBackend, d.Scheduler, d.Events, d.Version)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(middleware.SecurityHeaders(d.Security))
	r.Use(middleware.Language)

	r.Get(RouteHealth, healthHandler.Health)
	r.Get(RouteHealth+"/live", healthHandler.Liveness)
	r.Get(RouteHealth+"/ready", healthHandler.Readiness)

	r.Route(RouteAPI, func(r chi.Router) {
		r.Get(RouteTourDates, publicHandler.TourDates)
		r.Get(RouteGallery, publicHandler.Gallery)
		r.Get(RouteTimeline, publicHandler.Timeline)
	})

	if d.UploadsDir != "" && strings.HasPrefix(d.UploadsPath, "/") {
		prefix := strings.TrimSuffix(d.UploadsPath, "/") + "/"
		r.Handle(prefix+"*", http.StripPrefix(prefix, http.FileServer(noListingFS{http.Dir(d.UploadsDir)})))
	}

	r.Route(RouteAdmin, func(r chi.Router) {
		r.Use(d.Sessions.LoadAndSave)
		r.Use(middleware.CSRF(d.CSRF))
		r.Use(middleware.LoadUser(d.Sessions, d.Credentials))

		r.With(d.LoginProtection.Middleware()).Post(RouteLogin, authHandler.Login)
		r.Post(RouteLogout, authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get(RouteSession, authHandler.Session)
			r.Put(RouteSessionTab, authHandler.SelectTab)

			registerCRUD(r, RouteTourDates, auth.CapManageTourDates, d.Events, crudHandlers{
				List: tourDatesHandler.List, Create: tourDatesHandler.Create,
				Update: tourDatesHandler.Update, Delete: tourDatesHandler.Delete,
			})
			registerCRUD(r, RouteGallery, auth.CapManageGallery, d.Events, crudHandlers{
				List: galleryHandler.List, Create: galleryHandler.Create,
				Update: galleryHandler.Update, Delete: galleryHandler.Delete,
			})
			registerCRUD(r, RouteTimeline, auth.CapManageTimeline, d.Events, crudHandlers{
				List: timelineHandler.List, Create: timelineHandler.Create,
				Update: timelineHandler.Update, Delete: timelineHandler.Delete,
			})
			registerCRUD(r, RouteUsers, auth.CapManageUsers, d.Events, crudHandlers{
				List: usersHandler.List, Create: usersHandler.Create,
				Update: usersHandler.Update, Delete: usersHandler.Delete,
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCapability(auth.CapManageUsers, d.Events))
				r.Get(RouteEvents, eventsHandler.List)
				r.Get(RouteSystem, healthHandler.System)
				r.Post(RouteSystemJobRun, healthHandler.RunJob)
			})
		})
	})

	return r
}

// noListingFS hides directory listings of the uploads directory.
type noListingFS struct {
	fs http.FileSystem
}

func (n noListingFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if stat.IsDir() {
		_ = f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}
