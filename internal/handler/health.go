// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/bandsite/internal/cache"
	"github.com/olegiv/bandsite/internal/middleware"
	"github.com/olegiv/bandsite/internal/model"
	"github.com/olegiv/bandsite/internal/scheduler"
	"github.com/olegiv/bandsite/internal/service"
	"github.com/olegiv/bandsite/internal/version"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"

	checkTimeout = 2 * time.Second
)

// pinger is implemented by cache backends that can be probed.
type pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health checks and the system status page.
type HealthHandler struct {
	db           *sql.DB
	cache        cache.Cacher
	cacheBackend string
	scheduler    *scheduler.Scheduler
	events       *service.EventService
	version      version.Info
	startTime    time.Time
}

// NewHealthHandler creates a new HealthHandler. sched and events may be nil.
func NewHealthHandler(db *sql.DB, c cache.Cacher, cacheBackend string, sched *scheduler.Scheduler,
	events *service.EventService, info version.Info) *HealthHandler {
	return &HealthHandler{
		db:           db,
		cache:        c,
		cacheBackend: cacheBackend,
		scheduler:    sched,
		events:       events,
		version:      info,
		startTime:    time.Now(),
	}
}

// HealthStatusPublic is the minimal public health response.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// Check is the result of one dependency probe.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemStatus is the detailed status shown to administrators.
type SystemStatus struct {
	Status    string              `json:"status"`
	Timestamp time.Time           `json:"timestamp"`
	Uptime    string              `json:"uptime"`
	Version   version.Info        `json:"version"`
	Checks    map[string]Check    `json:"checks"`
	Cache     CacheInfo           `json:"cache"`
	Jobs      []scheduler.JobInfo `json:"jobs"`
	GoRuntime RuntimeInfo         `json:"runtime"`
}

// CacheInfo describes the public listing cache.
type CacheInfo struct {
	Backend string       `json:"backend"`
	Stats   *cache.Stats `json:"stats,omitempty"`
}

// RuntimeInfo holds process statistics.
type RuntimeInfo struct {
	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutines"`
	MemAllocMB   uint64 `json:"memAllocMb"`
}

// Health handles GET /health. It never reveals details.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := statusHealthy
	if h.checkDatabase(r.Context()).Status != statusHealthy {
		status = statusUnhealthy
	}
	code := http.StatusOK
	if status != statusHealthy {
		code = http.StatusServiceUnavailable
	}
	WriteJSON(w, code, HealthStatusPublic{Status: status})
}

// Liveness handles GET /health/live.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, HealthStatusPublic{Status: "alive"})
}

// Readiness handles GET /health/ready.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.checkDatabase(r.Context()).Status != statusHealthy {
		WriteJSON(w, http.StatusServiceUnavailable, HealthStatusPublic{Status: "not_ready"})
		return
	}
	WriteJSON(w, http.StatusOK, HealthStatusPublic{Status: "ready"})
}

// System handles GET /admin/system.
func (h *HealthHandler) System(w http.ResponseWriter, r *http.Request) {
	checks := map[string]Check{
		"database": h.checkDatabase(r.Context()),
		"cache":    h.checkCache(r.Context()),
	}

	status := statusHealthy
	switch {
	case checks["database"].Status != statusHealthy:
		status = statusUnhealthy
	case checks["cache"].Status != statusHealthy:
		status = statusDegraded
	}

	info := CacheInfo{Backend: h.cacheBackend}
	if sp, ok := h.cache.(cache.StatsProvider); ok {
		stats := sp.Stats()
		info.Stats = &stats
	}

	jobs := []scheduler.JobInfo{}
	if h.scheduler != nil {
		jobs = h.scheduler.Jobs()
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	WriteSuccess(w, SystemStatus{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version,
		Checks:    checks,
		Cache:     info,
		Jobs:      jobs,
		GoRuntime: RuntimeInfo{
			GoVersion:    runtime.Version(),
			NumGoroutine: runtime.NumGoroutine(),
			MemAllocMB:   mem.Alloc / (1 << 20),
		},
	})
}

// RunJob handles POST /admin/system/jobs/{name}/run. The job runs in the
// background; the response only confirms it was started.
func (h *HealthHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if h.scheduler == nil {
		middleware.WriteLocalizedError(w, r, http.StatusNotFound, middleware.CodeNotFound, "error.not_found")
		return
	}

	if err := h.scheduler.TriggerNow(name); err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			middleware.WriteLocalizedError(w, r, http.StatusNotFound, middleware.CodeNotFound, "error.not_found")
			return
		}
		writeServiceError(w, r, err, "error.internal")
		return
	}

	if h.events != nil {
		_ = h.events.LogInfo(r.Context(), model.EventCategorySystem, "Job triggered manually", middleware.ActorFrom(r),
			map[string]any{"job": name})
	}
	WriteJSON(w, http.StatusAccepted, Response{Data: map[string]string{"job": name}})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	if err := h.db.PingContext(ctx); err != nil {
		return Check{Status: statusUnhealthy, Message: "database ping failed"}
	}
	return Check{Status: statusHealthy, Latency: time.Since(start).String()}
}

func (h *HealthHandler) checkCache(ctx context.Context) Check {
	p, ok := h.cache.(pinger)
	if !ok {
		return Check{Status: statusHealthy, Message: fmt.Sprintf("%s backend", h.cacheBackend)}
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	if err := p.Ping(ctx); err != nil {
		return Check{Status: statusUnhealthy, Message: "cache ping failed"}
	}
	return Check{Status: statusHealthy, Latency: time.Since(start).String()}
}
