// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service holds the business logic of the band site: accounts,
// the three content collections and the audit log.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mileusna/useragent"

	"github.com/olegiv/bandsite/internal/model"
	"github.com/olegiv/bandsite/internal/store"
)

// RecentEventsLimit caps the audit log listing.
const RecentEventsLimit = 100

// EventEntry is an audit log row as returned by the API.
type EventEntry struct {
	store.Event
	UserID   string         `json:"userId,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// CountryResolver maps a client IP to a country code. *geoip.Locator
// implements it.
type CountryResolver interface {
	Country(ip string) string
}

// EventService writes and reads the audit log.
type EventService struct {
	queries   *store.Queries
	logger    *slog.Logger
	countries CountryResolver
	now       func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB, logger *slog.Logger) *EventService {
	return &EventService{
		queries: store.New(db),
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetCountryResolver tags future events with the client's country.
func (s *EventService) SetCountryResolver(r CountryResolver) {
	s.countries = r
}

// Actor identifies who triggered an event.
type Actor struct {
	UserID     string
	IPAddress  string
	RequestURL string
	UserAgent  string
}

// LogEvent writes an audit entry. Failures are logged and returned.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, actor Actor, metadata map[string]any) error {
	if actor.UserAgent != "" {
		if metadata == nil {
			metadata = map[string]any{}
		}
		for k, v := range clientInfo(actor.UserAgent) {
			metadata[k] = v
		}
	}

	if s.countries != nil && actor.IPAddress != "" {
		if country := s.countries.Country(actor.IPAddress); country != "" {
			if metadata == nil {
				metadata = map[string]any{}
			}
			metadata["country"] = country
		}
	}

	metadataJSON := "{}"
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(b)
		}
	}

	err := s.queries.CreateEvent(ctx, store.Event{
		ID:         uuid.NewString(),
		Level:      level,
		Category:   category,
		Message:    message,
		UserID:     sql.NullString{String: actor.UserID, Valid: actor.UserID != ""},
		IPAddress:  actor.IPAddress,
		RequestURL: actor.RequestURL,
		Metadata:   metadataJSON,
		CreatedAt:  s.now(),
	})
	if err != nil {
		s.logger.Error("failed to log event", "category", category, "error", err)
		return persistErr("logging event", err)
	}
	return nil
}

// LogInfo logs an info-level event.
func (s *EventService) LogInfo(ctx context.Context, category, message string, actor Actor, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelInfo, category, message, actor, metadata)
}

// LogWarning logs a warning-level event.
func (s *EventService) LogWarning(ctx context.Context, category, message string, actor Actor, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelWarning, category, message, actor, metadata)
}

// ListRecent returns the newest audit entries.
func (s *EventService) ListRecent(ctx context.Context) ([]EventEntry, error) {
	rows, err := s.queries.ListRecentEvents(ctx, RecentEventsLimit)
	if err != nil {
		return nil, persistErr("listing events", err)
	}

	entries := make([]EventEntry, 0, len(rows))
	for _, row := range rows {
		entry := EventEntry{Event: row}
		if row.UserID.Valid {
			entry.UserID = row.UserID.String
		}
		if row.Metadata != "" && row.Metadata != "{}" {
			_ = json.Unmarshal([]byte(row.Metadata), &entry.Metadata)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// DeleteOldEvents removes events older than the given duration.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := s.queries.DeleteOldEvents(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, persistErr("pruning events", err)
	}
	return n, nil
}

// clientInfo summarizes a User-Agent header.
func clientInfo(uaString string) map[string]any {
	ua := useragent.Parse(uaString)

	browser, os := ua.Name, ua.OS
	if browser == "" {
		browser = "Unknown"
	}
	if os == "" {
		os = "Unknown"
	}

	device := "desktop"
	switch {
	case ua.Mobile:
		device = "mobile"
	case ua.Tablet:
		device = "tablet"
	case ua.Bot:
		device = "bot"
	}

	return map[string]any{
		"browser": browser,
		"os":      os,
		"device":  device,
	}
}
