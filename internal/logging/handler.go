// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that copies WARN and ERROR
// records into the audit log.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/bandsite/internal/model"
	"github.com/olegiv/bandsite/internal/store"
)

// Attribute keys with a dedicated events column.
const (
	AttrCategory = "category"
	AttrUserID   = "user_id"
	AttrIP       = "ip"
	AttrPath     = "path"
)

// writeTimeout bounds a single audit write.
const writeTimeout = 2 * time.Second

// EventLogHandler wraps another handler and also writes records at or
// above its level to the events table.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
	attrs   []slog.Attr // from WithAttrs, outside any group
}

// NewEventLogHandler forwards WARN and above to the events table.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates an EventLogHandler with a custom minimum level.
func NewEventLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level) || level >= h.level
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.inner.Enabled(ctx, r.Level) {
		if err := h.inner.Handle(ctx, r); err != nil {
			return err
		}
	}
	if r.Level >= h.level {
		h.writeToEventLog(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EventLogHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
		attrs:   append(append([]slog.Attr(nil), h.attrs...), attrs...),
	}
}

// WithGroup implements slog.Handler. Grouped attributes still reach the
// event metadata, flattened.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
		attrs:   h.attrs,
	}
}

// writeToEventLog stores r. It uses its own context so a cancelled
// request still leaves a trace, and it never logs through slog.
func (h *EventLogHandler) writeToEventLog(r slog.Record) {
	e := store.Event{
		ID:        uuid.NewString(),
		Level:     eventLevel(r.Level),
		Message:   r.Message,
		CreatedAt: r.Time.UTC(),
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	metadata := map[string]string{}
	collect := func(a slog.Attr) bool {
		a.Value = a.Value.Resolve()
		switch a.Key {
		case AttrCategory:
			e.Category = a.Value.String()
		case AttrUserID:
			e.UserID = sql.NullString{String: a.Value.String(), Valid: a.Value.String() != ""}
		case AttrIP:
			e.IPAddress = a.Value.String()
		case AttrPath:
			e.RequestURL = a.Value.String()
		default:
			metadata[a.Key] = a.Value.String()
		}
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(collect)

	if e.Category == "" {
		e.Category = inferCategory(r.Message)
	}
	e.Metadata = "{}"
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			e.Metadata = string(b)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	_ = h.queries.CreateEvent(ctx, e)
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// inferCategory guesses a category from the message.
func inferCategory(msg string) string {
	msg = strings.ToLower(msg)
	switch {
	case containsAny(msg, "auth", "login", "logout", "csrf", "session", "account locked"):
		return model.EventCategoryAuth
	case strings.Contains(msg, "tour"):
		return model.EventCategoryTourDates
	case containsAny(msg, "gallery", "photo"):
		return model.EventCategoryGallery
	case strings.Contains(msg, "timeline"):
		return model.EventCategoryTimeline
	case strings.Contains(msg, "user"):
		return model.EventCategoryUser
	default:
		return model.EventCategorySystem
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
