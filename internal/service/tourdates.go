// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/bandsite/internal/cache"
	"github.com/olegiv/bandsite/internal/store"
)

// TourDateInput holds the fields of a new tour date.
type TourDateInput struct {
	Date       string `json:"date"`
	City       string `json:"city"`
	Venue      string `json:"venue"`
	TicketLink string `json:"ticketLink"`
	SoldOut    bool   `json:"soldOut"`
}

// TourDatePatch is a partial update; nil fields are left unchanged.
type TourDatePatch struct {
	Date       *string `json:"date"`
	City       *string `json:"city"`
	Venue      *string `json:"venue"`
	TicketLink *string `json:"ticketLink"`
	SoldOut    *bool   `json:"soldOut"`
}

// TourDateService manages tour dates.
type TourDateService struct {
	queries *store.Queries
	cache   cache.Cacher
	logger  *slog.Logger
	now     func() time.Time
}

// NewTourDateService creates a TourDateService. c may be nil.
func NewTourDateService(db *sql.DB, c cache.Cacher, logger *slog.Logger) *TourDateService {
	return &TourDateService{
		queries: store.New(db),
		cache:   c,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// List returns all tour dates by date ascending.
func (s *TourDateService) List(ctx context.Context) ([]store.TourDate, error) {
	items, err := s.queries.ListTourDates(ctx)
	if err != nil {
		return nil, persistErr("listing tour dates", err)
	}
	return items, nil
}

// Get returns one tour date.
func (s *TourDateService) Get(ctx context.Context, id string) (store.TourDate, error) {
	t, err := s.queries.GetTourDate(ctx, id)
	if err != nil {
		return store.TourDate{}, lookupErr("loading tour date", err)
	}
	return t, nil
}

// Create validates and inserts a tour date.
func (s *TourDateService) Create(ctx context.Context, in TourDateInput) (store.TourDate, error) {
	now := s.now()
	t := store.TourDate{
		ID:         uuid.NewString(),
		Date:       strings.TrimSpace(in.Date),
		City:       clean(in.City),
		Venue:      clean(in.Venue),
		TicketLink: strings.TrimSpace(in.TicketLink),
		SoldOut:    in.SoldOut,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := validateTourDate(t); err != nil {
		return store.TourDate{}, err
	}

	if err := s.queries.CreateTourDate(ctx, t); err != nil {
		return store.TourDate{}, persistErr("creating tour date", err)
	}
	invalidate(ctx, s.cache, s.logger, cache.KeyTourDates)
	return t, nil
}

// Update applies patch to the tour date.
func (s *TourDateService) Update(ctx context.Context, id string, patch TourDatePatch) (store.TourDate, error) {
	t, err := s.queries.GetTourDate(ctx, id)
	if err != nil {
		return store.TourDate{}, lookupErr("loading tour date", err)
	}

	if patch.Date != nil {
		t.Date = strings.TrimSpace(*patch.Date)
	}
	if v := cleanPtr(patch.City); v != nil {
		t.City = *v
	}
	if v := cleanPtr(patch.Venue); v != nil {
		t.Venue = *v
	}
	if patch.TicketLink != nil {
		t.TicketLink = strings.TrimSpace(*patch.TicketLink)
	}
	if patch.SoldOut != nil {
		t.SoldOut = *patch.SoldOut
	}
	if err := validateTourDate(t); err != nil {
		return store.TourDate{}, err
	}

	t.UpdatedAt = s.now()
	n, err := s.queries.UpdateTourDate(ctx, t)
	if err != nil {
		return store.TourDate{}, persistErr("updating tour date", err)
	}
	if n == 0 {
		return store.TourDate{}, ErrNotFound
	}
	invalidate(ctx, s.cache, s.logger, cache.KeyTourDates)
	return t, nil
}

// Delete removes the tour date. Unknown ids are ignored.
func (s *TourDateService) Delete(ctx context.Context, id string) error {
	if _, err := s.queries.GetTourDate(ctx, id); errors.Is(err, sql.ErrNoRows) {
		return nil
	} else if err != nil {
		return persistErr("loading tour date", err)
	}

	if err := s.queries.DeleteTourDate(ctx, id); err != nil {
		return persistErr("deleting tour date", err)
	}
	invalidate(ctx, s.cache, s.logger, cache.KeyTourDates)
	return nil
}

func validateTourDate(t store.TourDate) error {
	var v validator
	v.date("date", t.Date)
	v.required("city", t.City)
	v.maxLen("city", t.City, maxShortText)
	v.required("venue", t.Venue)
	v.maxLen("venue", t.Venue, maxShortText)
	v.link("ticketLink", t.TicketLink)
	return v.err()
}
