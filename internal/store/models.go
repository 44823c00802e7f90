// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries runs the application's SQL against a DBTX.
type Queries struct {
	db DBTX
}

// New returns Queries bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns Queries bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// User is a row of the users table.
type User struct {
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	SecretHash  string       `json:"-"`
	DisplayName string       `json:"displayName"`
	Role        string       `json:"role"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	LastLoginAt sql.NullTime `json:"-"`
}

// TourDate is a row of the tour_dates table.
type TourDate struct {
	ID         string    `json:"id"`
	Date       string    `json:"date"`
	City       string    `json:"city"`
	Venue      string    `json:"venue"`
	TicketLink string    `json:"ticketLink"`
	SoldOut    bool      `json:"soldOut"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// GalleryPhoto is a row of the gallery_photos table.
type GalleryPhoto struct {
	ID          string    `json:"id"`
	ImageURL    string    `json:"imageUrl"`
	Headline    string    `json:"headline"`
	Subheadline string    `json:"subheadline"`
	Order       int64     `json:"order"`
	StoragePath string    `json:"storagePath"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TimelineEvent is a row of the timeline_events table.
type TimelineEvent struct {
	ID          string    `json:"id"`
	Date        string    `json:"date"`
	Badge       string    `json:"badge"`
	Title       string    `json:"title"`
	Caption     string    `json:"caption"`
	ImageURL    string    `json:"imageUrl"`
	StoragePath string    `json:"storagePath"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Event is a row of the events (audit log) table.
type Event struct {
	ID         string         `json:"id"`
	Level      string         `json:"level"`
	Category   string         `json:"category"`
	Message    string         `json:"message"`
	UserID     sql.NullString `json:"-"`
	IPAddress  string         `json:"ipAddress"`
	RequestURL string         `json:"requestUrl"`
	Metadata   string         `json:"-"`
	CreatedAt  time.Time      `json:"createdAt"`
}
