// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
)

const tourDateColumns = `id, show_date, city, venue, ticket_link, sold_out, created_at, updated_at`

func scanTourDate(row interface{ Scan(...any) error }) (TourDate, error) {
	var t TourDate
	err := row.Scan(
		&t.ID,
		&t.Date,
		&t.City,
		&t.Venue,
		&t.TicketLink,
		&t.SoldOut,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

// CreateTourDate inserts a fully populated tour date row.
func (q *Queries) CreateTourDate(ctx context.Context, t TourDate) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO tour_dates (id, show_date, city, venue, ticket_link, sold_out, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Date, t.City, t.Venue, t.TicketLink, t.SoldOut, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

// GetTourDate returns sql.ErrNoRows when id is unknown.
func (q *Queries) GetTourDate(ctx context.Context, id string) (TourDate, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+tourDateColumns+` FROM tour_dates WHERE id = ?`, id)
	return scanTourDate(row)
}

// ListTourDates returns all tour dates, earliest show first.
func (q *Queries) ListTourDates(ctx context.Context) ([]TourDate, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+tourDateColumns+` FROM tour_dates ORDER BY show_date ASC, created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []TourDate{}
	for rows.Next() {
		t, err := scanTourDate(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateTourDate rewrites the mutable columns of t.ID.
func (q *Queries) UpdateTourDate(ctx context.Context, t TourDate) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE tour_dates SET show_date = ?, city = ?, venue = ?, ticket_link = ?, sold_out = ?, updated_at = ?
		 WHERE id = ?`,
		t.Date, t.City, t.Venue, t.TicketLink, t.SoldOut, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteTourDate removes a tour date row.
func (q *Queries) DeleteTourDate(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM tour_dates WHERE id = ?`, id)
	return err
}
