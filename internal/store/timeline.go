// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
)

const timelineColumns = `id, event_date, badge, title, caption, image_url, storage_path, created_at, updated_at`

func scanTimelineEvent(row interface{ Scan(...any) error }) (TimelineEvent, error) {
	var e TimelineEvent
	err := row.Scan(
		&e.ID,
		&e.Date,
		&e.Badge,
		&e.Title,
		&e.Caption,
		&e.ImageURL,
		&e.StoragePath,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	return e, err
}

// CreateTimelineEvent inserts a fully populated timeline row.
func (q *Queries) CreateTimelineEvent(ctx context.Context, e TimelineEvent) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO timeline_events (id, event_date, badge, title, caption, image_url, storage_path, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Date, e.Badge, e.Title, e.Caption, e.ImageURL, e.StoragePath, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

// GetTimelineEvent returns sql.ErrNoRows when id is unknown.
func (q *Queries) GetTimelineEvent(ctx context.Context, id string) (TimelineEvent, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+timelineColumns+` FROM timeline_events WHERE id = ?`, id)
	return scanTimelineEvent(row)
}

// ListTimelineEvents returns all events, newest date first.
func (q *Queries) ListTimelineEvents(ctx context.Context) ([]TimelineEvent, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+timelineColumns+` FROM timeline_events ORDER BY event_date DESC, created_at DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []TimelineEvent{}
	for rows.Next() {
		e, err := scanTimelineEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateTimelineEvent rewrites date, badge, title and caption of e.ID.
// The image columns are left untouched.
func (q *Queries) UpdateTimelineEvent(ctx context.Context, e TimelineEvent) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE timeline_events SET event_date = ?, badge = ?, title = ?, caption = ?, updated_at = ?
		 WHERE id = ?`,
		e.Date, e.Badge, e.Title, e.Caption, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteTimelineEvent removes a timeline row.
func (q *Queries) DeleteTimelineEvent(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM timeline_events WHERE id = ?`, id)
	return err
}

// ListStoragePaths returns every blob key referenced by a content row.
func (q *Queries) ListStoragePaths(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT storage_path FROM gallery_photos WHERE storage_path <> ''
		 UNION
		 SELECT storage_path FROM timeline_events WHERE storage_path <> ''`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}
