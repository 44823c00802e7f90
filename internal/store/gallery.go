// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const galleryColumns = `id, image_url, headline, subheadline, position, storage_path, created_at, updated_at`

func scanGalleryPhoto(row interface{ Scan(...any) error }) (GalleryPhoto, error) {
	var p GalleryPhoto
	err := row.Scan(
		&p.ID,
		&p.ImageURL,
		&p.Headline,
		&p.Subheadline,
		&p.Order,
		&p.StoragePath,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

// CreateGalleryPhoto inserts p and assigns its position in the same
// statement as one past the current maximum (0 for the first photo).
// p.Order is ignored; read the row back to learn the assigned value.
func (q *Queries) CreateGalleryPhoto(ctx context.Context, p GalleryPhoto) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO gallery_photos (id, image_url, headline, subheadline, position, storage_path, created_at, updated_at)
		 SELECT ?, ?, ?, ?, COALESCE(MAX(position), -1) + 1, ?, ?, ? FROM gallery_photos`,
		p.ID, p.ImageURL, p.Headline, p.Subheadline, p.StoragePath, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// GetGalleryPhoto returns sql.ErrNoRows when id is unknown.
func (q *Queries) GetGalleryPhoto(ctx context.Context, id string) (GalleryPhoto, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+galleryColumns+` FROM gallery_photos WHERE id = ?`, id)
	return scanGalleryPhoto(row)
}

// ListGalleryPhotos returns all photos by ascending position.
func (q *Queries) ListGalleryPhotos(ctx context.Context) ([]GalleryPhoto, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+galleryColumns+` FROM gallery_photos ORDER BY position ASC, created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []GalleryPhoto{}
	for rows.Next() {
		p, err := scanGalleryPhoto(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateGalleryPhotoText changes the captions only.
func (q *Queries) UpdateGalleryPhotoText(ctx context.Context, id, headline, subheadline string, updatedAt time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE gallery_photos SET headline = ?, subheadline = ?, updated_at = ? WHERE id = ?`,
		headline, subheadline, updatedAt, id,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteGalleryPhoto removes a photo row.
func (q *Queries) DeleteGalleryPhoto(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM gallery_photos WHERE id = ?`, id)
	return err
}
