// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"corpsite/internal/models"
)

// MediaStore handles all media-related database operations.
type MediaStore struct {
	db *sql.DB
}

// NewMediaStore creates a new MediaStore with the given database connection.
func NewMediaStore(db *sql.DB) *MediaStore {
	return &MediaStore{db: db}
}

// mediaColumns lists the columns selected in media queries.
const mediaColumns = `id, filename, original_name, mime_type, size_bytes, width, height,
	storage_path, thumbnail_path, alt_text, caption, uploader_id, created_at`

// scanMedia scans a media row from the result set.
func scanMedia(row scanner) (*models.Media, error) {
	var m models.Media
	err := row.Scan(
		&m.ID, &m.Filename, &m.OriginalName, &m.MimeType, &m.SizeBytes, &m.Width, &m.Height,
		&m.StoragePath, &m.ThumbnailPath, &m.AltText, &m.Caption, &m.UploaderID, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a new media record and returns it with the generated ID.
func (s *MediaStore) Create(ctx context.Context, m *models.Media) (*models.Media, error) {
	created, err := scanMedia(s.db.QueryRowContext(ctx, `
		INSERT INTO media (filename, original_name, mime_type, size_bytes, width, height,
			storage_path, thumbnail_path, alt_text, caption, uploader_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+mediaColumns,
		m.Filename, m.OriginalName, m.MimeType, m.SizeBytes, m.Width, m.Height,
		m.StoragePath, m.ThumbnailPath, m.AltText, m.Caption, m.UploaderID,
	))
	if err != nil {
		return nil, fmt.Errorf("create media: %w", mapErr(err))
	}
	return created, nil
}

// FindByID returns a media item by ID, or nil if not found.
func (s *MediaStore) FindByID(ctx context.Context, id int64) (*models.Media, error) {
	m, err := scanMedia(s.db.QueryRowContext(ctx, `SELECT `+mediaColumns+` FROM media WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find media: %w", err)
	}
	return m, nil
}

// List returns media items, newest first. An empty mimePrefix ("image/")
// lists everything.
func (s *MediaStore) List(ctx context.Context, mimePrefix string, limit, offset int) ([]models.Media, error) {
	limit, offset = page(limit, offset)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+mediaColumns+` FROM media
		WHERE $1 = '' OR mime_type LIKE $1 || '%'
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, mimePrefix, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	var items []models.Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

// UpdateMeta changes the alt text and caption of a media item.
func (s *MediaStore) UpdateMeta(ctx context.Context, id int64, altText, caption *string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE media SET alt_text = $1, caption = $2 WHERE id = $3
	`, altText, caption, id)
	if err != nil {
		return fmt.Errorf("update media meta: %w", err)
	}
	return expectOne(res)
}

// Delete removes a media record and returns it so the caller can clean
// up the corresponding stored objects. Returns nil if it did not exist.
func (s *MediaStore) Delete(ctx context.Context, id int64) (*models.Media, error) {
	m, err := scanMedia(s.db.QueryRowContext(ctx, `
		DELETE FROM media WHERE id = $1
		RETURNING `+mediaColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete media: %w", err)
	}
	return m, nil
}

// Count returns the total number of media items.
func (s *MediaStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM media`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count media: %w", err)
	}
	return count, nil
}
