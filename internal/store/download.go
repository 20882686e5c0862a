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

const downloadColumns = `id, title, description, file_path, file_name, file_size, mime_type,
	is_active, download_count, created_at, updated_at`

// DownloadStore handles downloadable documents.
type DownloadStore struct {
	db *sql.DB
}

// NewDownloadStore creates a new DownloadStore.
func NewDownloadStore(db *sql.DB) *DownloadStore {
	return &DownloadStore{db: db}
}

func scanDownload(row scanner) (*models.Download, error) {
	var d models.Download
	err := row.Scan(
		&d.ID, &d.Title, &d.Description, &d.FilePath, &d.FileName, &d.FileSize, &d.MimeType,
		&d.IsActive, &d.DownloadCount, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *DownloadStore) query(ctx context.Context, op, q string, args ...any) ([]models.Download, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.Download
	for rows.Next() {
		d, err := scanDownload(rows)
		if err != nil {
			return nil, fmt.Errorf("scan download: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// List returns all downloads, newest first.
func (s *DownloadStore) List(ctx context.Context) ([]models.Download, error) {
	return s.query(ctx, "list downloads",
		`SELECT `+downloadColumns+` FROM downloads ORDER BY created_at DESC, id DESC`)
}

// ListActive returns the downloads offered on the public site.
func (s *DownloadStore) ListActive(ctx context.Context) ([]models.Download, error) {
	return s.query(ctx, "list active downloads",
		`SELECT `+downloadColumns+` FROM downloads WHERE is_active ORDER BY title`)
}

// FindByID returns a download by ID, or nil if not found.
func (s *DownloadStore) FindByID(ctx context.Context, id int64) (*models.Download, error) {
	d, err := scanDownload(s.db.QueryRowContext(ctx, `SELECT `+downloadColumns+` FROM downloads WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find download by id: %w", err)
	}
	return d, nil
}

// Create records an uploaded document.
func (s *DownloadStore) Create(ctx context.Context, d *models.Download) (*models.Download, error) {
	created, err := scanDownload(s.db.QueryRowContext(ctx, `
		INSERT INTO downloads (title, description, file_path, file_name, file_size, mime_type, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+downloadColumns,
		d.Title, d.Description, d.FilePath, d.FileName, d.FileSize, d.MimeType, d.IsActive))
	if err != nil {
		return nil, fmt.Errorf("create download: %w", err)
	}
	return created, nil
}

// UpdateMeta changes the title, description and active flag.
func (s *DownloadStore) UpdateMeta(ctx context.Context, d *models.Download) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE downloads SET title = $1, description = $2, is_active = $3, updated_at = NOW()
		WHERE id = $4
	`, d.Title, d.Description, d.IsActive, d.ID)
	if err != nil {
		return fmt.Errorf("update download: %w", err)
	}
	return expectOne(res)
}

// Delete removes a download record. The stored file is the caller's concern.
func (s *DownloadStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM downloads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete download: %w", err)
	}
	return expectOne(res)
}

// RecordHit increments the download counter of an active download and
// returns the updated record, or nil if it does not exist or is inactive.
func (s *DownloadStore) RecordHit(ctx context.Context, id int64) (*models.Download, error) {
	d, err := scanDownload(s.db.QueryRowContext(ctx, `
		UPDATE downloads SET download_count = download_count + 1
		WHERE id = $1 AND is_active
		RETURNING `+downloadColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("record download hit: %w", err)
	}
	return d, nil
}
