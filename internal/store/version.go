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

// versionColumns lists all columns for post_versions SELECTs.
const versionColumns = `id, post_id, title, slug, body, body_format, excerpt, status,
	meta_title, meta_description, change_note, created_by, created_at`

// VersionStore reads the append-only post history. It has no update or
// delete methods; the table rejects updates and rows only disappear with
// their post.
type VersionStore struct {
	db *sql.DB
}

// NewVersionStore creates a new VersionStore backed by the given database.
func NewVersionStore(db *sql.DB) *VersionStore {
	return &VersionStore{db: db}
}

func scanVersion(row scanner) (*models.PostVersion, error) {
	var v models.PostVersion
	err := row.Scan(
		&v.ID, &v.PostID, &v.Title, &v.Slug, &v.Body, &v.BodyFormat, &v.Excerpt, &v.Status,
		&v.MetaTitle, &v.MetaDescription, &v.ChangeNote, &v.CreatedBy, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// insertVersion appends v and fills in its ID and CreatedAt. Versions are
// only written together with the post update they describe.
func insertVersion(ctx context.Context, q execer, v *models.PostVersion) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO post_versions (
			post_id, title, slug, body, body_format, excerpt, status,
			meta_title, meta_description, change_note, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`, v.PostID, v.Title, v.Slug, v.Body, v.BodyFormat, v.Excerpt, v.Status,
		v.MetaTitle, v.MetaDescription, v.ChangeNote, v.CreatedBy,
	).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return fmt.Errorf("create post version: %w", mapErr(err))
	}
	return nil
}

// ListByPost returns all versions of a post, newest first.
func (s *VersionStore) ListByPost(ctx context.Context, postID int64) ([]models.PostVersion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+versionColumns+`
		FROM post_versions
		WHERE post_id = $1
		ORDER BY created_at DESC, id DESC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("list post versions: %w", err)
	}
	defer rows.Close()

	var versions []models.PostVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post version: %w", err)
		}
		versions = append(versions, *v)
	}
	return versions, rows.Err()
}

// FindByID returns one version of a post. Returns nil if not found or if it
// belongs to another post.
func (s *VersionStore) FindByID(ctx context.Context, postID, id int64) (*models.PostVersion, error) {
	v, err := scanVersion(s.db.QueryRowContext(ctx, `
		SELECT `+versionColumns+` FROM post_versions WHERE id = $1 AND post_id = $2
	`, id, postID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post version: %w", err)
	}
	return v, nil
}
