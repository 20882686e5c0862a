// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"corpsite/internal/models"
)

const tagColumns = `t.id, t.name, t.slug, t.created_at,
	(SELECT COUNT(*) FROM post_tags pt WHERE pt.tag_id = t.id)`

// TagStore handles all tag-related database operations.
type TagStore struct {
	db *sql.DB
}

// NewTagStore creates a new TagStore.
func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

func scanTag(row scanner) (*models.Tag, error) {
	var t models.Tag
	if err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt, &t.PostCount); err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns all tags alphabetically.
func (s *TagStore) List(ctx context.Context) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+tagColumns+` FROM tags t ORDER BY t.name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, *t)
	}
	return tags, rows.Err()
}

// ListPublic returns all tags alphabetically with PostCount limited to posts
// visible to anonymous readers at now.
func (s *TagStore) ListPublic(ctx context.Context, now time.Time) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.slug, t.created_at,
		       (SELECT COUNT(*) FROM post_tags pt
		          JOIN posts p ON p.id = pt.post_id
		         WHERE pt.tag_id = t.id AND `+publicPredicate+`$1)
		FROM tags t
		ORDER BY t.name
	`, now)
	if err != nil {
		return nil, fmt.Errorf("list public tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, *t)
	}
	return tags, rows.Err()
}

// FindByID returns a tag by ID, or nil if not found.
func (s *TagStore) FindByID(ctx context.Context, id int64) (*models.Tag, error) {
	t, err := scanTag(s.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags t WHERE t.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tag by id: %w", err)
	}
	return t, nil
}

// Create inserts a tag. A taken slug yields an error matching ErrDuplicate.
func (s *TagStore) Create(ctx context.Context, name, slug string) (*models.Tag, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO tags (name, slug) VALUES ($1, $2) RETURNING id`, name, slug).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", mapErr(err))
	}
	return s.FindByID(ctx, id)
}

// Update renames a tag.
func (s *TagStore) Update(ctx context.Context, id int64, name, slug string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tags SET name = $1, slug = $2 WHERE id = $3`, name, slug, id)
	if err != nil {
		return fmt.Errorf("update tag: %w", mapErr(err))
	}
	return expectOne(res)
}

// Delete removes a tag and its post memberships.
func (s *TagStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return expectOne(res)
}
