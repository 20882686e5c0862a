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
	"corpsite/internal/ordering"
)

// categoryColumns lists all columns for categories SELECTs.
const categoryColumns = `c.id, c.name, c.slug, c.description, c.color, c.sort_order,
	c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM post_categories pc WHERE pc.category_id = c.id)`

// CategoryStore handles all category-related database operations.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore creates a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

func scanCategory(row scanner) (*models.Category, error) {
	var c models.Category
	err := row.Scan(
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.Color, &c.SortOrder,
		&c.CreatedAt, &c.UpdatedAt, &c.PostCount,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns all categories in display order.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+categoryColumns+` FROM categories c ORDER BY c.sort_order, c.name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, *c)
	}
	return cats, rows.Err()
}

// ListPublic returns all categories in display order with PostCount limited
// to posts visible to anonymous readers at now.
func (s *CategoryStore) ListPublic(ctx context.Context, now time.Time) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.slug, c.description, c.color, c.sort_order,
		       c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM post_categories pc
		          JOIN posts p ON p.id = pc.post_id
		         WHERE pc.category_id = c.id AND `+publicPredicate+`$1)
		FROM categories c
		ORDER BY c.sort_order, c.name
	`, now)
	if err != nil {
		return nil, fmt.Errorf("list public categories: %w", err)
	}
	defer rows.Close()

	var cats []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, *c)
	}
	return cats, rows.Err()
}

// FindByID returns a category by ID, or nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id int64) (*models.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories c WHERE c.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// FindBySlug returns a category by slug, or nil if not found.
func (s *CategoryStore) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories c WHERE c.slug = $1`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by slug: %w", err)
	}
	return c, nil
}

// Create inserts a category at the end of the list.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, slug, description, color, sort_order)
		VALUES ($1, $2, $3, $4, (SELECT COALESCE(MAX(sort_order) + 1, 0) FROM categories))
		RETURNING id
	`, c.Name, c.Slug, c.Description, c.Color).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", mapErr(err))
	}
	return s.FindByID(ctx, id)
}

// Update modifies a category's name, slug, description and color.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE categories SET name = $1, slug = $2, description = $3, color = $4, updated_at = NOW()
		WHERE id = $5
	`, c.Name, c.Slug, c.Description, c.Color, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", mapErr(err))
	}
	return expectOne(res)
}

// Delete removes a category. Post memberships cascade; posts stay.
func (s *CategoryStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return expectOne(res)
}

// ApplyOrder writes new sort orders for categories in one transaction.
func (s *CategoryStore) ApplyOrder(ctx context.Context, positions []ordering.Position) error {
	return applyOrder(ctx, s.db, "categories", positions)
}

// applyOrder updates sort_order for every position inside a transaction.
// A position naming a missing row aborts the whole batch.
func applyOrder(ctx context.Context, db *sql.DB, table string, positions []ordering.Position) error {
	return withTx(ctx, db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`UPDATE `+table+` SET sort_order = $1, updated_at = NOW() WHERE id = $2`)
		if err != nil {
			return fmt.Errorf("prepare reorder %s: %w", table, err)
		}
		defer stmt.Close()

		for _, p := range positions {
			res, err := stmt.ExecContext(ctx, p.SortOrder, p.ID)
			if err != nil {
				return fmt.Errorf("reorder %s %d: %w", table, p.ID, err)
			}
			if err := expectOne(res); err != nil {
				return fmt.Errorf("reorder %s %d: %w", table, p.ID, err)
			}
		}
		return nil
	})
}
