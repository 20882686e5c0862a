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
	"corpsite/internal/ordering"
)

const faqColumns = `id, question, answer, category, is_active, sort_order, created_at, updated_at`

// FAQStore handles all FAQ-related database operations.
type FAQStore struct {
	db *sql.DB
}

// NewFAQStore creates a new FAQStore.
func NewFAQStore(db *sql.DB) *FAQStore {
	return &FAQStore{db: db}
}

func scanFAQ(row scanner) (*models.FAQ, error) {
	var f models.FAQ
	err := row.Scan(&f.ID, &f.Question, &f.Answer, &f.Category, &f.IsActive, &f.SortOrder, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *FAQStore) query(ctx context.Context, op, q string, args ...any) ([]models.FAQ, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var faqs []models.FAQ
	for rows.Next() {
		f, err := scanFAQ(rows)
		if err != nil {
			return nil, fmt.Errorf("scan faq: %w", err)
		}
		faqs = append(faqs, *f)
	}
	return faqs, rows.Err()
}

// List returns every FAQ in stored order, active or not.
func (s *FAQStore) List(ctx context.Context) ([]models.FAQ, error) {
	return s.query(ctx, "list faqs",
		`SELECT `+faqColumns+` FROM faqs ORDER BY sort_order, id`)
}

// ListActive returns the FAQs shown on the public site, optionally limited
// to one category label.
func (s *FAQStore) ListActive(ctx context.Context, category string) ([]models.FAQ, error) {
	if category == "" {
		return s.query(ctx, "list active faqs",
			`SELECT `+faqColumns+` FROM faqs WHERE is_active ORDER BY sort_order, id`)
	}
	return s.query(ctx, "list active faqs",
		`SELECT `+faqColumns+` FROM faqs WHERE is_active AND category = $1 ORDER BY sort_order, id`, category)
}

// FindByID returns an FAQ by ID, or nil if not found.
func (s *FAQStore) FindByID(ctx context.Context, id int64) (*models.FAQ, error) {
	f, err := scanFAQ(s.db.QueryRowContext(ctx, `SELECT `+faqColumns+` FROM faqs WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find faq by id: %w", err)
	}
	return f, nil
}

// Create appends an FAQ at the end of the list.
func (s *FAQStore) Create(ctx context.Context, f *models.FAQ) (*models.FAQ, error) {
	created, err := scanFAQ(s.db.QueryRowContext(ctx, `
		INSERT INTO faqs (question, answer, category, is_active, sort_order)
		VALUES ($1, $2, $3, $4, (SELECT COALESCE(MAX(sort_order) + 1, 0) FROM faqs))
		RETURNING `+faqColumns,
		f.Question, f.Answer, f.Category, f.IsActive))
	if err != nil {
		return nil, fmt.Errorf("create faq: %w", err)
	}
	return created, nil
}

// Update modifies an FAQ's content and active flag. Sort order is only
// changed through ApplyOrder.
func (s *FAQStore) Update(ctx context.Context, f *models.FAQ) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE faqs SET question = $1, answer = $2, category = $3, is_active = $4, updated_at = NOW()
		WHERE id = $5
	`, f.Question, f.Answer, f.Category, f.IsActive, f.ID)
	if err != nil {
		return fmt.Errorf("update faq: %w", err)
	}
	return expectOne(res)
}

// Delete removes an FAQ.
func (s *FAQStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM faqs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete faq: %w", err)
	}
	return expectOne(res)
}

// ApplyOrder writes new sort orders for FAQs in one transaction.
func (s *FAQStore) ApplyOrder(ctx context.Context, positions []ordering.Position) error {
	return applyOrder(ctx, s.db, "faqs", positions)
}
