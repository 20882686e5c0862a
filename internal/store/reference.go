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

const referenceColumns = `id, company_name, contact_name, contact_title, testimonial, logo_path,
	url, featured, is_active, sort_order, created_at, updated_at`

// ReferenceStore handles client references and testimonials.
type ReferenceStore struct {
	db *sql.DB
}

// NewReferenceStore creates a new ReferenceStore.
func NewReferenceStore(db *sql.DB) *ReferenceStore {
	return &ReferenceStore{db: db}
}

func scanReference(row scanner) (*models.Reference, error) {
	var r models.Reference
	err := row.Scan(
		&r.ID, &r.CompanyName, &r.ContactName, &r.ContactTitle, &r.Testimonial, &r.LogoPath,
		&r.URL, &r.Featured, &r.IsActive, &r.SortOrder, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *ReferenceStore) query(ctx context.Context, op, q string, args ...any) ([]models.Reference, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var refs []models.Reference
	for rows.Next() {
		r, err := scanReference(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		refs = append(refs, *r)
	}
	return refs, rows.Err()
}

// List returns all references in stored order.
func (s *ReferenceStore) List(ctx context.Context) ([]models.Reference, error) {
	return s.query(ctx, "list references",
		`SELECT `+referenceColumns+` FROM client_references ORDER BY sort_order, id`)
}

// ListActive returns the references shown publicly, featured ones first.
func (s *ReferenceStore) ListActive(ctx context.Context, featuredOnly bool) ([]models.Reference, error) {
	return s.query(ctx, "list active references", `
		SELECT `+referenceColumns+` FROM client_references
		WHERE is_active AND (featured OR NOT $1)
		ORDER BY featured DESC, sort_order, id
	`, featuredOnly)
}

// FindByID returns a reference by ID, or nil if not found.
func (s *ReferenceStore) FindByID(ctx context.Context, id int64) (*models.Reference, error) {
	r, err := scanReference(s.db.QueryRowContext(ctx,
		`SELECT `+referenceColumns+` FROM client_references WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find reference by id: %w", err)
	}
	return r, nil
}

// Create appends a reference at the end of the list.
func (s *ReferenceStore) Create(ctx context.Context, r *models.Reference) (*models.Reference, error) {
	created, err := scanReference(s.db.QueryRowContext(ctx, `
		INSERT INTO client_references (company_name, contact_name, contact_title, testimonial,
		                               logo_path, url, featured, is_active, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
		        (SELECT COALESCE(MAX(sort_order) + 1, 0) FROM client_references))
		RETURNING `+referenceColumns,
		r.CompanyName, r.ContactName, r.ContactTitle, r.Testimonial,
		r.LogoPath, r.URL, r.Featured, r.IsActive))
	if err != nil {
		return nil, fmt.Errorf("create reference: %w", err)
	}
	return created, nil
}

// Update modifies a reference. Sort order is only changed through ApplyOrder.
func (s *ReferenceStore) Update(ctx context.Context, r *models.Reference) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE client_references SET
			company_name = $1, contact_name = $2, contact_title = $3, testimonial = $4,
			logo_path = $5, url = $6, featured = $7, is_active = $8, updated_at = NOW()
		WHERE id = $9
	`, r.CompanyName, r.ContactName, r.ContactTitle, r.Testimonial,
		r.LogoPath, r.URL, r.Featured, r.IsActive, r.ID)
	if err != nil {
		return fmt.Errorf("update reference: %w", err)
	}
	return expectOne(res)
}

// Delete removes a reference.
func (s *ReferenceStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM client_references WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete reference: %w", err)
	}
	return expectOne(res)
}

// ApplyOrder writes new sort orders for references in one transaction.
func (s *ReferenceStore) ApplyOrder(ctx context.Context, positions []ordering.Position) error {
	return applyOrder(ctx, s.db, "client_references", positions)
}
