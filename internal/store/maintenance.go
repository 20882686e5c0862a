// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"corpsite/internal/models"
)

// MaintenanceStore reads and writes the single maintenance_settings row.
// The table's primary key only admits TRUE, so there is never more than
// one row to pick from.
type MaintenanceStore struct {
	db      *sql.DB
	typeMap *pgtype.Map
}

// NewMaintenanceStore creates a new MaintenanceStore.
func NewMaintenanceStore(db *sql.DB) *MaintenanceStore {
	return &MaintenanceStore{db: db, typeMap: pgtype.NewMap()}
}

// Get returns the current settings. It never caches: every call reads the
// row. A missing row (fresh database without the migration seed) reads as
// inactive.
func (s *MaintenanceStore) Get(ctx context.Context) (*models.MaintenanceSettings, error) {
	var m models.MaintenanceSettings
	err := s.db.QueryRowContext(ctx, `
		SELECT is_active, message, allowed_ips, started_at, ends_at, updated_at
		FROM maintenance_settings WHERE id
	`).Scan(&m.IsActive, &m.Message, s.typeMap.SQLScanner(&m.AllowedIPs), &m.StartedAt, &m.EndsAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.MaintenanceSettings{AllowedIPs: []string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get maintenance settings: %w", err)
	}
	if m.AllowedIPs == nil {
		m.AllowedIPs = []string{}
	}
	return &m, nil
}

// Save upserts the settings row.
func (s *MaintenanceStore) Save(ctx context.Context, m *models.MaintenanceSettings) error {
	ips := m.AllowedIPs
	if ips == nil {
		ips = []string{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO maintenance_settings (id, is_active, message, allowed_ips, started_at, ends_at, updated_at)
		VALUES (TRUE, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			is_active = EXCLUDED.is_active,
			message = EXCLUDED.message,
			allowed_ips = EXCLUDED.allowed_ips,
			started_at = EXCLUDED.started_at,
			ends_at = EXCLUDED.ends_at,
			updated_at = EXCLUDED.updated_at
	`, m.IsActive, m.Message, ips, m.StartedAt, m.EndsAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save maintenance settings: %w", err)
	}
	return nil
}
