// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"corpsite/internal/models"
)

// WebVitalStore records Core Web Vitals beacons and aggregates them for the
// admin dashboard.
type WebVitalStore struct {
	db *sql.DB
}

// NewWebVitalStore creates a new WebVitalStore.
func NewWebVitalStore(db *sql.DB) *WebVitalStore {
	return &WebVitalStore{db: db}
}

// Record stores one measurement.
func (s *WebVitalStore) Record(ctx context.Context, v *models.WebVital) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO web_vitals (name, value, rating, path) VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, v.Name, v.Value, v.Rating, v.Path).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return fmt.Errorf("record web vital: %w", err)
	}
	return nil
}

// Summary aggregates measurements taken since the given time, one row per
// metric name.
func (s *WebVitalStore) Summary(ctx context.Context, since time.Time) ([]models.WebVitalSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name,
		       COUNT(*),
		       AVG(value),
		       percentile_cont(0.75) WITHIN GROUP (ORDER BY value),
		       COUNT(*) FILTER (WHERE rating = 'good'),
		       COUNT(*) FILTER (WHERE rating = 'needs-improvement'),
		       COUNT(*) FILTER (WHERE rating = 'poor')
		FROM web_vitals
		WHERE created_at >= $1
		GROUP BY name
		ORDER BY name
	`, since)
	if err != nil {
		return nil, fmt.Errorf("summarize web vitals: %w", err)
	}
	defer rows.Close()

	var out []models.WebVitalSummary
	for rows.Next() {
		var w models.WebVitalSummary
		if err := rows.Scan(&w.Name, &w.Count, &w.Average, &w.P75, &w.Good, &w.NeedsImprovement, &w.Poor); err != nil {
			return nil, fmt.Errorf("scan web vital summary: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Prune deletes measurements older than the given time and reports how many
// were removed.
func (s *WebVitalStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM web_vitals WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("prune web vitals: %w", err)
	}
	return res.RowsAffected()
}
