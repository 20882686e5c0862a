// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package sweeper periodically publishes scheduled posts whose time has
// come. Visibility never depends on the sweeper having run: public reads
// evaluate the publication time themselves. The sweeper only moves the
// stored status forward so that admin listings and counts stay truthful.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"corpsite/internal/metrics"
)

// DefaultInterval is the time between two sweeps.
const DefaultInterval = time.Minute

// Publisher promotes every due scheduled post and returns the promoted ids.
type Publisher interface {
	PublishDue(ctx context.Context, now time.Time) ([]int64, error)
}

// Sweeper runs Publisher.PublishDue on a ticker.
type Sweeper struct {
	publisher Publisher
	interval  time.Duration
	now       func() time.Time
}

// New creates a sweeper. A non-positive interval selects DefaultInterval.
func New(p Publisher, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{publisher: p, interval: interval, now: time.Now}
}

// RunOnce performs a single sweep and returns the promoted post ids.
func (s *Sweeper) RunOnce(ctx context.Context) ([]int64, error) {
	ids, err := s.publisher.PublishDue(ctx, s.now())
	if err != nil {
		metrics.SweepRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.SweepRuns.WithLabelValues("success").Inc()
	metrics.SweepLastSuccess.SetToCurrentTime()

	if len(ids) > 0 {
		metrics.PostsPromoted.Add(float64(len(ids)))
		slog.Info("scheduled posts published", "count", len(ids), "post_ids", ids)
	}
	return ids, nil
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	slog.Info("sweeper started", "interval", s.interval.String())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			slog.Error("sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			slog.Info("sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}
