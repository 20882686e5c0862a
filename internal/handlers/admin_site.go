// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"corpsite/internal/maintenance"
	"corpsite/internal/middleware"
	"corpsite/internal/models"
	"corpsite/internal/sanitize"
)

const (
	defaultVitalsDays = 7
	maxVitalsDays     = 90
)

// Dashboard returns headline counts for the admin home screen.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	byStatus, err := a.Posts.CountByStatus(ctx)
	if err != nil {
		fail(w, r, "dashboard", err)
		return
	}
	unread, err := a.Messages.CountUnread(ctx)
	if err != nil {
		fail(w, r, "dashboard", err)
		return
	}
	mediaCount, err := a.Media.Count(ctx)
	if err != nil {
		fail(w, r, "dashboard", err)
		return
	}
	m, err := a.Maintenance.Get(ctx)
	if err != nil {
		fail(w, r, "dashboard", err)
		return
	}

	posts := make(map[models.PostStatus]int, 4)
	for _, s := range []models.PostStatus{
		models.PostStatusDraft, models.PostStatusScheduled,
		models.PostStatusPublished, models.PostStatusArchived,
	} {
		posts[s] = byStatus[s]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"posts":            posts,
		"unread_messages":  unread,
		"media":            mediaCount,
		"maintenance_mode": m != nil && m.IsActive,
	})
}

// --- Maintenance ---

type maintenanceInput struct {
	IsActive   bool       `json:"is_active"`
	Message    *string    `json:"message" validate:"omitempty,max=2000"`
	AllowedIPs []string   `json:"allowed_ips" validate:"omitempty,max=100,dive,max=64"`
	EndsAt     *time.Time `json:"ends_at"`
}

// MaintenanceGet returns the maintenance settings.
func (a *Admin) MaintenanceGet(w http.ResponseWriter, r *http.Request) {
	m, err := a.Maintenance.Get(r.Context())
	if err != nil {
		fail(w, r, "get maintenance settings", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// MaintenancePut replaces the maintenance settings. Switching the gate on
// records when it started.
func (a *Admin) MaintenancePut(w http.ResponseWriter, r *http.Request) {
	var in maintenanceInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, "save maintenance settings", err)
		return
	}
	if err := maintenance.ValidateAllowList(in.AllowedIPs); err != nil {
		fail(w, r, "save maintenance settings", invalid("allowed_ips", "%s", err.Error()))
		return
	}
	now := a.now()
	if in.IsActive && in.EndsAt != nil && !in.EndsAt.After(now) {
		fail(w, r, "save maintenance settings", invalid("ends_at", "ends_at must be in the future"))
		return
	}

	current, err := a.Maintenance.Get(r.Context())
	if err != nil {
		fail(w, r, "save maintenance settings", err)
		return
	}
	var msg *string
	if in.Message != nil {
		msg = optional(ptr(sanitize.Text(*in.Message)))
	}
	next := maintenance.Apply(current, maintenance.Update{
		IsActive:   in.IsActive,
		Message:    msg,
		AllowedIPs: in.AllowedIPs,
		EndsAt:     in.EndsAt,
	}, now)

	if err := a.Maintenance.Save(r.Context(), &next); err != nil {
		fail(w, r, "save maintenance settings", err)
		return
	}
	if current == nil || current.IsActive != next.IsActive {
		slog.Info("maintenance mode changed", "active", next.IsActive,
			"by", middleware.SessionFromCtx(r.Context()).UserID)
	}
	writeJSON(w, http.StatusOK, next)
}

// --- Web vitals ---

// VitalsSummary aggregates web-vitals measurements. Query: days (1-90,
// default 7).
func (a *Admin) VitalsSummary(w http.ResponseWriter, r *http.Request) {
	days := defaultVitalsDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxVitalsDays {
			fail(w, r, "summarize vitals", invalid("days", "days must be between 1 and %d", maxVitalsDays))
			return
		}
		days = n
	}
	since := a.now().AddDate(0, 0, -days)
	summary, err := a.Vitals.Summary(r.Context(), since)
	if err != nil {
		fail(w, r, "summarize vitals", err)
		return
	}
	if summary == nil {
		summary = []models.WebVitalSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"since": since.UTC(), "metrics": summary})
}

// VitalsPrune deletes measurements older than the given number of days
// (query: older_than_days, default 90).
func (a *Admin) VitalsPrune(w http.ResponseWriter, r *http.Request) {
	days := maxVitalsDays
	if v := r.URL.Query().Get("older_than_days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			fail(w, r, "prune vitals", invalid("older_than_days", "older_than_days must be a positive number"))
			return
		}
		days = n
	}
	n, err := a.Vitals.Prune(r.Context(), a.now().AddDate(0, 0, -days))
	if err != nil {
		fail(w, r, "prune vitals", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}
