// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package maintenance

import (
	"context"
	"encoding/json"
	"html/template"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"corpsite/internal/models"
)

// SettingsSource loads the current maintenance settings. Implementations
// must hit the authoritative store on every call.
type SettingsSource interface {
	Get(ctx context.Context) (*models.MaintenanceSettings, error)
}

type contextKey string

const settingsKey contextKey = "maintenance_settings"

// WithSettings returns a copy of ctx carrying the settings loaded for the
// current request.
func WithSettings(ctx context.Context, s *models.MaintenanceSettings) context.Context {
	return context.WithValue(ctx, settingsKey, s)
}

// SettingsFromCtx returns the settings loaded by Gate for this request, or
// nil outside a gated route.
func SettingsFromCtx(ctx context.Context) *models.MaintenanceSettings {
	s, _ := ctx.Value(settingsKey).(*models.MaintenanceSettings)
	return s
}

// Gate is the public-route middleware. It loads the settings once per
// request, threads them through the request context, and answers with the
// holding response when Decide says so. If the settings cannot be loaded the
// request passes through and the failure is logged.
type Gate struct {
	source SettingsSource
	now    func() time.Time
}

// NewGate creates a gate reading settings from source.
func NewGate(source SettingsSource) *Gate {
	return &Gate{source: source, now: time.Now}
}

// Middleware wraps next with the maintenance check.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		settings, err := g.source.Get(r.Context())
		if err != nil {
			slog.Error("load maintenance settings", "error", err, "path", r.URL.Path)
			next.ServeHTTP(w, r)
			return
		}

		ctx := WithSettings(r.Context(), settings)
		d := Decide(settings, RemoteIP(r))
		if !d.Hold {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		g.hold(w, r, d)
	})
}

func (g *Gate) hold(w http.ResponseWriter, r *http.Request, d Decision) {
	w.Header().Set("Cache-Control", "no-store")
	if d.EndsAt != nil {
		if secs := math.Ceil(d.EndsAt.Sub(g.now()).Seconds()); secs > 0 {
			w.Header().Set("Retry-After", strconv.FormatInt(int64(secs), 10))
		}
	}

	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":       "maintenance",
			"maintenance": d,
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	if err := holdingPage.Execute(w, d); err != nil {
		slog.Error("render holding page", "error", err)
	}
}

// RemoteIP returns the request's client address without the port. Only
// RemoteAddr is consulted; forwarding headers count only after a trusted
// proxy has been resolved into RemoteAddr upstream.
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.Trim(r.RemoteAddr, "[]")
	}
	return host
}

func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

var holdingPage = template.Must(template.New("maintenance").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="robots" content="noindex">
<title>Maintenance</title>
</head>
<body>
<main>
<h1>We'll be back soon</h1>
<p>{{.Message}}</p>
{{- if .EndsAt}}
<p>Expected back: <time datetime="{{.EndsAt.Format "2006-01-02T15:04:05Z07:00"}}">{{.EndsAt.Format "2 Jan 2006 15:04 MST"}}</time></p>
{{- end}}
</main>
</body>
</html>
`))
