// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains. Routes are
// organized into the public API (maintenance-gated), the auth API and the
// admin API, each with its own middleware stack.
package router

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"corpsite/internal/authz"
	"corpsite/internal/handlers"
	"corpsite/internal/maintenance"
	"corpsite/internal/metrics"
	"corpsite/internal/middleware"
)

// Config carries everything the routing tree needs besides the handlers.
type Config struct {
	Sessions middleware.SessionGetter
	Authz    authz.Authorizer
	Gate     *maintenance.Gate

	// TrustedProxies lists the peers whose forwarding headers are believed.
	// Requests from anywhere else are keyed by their socket address.
	TrustedProxies []netip.Prefix

	// ContactLimiter throttles contact-form submissions per IP. LoginLimiter,
	// if set, throttles login attempts per IP.
	ContactLimiter *middleware.RateLimiter
	LoginLimiter   *middleware.RateLimiter

	// SecureCookies sets the Secure flag on the CSRF cookie.
	SecureCookies bool

	// Ping, if set, backs the health check.
	Ping func(ctx context.Context) error
}

// New creates the chi router with all middleware and route groups wired up.
func New(cfg Config, admin *handlers.Admin, auth *handlers.Auth, public *handlers.Public) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RealIP(cfg.TrustedProxies))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(metrics.Middleware)
	r.Use(middleware.SecureHeaders)

	r.Get("/health", healthHandler(cfg.Ping))

	csrf := middleware.NewCSRF(cfg.SecureCookies)
	can := func(c authz.Capability) func(http.Handler) http.Handler {
		return middleware.RequireCapability(cfg.Authz, c)
	}

	r.Route("/api/public", func(r chi.Router) {
		if cfg.Gate != nil {
			r.Use(cfg.Gate.Middleware)
		}

		r.Get("/posts", public.ListPosts)
		r.Get("/posts/{slug}", public.GetPost)
		r.With(middleware.NoStore).Get("/preview/{token}", public.GetPreview)
		r.Get("/categories", public.ListCategories)
		r.Get("/tags", public.ListTags)
		r.Get("/faqs", public.ListFAQs)
		r.Get("/references", public.ListReferences)
		r.Get("/downloads", public.ListDownloads)
		r.Get("/downloads/{id}", public.Download)
		r.Get("/code.css", public.CodeCSS)
		r.Post("/vitals", public.RecordVital)

		r.Group(func(r chi.Router) {
			if cfg.ContactLimiter != nil {
				r.Use(cfg.ContactLimiter.Middleware)
			}
			r.Post("/contact", public.Contact)
		})
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(middleware.LoadSession(cfg.Sessions))
		r.Use(middleware.NoStore)
		r.Use(csrf)

		r.Group(func(r chi.Router) {
			if cfg.LoginLimiter != nil {
				r.Use(cfg.LoginLimiter.Middleware)
			}
			r.Post("/login", auth.Login)
			// A pending session may verify its second factor.
			r.Post("/totp/verify", auth.TOTPVerify)
		})
		r.Post("/logout", auth.Logout)
		r.Get("/me", auth.Me)
		r.With(middleware.RequireAuth).Post("/totp/enroll", auth.TOTPEnroll)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.LoadSession(cfg.Sessions))
		r.Use(middleware.RequireAuth)
		r.Use(middleware.NoStore)
		r.Use(csrf)

		r.Get("/dashboard", admin.Dashboard)

		// Posts
		r.Group(func(r chi.Router) {
			r.Use(can(authz.PostsWrite))

			r.Get("/posts", admin.PostsList)
			r.Post("/posts", admin.PostsCreate)
			r.With(can(authz.PostsPublish)).Post("/posts/sweep", admin.PostsSweep)

			r.Route("/posts/{id}", func(r chi.Router) {
				r.Get("/", admin.PostsGet)
				r.Put("/", admin.PostsUpdate)
				r.Delete("/", admin.PostsDelete)
				r.With(can(authz.PostsPublish)).Post("/transition", admin.PostsTransition)

				r.Post("/preview-token", admin.PostsIssuePreview)
				r.Delete("/preview-token", admin.PostsRevokePreview)

				r.Get("/versions", admin.PostsVersions)
				r.Get("/versions/{versionID}", admin.PostsVersion)

				r.Get("/autosave", admin.AutosaveLoad)
				r.Put("/autosave", admin.AutosaveSave)
				r.Delete("/autosave", admin.AutosaveDiscard)
			})

			r.Get("/autosave/new", admin.AutosaveLoad)
			r.Put("/autosave/new", admin.AutosaveSave)
			r.Delete("/autosave/new", admin.AutosaveDiscard)
		})

		// Site content
		r.Group(func(r chi.Router) {
			r.Use(can(authz.ContentManage))

			r.Get("/categories", admin.CategoriesList)
			r.Post("/categories", admin.CategoriesCreate)
			r.Put("/categories/reorder", admin.CategoriesReorder)
			r.Put("/categories/{id}", admin.CategoriesUpdate)
			r.Delete("/categories/{id}", admin.CategoriesDelete)

			r.Get("/tags", admin.TagsList)
			r.Post("/tags", admin.TagsCreate)
			r.Put("/tags/{id}", admin.TagsUpdate)
			r.Delete("/tags/{id}", admin.TagsDelete)

			r.Get("/faqs", admin.FAQsList)
			r.Post("/faqs", admin.FAQsCreate)
			r.Put("/faqs/reorder", admin.FAQsReorder)
			r.Put("/faqs/{id}", admin.FAQsUpdate)
			r.Delete("/faqs/{id}", admin.FAQsDelete)

			r.Get("/references", admin.ReferencesList)
			r.Post("/references", admin.ReferencesCreate)
			r.Put("/references/reorder", admin.ReferencesReorder)
			r.Put("/references/{id}", admin.ReferencesUpdate)
			r.Delete("/references/{id}", admin.ReferencesDelete)

			r.Get("/downloads", admin.DownloadsList)
			r.Post("/downloads", admin.DownloadsCreate)
			r.Put("/downloads/{id}", admin.DownloadsUpdate)
			r.Delete("/downloads/{id}", admin.DownloadsDelete)
		})

		// Media library
		r.Group(func(r chi.Router) {
			r.Use(can(authz.MediaManage))
			r.Get("/media", admin.MediaList)
			r.Post("/media", admin.MediaUpload)
			r.Put("/media/{id}", admin.MediaUpdate)
			r.Delete("/media/{id}", admin.MediaDelete)
		})

		// Inbox
		r.Group(func(r chi.Router) {
			r.Use(can(authz.MessagesRead))
			r.Get("/messages", admin.MessagesList)
			r.Get("/messages/unread-count", admin.MessagesUnread)
			r.Get("/messages/{id}", admin.MessagesGet)
			r.Patch("/messages/{id}", admin.MessagesUpdate)
			r.Delete("/messages/{id}", admin.MessagesDelete)
		})

		// User management
		r.Group(func(r chi.Router) {
			r.Use(can(authz.UsersManage))
			r.Get("/users", admin.UsersList)
			r.Post("/users", admin.UsersCreate)
			r.Put("/users/{id}", admin.UsersUpdate)
			r.Delete("/users/{id}", admin.UsersDelete)
			r.Put("/users/{id}/password", admin.UsersSetPassword)
			r.Delete("/users/{id}/totp", admin.UsersResetTOTP)
		})

		r.Group(func(r chi.Router) {
			r.Use(can(authz.MaintenanceManage))
			r.Get("/maintenance", admin.MaintenanceGet)
			r.Put("/maintenance", admin.MaintenancePut)
		})

		r.Group(func(r chi.Router) {
			r.Use(can(authz.VitalsRead))
			r.Get("/vitals", admin.VitalsSummary)
			r.Delete("/vitals", admin.VitalsPrune)
		})
	})

	return r
}

// healthHandler reports liveness, and readiness when ping is set.
func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				slog.Error("health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}
}
