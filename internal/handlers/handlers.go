// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the JSON handlers of the corpsite API.
// Handlers are grouped by surface (admin, public, auth) and receive
// their dependencies through Deps.
package handlers

import (
	"time"

	"corpsite/internal/authz"
	"corpsite/internal/autosave"
	"corpsite/internal/cache"
	"corpsite/internal/email"
	"corpsite/internal/preview"
	"corpsite/internal/session"
	"corpsite/internal/storage"
	"corpsite/internal/store"
	"corpsite/internal/sweeper"
)

// Deps holds everything the handler groups need. Storage may be nil when
// object storage is not configured; Cache and Notifier are nil-safe.
type Deps struct {
	Posts       *store.PostStore
	Versions    *store.VersionStore
	Categories  *store.CategoryStore
	Tags        *store.TagStore
	FAQs        *store.FAQStore
	References  *store.ReferenceStore
	Downloads   *store.DownloadStore
	Media       *store.MediaStore
	Messages    *store.MessageStore
	Users       *store.UserStore
	Maintenance *store.MaintenanceStore
	Vitals      *store.WebVitalStore

	Sessions *session.Store
	Autosave *autosave.Store
	Preview  *preview.Issuer
	Sweeper  *sweeper.Sweeper
	Storage  *storage.Client
	Cache    *cache.ContentCache
	Notifier *email.Notifier
	Authz    authz.Authorizer

	// Now returns the current time; nil means time.Now.
	Now func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Admin groups the /api/admin handlers.
type Admin struct {
	Deps
}

// NewAdmin creates the admin handler group.
func NewAdmin(d Deps) *Admin {
	return &Admin{Deps: d}
}

// Public groups the /api/public handlers.
type Public struct {
	Deps
}

// NewPublic creates the public handler group.
func NewPublic(d Deps) *Public {
	return &Public{Deps: d}
}

// Auth groups the /api/auth handlers.
type Auth struct {
	Deps
}

// NewAuth creates the auth handler group.
func NewAuth(d Deps) *Auth {
	return &Auth{Deps: d}
}
