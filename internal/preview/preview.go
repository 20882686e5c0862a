// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package preview issues and checks the time-limited bearer tokens that let
// reviewers read a post before it is published.
package preview

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"corpsite/internal/models"
)

const (
	// DefaultTTL is how long a freshly issued token stays usable.
	DefaultTTL = 24 * time.Hour

	// tokenBytes is the entropy of a token (32 bytes = 64 hex chars).
	tokenBytes = 32

	// TokenLength is the length of the hex-encoded token.
	TokenLength = tokenBytes * 2
)

// Token is a freshly issued preview credential.
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Lookup finds the post that currently holds a preview token. It returns
// (nil, nil) when no post holds it.
type Lookup interface {
	FindByPreviewToken(ctx context.Context, token string) (*models.Post, error)
}

// Issuer hands out tokens and answers validation questions against the
// content store. It never returns an error to its callers.
type Issuer struct {
	lookup Lookup
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an issuer backed by the given lookup. A non-positive ttl
// falls back to DefaultTTL.
func NewIssuer(lookup Lookup, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{lookup: lookup, ttl: ttl, now: time.Now}
}

// TTL returns the lifetime of issued tokens.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue generates a new random token expiring ttl after now. Uniqueness
// relies on the generator's entropy alone.
func (i *Issuer) Issue() (Token, error) {
	return Issue(i.now(), i.ttl)
}

// Issue generates a token from crypto/rand expiring ttl after now.
func Issue(now time.Time, ttl time.Duration) (Token, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return Token{}, fmt.Errorf("generate preview token: %w", err)
	}
	return Token{
		Value:     hex.EncodeToString(b),
		ExpiresAt: now.Add(ttl).UTC(),
	}, nil
}

// Validate reports whether token currently grants access to the post with
// the given id. Unknown tokens, id mismatches, missing or past expiries and
// store errors all yield false.
func (i *Issuer) Validate(ctx context.Context, token string, postID int64) bool {
	p := i.Resolve(ctx, token)
	return p != nil && p.ID == postID
}

// Resolve returns the post a valid, unexpired token points at regardless of
// its publication status, or nil.
func (i *Issuer) Resolve(ctx context.Context, token string) *models.Post {
	if !WellFormed(token) {
		return nil
	}

	p, err := i.lookup.FindByPreviewToken(ctx, token)
	if err != nil {
		slog.Error("preview token lookup failed", "error", err)
		return nil
	}
	if p == nil || p.PreviewToken == nil {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(*p.PreviewToken), []byte(token)) != 1 {
		return nil
	}
	if !Usable(p, i.now()) {
		return nil
	}
	return p
}

// Usable reports whether the post's stored token has a non-null expiry in
// the future.
func Usable(p *models.Post, now time.Time) bool {
	return p.HasPreviewToken() && p.PreviewExpires != nil && p.PreviewExpires.After(now)
}

// WellFormed reports whether s has the shape of an issued token.
func WellFormed(s string) bool {
	if len(s) != TokenLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
