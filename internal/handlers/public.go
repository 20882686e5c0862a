// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"corpsite/internal/cache"
	"corpsite/internal/maintenance"
	"corpsite/internal/metrics"
	"corpsite/internal/models"
	"corpsite/internal/publishing"
	"corpsite/internal/sanitize"
)

// downloadLinkTTL is how long a presigned download URL stays valid.
const downloadLinkTTL = 15 * time.Minute

// cached serves key from the content cache, or loads, stores and serves it.
// Only listings that do not depend on the clock go through here.
func (p *Public) cached(w http.ResponseWriter, r *http.Request, key string, load func(ctx context.Context) (any, error)) {
	ctx := r.Context()
	if body, ok := p.Cache.Get(ctx, key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		w.Write(body)
		return
	}

	v, err := load(ctx)
	if err != nil {
		fail(w, r, "load "+key, err)
		return
	}
	body, err := json.Marshal(v)
	if err != nil {
		fail(w, r, "encode "+key, err)
		return
	}
	p.Cache.Set(ctx, key, body)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	w.Write(body)
}

// publicPost renders the body for output and drops editor-only fields.
func publicPost(p *models.Post) (*models.Post, error) {
	body, err := sanitize.Body(p.Body, p.BodyFormat)
	if err != nil {
		return nil, err
	}
	out := *p
	out.Body = body
	out.BodyFormat = models.BodyFormatHTML
	out.PreviewToken = nil
	out.PreviewExpires = nil
	return &out, nil
}

// ListPosts lists publicly visible posts, newest first. Query: category, tag,
// limit, offset. Visibility is evaluated against the current time on every
// request.
func (p *Public) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.PostFilter{
		CategorySlug: q.Get("category"),
		TagSlug:      q.Get("tag"),
	}
	f.Limit, f.Offset = pageParams(r)

	posts, total, err := p.Posts.ListPublic(r.Context(), f, p.now())
	if err != nil {
		fail(w, r, "list public posts", err)
		return
	}
	// Listings carry the excerpt only.
	for i := range posts {
		posts[i].Body = ""
		posts[i].PreviewExpires = nil
	}
	writeJSON(w, http.StatusOK, newList(posts, total))
}

// GetPost returns a publicly visible post by slug.
func (p *Public) GetPost(w http.ResponseWriter, r *http.Request) {
	now := p.now()
	post, err := p.Posts.FindPublicBySlug(r.Context(), chi.URLParam(r, "slug"), now)
	if err != nil {
		fail(w, r, "get public post", err)
		return
	}
	if !publishing.IsPubliclyVisible(post, now) {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	out, err := publicPost(post)
	if err != nil {
		fail(w, r, "render post", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetPreview returns the post a valid preview token points at, whatever its
// status. Invalid and expired tokens get the same 404.
func (p *Public) GetPreview(w http.ResponseWriter, r *http.Request) {
	post := p.Preview.Resolve(r.Context(), chi.URLParam(r, "token"))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Robots-Tag", "noindex")
	if post == nil {
		writeError(w, http.StatusNotFound, "preview not found or expired")
		return
	}
	out, err := publicPost(post)
	if err != nil {
		fail(w, r, "render preview", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ListCategories lists categories in display order. Post counts only
// include posts visible now, so the list is not cached.
func (p *Public) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := p.Categories.ListPublic(r.Context(), p.now())
	if err != nil {
		fail(w, r, "list categories", err)
		return
	}
	writeJSON(w, http.StatusOK, newList(cats, len(cats)))
}

// ListTags lists tags with their visible post counts. Not cached.
func (p *Public) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := p.Tags.ListPublic(r.Context(), p.now())
	if err != nil {
		fail(w, r, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, newList(tags, len(tags)))
}

// ListFAQs lists active FAQs in display order. Query: category.
func (p *Public) ListFAQs(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	key := cache.KeyFAQs
	if category != "" {
		key = cache.VariantKey(key, category)
	}
	p.cached(w, r, key, func(ctx context.Context) (any, error) {
		faqs, err := p.FAQs.ListActive(ctx, category)
		return newList(faqs, len(faqs)), err
	})
}

// ListReferences lists active references, featured first. Query: featured=true
// limits the list to featured ones.
func (p *Public) ListReferences(w http.ResponseWriter, r *http.Request) {
	featured := r.URL.Query().Get("featured") == "true"
	key := cache.KeyReferences
	if featured {
		key = cache.VariantKey(key, "featured")
	}
	p.cached(w, r, key, func(ctx context.Context) (any, error) {
		refs, err := p.References.ListActive(ctx, featured)
		return newList(refs, len(refs)), err
	})
}

// ListDownloads lists active downloads.
func (p *Public) ListDownloads(w http.ResponseWriter, r *http.Request) {
	p.cached(w, r, cache.KeyDownloads, func(ctx context.Context) (any, error) {
		items, err := p.Downloads.ListActive(ctx)
		return newList(items, len(items)), err
	})
}

// Download counts a download and redirects to a short-lived signed URL.
func (p *Public) Download(w http.ResponseWriter, r *http.Request) {
	if p.Storage == nil {
		writeError(w, http.StatusServiceUnavailable, "downloads are not available")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, "download", err)
		return
	}
	d, err := p.Downloads.RecordHit(r.Context(), id)
	if err != nil {
		fail(w, r, "download", err)
		return
	}
	if d == nil {
		writeError(w, http.StatusNotFound, "download not found")
		return
	}
	url, err := p.Storage.PresignedURL(r.Context(), d.FilePath, d.FileName, downloadLinkTTL)
	if err != nil {
		fail(w, r, "sign download", err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, url, http.StatusFound)
}

// CodeCSS serves the stylesheet for highlighted code blocks in post bodies.
func (p *Public) CodeCSS(w http.ResponseWriter, r *http.Request) {
	css, err := sanitize.CodeCSS()
	if err != nil {
		fail(w, r, "code css", err)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write([]byte(css))
}

// --- Contact form ---

type contactInput struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Email   string  `json:"email" validate:"required,email,max=254"`
	Phone   *string `json:"phone" validate:"omitempty,max=50"`
	Company *string `json:"company" validate:"omitempty,max=200"`
	Subject *string `json:"subject" validate:"omitempty,max=200"`
	Message string  `json:"message" validate:"required,max=5000"`

	// Website is a honeypot; people never see the field.
	Website string `json:"website"`
}

// Contact stores a contact-form submission and notifies the site owners.
// Rate limiting per IP happens in the router.
func (p *Public) Contact(w http.ResponseWriter, r *http.Request) {
	var in contactInput
	if err := decodeJSON(w, r, &in); err != nil {
		metrics.ContactMessages.WithLabelValues("rejected").Inc()
		fail(w, r, "contact", err)
		return
	}
	if in.Website != "" {
		metrics.ContactMessages.WithLabelValues("spam").Inc()
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "received"})
		return
	}

	m := &models.ContactMessage{
		Name:    sanitize.Text(strings.TrimSpace(in.Name)),
		Email:   strings.TrimSpace(in.Email),
		Phone:   textPtr(in.Phone),
		Company: textPtr(in.Company),
		Subject: textPtr(in.Subject),
		Message: sanitize.Text(strings.TrimSpace(in.Message)),
	}
	if m.Name == "" || m.Message == "" {
		metrics.ContactMessages.WithLabelValues("rejected").Inc()
		field := "name"
		if m.Name != "" {
			field = "message"
		}
		fail(w, r, "contact", invalid(field, "%s is required", field))
		return
	}
	if ip := maintenance.RemoteIP(r); ip != "" {
		m.IPAddress = &ip
	}
	if ua := truncate(r.UserAgent(), 500); ua != "" {
		m.UserAgent = &ua
	}

	created, err := p.Messages.Create(r.Context(), m)
	if err != nil {
		metrics.ContactMessages.WithLabelValues("error").Inc()
		fail(w, r, "store contact message", err)
		return
	}
	metrics.ContactMessages.WithLabelValues("accepted").Inc()

	p.Notifier.Notify(r.Context(), created)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "received"})
}

// --- Web vitals ---

type vitalInput struct {
	Name   string  `json:"name" validate:"required,oneof=LCP FID CLS INP TTFB FCP"`
	Value  float64 `json:"value" validate:"gte=0"`
	Rating string  `json:"rating" validate:"required,oneof=good needs-improvement poor"`
	Path   string  `json:"path" validate:"required,max=500,startswith=/"`
}

// RecordVital ingests one web-vitals measurement sent by the browser beacon.
// navigator.sendBeacon posts text/plain, so the content type is not checked.
func (p *Public) RecordVital(w http.ResponseWriter, r *http.Request) {
	var in vitalInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, "record vital", err)
		return
	}
	if !models.KnownWebVitals[in.Name] {
		fail(w, r, "record vital", invalid("name", "unknown metric %q", in.Name))
		return
	}
	path, _, _ := strings.Cut(in.Path, "?")
	if err := p.Vitals.Record(r.Context(), &models.WebVital{
		Name:   in.Name,
		Value:  in.Value,
		Rating: in.Rating,
		Path:   path,
	}); err != nil {
		fail(w, r, "record vital", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// textPtr trims and strips markup from an optional field.
func textPtr(s *string) *string {
	s = optional(s)
	if s == nil {
		return nil
	}
	return optional(ptr(sanitize.Text(*s)))
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}
