// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"corpsite/internal/authz"
	"corpsite/internal/autosave"
	"corpsite/internal/middleware"
	"corpsite/internal/models"
	"corpsite/internal/publishing"
	"corpsite/internal/sanitize"
	"corpsite/internal/versioning"
)

// postInput is the payload of post create and update.
type postInput struct {
	Title           string            `json:"title" validate:"required,max=300"`
	Slug            string            `json:"slug" validate:"omitempty,max=300,slug"`
	Body            string            `json:"body" validate:"max=200000"`
	BodyFormat      models.BodyFormat `json:"body_format" validate:"omitempty,oneof=html markdown"`
	Excerpt         *string           `json:"excerpt" validate:"omitempty,max=1000"`
	FeaturedMediaID *int64            `json:"featured_media_id" validate:"omitempty,gt=0"`
	MetaTitle       *string           `json:"meta_title" validate:"omitempty,max=300"`
	MetaDescription *string           `json:"meta_description" validate:"omitempty,max=500"`
	CategoryIDs     []int64           `json:"category_ids" validate:"omitempty,dive,gt=0"`
	TagIDs          []int64           `json:"tag_ids" validate:"omitempty,dive,gt=0"`

	// Only read on create; later status changes go through the transition
	// endpoint.
	Status      models.PostStatus `json:"status" validate:"omitempty,oneof=draft scheduled published archived"`
	ScheduledAt *time.Time        `json:"scheduled_at"`

	// Only read on update.
	CreateVersion bool   `json:"create_version"`
	ChangeNote    string `json:"change_note" validate:"max=500"`
}

// apply copies the editable fields onto p.
func (in *postInput) apply(p *models.Post) error {
	p.Title = strings.TrimSpace(in.Title)
	s, err := deriveSlug(in.Slug, p.Title)
	if err != nil {
		return err
	}
	p.Slug = s
	p.BodyFormat = in.BodyFormat
	if p.BodyFormat == "" {
		p.BodyFormat = models.BodyFormatHTML
	}
	p.Body = sanitize.Input(in.Body, p.BodyFormat)
	p.Excerpt = optional(in.Excerpt)
	p.FeaturedMediaID = in.FeaturedMediaID
	p.MetaTitle = optional(in.MetaTitle)
	p.MetaDescription = optional(in.MetaDescription)
	return nil
}

type transitionInput struct {
	Status      models.PostStatus `json:"status" validate:"required,oneof=draft scheduled published archived"`
	ScheduledAt *time.Time        `json:"scheduled_at"`
}

// loadEditablePost loads the post named by the URL and checks the caller may
// modify it. It writes the error response itself and returns nil on failure.
func (a *Admin) loadEditablePost(w http.ResponseWriter, r *http.Request) *models.Post {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, "load post", err)
		return nil
	}
	p, err := a.Posts.FindByID(r.Context(), id)
	if err != nil {
		fail(w, r, "load post", err)
		return nil
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return nil
	}
	sess := middleware.SessionFromCtx(r.Context())
	if !authz.CanEditPost(a.Authz, sess.Role, sess.UserID, p) {
		writeError(w, http.StatusForbidden, "forbidden")
		return nil
	}
	return p
}

// PostsList returns posts of every status, newest first.
// Query: status, category, tag, q, limit, offset.
func (a *Admin) PostsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.PostFilter{
		Status:       models.PostStatus(q.Get("status")),
		CategorySlug: q.Get("category"),
		TagSlug:      q.Get("tag"),
		Search:       strings.TrimSpace(q.Get("q")),
	}
	if f.Status != "" && !f.Status.Valid() {
		fail(w, r, "list posts", invalid("status", "unknown status %q", f.Status))
		return
	}
	f.Limit, f.Offset = pageParams(r)

	posts, total, err := a.Posts.List(r.Context(), f)
	if err != nil {
		fail(w, r, "list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, newList(posts, total))
}

// PostsGet returns one post with its memberships.
func (a *Admin) PostsGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, "get post", err)
		return
	}
	p, err := a.Posts.FindByID(r.Context(), id)
	if err != nil {
		fail(w, r, "get post", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// PostsCreate creates a post owned by the caller. A status other than draft
// needs the publish capability and goes through the state machine.
func (a *Admin) PostsCreate(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var in postInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, "create post", err)
		return
	}

	p := &models.Post{Status: models.PostStatusDraft, AuthorID: sess.UserID}
	if err := in.apply(p); err != nil {
		fail(w, r, "create post", err)
		return
	}

	if in.Status != "" && in.Status != models.PostStatusDraft {
		if !a.Authz.Can(sess.Role, authz.PostsPublish) {
			writeError(w, http.StatusForbidden, "you may not publish or schedule posts")
			return
		}
		if err := publishing.Transition(p, in.Status, in.ScheduledAt, a.now()); err != nil {
			fail(w, r, "create post", err)
			return
		}
	}

	created, err := a.Posts.Create(r.Context(), p, in.CategoryIDs, in.TagIDs)
	if err != nil {
		fail(w, r, "create post", err)
		return
	}
	a.discardAutosave(r.Context(), sess.UserID, 0)

	slog.Info("post created", "post_id", created.ID, "status", created.Status, "user_id", sess.UserID)
	writeJSON(w, http.StatusCreated, created)
}

// PostsUpdate saves the editable fields. With create_version set and a real
// change, the pre-save state is recorded in the same transaction.
func (a *Admin) PostsUpdate(w http.ResponseWriter, r *http.Request) {
	p := a.loadEditablePost(w, r)
	if p == nil {
		return
	}
	sess := middleware.SessionFromCtx(r.Context())

	var in postInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, "update post", err)
		return
	}

	before := *p
	if err := in.apply(p); err != nil {
		fail(w, r, "update post", err)
		return
	}
	// Keep a promotion the sweeper has not reached yet from being undone.
	publishing.Promote(p, a.now())

	var err error
	if in.CreateVersion && versioning.Changed(&before, p) {
		v := versioning.Snapshot(&before, in.ChangeNote, sess.UserID)
		err = a.Posts.UpdateWithVersion(r.Context(), p, in.CategoryIDs, in.TagIDs, &v)
	} else {
		err = a.Posts.Update(r.Context(), p, in.CategoryIDs, in.TagIDs)
	}
	if err != nil {
		fail(w, r, "update post", err)
		return
	}
	a.discardAutosave(r.Context(), sess.UserID, p.ID)

	a.respondPost(w, r, p.ID)
}

// PostsTransition moves a post through the publication state machine.
func (a *Admin) PostsTransition(w http.ResponseWriter, r *http.Request) {
	p := a.loadEditablePost(w, r)
	if p == nil {
		return
	}

	var in transitionInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, "transition post", err)
		return
	}
	from := p.Status
	if err := publishing.Transition(p, in.Status, in.ScheduledAt, a.now()); err != nil {
		fail(w, r, "transition post", err)
		return
	}
	if err := a.Posts.Update(r.Context(), p, nil, nil); err != nil {
		fail(w, r, "transition post", err)
		return
	}

	slog.Info("post status changed", "post_id", p.ID, "from", from, "to", p.Status)
	a.respondPost(w, r, p.ID)
}

// PostsDelete removes a post together with its versions.
func (a *Admin) PostsDelete(w http.ResponseWriter, r *http.Request) {
	p := a.loadEditablePost(w, r)
	if p == nil {
		return
	}
	if err := a.Posts.Delete(r.Context(), p.ID); err != nil {
		fail(w, r, "delete post", err)
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	a.discardAutosave(r.Context(), sess.UserID, p.ID)
	slog.Info("post deleted", "post_id", p.ID, "user_id", sess.UserID)
	w.WriteHeader(http.StatusNoContent)
}

// PostsIssuePreview attaches a fresh preview token, replacing any previous
// one, and returns it with the public preview path.
func (a *Admin) PostsIssuePreview(w http.ResponseWriter, r *http.Request) {
	p := a.loadEditablePost(w, r)
	if p == nil {
		return
	}
	tok, err := a.Preview.Issue()
	if err != nil {
		fail(w, r, "issue preview token", err)
		return
	}
	if err := a.Posts.SetPreviewToken(r.Context(), p.ID, tok.Value, tok.ExpiresAt); err != nil {
		fail(w, r, "issue preview token", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"token":      tok.Value,
		"expires_at": tok.ExpiresAt,
		"path":       "/api/public/preview/" + tok.Value,
	})
}

// PostsRevokePreview removes the post's preview token.
func (a *Admin) PostsRevokePreview(w http.ResponseWriter, r *http.Request) {
	p := a.loadEditablePost(w, r)
	if p == nil {
		return
	}
	if err := a.Posts.ClearPreviewToken(r.Context(), p.ID); err != nil {
		fail(w, r, "revoke preview token", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostsVersions lists the saved versions of a post, newest first.
func (a *Admin) PostsVersions(w http.ResponseWriter, r *http.Request) {
	p := a.loadEditablePost(w, r)
	if p == nil {
		return
	}
	versions, err := a.Versions.ListByPost(r.Context(), p.ID)
	if err != nil {
		fail(w, r, "list versions", err)
		return
	}
	writeJSON(w, http.StatusOK, newList(versions, len(versions)))
}

// PostsVersion returns one saved version of a post.
func (a *Admin) PostsVersion(w http.ResponseWriter, r *http.Request) {
	p := a.loadEditablePost(w, r)
	if p == nil {
		return
	}
	versionID, err := pathID(r, "versionID")
	if err != nil {
		fail(w, r, "get version", err)
		return
	}
	v, err := a.Versions.FindByID(r.Context(), p.ID, versionID)
	if err != nil {
		fail(w, r, "get version", err)
		return
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "version not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// PostsSweep promotes every due scheduled post now instead of waiting for
// the next tick.
func (a *Admin) PostsSweep(w http.ResponseWriter, r *http.Request) {
	ids, err := a.Sweeper.RunOnce(r.Context())
	if err != nil {
		fail(w, r, "sweep scheduled posts", err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"published": ids})
}

// respondPost reloads a post so the response carries its memberships.
func (a *Admin) respondPost(w http.ResponseWriter, r *http.Request, id int64) {
	p, err := a.Posts.FindByID(r.Context(), id)
	if err != nil {
		fail(w, r, "reload post", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// --- Autosave ---

// autosaveTarget resolves the post id of an autosave route: 0 for a post
// that does not exist yet, otherwise an editable post.
func (a *Admin) autosaveTarget(w http.ResponseWriter, r *http.Request) (int64, bool) {
	if strings.HasSuffix(r.URL.Path, "/autosave/new") {
		return 0, true
	}
	p := a.loadEditablePost(w, r)
	if p == nil {
		return 0, false
	}
	return p.ID, true
}

// AutosaveSave stores the caller's scratch copy. Writes carrying a sequence
// number not newer than the stored one are rejected with 409.
func (a *Admin) AutosaveSave(w http.ResponseWriter, r *http.Request) {
	postID, ok := a.autosaveTarget(w, r)
	if !ok {
		return
	}
	var in struct {
		Seq             int64             `json:"seq" validate:"required,gt=0"`
		Title           string            `json:"title" validate:"max=300"`
		Slug            string            `json:"slug" validate:"max=300"`
		Body            string            `json:"body" validate:"max=200000"`
		BodyFormat      models.BodyFormat `json:"body_format" validate:"omitempty,oneof=html markdown"`
		Excerpt         *string           `json:"excerpt" validate:"omitempty,max=1000"`
		MetaTitle       *string           `json:"meta_title" validate:"omitempty,max=300"`
		MetaDescription *string           `json:"meta_description" validate:"omitempty,max=500"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, "autosave", err)
		return
	}

	d := &autosave.Draft{
		Seq:             in.Seq,
		Title:           in.Title,
		Slug:            in.Slug,
		Body:            in.Body,
		BodyFormat:      in.BodyFormat,
		Excerpt:         in.Excerpt,
		MetaTitle:       in.MetaTitle,
		MetaDescription: in.MetaDescription,
		SavedAt:         a.now().UTC(),
	}
	sess := middleware.SessionFromCtx(r.Context())
	if err := a.Autosave.Save(r.Context(), sess.UserID, postID, d); err != nil {
		fail(w, r, "autosave", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"seq": d.Seq, "saved_at": d.SavedAt})
}

// AutosaveLoad returns the caller's scratch copy, or 404.
func (a *Admin) AutosaveLoad(w http.ResponseWriter, r *http.Request) {
	postID, ok := a.autosaveTarget(w, r)
	if !ok {
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	d, err := a.Autosave.Load(r.Context(), sess.UserID, postID)
	if err != nil {
		fail(w, r, "load autosave", err)
		return
	}
	if d == nil {
		writeError(w, http.StatusNotFound, "no autosave")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// AutosaveDiscard drops the caller's scratch copy.
func (a *Admin) AutosaveDiscard(w http.ResponseWriter, r *http.Request) {
	postID, ok := a.autosaveTarget(w, r)
	if !ok {
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	if err := a.Autosave.Discard(r.Context(), sess.UserID, postID); err != nil {
		fail(w, r, "discard autosave", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// discardAutosave drops a scratch copy after an explicit save. Failures only
// leave a stale draft behind until its TTL.
func (a *Admin) discardAutosave(ctx context.Context, userID, postID int64) {
	if a.Autosave == nil {
		return
	}
	if err := a.Autosave.Discard(ctx, userID, postID); err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("discard autosave failed", "error", err, "user_id", userID, "post_id", postID)
	}
}
