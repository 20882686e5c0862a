// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import "time"

// PostStatus represents the lifecycle state of a blog post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPublished PostStatus = "published"
	PostStatusArchived  PostStatus = "archived"
)

// Valid reports whether s is one of the known lifecycle states.
func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusDraft, PostStatusScheduled, PostStatusPublished, PostStatusArchived:
		return true
	}
	return false
}

// BodyFormat indicates how the post body is stored.
type BodyFormat string

const (
	BodyFormatHTML     BodyFormat = "html"
	BodyFormatMarkdown BodyFormat = "markdown"
)

// Post is a blog article. Visibility to anonymous visitors is decided by
// status and published_at together, never by status alone.
type Post struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Body            string     `json:"body"`
	BodyFormat      BodyFormat `json:"body_format"`
	Excerpt         *string    `json:"excerpt,omitempty"`
	FeaturedMediaID *int64     `json:"featured_media_id,omitempty"`
	Status          PostStatus `json:"status"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	PreviewToken    *string    `json:"-"`
	PreviewExpires  *time.Time `json:"preview_expires,omitempty"`
	MetaTitle       *string    `json:"meta_title,omitempty"`
	MetaDescription *string    `json:"meta_description,omitempty"`
	AuthorID        int64      `json:"author_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Populated by store methods that join the membership tables.
	Categories []PostCategory `json:"categories,omitempty"`
	Tags       []Tag          `json:"tags,omitempty"`
	AuthorName string         `json:"author_name,omitempty"`
}

// PostCategory is a category membership of a post. SortOrder orders the
// post inside the category listing.
type PostCategory struct {
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	SortOrder  int    `json:"sort_order"`
}

// HasPreviewToken reports whether a preview token is attached, regardless
// of its expiry.
func (p *Post) HasPreviewToken() bool {
	return p.PreviewToken != nil && *p.PreviewToken != ""
}

// PostVersion is an immutable snapshot of a post's editable fields taken
// when an editor saves with versioning enabled.
type PostVersion struct {
	ID              int64      `json:"id"`
	PostID          int64      `json:"post_id"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Body            string     `json:"body"`
	BodyFormat      BodyFormat `json:"body_format"`
	Excerpt         *string    `json:"excerpt,omitempty"`
	Status          PostStatus `json:"status"`
	MetaTitle       *string    `json:"meta_title,omitempty"`
	MetaDescription *string    `json:"meta_description,omitempty"`
	ChangeNote      *string    `json:"change_note,omitempty"`
	CreatedBy       int64      `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
}

// PostFilter narrows admin and public post listings.
type PostFilter struct {
	Status       PostStatus
	CategorySlug string
	TagSlug      string
	Search       string
	Limit        int
	Offset       int
}
