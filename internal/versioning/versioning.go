// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package versioning builds the append-only history records of a post.
// A snapshot always captures the state as it was before the save that
// requested it.
package versioning

import (
	"strings"
	"unicode/utf8"

	"corpsite/internal/models"
)

// MaxNoteLength caps the free-text change note, in runes.
const MaxNoteLength = 500

// Snapshot copies the editable fields of p into a new version record. Pass
// the post as loaded from the store, before any edits are applied.
func Snapshot(p *models.Post, note string, by int64) models.PostVersion {
	return models.PostVersion{
		PostID:          p.ID,
		Title:           p.Title,
		Slug:            p.Slug,
		Body:            p.Body,
		BodyFormat:      p.BodyFormat,
		Excerpt:         cloneString(p.Excerpt),
		Status:          p.Status,
		MetaTitle:       cloneString(p.MetaTitle),
		MetaDescription: cloneString(p.MetaDescription),
		ChangeNote:      normalizeNote(note),
		CreatedBy:       by,
	}
}

// Changed reports whether any versioned field differs between the stored
// post and the edited one.
func Changed(before, after *models.Post) bool {
	return before.Title != after.Title ||
		before.Slug != after.Slug ||
		before.Body != after.Body ||
		before.BodyFormat != after.BodyFormat ||
		before.Status != after.Status ||
		!equalString(before.Excerpt, after.Excerpt) ||
		!equalString(before.MetaTitle, after.MetaTitle) ||
		!equalString(before.MetaDescription, after.MetaDescription)
}

func normalizeNote(note string) *string {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil
	}
	if utf8.RuneCountInString(note) > MaxNoteLength {
		note = string([]rune(note)[:MaxNoteLength])
	}
	return &note
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func equalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
