// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package publishing implements the post lifecycle (draft, scheduled,
// published, archived) and the time-gated rule that decides whether an
// anonymous visitor may see a post.
package publishing

import (
	"fmt"
	"time"

	"corpsite/internal/models"
)

// TransitionError is returned when a requested status change is not allowed
// or lacks the data it needs. The post is left untouched.
type TransitionError struct {
	From   models.PostStatus
	To     models.PostStatus
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move post from %s to %s: %s", e.From, e.To, e.Reason)
}

// Transition validates the move of p to status to and, when allowed,
// applies it in place. scheduledAt is only read when to is Scheduled and
// must come from the caller; a date left on the post is never reused.
//
// Allowed moves:
//
//	draft     -> scheduled  (future scheduledAt required)
//	draft     -> published  (publishedAt = now unless already set)
//	scheduled -> published  (publish now, or the sweeper once due)
//	scheduled -> draft      (scheduledAt cleared)
//	scheduled -> scheduled  (reschedule, future scheduledAt required)
//	any       -> archived   (scheduledAt cleared)
//	archived  -> draft      (re-activation, scheduledAt cleared)
//
// Requesting the current status is a no-op for every other state, and for
// scheduled when no new scheduledAt is given.
func Transition(p *models.Post, to models.PostStatus, scheduledAt *time.Time, now time.Time) error {
	from := p.Status
	if !to.Valid() {
		return &TransitionError{From: from, To: to, Reason: "unknown status"}
	}

	reject := func(reason string) error {
		return &TransitionError{From: from, To: to, Reason: reason}
	}

	switch to {
	case models.PostStatusArchived:
		p.ScheduledAt = nil
		p.Status = models.PostStatusArchived
		return nil

	case models.PostStatusScheduled:
		if from == models.PostStatusScheduled && scheduledAt == nil {
			return nil
		}
		if from != models.PostStatusDraft && from != models.PostStatusScheduled {
			return reject("only drafts can be scheduled")
		}
		if scheduledAt == nil {
			return reject("a scheduled time is required")
		}
		if !scheduledAt.After(now) {
			return reject("scheduled time must be in the future")
		}
		t := scheduledAt.UTC()
		p.ScheduledAt = &t
		p.Status = models.PostStatusScheduled
		return nil

	case models.PostStatusPublished:
		switch from {
		case models.PostStatusPublished:
			return nil
		case models.PostStatusDraft, models.PostStatusScheduled:
		default:
			return reject("archived posts must return to draft first")
		}
		if p.PublishedAt == nil {
			t := now.UTC()
			p.PublishedAt = &t
		}
		p.Status = models.PostStatusPublished
		return nil

	case models.PostStatusDraft:
		switch from {
		case models.PostStatusDraft:
			return nil
		case models.PostStatusScheduled, models.PostStatusArchived:
		default:
			return reject("published posts can only be archived")
		}
		p.ScheduledAt = nil
		p.Status = models.PostStatusDraft
		return nil
	}

	return reject("unsupported transition")
}

// IsPubliclyVisible is the single gate for anonymous reads: the post must be
// published and its publishedAt must not lie in the future. A scheduled post
// whose time has passed stays invisible until it is actually promoted.
func IsPubliclyVisible(p *models.Post, now time.Time) bool {
	if p == nil || p.Status != models.PostStatusPublished || p.PublishedAt == nil {
		return false
	}
	return !p.PublishedAt.After(now)
}

// IsDue reports whether a scheduled post should be promoted by the sweeper.
func IsDue(p *models.Post, now time.Time) bool {
	if p == nil || p.Status != models.PostStatusScheduled || p.ScheduledAt == nil {
		return false
	}
	return !p.ScheduledAt.After(now)
}

// Promote moves a due scheduled post to published. The publication time is
// the scheduled time, not the moment the sweeper happened to run.
func Promote(p *models.Post, now time.Time) bool {
	if !IsDue(p, now) {
		return false
	}
	if p.PublishedAt == nil {
		t := p.ScheduledAt.UTC()
		p.PublishedAt = &t
	}
	p.Status = models.PostStatusPublished
	return true
}
