package publishing

import (
	"errors"
	"testing"
	"time"

	"corpsite/internal/models"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func TestTransition(t *testing.T) {
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)
	earlier := now.Add(-48 * time.Hour)

	tests := []struct {
		name        string
		post        models.Post
		to          models.PostStatus
		scheduledAt *time.Time
		wantErr     bool
		wantStatus  models.PostStatus
		check       func(t *testing.T, p *models.Post)
	}{
		{
			name:        "draft to scheduled with future date",
			post:        models.Post{Status: models.PostStatusDraft},
			to:          models.PostStatusScheduled,
			scheduledAt: ptr(future),
			wantStatus:  models.PostStatusScheduled,
			check: func(t *testing.T, p *models.Post) {
				if p.ScheduledAt == nil || !p.ScheduledAt.Equal(future) {
					t.Errorf("ScheduledAt = %v, want %v", p.ScheduledAt, future)
				}
			},
		},
		{
			name:    "draft to scheduled without date",
			post:    models.Post{Status: models.PostStatusDraft},
			to:      models.PostStatusScheduled,
			wantErr: true,
		},
		{
			name:        "draft to scheduled in the past",
			post:        models.Post{Status: models.PostStatusDraft},
			to:          models.PostStatusScheduled,
			scheduledAt: ptr(past),
			wantErr:     true,
		},
		{
			name:        "draft to scheduled exactly now",
			post:        models.Post{Status: models.PostStatusDraft},
			to:          models.PostStatusScheduled,
			scheduledAt: ptr(now),
			wantErr:     true,
		},
		{
			name:    "draft to scheduled ignores stale stored date",
			post:    models.Post{Status: models.PostStatusDraft, ScheduledAt: ptr(future)},
			to:      models.PostStatusScheduled,
			wantErr: true,
		},
		{
			name:       "draft to published stamps now",
			post:       models.Post{Status: models.PostStatusDraft},
			to:         models.PostStatusPublished,
			wantStatus: models.PostStatusPublished,
			check: func(t *testing.T, p *models.Post) {
				if p.PublishedAt == nil || !p.PublishedAt.Equal(now) {
					t.Errorf("PublishedAt = %v, want %v", p.PublishedAt, now)
				}
			},
		},
		{
			name:       "draft to published keeps existing publishedAt",
			post:       models.Post{Status: models.PostStatusDraft, PublishedAt: ptr(earlier)},
			to:         models.PostStatusPublished,
			wantStatus: models.PostStatusPublished,
			check: func(t *testing.T, p *models.Post) {
				if !p.PublishedAt.Equal(earlier) {
					t.Errorf("PublishedAt = %v, want %v", p.PublishedAt, earlier)
				}
			},
		},
		{
			name:       "scheduled to published now",
			post:       models.Post{Status: models.PostStatusScheduled, ScheduledAt: ptr(future)},
			to:         models.PostStatusPublished,
			wantStatus: models.PostStatusPublished,
			check: func(t *testing.T, p *models.Post) {
				if !p.PublishedAt.Equal(now) {
					t.Errorf("PublishedAt = %v, want %v", p.PublishedAt, now)
				}
			},
		},
		{
			name:       "scheduled to draft clears date",
			post:       models.Post{Status: models.PostStatusScheduled, ScheduledAt: ptr(future)},
			to:         models.PostStatusDraft,
			wantStatus: models.PostStatusDraft,
			check: func(t *testing.T, p *models.Post) {
				if p.ScheduledAt != nil {
					t.Errorf("ScheduledAt = %v, want nil", p.ScheduledAt)
				}
			},
		},
		{
			name:        "reschedule to another future date",
			post:        models.Post{Status: models.PostStatusScheduled, ScheduledAt: ptr(future)},
			to:          models.PostStatusScheduled,
			scheduledAt: ptr(future.Add(time.Hour)),
			wantStatus:  models.PostStatusScheduled,
			check: func(t *testing.T, p *models.Post) {
				if !p.ScheduledAt.Equal(future.Add(time.Hour)) {
					t.Errorf("ScheduledAt = %v, want %v", p.ScheduledAt, future.Add(time.Hour))
				}
			},
		},
		{
			name:       "scheduled to scheduled without date is a no-op",
			post:       models.Post{Status: models.PostStatusScheduled, ScheduledAt: ptr(future)},
			to:         models.PostStatusScheduled,
			wantStatus: models.PostStatusScheduled,
			check: func(t *testing.T, p *models.Post) {
				if p.ScheduledAt == nil || !p.ScheduledAt.Equal(future) {
					t.Errorf("ScheduledAt = %v, want %v", p.ScheduledAt, future)
				}
			},
		},
		{
			name:        "reschedule into the past",
			post:        models.Post{Status: models.PostStatusScheduled, ScheduledAt: ptr(future)},
			to:          models.PostStatusScheduled,
			scheduledAt: ptr(past),
			wantErr:     true,
		},
		{
			name:       "draft to archived",
			post:       models.Post{Status: models.PostStatusDraft},
			to:         models.PostStatusArchived,
			wantStatus: models.PostStatusArchived,
		},
		{
			name:       "scheduled to archived clears date",
			post:       models.Post{Status: models.PostStatusScheduled, ScheduledAt: ptr(future)},
			to:         models.PostStatusArchived,
			wantStatus: models.PostStatusArchived,
			check: func(t *testing.T, p *models.Post) {
				if p.ScheduledAt != nil {
					t.Errorf("ScheduledAt = %v, want nil", p.ScheduledAt)
				}
			},
		},
		{
			name:       "published to archived",
			post:       models.Post{Status: models.PostStatusPublished, PublishedAt: ptr(earlier)},
			to:         models.PostStatusArchived,
			wantStatus: models.PostStatusArchived,
		},
		{
			name:       "archived back to draft clears date",
			post:       models.Post{Status: models.PostStatusArchived, ScheduledAt: ptr(future)},
			to:         models.PostStatusDraft,
			wantStatus: models.PostStatusDraft,
			check: func(t *testing.T, p *models.Post) {
				if p.ScheduledAt != nil {
					t.Errorf("ScheduledAt = %v, want nil", p.ScheduledAt)
				}
			},
		},
		{
			name:    "archived straight to published",
			post:    models.Post{Status: models.PostStatusArchived},
			to:      models.PostStatusPublished,
			wantErr: true,
		},
		{
			name:        "archived straight to scheduled",
			post:        models.Post{Status: models.PostStatusArchived},
			to:          models.PostStatusScheduled,
			scheduledAt: ptr(future),
			wantErr:     true,
		},
		{
			name:        "published to scheduled",
			post:        models.Post{Status: models.PostStatusPublished, PublishedAt: ptr(earlier)},
			to:          models.PostStatusScheduled,
			scheduledAt: ptr(future),
			wantErr:     true,
		},
		{
			name:    "published to draft",
			post:    models.Post{Status: models.PostStatusPublished, PublishedAt: ptr(earlier)},
			to:      models.PostStatusDraft,
			wantErr: true,
		},
		{
			name:       "published to published is a no-op",
			post:       models.Post{Status: models.PostStatusPublished, PublishedAt: ptr(earlier)},
			to:         models.PostStatusPublished,
			wantStatus: models.PostStatusPublished,
			check: func(t *testing.T, p *models.Post) {
				if !p.PublishedAt.Equal(earlier) {
					t.Errorf("PublishedAt = %v, want %v", p.PublishedAt, earlier)
				}
			},
		},
		{
			name:    "unknown status",
			post:    models.Post{Status: models.PostStatusDraft},
			to:      models.PostStatus("hidden"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.post
			before := tt.post
			err := Transition(&p, tt.to, tt.scheduledAt, now)

			if tt.wantErr {
				var te *TransitionError
				if !errors.As(err, &te) {
					t.Fatalf("Transition() error = %v, want *TransitionError", err)
				}
				if te.From != before.Status || te.To != tt.to {
					t.Errorf("TransitionError = %+v, want from %s to %s", te, before.Status, tt.to)
				}
				if p.Status != before.Status || p.ScheduledAt != before.ScheduledAt || p.PublishedAt != before.PublishedAt {
					t.Errorf("rejected transition mutated post: got %+v, want %+v", p, before)
				}
				return
			}

			if err != nil {
				t.Fatalf("Transition() unexpected error: %v", err)
			}
			if p.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", p.Status, tt.wantStatus)
			}
			if tt.check != nil {
				tt.check(t, &p)
			}
		})
	}
}

func TestTransitionErrorMessage(t *testing.T) {
	p := models.Post{Status: models.PostStatusDraft}
	err := Transition(&p, models.PostStatusScheduled, nil, now)
	want := "cannot move post from draft to scheduled: a scheduled time is required"
	if err == nil || err.Error() != want {
		t.Errorf("error = %v, want %q", err, want)
	}
}

func TestArchiveAndReactivateNeedsFreshSchedule(t *testing.T) {
	p := models.Post{Status: models.PostStatusDraft}
	at := now.Add(48 * time.Hour)

	steps := []struct {
		to          models.PostStatus
		scheduledAt *time.Time
	}{
		{models.PostStatusScheduled, &at},
		{models.PostStatusArchived, nil},
		{models.PostStatusDraft, nil},
	}
	for _, s := range steps {
		if err := Transition(&p, s.to, s.scheduledAt, now); err != nil {
			t.Fatalf("Transition(%s) error = %v", s.to, err)
		}
	}
	if p.ScheduledAt != nil {
		t.Fatalf("ScheduledAt = %v after re-activation, want nil", p.ScheduledAt)
	}

	err := Transition(&p, models.PostStatusScheduled, nil, now)
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("Transition(scheduled, nil) error = %v, want *TransitionError", err)
	}
	if p.Status != models.PostStatusDraft || p.ScheduledAt != nil {
		t.Errorf("rejected transition mutated post: %+v", p)
	}
}

func TestIsPubliclyVisible(t *testing.T) {
	tests := []struct {
		name string
		post *models.Post
		want bool
	}{
		{"nil post", nil, false},
		{"published in the past", &models.Post{Status: models.PostStatusPublished, PublishedAt: ptr(now.Add(-time.Minute))}, true},
		{"published exactly now", &models.Post{Status: models.PostStatusPublished, PublishedAt: ptr(now)}, true},
		{"published in the future", &models.Post{Status: models.PostStatusPublished, PublishedAt: ptr(now.Add(time.Minute))}, false},
		{"published without date", &models.Post{Status: models.PostStatusPublished}, false},
		{"draft with past date", &models.Post{Status: models.PostStatusDraft, PublishedAt: ptr(now.Add(-time.Hour))}, false},
		{"scheduled and overdue", &models.Post{Status: models.PostStatusScheduled, ScheduledAt: ptr(now.Add(-time.Hour))}, false},
		{"archived", &models.Post{Status: models.PostStatusArchived, PublishedAt: ptr(now.Add(-time.Hour))}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPubliclyVisible(tt.post, now); got != tt.want {
				t.Errorf("IsPubliclyVisible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDue(t *testing.T) {
	tests := []struct {
		name string
		post *models.Post
		want bool
	}{
		{"nil post", nil, false},
		{"scheduled in the past", &models.Post{Status: models.PostStatusScheduled, ScheduledAt: ptr(now.Add(-time.Second))}, true},
		{"scheduled exactly now", &models.Post{Status: models.PostStatusScheduled, ScheduledAt: ptr(now)}, true},
		{"scheduled in the future", &models.Post{Status: models.PostStatusScheduled, ScheduledAt: ptr(now.Add(time.Second))}, false},
		{"scheduled without date", &models.Post{Status: models.PostStatusScheduled}, false},
		{"draft with past date", &models.Post{Status: models.PostStatusDraft, ScheduledAt: ptr(now.Add(-time.Hour))}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDue(tt.post, now); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestScheduledPostBecomesVisibleAfterPromotion walks a post through
// scheduling, the passage of time, and the sweep.
func TestScheduledPostBecomesVisibleAfterPromotion(t *testing.T) {
	p := models.Post{Status: models.PostStatusDraft}
	at := now.Add(time.Hour)
	if err := Transition(&p, models.PostStatusScheduled, &at, now); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if IsPubliclyVisible(&p, now) {
		t.Fatal("scheduled post visible before its time")
	}

	later := now.Add(2 * time.Hour)
	if IsPubliclyVisible(&p, later) {
		t.Fatal("overdue scheduled post visible before promotion")
	}
	if !Promote(&p, later) {
		t.Fatal("Promote() = false for a due post")
	}
	if !IsPubliclyVisible(&p, later) {
		t.Error("promoted post is not visible")
	}
	if !p.PublishedAt.Equal(at) {
		t.Errorf("PublishedAt = %v, want scheduled time %v", p.PublishedAt, at)
	}
}

func TestPromoteNotDue(t *testing.T) {
	p := models.Post{Status: models.PostStatusScheduled, ScheduledAt: ptr(now.Add(time.Hour))}
	if Promote(&p, now) {
		t.Error("Promote() = true for a post that is not due")
	}
	if p.Status != models.PostStatusScheduled {
		t.Errorf("Status = %q, want scheduled", p.Status)
	}
}
