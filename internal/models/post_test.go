package models

import "testing"

// TestPostStatusValid verifies the lifecycle status whitelist.
func TestPostStatusValid(t *testing.T) {
	tests := []struct {
		status PostStatus
		want   bool
	}{
		{PostStatusDraft, true},
		{PostStatusScheduled, true},
		{PostStatusPublished, true},
		{PostStatusArchived, true},
		{PostStatus(""), false},
		{PostStatus("deleted"), false},
		{PostStatus("PUBLISHED"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("PostStatus(%q).Valid() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

// TestPostStatusConstants pins the values stored in the database.
func TestPostStatusConstants(t *testing.T) {
	tests := []struct {
		status PostStatus
		want   string
	}{
		{PostStatusDraft, "draft"},
		{PostStatusScheduled, "scheduled"},
		{PostStatusPublished, "published"},
		{PostStatusArchived, "archived"},
	}
	for _, tt := range tests {
		if string(tt.status) != tt.want {
			t.Errorf("status constant = %q, want %q", tt.status, tt.want)
		}
	}
}

func TestPostHasPreviewToken(t *testing.T) {
	empty := ""
	token := "abc"

	tests := []struct {
		name  string
		token *string
		want  bool
	}{
		{"nil token", nil, false},
		{"empty token", &empty, false},
		{"set token", &token, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Post{PreviewToken: tt.token}
			if got := p.HasPreviewToken(); got != tt.want {
				t.Errorf("HasPreviewToken() = %v, want %v", got, tt.want)
			}
		})
	}
}
