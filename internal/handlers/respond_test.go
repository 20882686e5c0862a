package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"

	"corpsite/internal/autosave"
	"corpsite/internal/models"
	"corpsite/internal/ordering"
	"corpsite/internal/publishing"
	"corpsite/internal/store"
)

func TestFailMapsErrors(t *testing.T) {
	verr := validate.Struct(&tagInput{})

	tests := []struct {
		name   string
		err    error
		status int
		field  string
	}{
		{"field error", invalid("title", "bad"), http.StatusUnprocessableEntity, "title"},
		{"validator", verr, http.StatusUnprocessableEntity, "name"},
		{"duplicate", fmt.Errorf("create: %w", &store.DuplicateError{Constraint: "posts_slug_key"}), http.StatusUnprocessableEntity, "slug"},
		{"unknown category", fmt.Errorf("add post category 9: %w", &store.ReferenceError{Table: "post_categories", Constraint: "post_categories_category_id_fkey"}), http.StatusUnprocessableEntity, "category_ids"},
		{"unknown media", &store.ReferenceError{Table: "posts", Constraint: "posts_featured_media_id_fkey"}, http.StatusUnprocessableEntity, "featured_media_id"},
		{"in use", fmt.Errorf("delete user: %w", store.ErrInUse), http.StatusConflict, ""},
		{"transition", &publishing.TransitionError{From: models.PostStatusPublished, To: models.PostStatusDraft, Reason: "no"}, http.StatusUnprocessableEntity, "status"},
		{"reorder", &ordering.ValidationError{Reason: "no ids given"}, http.StatusUnprocessableEntity, "ids"},
		{"malformed", &malformedError{cause: errors.New("eof")}, http.StatusBadRequest, ""},
		{"not found", store.ErrNotFound, http.StatusNotFound, ""},
		{"wrapped not found", fmt.Errorf("update faq: %w", store.ErrNotFound), http.StatusNotFound, ""},
		{"stale autosave", autosave.ErrStale, http.StatusConflict, ""},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			fail(rec, httptest.NewRequest(http.MethodGet, "/", nil), "test", tt.err)
			expectError(t, rec, tt.status, tt.field)
		})
	}
}

func TestFailHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	fail(rec, httptest.NewRequest(http.MethodGet, "/", nil), "test", errors.New("pq: password authentication failed"))
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("internal error leaked: %s", rec.Body.String())
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		field  string
	}{
		{"empty body", "", http.StatusBadRequest, ""},
		{"syntax error", `{"title":`, http.StatusBadRequest, ""},
		{"wrong type", `{"title": 5}`, http.StatusUnprocessableEntity, "title"},
		{"missing required", `{"body": "x"}`, http.StatusUnprocessableEntity, "title"},
		{"bad slug", `{"title": "Hello", "slug": "Not A Slug"}`, http.StatusUnprocessableEntity, "slug"},
		{"bad format", `{"title": "Hello", "body_format": "rtf"}`, http.StatusUnprocessableEntity, "body_format"},
		{"bad category id", `{"title": "Hello", "category_ids": [1, 0]}`, http.StatusUnprocessableEntity, "category_ids[1]"},
		{"too large", `{"title": "` + strings.Repeat("a", maxJSONBody) + `"}`, http.StatusRequestEntityTooLarge, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var in postInput
			err := decodeJSON(rec, r, &in)
			if err == nil {
				t.Fatal("decodeJSON succeeded, want error")
			}
			fail(rec, r, "test", err)
			expectError(t, rec, tt.status, tt.field)
		})
	}
}

func TestDecodeJSONValid(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(
		`{"title": "Hello", "slug": "hello-world", "body_format": "markdown", "tag_ids": [3]}`))
	var in postInput
	if err := decodeJSON(rec, r, &in); err != nil {
		t.Fatalf("decodeJSON: %v", err)
	}
	if in.Title != "Hello" || in.Slug != "hello-world" || in.BodyFormat != models.BodyFormatMarkdown {
		t.Fatalf("decoded %+v", in)
	}
	if len(in.TagIDs) != 1 || in.TagIDs[0] != 3 {
		t.Fatalf("tag ids = %v", in.TagIDs)
	}
	if in.CategoryIDs != nil {
		t.Fatalf("category ids = %v, want nil for an absent field", in.CategoryIDs)
	}
}

func TestValidationMessages(t *testing.T) {
	err := validate.Struct(&userCreateInput{Email: "nope", Name: "A", Password: "short", Role: "guest"})
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		t.Fatalf("err = %v, want validation errors", err)
	}
	got := make(map[string]string, len(ves))
	for _, fe := range ves {
		got[fe.Field()] = validationMessage(fe)
	}
	want := map[string]string{
		"email":    "email must be a valid email address",
		"password": "password must be at least 10 characters",
		"role":     "role must be one of: admin, editor, author",
	}
	for field, msg := range want {
		if got[field] != msg {
			t.Errorf("%s: message = %q, want %q", field, got[field], msg)
		}
	}
	if _, ok := got["name"]; ok {
		t.Errorf("name reported invalid: %q", got["name"])
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		value string
		want  int64
		ok    bool
	}{
		{"42", 42, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			r := newRequest(t, http.MethodGet, "/", nil, nil, "id", tt.value)
			got, err := pathID(r, "id")
			if (err == nil) != tt.ok || got != tt.want {
				t.Fatalf("pathID(%q) = %d, %v", tt.value, got, err)
			}
		})
	}
}

func TestDeriveSlug(t *testing.T) {
	if got, err := deriveSlug("", "Árak és Díjak"); err != nil || got != "arak-es-dijak" {
		t.Fatalf("deriveSlug from title = %q, %v", got, err)
	}
	if got, err := deriveSlug("given", "Other Title"); err != nil || got != "given" {
		t.Fatalf("deriveSlug given = %q, %v", got, err)
	}
	_, err := deriveSlug("", "!!!")
	var fe *fieldError
	if !errors.As(err, &fe) || fe.Field != "slug" {
		t.Fatalf("deriveSlug(!!!) err = %v, want slug field error", err)
	}
}

func TestNewListEncodesEmptyArray(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, newList[models.FAQ](nil, 0))
	if got := strings.TrimSpace(rec.Body.String()); got != `{"items":[],"total":0}` {
		t.Fatalf("body = %s", got)
	}
}

func TestOptional(t *testing.T) {
	blank := "   "
	if optional(&blank) != nil {
		t.Fatal("blank string kept")
	}
	v := "  x "
	if got := optional(&v); got == nil || *got != "x" {
		t.Fatalf("optional = %v", got)
	}
	if optional(nil) != nil {
		t.Fatal("nil not kept nil")
	}
}
