package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"corpsite/internal/models"
	"corpsite/internal/publishing"
	"corpsite/internal/versioning"
)

func newDraft(title, slug string, author int64) *models.Post {
	return &models.Post{
		Title:      title,
		Slug:       slug,
		Body:       "<p>body</p>",
		BodyFormat: models.BodyFormatHTML,
		Status:     models.PostStatusDraft,
		AuthorID:   author,
	}
}

func TestPostStoreCreateAndFind(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	author := testUser(t, db, "post-create@store-test.local")
	s := NewPostStore(db)

	slug := "store-test-arak-es-dijak"
	t.Cleanup(func() { cleanPosts(t, db, slug) })

	created, err := s.Create(ctx, newDraft("Árak és Díjak", slug, author.ID), nil, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected generated id")
	}
	if created.AuthorName != "Store Test" {
		t.Errorf("AuthorName = %q, want %q", created.AuthorName, "Store Test")
	}

	found, err := s.FindBySlug(ctx, slug)
	if err != nil {
		t.Fatalf("FindBySlug: %v", err)
	}
	if found == nil || found.ID != created.ID {
		t.Fatalf("FindBySlug = %+v, want post %d", found, created.ID)
	}

	missing, err := s.FindByID(ctx, -1)
	if err != nil || missing != nil {
		t.Errorf("FindByID(-1) = %v, %v; want nil, nil", missing, err)
	}
}

func TestPostStoreDuplicateSlug(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	author := testUser(t, db, "post-dup@store-test.local")
	s := NewPostStore(db)

	slug := "store-test-duplicate"
	t.Cleanup(func() { cleanPosts(t, db, slug) })

	if _, err := s.Create(ctx, newDraft("One", slug, author.ID), nil, nil); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	_, err := s.Create(ctx, newDraft("Two", slug, author.ID), nil, nil)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second Create error = %v, want ErrDuplicate", err)
	}
	var dup *DuplicateError
	if errors.As(err, &dup) && dup.Field() != "slug" {
		t.Errorf("duplicate field = %q, want slug", dup.Field())
	}
}

// TestPostStoreScheduledVisibility schedules a post an hour ahead, checks it
// is hidden from public reads, sweeps past the scheduled time, and checks it
// appears.
func TestPostStoreScheduledVisibility(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	author := testUser(t, db, "post-sched@store-test.local")
	s := NewPostStore(db)

	slug := "store-test-scheduled"
	t.Cleanup(func() { cleanPosts(t, db, slug) })

	now := time.Now().UTC().Truncate(time.Microsecond)
	p := newDraft("Scheduled", slug, author.ID)
	at := now.Add(time.Hour)
	if err := publishing.Transition(p, models.PostStatusScheduled, &at, now); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	created, err := s.Create(ctx, p, nil, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.FindPublicBySlug(ctx, slug, now)
	if err != nil {
		t.Fatalf("FindPublicBySlug: %v", err)
	}
	if got != nil {
		t.Fatal("scheduled post visible before its time")
	}

	later := now.Add(2 * time.Hour)
	got, _ = s.FindPublicBySlug(ctx, slug, later)
	if got != nil {
		t.Fatal("overdue scheduled post visible before the sweep")
	}

	ids, err := s.PublishDue(ctx, later)
	if err != nil {
		t.Fatalf("PublishDue: %v", err)
	}
	promoted := false
	for _, id := range ids {
		if id == created.ID {
			promoted = true
		}
	}
	if !promoted {
		t.Fatalf("PublishDue ids = %v, missing %d", ids, created.ID)
	}

	got, err = s.FindPublicBySlug(ctx, slug, later)
	if err != nil {
		t.Fatalf("FindPublicBySlug after sweep: %v", err)
	}
	if got == nil {
		t.Fatal("post not visible after sweep")
	}
	if got.PublishedAt == nil || !got.PublishedAt.Equal(at) {
		t.Errorf("PublishedAt = %v, want scheduled time %v", got.PublishedAt, at)
	}
}

func TestPostStoreListPublicUsesClock(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	author := testUser(t, db, "post-list@store-test.local")
	s := NewPostStore(db)

	slug := "store-test-future-published"
	t.Cleanup(func() { cleanPosts(t, db, slug) })

	now := time.Now().UTC()
	future := now.Add(24 * time.Hour)
	p := newDraft("Future", slug, author.ID)
	p.Status = models.PostStatusPublished
	p.PublishedAt = &future
	if _, err := s.Create(ctx, p, nil, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}

	visible := func(at time.Time) bool {
		posts, _, err := s.ListPublic(ctx, models.PostFilter{Search: "Future", Limit: 200}, at)
		if err != nil {
			t.Fatalf("ListPublic: %v", err)
		}
		for _, p := range posts {
			if p.Slug == slug {
				return true
			}
		}
		return false
	}

	if visible(now) {
		t.Error("post with future published_at listed publicly")
	}
	if !visible(future.Add(time.Second)) {
		t.Error("post not listed once published_at has passed")
	}
}

func TestPostStorePreviewToken(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	author := testUser(t, db, "post-preview@store-test.local")
	s := NewPostStore(db)

	slug := "store-test-preview"
	t.Cleanup(func() { cleanPosts(t, db, slug) })

	created, err := s.Create(ctx, newDraft("Preview", slug, author.ID), nil, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	token := "ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34"
	expires := time.Now().Add(24 * time.Hour)
	if err := s.SetPreviewToken(ctx, created.ID, token, expires); err != nil {
		t.Fatalf("SetPreviewToken: %v", err)
	}

	got, err := s.FindByPreviewToken(ctx, token)
	if err != nil {
		t.Fatalf("FindByPreviewToken: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Fatalf("FindByPreviewToken = %+v, want post %d", got, created.ID)
	}
	if got.Status != models.PostStatusDraft {
		t.Errorf("status = %s, want draft", got.Status)
	}

	if err := s.ClearPreviewToken(ctx, created.ID); err != nil {
		t.Fatalf("ClearPreviewToken: %v", err)
	}
	got, _ = s.FindByPreviewToken(ctx, token)
	if got != nil {
		t.Error("token still resolves after clearing")
	}
}

func TestPostStoreUpdateWithVersion(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	author := testUser(t, db, "post-version@store-test.local")
	posts := NewPostStore(db)
	versions := NewVersionStore(db)

	slug := "store-test-versioned"
	t.Cleanup(func() { cleanPosts(t, db, slug) })

	created, err := posts.Create(ctx, newDraft("Original title", slug, author.ID), nil, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	v := versioning.Snapshot(created, "first edit", author.ID)
	edited := *created
	edited.Title = "Edited title"
	if err := posts.UpdateWithVersion(ctx, &edited, nil, nil, &v); err != nil {
		t.Fatalf("UpdateWithVersion: %v", err)
	}

	list, err := versions.ListByPost(ctx, created.ID)
	if err != nil {
		t.Fatalf("ListByPost: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("versions = %d, want 1", len(list))
	}
	if list[0].Title != "Original title" {
		t.Errorf("version title = %q, want pre-save title", list[0].Title)
	}

	current, _ := posts.FindByID(ctx, created.ID)
	if current.Title != "Edited title" {
		t.Errorf("post title = %q, want %q", current.Title, "Edited title")
	}

	// Versions are immutable at the database level.
	if _, err := db.ExecContext(ctx, `UPDATE post_versions SET title = 'x' WHERE id = $1`, list[0].ID); err == nil {
		t.Error("UPDATE on post_versions succeeded")
	}
}

// TestPostStoreUpdateWithVersionRollsBack checks that a failed update leaves
// no orphan version behind.
func TestPostStoreUpdateWithVersionRollsBack(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	author := testUser(t, db, "post-rollback@store-test.local")
	posts := NewPostStore(db)

	slugA, slugB := "store-test-rollback-a", "store-test-rollback-b"
	t.Cleanup(func() { cleanPosts(t, db, slugA, slugB) })

	a, err := posts.Create(ctx, newDraft("A", slugA, author.ID), nil, nil)
	if err != nil {
		t.Fatalf("Create A: %v", err)
	}
	if _, err := posts.Create(ctx, newDraft("B", slugB, author.ID), nil, nil); err != nil {
		t.Fatalf("Create B: %v", err)
	}

	v := versioning.Snapshot(a, "", author.ID)
	edited := *a
	edited.Slug = slugB
	err = posts.UpdateWithVersion(ctx, &edited, nil, nil, &v)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("UpdateWithVersion error = %v, want ErrDuplicate", err)
	}

	versions, err := NewVersionStore(db).ListByPost(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListByPost: %v", err)
	}
	if len(versions) != 0 {
		t.Errorf("versions after failed save = %d, want 0", len(versions))
	}
}

func TestPostStoreRelations(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	author := testUser(t, db, "post-relations@store-test.local")
	posts := NewPostStore(db)
	cats := NewCategoryStore(db)
	tags := NewTagStore(db)

	slug := "store-test-relations"
	t.Cleanup(func() {
		cleanPosts(t, db, slug)
		db.Exec("DELETE FROM categories WHERE slug = 'store-test-cat'")
		db.Exec("DELETE FROM tags WHERE slug = 'store-test-tag'")
	})

	cat, err := cats.Create(ctx, &models.Category{Name: "Store Test Cat", Slug: "store-test-cat"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	tag, err := tags.Create(ctx, "Store Test Tag", "store-test-tag")
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}

	created, err := posts.Create(ctx, newDraft("Relations", slug, author.ID), []int64{cat.ID}, []int64{tag.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created.Categories) != 1 || created.Categories[0].Slug != "store-test-cat" {
		t.Errorf("categories = %+v", created.Categories)
	}
	if len(created.Tags) != 1 || created.Tags[0].Slug != "store-test-tag" {
		t.Errorf("tags = %+v", created.Tags)
	}

	// nil leaves memberships, empty clears them.
	if err := posts.Update(ctx, created, nil, []int64{}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	after, _ := posts.FindByID(ctx, created.ID)
	if len(after.Categories) != 1 {
		t.Errorf("categories after nil update = %d, want 1", len(after.Categories))
	}
	if len(after.Tags) != 0 {
		t.Errorf("tags after empty update = %d, want 0", len(after.Tags))
	}
}

func TestPostStoreUnknownReferences(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	author := testUser(t, db, "post-dangling@store-test.local")
	s := NewPostStore(db)

	slug := "store-test-dangling"
	t.Cleanup(func() { cleanPosts(t, db, slug) })

	const missing = int64(1 << 40)
	tests := []struct {
		name  string
		edit  func(p *models.Post)
		cats  []int64
		tags  []int64
		field string
	}{
		{"category", nil, []int64{missing}, nil, "category_ids"},
		{"tag", nil, nil, []int64{missing}, "tag_ids"},
		{"featured media", func(p *models.Post) { id := missing; p.FeaturedMediaID = &id }, nil, nil, "featured_media_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newDraft("Dangling", slug, author.ID)
			if tt.edit != nil {
				tt.edit(p)
			}
			_, err := s.Create(ctx, p, tt.cats, tt.tags)
			var re *ReferenceError
			if !errors.As(err, &re) {
				t.Fatalf("Create error = %v, want ReferenceError", err)
			}
			if re.Field() != tt.field {
				t.Errorf("Field = %q, want %q", re.Field(), tt.field)
			}
			if got, _ := s.FindBySlug(ctx, slug); got != nil {
				t.Error("post row survived the failed create")
			}
		})
	}
}

func TestPublicTaxonomyCountsVisiblePostsOnly(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	author := testUser(t, db, "post-counts@store-test.local")
	posts := NewPostStore(db)
	cats := NewCategoryStore(db)
	tags := NewTagStore(db)

	draftSlug, liveSlug := "store-test-count-draft", "store-test-count-live"
	t.Cleanup(func() {
		cleanPosts(t, db, draftSlug, liveSlug)
		db.Exec("DELETE FROM categories WHERE slug = 'store-test-count-cat'")
		db.Exec("DELETE FROM tags WHERE slug = 'store-test-count-tag'")
	})

	cat, err := cats.Create(ctx, &models.Category{Name: "Count Cat", Slug: "store-test-count-cat"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	tag, err := tags.Create(ctx, "Count Tag", "store-test-count-tag")
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}

	now := time.Now().UTC()
	if _, err := posts.Create(ctx, newDraft("Hidden", draftSlug, author.ID), []int64{cat.ID}, []int64{tag.ID}); err != nil {
		t.Fatalf("create draft: %v", err)
	}
	live := newDraft("Live", liveSlug, author.ID)
	if err := publishing.Transition(live, models.PostStatusPublished, nil, now); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if _, err := posts.Create(ctx, live, []int64{cat.ID}, []int64{tag.ID}); err != nil {
		t.Fatalf("create published: %v", err)
	}

	catCount := func(list []models.Category) int {
		for _, c := range list {
			if c.ID == cat.ID {
				return c.PostCount
			}
		}
		t.Fatalf("category %d missing from list", cat.ID)
		return 0
	}
	tagCount := func(list []models.Tag) int {
		for _, tg := range list {
			if tg.ID == tag.ID {
				return tg.PostCount
			}
		}
		t.Fatalf("tag %d missing from list", tag.ID)
		return 0
	}

	all, err := cats.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if n := catCount(all); n != 2 {
		t.Errorf("admin category count = %d, want 2", n)
	}

	public, err := cats.ListPublic(ctx, now.Add(time.Second))
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if n := catCount(public); n != 1 {
		t.Errorf("public category count = %d, want 1", n)
	}
	earlier, err := cats.ListPublic(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("ListPublic earlier: %v", err)
	}
	if n := catCount(earlier); n != 0 {
		t.Errorf("public category count before publication = %d, want 0", n)
	}

	publicTags, err := tags.ListPublic(ctx, now.Add(time.Second))
	if err != nil {
		t.Fatalf("tags ListPublic: %v", err)
	}
	if n := tagCount(publicTags); n != 1 {
		t.Errorf("public tag count = %d, want 1", n)
	}
}

func TestFindPublicBySlugMatchesVisibilityRule(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	author := testUser(t, db, "post-visibility@store-test.local")
	s := NewPostStore(db)

	now := time.Now().UTC().Truncate(time.Second)
	past, future := now.Add(-time.Hour), now.Add(time.Hour)

	tests := []struct {
		slug        string
		status      models.PostStatus
		publishedAt *time.Time
		scheduledAt *time.Time
	}{
		{"store-test-vis-draft", models.PostStatusDraft, nil, nil},
		{"store-test-vis-live", models.PostStatusPublished, &past, nil},
		{"store-test-vis-future", models.PostStatusPublished, &future, nil},
		{"store-test-vis-due", models.PostStatusScheduled, nil, &past},
		{"store-test-vis-archived", models.PostStatusArchived, &past, nil},
	}
	slugs := make([]string, 0, len(tests))
	for _, tt := range tests {
		slugs = append(slugs, tt.slug)
	}
	t.Cleanup(func() { cleanPosts(t, db, slugs...) })

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			p := newDraft("Visibility", tt.slug, author.ID)
			p.Status, p.PublishedAt, p.ScheduledAt = tt.status, tt.publishedAt, tt.scheduledAt
			if _, err := s.Create(ctx, p, nil, nil); err != nil {
				t.Fatalf("Create: %v", err)
			}
			got, err := s.FindPublicBySlug(ctx, tt.slug, now)
			if err != nil {
				t.Fatalf("FindPublicBySlug: %v", err)
			}
			if want := publishing.IsPubliclyVisible(p, now); (got != nil) != want {
				t.Errorf("found = %v, visibility rule says %v", got != nil, want)
			}
		})
	}
}
