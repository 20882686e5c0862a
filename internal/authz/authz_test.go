package authz

import (
	"testing"

	"corpsite/internal/models"
)

func TestDefaultRolesCan(t *testing.T) {
	roles := DefaultRoles()

	cases := []struct {
		name  string
		role  models.Role
		cap   Capability
		allow bool
	}{
		{name: "admin users", role: models.RoleAdmin, cap: UsersManage, allow: true},
		{name: "admin maintenance", role: models.RoleAdmin, cap: MaintenanceManage, allow: true},
		{name: "editor publish", role: models.RoleEditor, cap: PostsPublish, allow: true},
		{name: "editor content", role: models.RoleEditor, cap: ContentManage, allow: true},
		{name: "editor messages", role: models.RoleEditor, cap: MessagesRead, allow: true},
		{name: "editor users", role: models.RoleEditor, cap: UsersManage, allow: false},
		{name: "editor maintenance", role: models.RoleEditor, cap: MaintenanceManage, allow: false},
		{name: "author write", role: models.RoleAuthor, cap: PostsWrite, allow: true},
		{name: "author media", role: models.RoleAuthor, cap: MediaManage, allow: true},
		{name: "author publish", role: models.RoleAuthor, cap: PostsPublish, allow: false},
		{name: "author edit any", role: models.RoleAuthor, cap: PostsEditAny, allow: false},
		{name: "author messages", role: models.RoleAuthor, cap: MessagesRead, allow: false},
		{name: "unknown role", role: models.Role("guest"), cap: PostsWrite, allow: false},
		{name: "empty role", role: models.Role(""), cap: VitalsRead, allow: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := roles.Can(tc.role, tc.cap); got != tc.allow {
				t.Fatalf("Can(%q, %q) = %v, want %v", tc.role, tc.cap, got, tc.allow)
			}
		})
	}
}

func TestAdminHoldsEverything(t *testing.T) {
	roles := DefaultRoles()
	if got := roles.Capabilities(models.RoleAdmin); len(got) != len(All) {
		t.Errorf("admin capabilities = %v, want all %d", got, len(All))
	}
}

func TestCapabilitiesAuthor(t *testing.T) {
	got := DefaultRoles().Capabilities(models.RoleAuthor)
	want := []Capability{PostsWrite, MediaManage}
	if len(got) != len(want) {
		t.Fatalf("Capabilities(author) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Capabilities(author)[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCanEditPost(t *testing.T) {
	roles := DefaultRoles()
	own := &models.Post{AuthorID: 5}
	other := &models.Post{AuthorID: 6}

	cases := []struct {
		name  string
		role  models.Role
		post  *models.Post
		allow bool
	}{
		{"author own post", models.RoleAuthor, own, true},
		{"author someone else's post", models.RoleAuthor, other, false},
		{"editor any post", models.RoleEditor, other, true},
		{"admin any post", models.RoleAdmin, other, true},
		{"unknown role own post", models.Role("guest"), own, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanEditPost(roles, tc.role, 5, tc.post); got != tc.allow {
				t.Errorf("CanEditPost() = %v, want %v", got, tc.allow)
			}
		})
	}
}
