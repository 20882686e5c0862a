package models

import "testing"

// TestUserIsAdmin verifies that IsAdmin returns true only for the admin role.
func TestUserIsAdmin(t *testing.T) {
	tests := []struct {
		name string
		role Role
		want bool
	}{
		{name: "admin role", role: RoleAdmin, want: true},
		{name: "editor role", role: RoleEditor, want: false},
		{name: "author role", role: RoleAuthor, want: false},
		{name: "empty role", role: Role(""), want: false},
		{name: "unknown role", role: Role("superadmin"), want: false},
		{name: "uppercase ADMIN", role: Role("ADMIN"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{Role: tt.role}
			if got := u.IsAdmin(); got != tt.want {
				t.Errorf("User{Role: %q}.IsAdmin() = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

// TestRoleValid verifies the role whitelist used by the users API.
func TestRoleValid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleAdmin, true},
		{RoleEditor, true},
		{RoleAuthor, true},
		{Role(""), false},
		{Role("owner"), false},
		{Role("Admin"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := tt.role.Valid(); got != tt.want {
				t.Errorf("Role(%q).Valid() = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

// TestUserRequires2FA verifies that only enrolled users are asked for a code.
func TestUserRequires2FA(t *testing.T) {
	secret := "JBSWY3DPEHPK3PXP"

	tests := []struct {
		name        string
		totpSecret  *string
		totpEnabled bool
		want        bool
	}{
		{name: "no secret and not enabled", totpSecret: nil, totpEnabled: false, want: false},
		{name: "secret set but enrolment unfinished", totpSecret: &secret, totpEnabled: false, want: false},
		{name: "secret set and enabled", totpSecret: &secret, totpEnabled: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{TOTPSecret: tt.totpSecret, TOTPEnabled: tt.totpEnabled}
			if got := u.Requires2FA(); got != tt.want {
				t.Errorf("Requires2FA() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserCanSignIn(t *testing.T) {
	if (&User{IsActive: false}).CanSignIn() {
		t.Error("inactive user should not be able to sign in")
	}
	if !(&User{IsActive: true}).CanSignIn() {
		t.Error("active user should be able to sign in")
	}
}
