// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package authz is the single place that answers "may this role do that".
// Routes and handlers ask it instead of comparing role strings.
package authz

import "corpsite/internal/models"

// Capability is a named permission checked by the admin API.
type Capability string

const (
	PostsWrite        Capability = "posts:write"
	PostsEditAny      Capability = "posts:edit_any"
	PostsPublish      Capability = "posts:publish"
	ContentManage     Capability = "content:manage"
	MediaManage       Capability = "media:manage"
	MessagesRead      Capability = "messages:read"
	UsersManage       Capability = "users:manage"
	MaintenanceManage Capability = "maintenance:manage"
	VitalsRead        Capability = "vitals:read"
)

// All lists every capability.
var All = []Capability{
	PostsWrite, PostsEditAny, PostsPublish, ContentManage, MediaManage,
	MessagesRead, UsersManage, MaintenanceManage, VitalsRead,
}

// Authorizer decides whether a role holds a capability.
type Authorizer interface {
	Can(role models.Role, c Capability) bool
}

// RoleTable is a static role to capability mapping.
type RoleTable map[models.Role]map[Capability]bool

// DefaultRoles returns the built-in table: admins hold everything, editors
// everything except user and maintenance management, authors may write
// their own posts and upload media.
func DefaultRoles() RoleTable {
	t := RoleTable{
		models.RoleAdmin:  {},
		models.RoleEditor: {},
		models.RoleAuthor: {PostsWrite: true, MediaManage: true},
	}
	for _, c := range All {
		t[models.RoleAdmin][c] = true
		if c != UsersManage && c != MaintenanceManage {
			t[models.RoleEditor][c] = true
		}
	}
	return t
}

// Can implements Authorizer. Unknown roles hold nothing.
func (t RoleTable) Can(role models.Role, c Capability) bool {
	return t[role][c]
}

// Capabilities lists what role may do, in the order of All.
func (t RoleTable) Capabilities(role models.Role) []Capability {
	var out []Capability
	for _, c := range All {
		if t.Can(role, c) {
			out = append(out, c)
		}
	}
	return out
}

// CanEditPost reports whether a user may modify p: the author always may,
// anyone else needs PostsEditAny.
func CanEditPost(a Authorizer, role models.Role, userID int64, p *models.Post) bool {
	if !a.Can(role, PostsWrite) {
		return false
	}
	return p.AuthorID == userID || a.Can(role, PostsEditAny)
}
