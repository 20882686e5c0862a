// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"corpsite/internal/middleware"
	"corpsite/internal/models"
	"corpsite/internal/store"
)

type userCreateInput struct {
	Email    string      `json:"email" validate:"required,email,max=254"`
	Name     string      `json:"name" validate:"required,max=200,no_html"`
	Password string      `json:"password" validate:"required,min=10,max=72"`
	Role     models.Role `json:"role" validate:"required,oneof=admin editor author"`
}

type userUpdateInput struct {
	Name     string      `json:"name" validate:"required,max=200,no_html"`
	Role     models.Role `json:"role" validate:"required,oneof=admin editor author"`
	IsActive bool        `json:"is_active"`
}

// UsersList returns every account.
func (a *Admin) UsersList(w http.ResponseWriter, r *http.Request) {
	users, err := a.Users.List(r.Context())
	if err != nil {
		fail(w, r, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, newList(users, len(users)))
}

// UsersCreate adds an account.
func (a *Admin) UsersCreate(w http.ResponseWriter, r *http.Request) {
	var in userCreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, "create user", err)
		return
	}
	u, err := a.Users.Create(r.Context(), strings.ToLower(strings.TrimSpace(in.Email)),
		in.Password, strings.TrimSpace(in.Name), in.Role)
	if err != nil {
		fail(w, r, "create user", err)
		return
	}
	slog.Info("user created", "user_id", u.ID, "role", u.Role,
		"by", middleware.SessionFromCtx(r.Context()).UserID)
	writeJSON(w, http.StatusCreated, u)
}

// UsersUpdate changes name, role and active flag. The last active admin
// cannot be demoted or deactivated.
func (a *Admin) UsersUpdate(w http.ResponseWriter, r *http.Request) {
	u := a.loadUser(w, r)
	if u == nil {
		return
	}
	var in userUpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, "update user", err)
		return
	}

	losesAdmin := u.IsAdmin() && u.IsActive && (in.Role != models.RoleAdmin || !in.IsActive)
	if losesAdmin {
		if ok := a.keepsAnAdmin(w, r); !ok {
			return
		}
	}

	if err := a.Users.Update(r.Context(), u.ID, strings.TrimSpace(in.Name), in.Role, in.IsActive); err != nil {
		fail(w, r, "update user", err)
		return
	}
	updated, err := a.Users.FindByID(r.Context(), u.ID)
	if err != nil {
		fail(w, r, "update user", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// UsersSetPassword replaces an account's password.
func (a *Admin) UsersSetPassword(w http.ResponseWriter, r *http.Request) {
	u := a.loadUser(w, r)
	if u == nil {
		return
	}
	var in struct {
		Password string `json:"password" validate:"required,min=10,max=72"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, "set password", err)
		return
	}
	if err := a.Users.SetPassword(r.Context(), u.ID, in.Password); err != nil {
		fail(w, r, "set password", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UsersResetTOTP removes an account's second factor so it can enrol again.
func (a *Admin) UsersResetTOTP(w http.ResponseWriter, r *http.Request) {
	u := a.loadUser(w, r)
	if u == nil {
		return
	}
	if err := a.Users.ResetTOTP(r.Context(), u.ID); err != nil {
		fail(w, r, "reset totp", err)
		return
	}
	slog.Info("totp reset", "user_id", u.ID, "by", middleware.SessionFromCtx(r.Context()).UserID)
	w.WriteHeader(http.StatusNoContent)
}

// UsersDelete removes an account. Callers cannot delete themselves, the
// last active admin stays, and authors of content must be deactivated
// instead.
func (a *Admin) UsersDelete(w http.ResponseWriter, r *http.Request) {
	u := a.loadUser(w, r)
	if u == nil {
		return
	}
	if u.ID == middleware.SessionFromCtx(r.Context()).UserID {
		fail(w, r, "delete user", invalid("id", "you cannot delete your own account"))
		return
	}
	if u.IsAdmin() && u.IsActive {
		if ok := a.keepsAnAdmin(w, r); !ok {
			return
		}
	}

	err := a.Users.Delete(r.Context(), u.ID)
	if errors.Is(err, store.ErrInUse) {
		writeError(w, http.StatusConflict, "the user still owns posts, versions or media; deactivate the account instead")
		return
	}
	if err != nil {
		fail(w, r, "delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *Admin) loadUser(w http.ResponseWriter, r *http.Request) *models.User {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, "load user", err)
		return nil
	}
	u, err := a.Users.FindByID(r.Context(), id)
	if err != nil {
		fail(w, r, "load user", err)
		return nil
	}
	if u == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return nil
	}
	return u
}

// keepsAnAdmin reports whether another active admin remains when the
// current one goes away.
func (a *Admin) keepsAnAdmin(w http.ResponseWriter, r *http.Request) bool {
	n, err := a.Users.CountActiveAdmins(r.Context())
	if err != nil {
		fail(w, r, "count admins", err)
		return false
	}
	if n <= 1 {
		fail(w, r, "update user", invalid("role", "at least one active admin is required"))
		return false
	}
	return true
}
