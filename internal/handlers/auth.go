// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"corpsite/internal/authz"
	"corpsite/internal/middleware"
	"corpsite/internal/models"
	"corpsite/internal/session"
)

// totpIssuer names the site in authenticator apps.
const totpIssuer = "corpsite"

type loginInput struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

type codeInput struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// meBody describes the signed-in user to the admin client.
type meBody struct {
	User          *models.User       `json:"user"`
	Authenticated bool               `json:"authenticated"`
	TOTPRequired  bool               `json:"totp_required"`
	Capabilities  []authz.Capability `json:"capabilities"`
}

func (a *Auth) me(u *models.User, sess *session.Data) meBody {
	body := meBody{
		User:          u,
		Authenticated: sess.Authenticated(),
		TOTPRequired:  !sess.Authenticated(),
		Capabilities:  []authz.Capability{},
	}
	if body.Authenticated {
		for _, c := range authz.All {
			if a.Authz.Can(u.Role, c) {
				body.Capabilities = append(body.Capabilities, c)
			}
		}
	}
	return body
}

// Login checks email and password and opens a session. Users with a second
// factor get a pending session that TOTPVerify completes.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, "login", err)
		return
	}

	u, err := a.Users.FindByEmail(r.Context(), strings.TrimSpace(in.Email))
	if err != nil {
		fail(w, r, "login lookup", err)
		return
	}
	if u == nil || !a.Users.CheckPassword(u, in.Password) || !u.CanSignIn() {
		slog.Warn("login failed", "email", in.Email, "remote", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	sess := &session.Data{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		TwoFADone: !u.Requires2FA(),
	}
	if _, err := a.Sessions.Create(r.Context(), w, sess); err != nil {
		fail(w, r, "create session", err)
		return
	}
	if sess.Authenticated() {
		a.touchLogin(r, u.ID)
	}
	writeJSON(w, http.StatusOK, a.me(u, sess))
}

// TOTPVerify checks a code from the authenticator app. On a pending session
// it completes the login; on a signed-in session it confirms enrolment.
func (a *Auth) TOTPVerify(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var in codeInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, "verify totp", err)
		return
	}

	u, err := a.Users.FindByID(r.Context(), sess.UserID)
	if err != nil {
		fail(w, r, "verify totp", err)
		return
	}
	if u == nil || !u.CanSignIn() {
		a.Sessions.Destroy(r.Context(), w, r)
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if u.TOTPSecret == nil {
		fail(w, r, "verify totp", invalid("code", "two-factor authentication is not set up"))
		return
	}
	if !totp.Validate(in.Code, *u.TOTPSecret) {
		fail(w, r, "verify totp", invalid("code", "invalid code, please try again"))
		return
	}

	if !u.TOTPEnabled {
		if err := a.Users.EnableTOTP(r.Context(), u.ID); err != nil {
			fail(w, r, "enable totp", err)
			return
		}
		u.TOTPEnabled = true
		slog.Info("totp enabled", "user_id", u.ID)
	}

	if !sess.TwoFADone {
		sess.TwoFADone = true
		if err := a.Sessions.Update(r.Context(), r, sess); err != nil {
			fail(w, r, "update session", err)
			return
		}
		a.touchLogin(r, u.ID)
	}
	writeJSON(w, http.StatusOK, a.me(u, sess))
}

// TOTPEnroll generates a new secret for the signed-in user and returns it
// with a QR code. The factor becomes active once TOTPVerify accepts a code.
func (a *Auth) TOTPEnroll(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	u, err := a.Users.FindByID(r.Context(), sess.UserID)
	if err != nil {
		fail(w, r, "enrol totp", err)
		return
	}
	if u == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if u.TOTPEnabled {
		writeError(w, http.StatusConflict, "two-factor authentication is already enabled")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: u.Email,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		fail(w, r, "generate totp", err)
		return
	}
	if err := a.Users.SetTOTPSecret(r.Context(), u.ID, key.Secret()); err != nil {
		fail(w, r, "save totp secret", err)
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		fail(w, r, "render totp qr code", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"secret":  key.Secret(),
		"url":     key.URL(),
		"qr_code": "data:image/png;base64," + base64.StdEncoding.EncodeToString(qrPNG),
	})
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.Sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the session's user, including a pending one.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	u, err := a.Users.FindByID(r.Context(), sess.UserID)
	if err != nil {
		fail(w, r, "load current user", err)
		return
	}
	if u == nil || !u.CanSignIn() {
		a.Sessions.Destroy(r.Context(), w, r)
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, a.me(u, sess))
}

func (a *Auth) touchLogin(r *http.Request, userID int64) {
	if err := a.Users.TouchLastLogin(r.Context(), userID, a.now()); err != nil {
		slog.Warn("touch last login failed", "error", err, "user_id", userID)
	}
}
