package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"

	"corpsite/internal/middleware"
	"corpsite/internal/models"
	"corpsite/internal/session"
)

func TestAuthWithoutSession(t *testing.T) {
	a := &Auth{Deps: valkeyDeps(t)}
	for name, h := range map[string]http.HandlerFunc{"me": a.Me, "totp verify": a.TOTPVerify} {
		t.Run(name, func(t *testing.T) {
			rec := serve(h, newRequest(t, http.MethodPost, "/api/auth/x", map[string]string{"code": "123456"}, nil))
			expectError(t, rec, http.StatusUnauthorized, "")
		})
	}
}

func TestAuthInputValidation(t *testing.T) {
	a := &Auth{Deps: valkeyDeps(t)}
	pending := &session.Data{UserID: 1, Role: models.RoleEditor}

	rec := serve(a.Login, newRequest(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "a@example.com"}, nil))
	expectError(t, rec, http.StatusUnprocessableEntity, "password")

	for _, code := range []string{"12345", "1234567", "12ab56"} {
		t.Run(code, func(t *testing.T) {
			rec := serve(a.TOTPVerify, newRequest(t, http.MethodPost, "/api/auth/totp/verify", map[string]string{"code": code}, pending))
			expectError(t, rec, http.StatusUnprocessableEntity, "code")
		})
	}
}

func TestLogoutWithoutCookie(t *testing.T) {
	a := &Auth{Deps: valkeyDeps(t)}
	rec := serve(a.Logout, newRequest(t, http.MethodPost, "/api/auth/logout", nil, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
}

// login posts credentials and returns the response.
func login(t *testing.T, a *Auth, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	return serve(a.Login, newRequest(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": email, "password": password}, nil))
}

// sessionCookie returns the session cookie set by rec.
func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", session.CookieName)
	return nil
}

// withCookie attaches c and the session it names to r, as LoadSession would.
func withCookie(t *testing.T, a *Auth, r *http.Request, c *http.Cookie) *http.Request {
	t.Helper()
	r.AddCookie(c)
	sess, err := a.Sessions.Get(r.Context(), r)
	if err != nil || sess == nil {
		t.Fatalf("session lookup: %v, %v", sess, err)
	}
	return r.WithContext(middleware.WithSession(r.Context(), sess))
}

func TestLoginPassword(t *testing.T) {
	d, db := dbDeps(t)
	a := &Auth{Deps: d}
	u := createUser(t, db, "handlers-login@test.local", models.RoleEditor)

	rec := login(t, a, u.Email, "wrong-password")
	expectError(t, rec, http.StatusUnauthorized, "")

	rec = login(t, a, "nobody@test.local", "correct-horse-1")
	expectError(t, rec, http.StatusUnauthorized, "")

	rec = login(t, a, u.Email, "correct-horse-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d (body %s)", rec.Code, rec.Body.String())
	}
	body := decode[meBody](t, rec)
	if !body.Authenticated || body.TOTPRequired || len(body.Capabilities) == 0 {
		t.Fatalf("me = %+v", body)
	}
	if body.User.PasswordHash != "" {
		t.Fatal("password hash exposed")
	}

	r := withCookie(t, a, newRequest(t, http.MethodGet, "/api/auth/me", nil, nil), sessionCookie(t, rec))
	rec = serve(a.Me, r)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status %d", rec.Code)
	}
}

func TestLoginInactiveUser(t *testing.T) {
	d, db := dbDeps(t)
	a := &Auth{Deps: d}
	u := createUser(t, db, "handlers-inactive@test.local", models.RoleAuthor)
	if _, err := db.Exec("UPDATE users SET is_active = FALSE WHERE id = $1", u.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	rec := login(t, a, u.Email, "correct-horse-1")
	expectError(t, rec, http.StatusUnauthorized, "")
}

func TestTOTPEnrolAndLogin(t *testing.T) {
	d, db := dbDeps(t)
	a := &Auth{Deps: d}
	u := createUser(t, db, "handlers-totp@test.local", models.RoleAdmin)

	rec := login(t, a, u.Email, "correct-horse-1")
	cookie := sessionCookie(t, rec)

	rec = serve(a.TOTPEnroll, withCookie(t, a, newRequest(t, http.MethodPost, "/api/auth/totp/enroll", nil, nil), cookie))
	if rec.Code != http.StatusOK {
		t.Fatalf("enroll: status %d (body %s)", rec.Code, rec.Body.String())
	}
	enrol := decode[map[string]string](t, rec)
	secret := enrol["secret"]
	if secret == "" || enrol["qr_code"] == "" {
		t.Fatalf("enroll body = %v", enrol)
	}

	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	rec = serve(a.TOTPVerify, withCookie(t, a, newRequest(t, http.MethodPost, "/api/auth/totp/verify",
		map[string]string{"code": code}, nil), cookie))
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm: status %d (body %s)", rec.Code, rec.Body.String())
	}

	// A second enrolment would silently replace the active secret.
	rec = serve(a.TOTPEnroll, withCookie(t, a, newRequest(t, http.MethodPost, "/api/auth/totp/enroll", nil, nil), cookie))
	expectError(t, rec, http.StatusConflict, "")

	// The next login stops halfway.
	rec = login(t, a, u.Email, "correct-horse-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d", rec.Code)
	}
	body := decode[meBody](t, rec)
	if body.Authenticated || !body.TOTPRequired || len(body.Capabilities) != 0 {
		t.Fatalf("pending me = %+v", body)
	}
	pending := sessionCookie(t, rec)

	code, _ = totp.GenerateCode(secret, time.Now())
	rec = serve(a.TOTPVerify, withCookie(t, a, newRequest(t, http.MethodPost, "/api/auth/totp/verify",
		map[string]string{"code": code}, nil), pending))
	if rec.Code != http.StatusOK {
		t.Fatalf("verify: status %d (body %s)", rec.Code, rec.Body.String())
	}
	if body := decode[meBody](t, rec); !body.Authenticated {
		t.Fatalf("verified me = %+v", body)
	}

	r := newRequest(t, http.MethodGet, "/", nil, nil)
	r.AddCookie(pending)
	sess, err := a.Sessions.Get(r.Context(), r)
	if err != nil || sess == nil || !sess.Authenticated() {
		t.Fatalf("stored session = %+v, %v", sess, err)
	}
}
