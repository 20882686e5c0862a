// handler_test.go provides shared test infrastructure for handler tests.
// Valkey is replaced by miniredis; tests that need PostgreSQL are skipped
// when it is unavailable.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"corpsite/internal/authz"
	"corpsite/internal/autosave"
	"corpsite/internal/cache"
	"corpsite/internal/database"
	"corpsite/internal/middleware"
	"corpsite/internal/models"
	"corpsite/internal/preview"
	"corpsite/internal/session"
	"corpsite/internal/store"
	"corpsite/internal/sweeper"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "corpsite")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "corpsite")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkey starts an in-process Valkey stand-in.
func testValkey(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

// valkeyDeps returns dependencies backed by miniredis only. Store fields
// stay nil; handlers that reach a store must not be exercised with them.
func valkeyDeps(t *testing.T) Deps {
	t.Helper()
	client, _ := testValkey(t)
	return Deps{
		Sessions: session.NewStore(client, false),
		Autosave: autosave.NewStore(client, 0),
		Cache:    cache.NewContentCache(client, 0),
		Authz:    authz.DefaultRoles(),
	}
}

// dbDeps returns the full dependency set over the test database.
func dbDeps(t *testing.T) (Deps, *sql.DB) {
	t.Helper()
	db := testDB(t)
	d := valkeyDeps(t)

	d.Posts = store.NewPostStore(db)
	d.Versions = store.NewVersionStore(db)
	d.Categories = store.NewCategoryStore(db)
	d.Tags = store.NewTagStore(db)
	d.FAQs = store.NewFAQStore(db)
	d.References = store.NewReferenceStore(db)
	d.Downloads = store.NewDownloadStore(db)
	d.Media = store.NewMediaStore(db)
	d.Messages = store.NewMessageStore(db)
	d.Users = store.NewUserStore(db)
	d.Maintenance = store.NewMaintenanceStore(db)
	d.Vitals = store.NewWebVitalStore(db)
	d.Preview = preview.NewIssuer(d.Posts, 0)
	d.Sweeper = sweeper.New(d.Posts, 0)
	return d, db
}

// createUser adds a throwaway account and removes it, with everything it
// authored, when the test ends.
func createUser(t *testing.T, db *sql.DB, email string, role models.Role) *models.User {
	t.Helper()
	cleanup := func() {
		db.Exec("DELETE FROM post_versions WHERE created_by IN (SELECT id FROM users WHERE email = $1)", email)
		db.Exec("DELETE FROM posts WHERE author_id IN (SELECT id FROM users WHERE email = $1)", email)
		db.Exec("DELETE FROM users WHERE email = $1", email)
	}
	cleanup()
	u, err := store.NewUserStore(db).Create(context.Background(), email, "correct-horse-1", "Handler Test", role)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(cleanup)
	return u
}

// sessionFor builds a fully authenticated session for u.
func sessionFor(u *models.User) *session.Data {
	return &session.Data{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, TwoFADone: true}
}

// newRequest builds a request with an optional JSON body, session and chi
// URL parameters given as name/value pairs.
func newRequest(t *testing.T, method, target string, body any, sess *session.Data, params ...string) *http.Request {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(data)
	}
	r := httptest.NewRequest(method, target, rd)
	if rd != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if sess != nil {
		r = r.WithContext(middleware.WithSession(r.Context(), sess))
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for i := 0; i+1 < len(params); i += 2 {
			rctx.URLParams.Add(params[i], params[i+1])
		}
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	return r
}

// serve runs h and returns the recorder.
func serve(h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, r)
	return rec
}

// decode unmarshals a JSON response body.
func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

// expectError asserts status and, when field is not empty, the error field.
func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, field string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	body := decode[errorBody](t, rec)
	if body.Error == "" {
		t.Fatalf("error message empty (body %s)", rec.Body.String())
	}
	if field != "" && body.Field != field {
		t.Fatalf("field = %q, want %q (error %q)", body.Field, field, body.Error)
	}
}
