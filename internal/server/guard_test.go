package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lyrelabs/lyre/internal/session"
)

func newTestCodec(t *testing.T) *session.Codec {
	t.Helper()

	codec, err := session.NewCodec([]byte("test-secret"), "lyre-test", time.Hour)
	if err != nil {
		t.Fatalf("failed to create codec: %v", err)
	}
	return codec
}

func newGuardedServer(t *testing.T, codec *session.Codec) *BasicRouter {
	t.Helper()

	router := NewBasicRouter()
	router.Use(NewGuard(codec, "lyre_session", nil))
	router.Handler(NewPageHandler())
	return router
}

func requestWithSession(t *testing.T, codec *session.Codec, path string, sess *session.Session) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sess != nil {
		signed, err := codec.Encode(sess)
		if err != nil {
			t.Fatalf("failed to encode session: %v", err)
		}
		req.AddCookie(&http.Cookie{Name: "lyre_session", Value: signed})
	}
	return req
}

func TestGuard(t *testing.T) {
	codec := newTestCodec(t)
	router := newGuardedServer(t, codec)

	admin := &session.Session{SubjectID: "auth0|admin", Email: "admin@example.com", Roles: []string{"ADMIN"}}
	user := &session.Session{SubjectID: "auth0|user", Email: "user@example.com", Roles: []string{"USER"}}

	t.Run("allows public route without session", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, requestWithSession(t, codec, "/", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
	})

	t.Run("redirects unauthenticated request on protected route", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, requestWithSession(t, codec, "/dashboard", nil))

		if rec.Code != http.StatusFound {
			t.Errorf("expected status 302, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/access-denied" {
			t.Errorf("expected redirect to /access-denied, got %s", loc)
		}
	})

	t.Run("redirects non-admin on admin route", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, requestWithSession(t, codec, "/admin/roles", user))

		if rec.Code != http.StatusFound {
			t.Errorf("expected status 302, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/access-denied" {
			t.Errorf("expected redirect to /access-denied, got %s", loc)
		}
	})

	t.Run("allows admin on admin route", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, requestWithSession(t, codec, "/admin/roles", admin))

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
	})

	t.Run("allows authenticated user on auth-only route", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, requestWithSession(t, codec, "/profile", user))

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
	})

	t.Run("treats tampered cookie as unauthenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		signed, err := codec.Encode(user)
		if err != nil {
			t.Fatalf("failed to encode session: %v", err)
		}
		req.AddCookie(&http.Cookie{Name: "lyre_session", Value: signed + "x"})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusFound {
			t.Errorf("expected status 302, got %d", rec.Code)
		}
	})

	t.Run("injects session into request context", func(t *testing.T) {
		var got *session.Session
		router := NewBasicRouter()
		router.Use(NewGuard(codec, "lyre_session", nil))
		router.Handle(http.MethodGet, "/profile", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = SessionFrom(r.Context())
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, requestWithSession(t, codec, "/profile", user))

		if got == nil {
			t.Fatal("expected session in context")
		}
		if got.SubjectID != user.SubjectID {
			t.Errorf("expected subject %s, got %s", user.SubjectID, got.SubjectID)
		}
	})
}

func TestSessionContext(t *testing.T) {
	t.Run("returns nil for bare context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if sess := SessionFrom(req.Context()); sess != nil {
			t.Errorf("expected nil session, got %+v", sess)
		}
	})
}
