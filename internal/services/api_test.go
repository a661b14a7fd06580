package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lyrelabs/lyre/internal/shared"
	tu "github.com/lyrelabs/lyre/internal/testing"
)

func TestClient(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			c := NewClient(ClientOpts{BaseURL: "http://example.com/api", HTTPClient: customClient})

			if c.baseURL != "http://example.com/api" {
				t.Errorf("expected baseURL 'http://example.com/api', got %s", c.baseURL)
			}
			if c.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Empty BaseURL", func(t *testing.T) {
			c := NewClient(ClientOpts{})

			if c.baseURL != "http://localhost:8080/api" {
				t.Errorf("expected default baseURL 'http://localhost:8080/api', got %s", c.baseURL)
			}
		})

		t.Run("Trailing Slash Is Trimmed", func(t *testing.T) {
			c := NewClient(ClientOpts{BaseURL: "http://example.com/api/"})

			if c.baseURL != "http://example.com/api" {
				t.Errorf("expected trimmed baseURL, got %s", c.baseURL)
			}
		})
	})

	t.Run("Authorization", func(t *testing.T) {
		t.Run("Attaches Bearer Token", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
					t.Errorf("expected Authorization 'Bearer test-token', got %s", got)
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			c := NewClient(ClientOpts{BaseURL: server.URL, Tokens: StaticToken("test-token")})
			if _, err := c.Get(context.Background(), "/users"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("Omits Header Without Token", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "" {
					t.Errorf("expected no Authorization header, got %s", got)
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			c := NewClient(ClientOpts{BaseURL: server.URL, Tokens: StaticToken("")})
			if _, err := c.Get(context.Background(), "/users"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("Omits Header For Public Calls", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "" {
					t.Errorf("expected no Authorization header, got %s", got)
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			c := NewClient(ClientOpts{BaseURL: server.URL, Tokens: StaticToken("test-token")})
			if _, err := c.Get(context.Background(), "/users/public/someone", AsPublic()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	})

	t.Run("Forbidden", func(t *testing.T) {
		t.Run("Fires Hook Once And Returns Error", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			}))
			defer server.Close()

			fired := 0
			c := NewClient(ClientOpts{BaseURL: server.URL, OnForbidden: func() { fired++ }})

			_, err := c.Get(context.Background(), "/admin/roles")
			if !errors.Is(err, shared.ErrForbidden) {
				t.Errorf("expected ErrForbidden, got %v", err)
			}
			if fired != 1 {
				t.Errorf("expected forbidden hook to fire once, fired %d times", fired)
			}
		})

		t.Run("Hook Not Fired For Other Statuses", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			fired := 0
			c := NewClient(ClientOpts{BaseURL: server.URL, OnForbidden: func() { fired++ }})

			_, err := c.Get(context.Background(), "/users/missing")
			if err == nil {
				t.Fatal("expected error for 404")
			}
			if fired != 0 {
				t.Errorf("expected forbidden hook not to fire, fired %d times", fired)
			}
		})
	})

	t.Run("Network Failure", func(t *testing.T) {
		t.Run("Fires Hook And Wraps Error", func(t *testing.T) {
			fired := 0
			c := NewClient(ClientOpts{
				BaseURL:        "http://example.com",
				HTTPClient:     &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))},
				OnNetworkError: func() { fired++ },
			})

			_, err := c.Get(context.Background(), "/users")
			if !errors.Is(err, shared.ErrNetwork) {
				t.Errorf("expected ErrNetwork, got %v", err)
			}
			if fired != 1 {
				t.Errorf("expected network hook to fire once, fired %d times", fired)
			}
		})

		t.Run("Fires Hook On Body Read Failure", func(t *testing.T) {
			fired := 0
			c := NewClient(ClientOpts{
				BaseURL: "http://example.com",
				HTTPClient: &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     http.Header{},
				}, nil)},
				OnNetworkError: func() { fired++ },
			})

			_, err := c.Get(context.Background(), "/users")
			if !errors.Is(err, shared.ErrNetwork) {
				t.Errorf("expected ErrNetwork, got %v", err)
			}
			if fired != 1 {
				t.Errorf("expected network hook to fire once, fired %d times", fired)
			}
		})

		t.Run("Nil Hooks Do Not Panic", func(t *testing.T) {
			c := NewClient(ClientOpts{
				BaseURL:    "http://example.com",
				HTTPClient: &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))},
			})

			if _, err := c.Get(context.Background(), "/users"); err == nil {
				t.Error("expected error for failed request")
			}
		})
	})

	t.Run("Error Statuses", func(t *testing.T) {
		t.Run("Returns StatusError With Envelope Message", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]any{"isSuccess": false, "message": "name is required"})
			}))
			defer server.Close()

			c := NewClient(ClientOpts{BaseURL: server.URL})

			_, err := c.Post(context.Background(), "/roles", map[string]string{})
			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("expected StatusError, got %v", err)
			}
			if statusErr.StatusCode != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", statusErr.StatusCode)
			}
			if statusErr.Message != "name is required" {
				t.Errorf("expected backend message, got %q", statusErr.Message)
			}
		})

		t.Run("Returns StatusError For Non-Envelope Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("boom"))
			}))
			defer server.Close()

			c := NewClient(ClientOpts{BaseURL: server.URL})

			_, err := c.Get(context.Background(), "/users")
			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("expected StatusError, got %v", err)
			}
			if statusErr.Message != "" {
				t.Errorf("expected empty message, got %q", statusErr.Message)
			}
		})
	})

	t.Run("Request Shaping", func(t *testing.T) {
		t.Run("Query Values Are Appended", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get("search"); got != "ada" {
					t.Errorf("expected search=ada, got %s", got)
				}
				if got := r.URL.Query().Get("page"); got != "2" {
					t.Errorf("expected page=2, got %s", got)
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			c := NewClient(ClientOpts{BaseURL: server.URL})
			values := map[string][]string{"search": {"ada"}, "page": {"2"}}
			if _, err := c.Get(context.Background(), "/users", WithQuery(values)); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("JSON Body And Content Type", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Content-Type"); got != "application/json" {
					t.Errorf("expected Content-Type 'application/json', got %s", got)
				}
				body, _ := io.ReadAll(r.Body)
				var data map[string]string
				if err := json.Unmarshal(body, &data); err != nil {
					t.Errorf("failed to unmarshal request body: %v", err)
				}
				if data["code"] != "EDITOR" {
					t.Errorf("expected code=EDITOR, got %v", data)
				}
				w.WriteHeader(http.StatusCreated)
			}))
			defer server.Close()

			c := NewClient(ClientOpts{BaseURL: server.URL})
			resp, err := c.Post(context.Background(), "/roles", map[string]string{"code": "EDITOR"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.StatusCode != http.StatusCreated {
				t.Errorf("expected status 201, got %d", resp.StatusCode)
			}
		})

		t.Run("Custom Header Overrides Default", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Accept"); got != "text/csv" {
					t.Errorf("expected Accept 'text/csv', got %s", got)
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			c := NewClient(ClientOpts{BaseURL: server.URL})
			if _, err := c.Get(context.Background(), "/users", WithHeader("Accept", "text/csv")); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("With Canceled Context", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			c := NewClient(ClientOpts{BaseURL: server.URL})
			if _, err := c.Get(ctx, "/users"); err == nil {
				t.Error("expected error for canceled context")
			}
		})
	})

	t.Run("Upload", func(t *testing.T) {
		t.Run("Sends Multipart Body And Reports Progress", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseMultipartForm(1 << 20); err != nil {
					t.Fatalf("failed to parse multipart form: %v", err)
				}
				file, header, err := r.FormFile("avatar")
				if err != nil {
					t.Fatalf("expected avatar field: %v", err)
				}
				defer file.Close()

				if header.Filename != "avatar.png" {
					t.Errorf("expected filename 'avatar.png', got %s", header.Filename)
				}
				content, _ := io.ReadAll(file)
				if string(content) != "fake image bytes" {
					t.Errorf("unexpected file content: %s", content)
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			var lastSent, lastTotal int64
			c := NewClient(ClientOpts{BaseURL: server.URL})
			_, err := c.Upload(context.Background(), "/users/1/avatar", "avatar", "avatar.png",
				strings.NewReader("fake image bytes"), func(sent, total int64) {
					lastSent, lastTotal = sent, total
				})

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if lastTotal == 0 {
				t.Error("expected progress total to be reported")
			}
			if lastSent != lastTotal {
				t.Errorf("expected final progress %d/%d to be complete", lastSent, lastTotal)
			}
		})
	})

	t.Run("Download", func(t *testing.T) {
		t.Run("Uses Content-Disposition Filename", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Disposition", `attachment; filename="users.csv"`)
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("id,email\n"))
			}))
			defer server.Close()

			dir := t.TempDir()
			c := NewClient(ClientOpts{BaseURL: server.URL})
			dest, err := c.Download(context.Background(), "/users/export", dir, "fallback.csv")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if filepath.Base(dest) != "users.csv" {
				t.Errorf("expected filename 'users.csv', got %s", filepath.Base(dest))
			}
			data, err := os.ReadFile(dest)
			if err != nil {
				t.Fatalf("failed to read download: %v", err)
			}
			if !bytes.Equal(data, []byte("id,email\n")) {
				t.Errorf("unexpected file content: %s", data)
			}
		})

		t.Run("Falls Back To Provided Name", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("data"))
			}))
			defer server.Close()

			dir := t.TempDir()
			c := NewClient(ClientOpts{BaseURL: server.URL})
			dest, err := c.Download(context.Background(), "/users/export", dir, "fallback.csv")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if filepath.Base(dest) != "fallback.csv" {
				t.Errorf("expected fallback filename, got %s", filepath.Base(dest))
			}
		})

		t.Run("Defaults To Generic Name", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			dir := t.TempDir()
			c := NewClient(ClientOpts{BaseURL: server.URL})
			dest, err := c.Download(context.Background(), "/users/export", dir, "")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if filepath.Base(dest) != "download" {
				t.Errorf("expected generic filename, got %s", filepath.Base(dest))
			}
		})
	})
}
