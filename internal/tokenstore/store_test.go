package tokenstore

import (
	"testing"

	"github.com/lyrelabs/lyre/internal/shared"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return NewStore(db, nil)
}

func TestStore(t *testing.T) {
	t.Run("Token Round Trip", func(t *testing.T) {
		store := newTestStore(t)

		if err := store.SetToken("ey.abc.123"); err != nil {
			t.Fatalf("failed to set token: %v", err)
		}
		if got := store.Token(); got != "ey.abc.123" {
			t.Errorf("expected token ey.abc.123, got %q", got)
		}
	})

	t.Run("Set Overwrites", func(t *testing.T) {
		store := newTestStore(t)

		store.SetToken("first")
		store.SetToken("second")
		if got := store.Token(); got != "second" {
			t.Errorf("expected token second, got %q", got)
		}
	})

	t.Run("Token Absent Before Sign In", func(t *testing.T) {
		store := newTestStore(t)

		if got := store.Token(); got != "" {
			t.Errorf("expected empty token, got %q", got)
		}
	})

	t.Run("ClearToken Idempotent", func(t *testing.T) {
		store := newTestStore(t)

		store.SetToken("abc")
		if err := store.ClearToken(); err != nil {
			t.Fatalf("first clear failed: %v", err)
		}
		if got := store.Token(); got != "" {
			t.Errorf("expected empty token after clear, got %q", got)
		}

		if err := store.ClearToken(); err != nil {
			t.Fatalf("second clear failed: %v", err)
		}
		if got := store.Token(); got != "" {
			t.Errorf("expected empty token after second clear, got %q", got)
		}
	})

	t.Run("ClearAuth Preserves Preferences", func(t *testing.T) {
		store := newTestStore(t)

		store.SetToken("abc")
		store.Set(KeyRecentlyPlayed, `["song-1"]`)
		store.Set(KeyTheme, "dark")
		store.Set(KeyVolume, "0.8")

		if err := store.ClearAuth(); err != nil {
			t.Fatalf("failed to clear auth data: %v", err)
		}

		if got := store.Token(); got != "" {
			t.Errorf("expected token cleared, got %q", got)
		}
		if _, ok := store.Get(KeyRecentlyPlayed); ok {
			t.Error("expected recently played to be cleared")
		}
		if theme, ok := store.Get(KeyTheme); !ok || theme != "dark" {
			t.Errorf("expected theme preserved as dark, got %q (present=%v)", theme, ok)
		}
		if volume, ok := store.Get(KeyVolume); !ok || volume != "0.8" {
			t.Errorf("expected volume preserved as 0.8, got %q (present=%v)", volume, ok)
		}
	})

	t.Run("Delete Absent Key", func(t *testing.T) {
		store := newTestStore(t)
		if err := store.Delete("missing"); err != nil {
			t.Errorf("deleting an absent key should be a no-op, got %v", err)
		}
	})

	t.Run("Nil Database Degrades Gracefully", func(t *testing.T) {
		store := NewStore(nil, nil)

		if got := store.Token(); got != "" {
			t.Errorf("expected empty token with nil db, got %q", got)
		}
		if err := store.SetToken("abc"); err == nil {
			t.Error("expected set to report storage unavailability")
		}
		if err := store.ClearToken(); err != nil {
			t.Errorf("clear with nil db should be a no-op, got %v", err)
		}
		if err := store.ClearAuth(); err != nil {
			t.Errorf("clear auth with nil db should be a no-op, got %v", err)
		}
	})
}
