// package tokenstore is the single owner of locally persisted auth state.
//
// It stores named string keys in SQLite (the local_store table) and is the
// only component that touches persistent storage for credentials: the session
// gateway writes on sign-in/sign-out, the HTTP client reads on every call.
package tokenstore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// Keys cleared on sign-out.
const (
	KeyAccessToken    = "access_token"
	KeyRefreshToken   = "refresh_token"
	KeyIDToken        = "id_token"
	KeyUserProfile    = "user_profile"
	KeySessionData    = "session_data"
	KeyRecentlyPlayed = "recently_played"
	KeyUserPlaylists  = "user_playlists"
	KeyFavorites      = "favorites"
	KeyQueue          = "queue"
)

// Keys preserved across sign-out (user preferences).
const (
	KeyTheme           = "theme"
	KeyColorTheme      = "color_theme"
	KeyVolume          = "volume"
	KeyPlaybackQuality = "playback_quality"
)

// authKeys are removed by ClearAuth. Preference keys are never touched.
var authKeys = []string{
	KeyAccessToken,
	KeyRefreshToken,
	KeyIDToken,
	KeyUserProfile,
	KeySessionData,
	KeyRecentlyPlayed,
	KeyUserPlaylists,
	KeyFavorites,
	KeyQueue,
}

// Store persists named string values in the local_store table.
//
// Reads never fail: any storage problem degrades to "value absent". A nil
// database handle yields a store where every read misses and writes are
// logged no-ops, so callers can run before setup has created the database.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// NewStore creates a [Store] backed by the given database connection.
// The connection may be nil.
func NewStore(db *sql.DB, logger *log.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Set persists a value under key, overwriting any prior value.
func (s *Store) Set(key, value string) error {
	if s.db == nil {
		s.warn("set %s skipped: storage unavailable", key)
		return fmt.Errorf("storage unavailable")
	}

	query := `
		INSERT INTO local_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	if _, err := s.db.Exec(query, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}

	return nil
}

// Get returns the value stored under key and whether it was present.
// Storage failures are treated as a miss.
func (s *Store) Get(key string) (string, bool) {
	if s.db == nil {
		return "", false
	}

	var value string
	err := s.db.QueryRow("SELECT value FROM local_store WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false
	}
	if err != nil {
		s.warn("read of %s failed: %v", key, err)
		return "", false
	}

	return value, true
}

// Delete removes the value stored under key. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) error {
	if s.db == nil {
		return nil
	}

	if _, err := s.db.Exec("DELETE FROM local_store WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}

	return nil
}

// SetToken persists the bearer access token used by outbound API calls.
func (s *Store) SetToken(token string) error {
	return s.Set(KeyAccessToken, token)
}

// Token returns the current bearer token, or the empty string when absent or
// when storage is unavailable.
func (s *Store) Token() string {
	value, _ := s.Get(KeyAccessToken)
	return value
}

// ClearToken removes the bearer token. Safe to call repeatedly.
func (s *Store) ClearToken() error {
	return s.Delete(KeyAccessToken)
}

// ClearAuth removes every auth-related key while preserving preference keys.
// Called on sign-out.
func (s *Store) ClearAuth() error {
	for _, key := range authKeys {
		if err := s.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) warn(format string, args ...any) {
	if s.logger != nil {
		s.logger.Warnf(format, args...)
	}
}
