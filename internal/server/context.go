package server

import (
	"context"

	"github.com/lyrelabs/lyre/internal/session"
)

type contextKey string

const sessionContextKey contextKey = "lyre.session"

// WithSession returns a context carrying the decoded session.
func WithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// SessionFrom extracts the session injected by the guard middleware.
// Returns nil for unauthenticated requests.
func SessionFrom(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionContextKey).(*session.Session)
	return s
}
