package server

import (
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/lyrelabs/lyre/internal/policy"
	"github.com/lyrelabs/lyre/internal/session"
)

// NewGuard returns the route-guarding [Middleware]: the single enforcement
// point run before any page handler.
//
// It derives the session from the named cookie and asks the route policy for
// a verdict. Session extraction fails closed: a missing, malformed, expired,
// or tampered cookie is treated as "unauthenticated", never as an error page.
func NewGuard(codec *session.Codec, cookieName string, logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessionFromCookie(r, codec, cookieName, logger)

			isAuthenticated := sess != nil
			redirect := policy.RedirectPath(isAuthenticated, sess.RoleCodes(), r.URL.Path)
			if redirect != "" {
				if logger != nil {
					logger.Debugf("denied %s (authenticated=%v), redirecting to %s", r.URL.Path, isAuthenticated, redirect)
				}
				http.Redirect(w, r, redirect, http.StatusFound)
				return
			}

			if sess != nil {
				r = r.WithContext(WithSession(r.Context(), sess))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sessionFromCookie decodes the session cookie, treating every failure as an
// absent session.
func sessionFromCookie(r *http.Request, codec *session.Codec, cookieName string, logger *log.Logger) *session.Session {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	sess, err := codec.Decode(cookie.Value)
	if err != nil {
		if logger != nil {
			logger.Debugf("rejecting session cookie: %v", err)
		}
		return nil
	}

	return sess
}
