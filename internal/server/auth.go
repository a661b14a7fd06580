package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lyrelabs/lyre/internal/session"
	"github.com/lyrelabs/lyre/internal/shared"
)

const stateCookieName = "lyre_oauth_state"

// AuthHandler serves the gateway's authentication endpoints: sign-in
// initiation, the provider callback, sign-out, and session introspection.
// Implements the [Handler] interface for registration with a [Router].
type AuthHandler struct {
	gateway    *session.Gateway
	codec      *session.Codec
	cookieName string
	publicURL  string
	sessionTTL time.Duration
	logger     *log.Logger
}

// AuthHandlerOpts contains configuration for creating an [AuthHandler].
type AuthHandlerOpts struct {
	Gateway    *session.Gateway
	Codec      *session.Codec
	CookieName string
	PublicURL  string
	SessionTTL time.Duration
	Logger     *log.Logger
}

// NewAuthHandler creates a new [AuthHandler].
func NewAuthHandler(opts AuthHandlerOpts) *AuthHandler {
	if opts.CookieName == "" {
		opts.CookieName = "lyre_session"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 12 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &AuthHandler{
		gateway:    opts.Gateway,
		codec:      opts.Codec,
		cookieName: opts.CookieName,
		publicURL:  opts.PublicURL,
		sessionTTL: opts.SessionTTL,
		logger:     opts.Logger,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *AuthHandler) Routes() []string {
	return []string{"/auth/login", "/auth/callback", "/auth/logout", "/auth/session"}
}

// ServeHTTP dispatches to the endpoint implementations.
func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/auth/login":
		h.login(w, r)
	case "/auth/callback":
		h.callback(w, r)
	case "/auth/logout":
		h.logout(w, r)
	case "/auth/session":
		h.session(w, r)
	default:
		http.NotFound(w, r)
	}
}

// login starts the authorization-code flow: generate a state token, pin it in
// a short-lived cookie, and send the user to the provider.
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	state := shared.GenerateState()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.gateway.AuthCodeURL(state), http.StatusFound)
}

// callback completes the flow: validate state, exchange the code, enrich the
// session, and issue the signed session cookie.
func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		h.logger.Warn("callback rejected: state mismatch")
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.logger.Warnf("callback rejected: %s - %s", r.URL.Query().Get("error"), r.URL.Query().Get("error_description"))
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	sess, err := h.gateway.SignIn(r.Context(), code)
	if err != nil {
		h.logger.Errorf("sign-in failed: %v", err)
		http.Error(w, "Sign-in failed", http.StatusUnauthorized)
		return
	}

	signed, err := h.codec.Encode(sess)
	if err != nil {
		h.logger.Errorf("failed to encode session: %v", err)
		http.Error(w, "Sign-in failed", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1})

	h.logger.Infof("sign-in complete for %s", sess.SubjectID)
	http.Redirect(w, r, "/", http.StatusFound)
}

// logout drops local auth state and the session cookie, then forwards to the
// provider's federated logout so its SSO cookie is cleared too.
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	logoutURL, err := h.gateway.SignOut(h.publicURL)
	if err != nil {
		h.logger.Errorf("sign-out cleanup failed: %v", err)
		logoutURL = h.gateway.LogoutURL(h.publicURL)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.Redirect(w, r, logoutURL, http.StatusFound)
}

// session reports the current session as JSON, or 401 when absent.
func (h *AuthHandler) session(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCookie(r, h.codec, h.cookieName, h.logger)

	w.Header().Set("Content-Type", "application/json")
	if sess == nil {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"authenticated": false})
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"authenticated": true,
		"subject_id":    sess.SubjectID,
		"email":         sess.Email,
		"name":          sess.Name,
		"roles":         sess.RoleCodes(),
	})
}
