package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/lyrelabs/lyre/internal/session"
)

// LoopbackResult contains the result of a CLI sign-in flow.
type LoopbackResult struct {
	Session *session.Session
	err     error
}

func (r *LoopbackResult) Error() error {
	return r.err
}

// LoopbackHandler handles the OAuth2 callback on the CLI's loopback server.
// It exchanges the authorization code and establishes the enriched session in
// one step, then delivers the result to the waiting command.
// Implements the Handler interface for registration with a Router.
type LoopbackHandler struct {
	gateway     *session.Gateway
	state       string
	resultChan  chan LoopbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewLoopbackHandler creates a new loopback callback handler for the given
// gateway and state token. The state token should be cryptographically random
// for CSRF protection.
func NewLoopbackHandler(gateway *session.Gateway, state string) *LoopbackHandler {
	return &LoopbackHandler{
		gateway:    gateway,
		state:      state,
		resultChan: make(chan LoopbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *LoopbackHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the OAuth callback request.
//
// Validates the state parameter, signs in through the gateway, and sends the
// result through the result channel.
func (h *LoopbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only handle callback once
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	state := r.URL.Query().Get("state")
	if state != h.state {
		err := fmt.Errorf("invalid state parameter")
		h.Send(LoopbackResult{err: err})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		errParam := r.URL.Query().Get("error")
		errDesc := r.URL.Query().Get("error_description")
		err := fmt.Errorf("authorization failed: %s - %s", errParam, errDesc)
		h.Send(LoopbackResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	sess, err := h.gateway.SignIn(r.Context(), code)
	if err != nil {
		h.Send(LoopbackResult{err: err})
		http.Error(w, "Sign-in failed", http.StatusInternalServerError)
		return
	}

	h.Send(LoopbackResult{Session: sess})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head>
    <title>Sign-in Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #7c6af2; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Sign-in Successful</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`)
}

// Send sends the sign-in result through the channel (only once).
func (h *LoopbackHandler) Send(result LoopbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving sign-in completion.
//
// Channel will receive exactly one result and then be closed.
func (h *LoopbackHandler) Result() <-chan LoopbackResult {
	return h.resultChan
}
