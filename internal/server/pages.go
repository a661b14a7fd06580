package server

import (
	"fmt"
	"net/http"

	"github.com/lyrelabs/lyre/internal/policy"
)

// PageHandler serves the gateway's HTML shell: the public landing and error
// pages plus the guarded application pages. Page content stays deliberately
// minimal, the interesting behavior lives in the guard in front of it.
type PageHandler struct{}

// NewPageHandler creates a new [PageHandler].
func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// Routes returns the HTTP routes this handler serves.
func (h *PageHandler) Routes() []string {
	routes := []string{"/", "/access-denied", "/not-found", "/500"}
	for _, route := range policy.ProtectedRoutes {
		routes = append(routes, route.Path)
	}
	return routes
}

// ServeHTTP renders the page for the requested path. The guard has already
// run, so any request reaching a protected path here is authorized.
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	title, body, status := h.page(r)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, pageTemplate, title, title, body)
}

func (h *PageHandler) page(r *http.Request) (title, body string, status int) {
	switch r.URL.Path {
	case "/":
		if sess := SessionFrom(r.Context()); sess != nil {
			return "Lyre", fmt.Sprintf("Signed in as %s.", sess.Email), http.StatusOK
		}
		return "Lyre", `Welcome. <a href="/auth/login">Sign in</a> to continue.`, http.StatusOK
	case "/access-denied":
		return "Access Denied", "You do not have permission to view that page.", http.StatusForbidden
	case "/not-found":
		return "Not Found", "That page does not exist.", http.StatusNotFound
	case "/500":
		if r.URL.Query().Get("type") == "network" {
			return "Service Unavailable", "The backend service could not be reached. Try again shortly.", http.StatusServiceUnavailable
		}
		return "Something Went Wrong", "An unexpected error occurred.", http.StatusInternalServerError
	}

	if route := policy.RouteFor(r.URL.Path); route != nil {
		sess := SessionFrom(r.Context())
		email := ""
		if sess != nil {
			email = sess.Email
		}
		return route.Path, fmt.Sprintf("Viewing %s as %s.", r.URL.Path, email), http.StatusOK
	}

	return "Not Found", "That page does not exist.", http.StatusNotFound
}

const pageTemplate = `<!DOCTYPE html>
<html>
<head><title>%s</title></head>
<body>
    <h1>%s</h1>
    <p>%s</p>
</body>
</html>
`
