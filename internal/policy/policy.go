// package policy implements role-based access decisions for gateway routes.
//
// Decisions are pure functions over the static route tables below: no session
// lookups, no network calls. The gateway's guard middleware and the CLI both
// consult the same tables.
package policy

import "strings"

// Role is an application role code. Codes are case-sensitive and compared by exact equality.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
	RoleGuest Role = "GUEST"
)

// Redirect destinations for denied navigations and transport failures.
const (
	AccessDeniedPath = "/access-denied"
	NetworkErrorPath = "/500?type=network"
)

// RouteConfig describes the access rule for a path prefix.
type RouteConfig struct {
	Path         string // Path prefix this rule governs
	RequiredRole Role   // Role required to enter, empty when any authenticated user may
	RequiresAuth bool   // Whether an authenticated session is required
}

// ProtectedRoutes lists access rules in declaration order. The first matching
// entry governs a path, so more specific prefixes must be declared before
// broader ones.
var ProtectedRoutes = []RouteConfig{
	{Path: "/admin", RequiredRole: RoleAdmin, RequiresAuth: true},
	{Path: "/dashboard", RequiredRole: RoleAdmin, RequiresAuth: true},
	{Path: "/session", RequiresAuth: true},
	{Path: "/profile", RequiresAuth: true},
}

// PublicRoutes lists prefixes that are never protected, checked before the
// protected table.
var PublicRoutes = []string{
	"/",
	"/access-denied",
	"/not-found",
	"/auth",
}

// IsPublicRoute reports whether the path is public: an exact match against a
// public prefix, or a descendant of one ("/auth" covers "/auth/callback").
// The bare "/" only matches exactly so it does not swallow every path.
func IsPublicRoute(path string) bool {
	for _, route := range PublicRoutes {
		if path == route {
			return true
		}
		if route != "/" && strings.HasPrefix(path, route+"/") {
			return true
		}
	}
	return false
}

// IsProtectedRoute reports whether any access rule governs the path.
func IsProtectedRoute(path string) bool {
	return RouteFor(path) != nil
}

// RouteFor returns the first declared access rule whose prefix matches the
// path, or nil when the path is unguarded.
func RouteFor(path string) *RouteConfig {
	for i := range ProtectedRoutes {
		if strings.HasPrefix(path, ProtectedRoutes[i].Path) {
			return &ProtectedRoutes[i]
		}
	}
	return nil
}

// HasRequiredRole reports whether the role set satisfies the required role.
// An empty requirement is always satisfied.
func HasRequiredRole(roles []string, required Role) bool {
	if required == "" {
		return true
	}
	for _, r := range roles {
		if r == string(required) {
			return true
		}
	}
	return false
}

// RedirectPath decides whether a navigation to path is permitted.
//
// It returns the redirect destination when access is denied, or the empty
// string when the navigation may proceed. Unlisted paths are public by
// default.
func RedirectPath(isAuthenticated bool, roles []string, path string) string {
	if IsPublicRoute(path) {
		return ""
	}

	route := RouteFor(path)
	if route == nil {
		return ""
	}

	if route.RequiresAuth && !isAuthenticated {
		return AccessDeniedPath
	}

	if route.RequiredRole != "" && !HasRequiredRole(roles, route.RequiredRole) {
		return AccessDeniedPath
	}

	return ""
}
