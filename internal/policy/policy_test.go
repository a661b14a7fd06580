package policy

import "testing"

func TestIsPublicRoute(t *testing.T) {
	t.Run("Exact Matches", func(t *testing.T) {
		for _, path := range PublicRoutes {
			if !IsPublicRoute(path) {
				t.Errorf("expected %s to be public", path)
			}
		}
	})

	t.Run("Prefix Segments", func(t *testing.T) {
		cases := map[string]bool{
			"/auth/callback":       true,
			"/access-denied/extra": true,
			"/authx":               false,
			"/admin":               false,
			"/dashboard/users":     false,
		}
		for path, want := range cases {
			if got := IsPublicRoute(path); got != want {
				t.Errorf("IsPublicRoute(%s) = %v, want %v", path, got, want)
			}
		}
	})

	t.Run("Root Only Matches Exactly", func(t *testing.T) {
		if !IsPublicRoute("/") {
			t.Error("expected / to be public")
		}
		if IsPublicRoute("/anything") && RouteFor("/anything") != nil {
			t.Error("root prefix should not shadow protected paths")
		}
	})
}

func TestRouteFor(t *testing.T) {
	t.Run("Prefix Match", func(t *testing.T) {
		route := RouteFor("/admin/roles")
		if route == nil {
			t.Fatal("expected a route for /admin/roles")
		}
		if route.RequiredRole != RoleAdmin {
			t.Errorf("expected ADMIN requirement, got %s", route.RequiredRole)
		}
	})

	t.Run("Unlisted Path", func(t *testing.T) {
		if route := RouteFor("/songs"); route != nil {
			t.Errorf("expected no route for /songs, got %+v", route)
		}
	})

	t.Run("First Declared Match Wins", func(t *testing.T) {
		// Declaration order is the tie-break: a broader prefix declared
		// first governs its descendants even if a later entry also matches.
		orig := ProtectedRoutes
		ProtectedRoutes = []RouteConfig{
			{Path: "/admin", RequiredRole: RoleAdmin, RequiresAuth: true},
			{Path: "/admin/users", RequiresAuth: true},
		}
		defer func() { ProtectedRoutes = orig }()

		route := RouteFor("/admin/users")
		if route == nil {
			t.Fatal("expected a route")
		}
		if route.RequiredRole != RoleAdmin {
			t.Errorf("expected first declared entry to win, got %+v", route)
		}
	})
}

func TestHasRequiredRole(t *testing.T) {
	t.Run("No Requirement", func(t *testing.T) {
		if !HasRequiredRole(nil, "") {
			t.Error("empty requirement should always pass")
		}
	})

	t.Run("Exact Case Sensitive Match", func(t *testing.T) {
		if !HasRequiredRole([]string{"USER", "ADMIN"}, RoleAdmin) {
			t.Error("expected ADMIN in role set to satisfy requirement")
		}
		if HasRequiredRole([]string{"admin"}, RoleAdmin) {
			t.Error("role comparison must be case-sensitive")
		}
		if HasRequiredRole([]string{"USER"}, RoleAdmin) {
			t.Error("USER should not satisfy ADMIN requirement")
		}
	})
}

func TestRedirectPath(t *testing.T) {
	t.Run("Public Paths Always Allowed", func(t *testing.T) {
		for _, path := range PublicRoutes {
			if got := RedirectPath(false, nil, path); got != "" {
				t.Errorf("RedirectPath(false, nil, %s) = %s, want allow", path, got)
			}
		}
	})

	t.Run("Unlisted Path Default Public", func(t *testing.T) {
		if got := RedirectPath(false, nil, "/songs/42"); got != "" {
			t.Errorf("expected allow for unlisted path, got %s", got)
		}
	})

	t.Run("Admin Route Unauthenticated", func(t *testing.T) {
		if got := RedirectPath(false, nil, "/admin/roles"); got != AccessDeniedPath {
			t.Errorf("expected redirect to %s, got %q", AccessDeniedPath, got)
		}
	})

	t.Run("Admin Route Wrong Role", func(t *testing.T) {
		if got := RedirectPath(true, []string{"USER"}, "/admin/roles"); got != AccessDeniedPath {
			t.Errorf("expected redirect to %s, got %q", AccessDeniedPath, got)
		}
	})

	t.Run("Admin Route With Admin Role", func(t *testing.T) {
		if got := RedirectPath(true, []string{"ADMIN"}, "/admin/roles"); got != "" {
			t.Errorf("expected allow, got %q", got)
		}
	})

	t.Run("Auth Only Route", func(t *testing.T) {
		if got := RedirectPath(false, nil, "/profile"); got != AccessDeniedPath {
			t.Errorf("expected redirect for unauthenticated /profile, got %q", got)
		}
		if got := RedirectPath(true, nil, "/profile"); got != "" {
			t.Errorf("expected allow for authenticated /profile, got %q", got)
		}
		if got := RedirectPath(true, []string{"GUEST"}, "/session"); got != "" {
			t.Errorf("expected allow for any authenticated role on /session, got %q", got)
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		first := RedirectPath(true, []string{"USER"}, "/dashboard")
		for i := 0; i < 10; i++ {
			if got := RedirectPath(true, []string{"USER"}, "/dashboard"); got != first {
				t.Fatalf("decision changed between calls: %q then %q", first, got)
			}
		}
	})
}
