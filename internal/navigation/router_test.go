package navigation

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"campusconnect/internal/guard"
	"campusconnect/internal/kvstore"
	"campusconnect/internal/models"
	"campusconnect/internal/recent"
	"campusconnect/internal/session"
)

func newRouter(t *testing.T) (*Router, *session.Store, *recent.Tracker) {
	t.Helper()
	kv := kvstore.NewMemoryStore()
	sessions := session.NewStore(kv, zerolog.Nop(), recent.StorageKey)
	tracker := recent.NewTracker(kv, recent.DefaultLimit, zerolog.Nop())
	router := NewRouter(sessions, DefaultRoutes(), zerolog.Nop(), WithRecent(tracker))
	return router, sessions, tracker
}

func signIn(t *testing.T, sessions *session.Store, role models.UserRole) {
	t.Helper()
	user := models.User{UserID: 3, Name: "Sara", Email: "s@nust.edu.pk", Role: role}
	if err := sessions.Login(context.Background(), user, "T1"); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestProtectedRouteRedirectsSignedOutUser(t *testing.T) {
	router, _, tracker := newRouter(t)
	outcome := router.Navigate(context.Background(), "/rides")
	if outcome.Decision != guard.RedirectToLogin || outcome.Location != PathLogin {
		t.Fatalf("expected redirect to login, got %+v", outcome)
	}
	if router.Location() != PathLogin {
		t.Fatalf("expected router at login, got %s", router.Location())
	}
	if len(tracker.List(context.Background())) != 0 {
		t.Fatalf("a blocked route must not be recorded")
	}
}

func TestAdminRouteByRole(t *testing.T) {
	cases := map[models.UserRole]string{
		models.UserRoleAdmin:   "/admin",
		models.UserRoleFaculty: "/admin",
		models.UserRoleStudent: PathDashboard,
		"":                     PathDashboard,
	}
	for role, want := range cases {
		router, sessions, _ := newRouter(t)
		signIn(t, sessions, role)
		outcome := router.Navigate(context.Background(), "/admin")
		if outcome.Location != want {
			t.Fatalf("role %q: expected %s, got %+v", role, want, outcome)
		}
		if want == PathDashboard && outcome.Decision != guard.RedirectUnauthorized {
			t.Fatalf("role %q: expected unauthorized decision, got %s", role, outcome.Decision)
		}
	}
}

func TestRootAndUnknownPaths(t *testing.T) {
	ctx := context.Background()
	router, sessions, _ := newRouter(t)

	for _, path := range []string{"/", "", "/nowhere"} {
		if got := router.Navigate(ctx, path); got.Location != PathLogin || got.Requested != normalize(path) {
			t.Fatalf("signed out %q: expected login, got %+v", path, got)
		}
	}

	signIn(t, sessions, models.UserRoleStudent)
	for _, path := range []string{"/", "/nowhere"} {
		if got := router.Navigate(ctx, path); got.Location != PathDashboard || !got.Rendered() {
			t.Fatalf("signed in %q: expected dashboard, got %+v", path, got)
		}
	}
	if _, err := router.Lookup("/nowhere"); err != ErrUnknownRoute {
		t.Fatalf("expected ErrUnknownRoute, got %v", err)
	}
}

func TestLoginPageSendsSignedInUserHome(t *testing.T) {
	router, sessions, _ := newRouter(t)
	signIn(t, sessions, models.UserRoleStudent)
	if got := router.Navigate(context.Background(), "/login"); got.Location != PathDashboard {
		t.Fatalf("expected dashboard, got %+v", got)
	}
}

func TestTrackedRoutesRecorded(t *testing.T) {
	ctx := context.Background()
	router, sessions, tracker := newRouter(t)
	signIn(t, sessions, models.UserRoleStudent)

	router.Navigate(ctx, "/rides/")
	router.Navigate(ctx, "/profile")
	router.Navigate(ctx, "/jobs?tab=open")

	entries := tracker.List(ctx)
	if len(entries) != 2 {
		t.Fatalf("expected two tracked modules, got %+v", entries)
	}
	if entries[0].Path != "/jobs" || entries[0].Icon != "Briefcase" || entries[1].Name != "Ride Sharing" {
		t.Fatalf("unexpected entries %+v", entries)
	}

	if err := sessions.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(tracker.List(ctx)) != 0 {
		t.Fatalf("expected recent list cleared with the session")
	}
}

func TestRedirectToLoginNotifiesListeners(t *testing.T) {
	router, _, _ := newRouter(t)
	var seen []string
	router.OnNavigate(func(o Outcome) { seen = append(seen, o.Location) })
	router.RedirectToLogin()
	if len(seen) != 1 || seen[0] != PathLogin || router.Location() != PathLogin {
		t.Fatalf("unexpected navigation %v", seen)
	}
}

func TestFallbackWithoutRegisteredTarget(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	sessions := session.NewStore(kv, zerolog.Nop())
	router := NewRouter(sessions, []Route{{Path: "/rides", Name: "Ride Sharing"}}, zerolog.Nop())

	got := router.Navigate(ctx, "/nowhere")
	if got.Location != PathLogin || got.Decision != guard.RedirectToLogin || got.Requested != "/nowhere" {
		t.Fatalf("signed out: expected login redirect, got %+v", got)
	}

	signIn(t, sessions, models.UserRoleStudent)
	got = router.Navigate(ctx, "/")
	if got.Location != PathDashboard || got.Decision != guard.RedirectHome {
		t.Fatalf("signed in: expected dashboard redirect, got %+v", got)
	}
	if router.Location() != PathDashboard {
		t.Fatalf("expected router at dashboard, got %s", router.Location())
	}
	if got := router.Navigate(ctx, "/rides"); !got.Rendered() || got.Location != "/rides" {
		t.Fatalf("expected registered route to render, got %+v", got)
	}
}
