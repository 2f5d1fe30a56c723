package guard

import (
	"testing"

	"campusconnect/internal/models"
	"campusconnect/internal/session"
)

func signedIn(role models.UserRole) session.Snapshot {
	return session.Snapshot{
		User:  models.User{UserID: 1, Name: "Ali", Email: "a@nust.edu.pk", Role: role},
		Token: "T1",
	}
}

var adminArea = Policy{RequireAuth: true, AllowedRoles: []models.UserRole{models.UserRoleAdmin, models.UserRoleFaculty}}

func TestUnauthenticatedAlwaysRedirectsToLogin(t *testing.T) {
	policies := map[string]Policy{
		"auth only":  {RequireAuth: true},
		"role gated": adminArea,
		"roles only": {AllowedRoles: []models.UserRole{models.UserRoleAdmin}},
	}
	for name, policy := range policies {
		mounted := false
		d := Protect(session.Snapshot{}, policy, func() { mounted = true })
		if d != RedirectToLogin {
			t.Fatalf("%s: expected redirect to login, got %s", name, d)
		}
		if mounted {
			t.Fatalf("%s: protected content rendered for a signed-out session", name)
		}
	}
}

func TestRoleGate(t *testing.T) {
	cases := []struct {
		role models.UserRole
		want Decision
	}{
		{models.UserRoleAdmin, Render},
		{models.UserRoleFaculty, Render},
		{models.UserRoleStudent, RedirectUnauthorized},
		{"", RedirectUnauthorized},
		{"SUPERUSER", RedirectUnauthorized},
		{"*", RedirectUnauthorized},
	}
	for _, tc := range cases {
		mounted := false
		d := Protect(signedIn(tc.role), adminArea, func() { mounted = true })
		if d != tc.want {
			t.Fatalf("role %q: expected %s, got %s", tc.role, tc.want, d)
		}
		if mounted != (tc.want == Render) {
			t.Fatalf("role %q: mounted=%v with decision %s", tc.role, mounted, d)
		}
	}
}

func TestRoleMatchIgnoresCase(t *testing.T) {
	if d := Evaluate(signedIn("admin"), adminArea); d != Render {
		t.Fatalf("expected lower-case admin to match, got %s", d)
	}
}

func TestEmptyAllowListIsNoOp(t *testing.T) {
	if d := RequireRoles()(signedIn("")); d != Render {
		t.Fatalf("expected no-op gate, got %s", d)
	}
	if d := Evaluate(signedIn(""), Policy{RequireAuth: true}); d != Render {
		t.Fatalf("expected auth-only policy to render, got %s", d)
	}
}

func TestPublicPolicyRendersForEveryone(t *testing.T) {
	if d := Evaluate(session.Snapshot{}, Policy{}); d != Render {
		t.Fatalf("expected public route to render, got %s", d)
	}
}

func TestGuestOnly(t *testing.T) {
	login := Policy{GuestOnly: true}
	if d := Evaluate(session.Snapshot{}, login); d != Render {
		t.Fatalf("expected guest to see login, got %s", d)
	}
	if d := Evaluate(signedIn(models.UserRoleStudent), login); d != RedirectHome {
		t.Fatalf("expected signed-in user sent home, got %s", d)
	}
}

func TestChainStopsAtFirstDenial(t *testing.T) {
	calls := 0
	counting := func(session.Snapshot) Decision {
		calls++
		return Render
	}
	gate := Chain(RequireAuth(), counting)
	if d := gate(session.Snapshot{}); d != RedirectToLogin {
		t.Fatalf("expected login redirect, got %s", d)
	}
	if calls != 0 {
		t.Fatalf("later gates must not run after a denial")
	}
}
