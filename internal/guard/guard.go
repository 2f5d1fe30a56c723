// Package guard decides whether a route may render for the current session.
package guard

import (
	"campusconnect/internal/models"
	"campusconnect/internal/session"
)

type Decision int

const (
	Render Decision = iota
	RedirectToLogin
	RedirectUnauthorized
	// RedirectHome sends a signed-in user away from guest-only pages such as
	// the login form.
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Render:
		return "render"
	case RedirectToLogin:
		return "redirect-to-login"
	case RedirectUnauthorized:
		return "redirect-to-unauthorized"
	case RedirectHome:
		return "redirect-home"
	default:
		return "unknown"
	}
}

// Gate inspects a session and returns Render to let evaluation continue.
type Gate func(session.Snapshot) Decision

func RequireAuth() Gate {
	return func(s session.Snapshot) Decision {
		if !s.IsAuthenticated() {
			return RedirectToLogin
		}
		return Render
	}
}

// RequireRoles denies sessions whose role is not in roles. With no roles the
// gate lets everything through. A missing or unrecognised role never matches.
func RequireRoles(roles ...models.UserRole) Gate {
	if len(roles) == 0 {
		return func(session.Snapshot) Decision { return Render }
	}
	roleSet := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(s session.Snapshot) Decision {
		role, ok := models.ParseUserRole(string(s.User.Role))
		if !ok {
			return RedirectUnauthorized
		}
		if _, ok := roleSet[role]; !ok {
			return RedirectUnauthorized
		}
		return Render
	}
}

func GuestOnly() Gate {
	return func(s session.Snapshot) Decision {
		if s.IsAuthenticated() {
			return RedirectHome
		}
		return Render
	}
}

// Chain evaluates gates in order and stops at the first that does not render.
func Chain(gates ...Gate) Gate {
	return func(s session.Snapshot) Decision {
		for _, gate := range gates {
			if d := gate(s); d != Render {
				return d
			}
		}
		return Render
	}
}

// Policy is the static access rule attached to a route.
type Policy struct {
	RequireAuth  bool
	AllowedRoles []models.UserRole
	GuestOnly    bool
}

// Gate builds the gate for p. Roles imply authentication, and the
// authentication gate always runs first.
func (p Policy) Gate() Gate {
	var gates []Gate
	if p.GuestOnly {
		gates = append(gates, GuestOnly())
	}
	if p.RequireAuth || len(p.AllowedRoles) > 0 {
		gates = append(gates, RequireAuth())
	}
	if len(p.AllowedRoles) > 0 {
		gates = append(gates, RequireRoles(p.AllowedRoles...))
	}
	return Chain(gates...)
}

func Evaluate(s session.Snapshot, p Policy) Decision {
	return p.Gate()(s)
}

// Protect runs render only when the policy allows it.
func Protect(s session.Snapshot, p Policy, render func()) Decision {
	d := Evaluate(s, p)
	if d == Render && render != nil {
		render()
	}
	return d
}
