// Package navigation is the in-process router. Every navigation is checked
// against the current session before the target is shown.
package navigation

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"campusconnect/internal/guard"
	"campusconnect/internal/recent"
	"campusconnect/internal/session"
)

var ErrUnknownRoute = errors.New("unknown route")

// Outcome describes where a navigation ended up.
type Outcome struct {
	Requested string
	Location  string
	Decision  guard.Decision
	Route     Route
}

func (o Outcome) Rendered() bool {
	return o.Decision == guard.Render
}

type Option func(*Router)

// WithUnauthorizedPath sets where role-gate denials land.
func WithUnauthorizedPath(path string) Option {
	return func(r *Router) { r.unauthorizedPath = path }
}

func WithRecent(tracker *recent.Tracker) Option {
	return func(r *Router) { r.recent = tracker }
}

type Router struct {
	sessions         *session.Store
	recent           *recent.Tracker
	log              zerolog.Logger
	routes           map[string]Route
	unauthorizedPath string

	mu        sync.Mutex
	location  string
	listeners []func(Outcome)
}

func NewRouter(sessions *session.Store, routes []Route, log zerolog.Logger, opts ...Option) *Router {
	r := &Router{
		sessions:         sessions,
		log:              log.With().Str("component", "router").Logger(),
		routes:           make(map[string]Route, len(routes)),
		unauthorizedPath: PathDashboard,
		location:         PathRoot,
	}
	for _, route := range routes {
		r.routes[route.Path] = route
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) Lookup(path string) (Route, error) {
	route, ok := r.routes[normalize(path)]
	if !ok {
		return Route{}, ErrUnknownRoute
	}
	return route, nil
}

// Navigate evaluates the route's policy against the session as it is right
// now. The root and unknown paths send signed-in users to the dashboard and
// everyone else to the login page.
func (r *Router) Navigate(ctx context.Context, path string) Outcome {
	path = normalize(path)
	snapshot := r.sessions.Current()

	route, err := r.Lookup(path)
	if err == nil && path != PathRoot {
		outcome := r.open(ctx, route, snapshot)
		r.setLocation(outcome)
		return outcome
	}

	target, decision := PathLogin, guard.RedirectToLogin
	if snapshot.IsAuthenticated() {
		target, decision = PathDashboard, guard.RedirectHome
	}
	outcome := Outcome{Requested: path, Location: target, Decision: decision}
	if fallback, ok := r.routes[target]; ok {
		outcome = r.open(ctx, fallback, snapshot)
		outcome.Requested = path
	} else {
		r.log.Warn().Str("path", path).Str("target", target).Msg("fallback route not registered")
	}
	r.setLocation(outcome)
	return outcome
}

// open applies route's policy. It never falls back to another route.
func (r *Router) open(ctx context.Context, route Route, snapshot session.Snapshot) Outcome {
	outcome := Outcome{Requested: route.Path, Route: route}
	outcome.Decision = guard.Protect(snapshot, route.Policy, func() {
		if route.Track && r.recent != nil {
			if _, err := r.recent.Record(ctx, route.Path, route.Name, route.Icon); err != nil {
				r.log.Warn().Err(err).Str("path", route.Path).Msg("record recent route failed")
			}
		}
	})
	switch outcome.Decision {
	case guard.Render:
		outcome.Location = route.Path
	case guard.RedirectToLogin:
		outcome.Location = PathLogin
	case guard.RedirectUnauthorized:
		outcome.Location = r.unauthorizedPath
		r.log.Info().Str("path", route.Path).Str("role", string(snapshot.User.Role)).Msg("route denied for role")
	case guard.RedirectHome:
		outcome.Location = PathDashboard
	}
	return outcome
}

// RedirectToLogin moves to the login page without consulting any guard. It
// is called after the session has already been cleared.
func (r *Router) RedirectToLogin() {
	route := r.routes[PathLogin]
	route.Path = PathLogin
	r.setLocation(Outcome{
		Requested: PathLogin,
		Location:  PathLogin,
		Decision:  guard.Render,
		Route:     route,
	})
}

func (r *Router) Location() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.location
}

// OnNavigate registers fn to observe every location change.
func (r *Router) OnNavigate(fn func(Outcome)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

func (r *Router) setLocation(outcome Outcome) {
	r.mu.Lock()
	r.location = outcome.Location
	listeners := append([]func(Outcome){}, r.listeners...)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(outcome)
	}
}

func normalize(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return PathRoot
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		return PathRoot
	}
	return path
}
