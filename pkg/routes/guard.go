package routes

import (
	"log/slog"

	"github.com/servicebay-dev/servicebay/pkg/auth"
)

// Decision is the guard's verdict for a navigation.
type Decision int

const (
	// DecisionRender allows the requested view.
	DecisionRender Decision = iota

	// DecisionLoading defers: the session controller's initial load has
	// not completed, so show a placeholder instead of redirecting.
	DecisionLoading

	// DecisionRedirectLogin sends an unauthenticated user to the login
	// view, remembering the originally requested location.
	DecisionRedirectLogin

	// DecisionRedirectDashboard sends an authenticated user whose role
	// is not admitted to their own dashboard.
	DecisionRedirectDashboard

	// DecisionNotFound means no registered view matches the path.
	DecisionNotFound
)

// String returns the decision name for logs.
func (d Decision) String() string {
	switch d {
	case DecisionRender:
		return "render"
	case DecisionLoading:
		return "loading"
	case DecisionRedirectLogin:
		return "redirect-login"
	case DecisionRedirectDashboard:
		return "redirect-dashboard"
	case DecisionNotFound:
		return "not-found"
	default:
		return "unknown"
	}
}

// Result carries the guard's decision plus the data a caller needs to
// act on it.
type Result struct {
	Decision Decision

	// Route is the matched route, when one exists.
	Route Route

	// Params holds path parameters from the matched pattern.
	Params map[string]string

	// Target is the redirect destination for the redirect decisions.
	Target string

	// From preserves the originally requested path on a login redirect
	// so the application can return there after authentication.
	From string
}

// SessionSource is the slice of the auth controller the guard reads.
type SessionSource interface {
	Ready() bool
	Session() (*auth.Session, bool)
}

// Guard gates navigation on session presence and role membership.
type Guard struct {
	registry *Registry
	sessions SessionSource
	logger   *slog.Logger
}

// NewGuard creates a guard over the given route table and session
// source. A nil logger falls back to slog.Default().
func NewGuard(registry *Registry, sessions SessionSource, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{registry: registry, sessions: sessions, logger: logger}
}

// Evaluate decides what happens for a navigation to path. The checks
// run in a fixed order: unknown path, public view, loading, missing
// session, role membership. Evaluation never caches — the session is
// re-read on every navigation.
func (g *Guard) Evaluate(path string) Result {
	route, params, found := g.registry.Lookup(path)
	if !found {
		return Result{Decision: DecisionNotFound, From: path}
	}
	if !route.Protected {
		return Result{Decision: DecisionRender, Route: route, Params: params}
	}

	if !g.sessions.Ready() {
		return Result{Decision: DecisionLoading, Route: route, From: path}
	}

	session, ok := g.sessions.Session()
	if !ok {
		return Result{
			Decision: DecisionRedirectLogin,
			Route:    route,
			Target:   auth.PathLogin,
			From:     path,
		}
	}

	if !route.Allows(session.Role) {
		target := session.Role.DashboardPath()
		g.logger.Warn("access denied, redirecting to own dashboard",
			"path", path, "role", string(session.Role), "target", target)
		return Result{
			Decision: DecisionRedirectDashboard,
			Route:    route,
			Target:   target,
			From:     path,
		}
	}

	return Result{Decision: DecisionRender, Route: route, Params: params}
}
