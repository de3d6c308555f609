package routes

import (
	"sort"
	"strings"

	"github.com/servicebay-dev/servicebay/pkg/auth"
)

// Route describes a registered view. AllowedRoles is the authorization
// requirement attached at registration time: an empty set on a
// protected route means "any authenticated role"; a non-empty set is a
// strict membership check.
type Route struct {
	// Pattern is the path pattern, with {name} segments for parameters
	// (e.g. "/tickets/{id}").
	Pattern string

	// Title is the view's display name.
	Title string

	// Protected marks views that require an authenticated session.
	Protected bool

	// AllowedRoles restricts a protected view to specific roles.
	AllowedRoles []auth.Role
}

// Allows reports whether the requirement admits the given role.
func (r Route) Allows(role auth.Role) bool {
	if len(r.AllowedRoles) == 0 {
		return true
	}
	for _, allowed := range r.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Registry maps request paths to registered routes.
type Registry struct {
	routes []Route
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a route. Literal patterns win over parameterized ones
// when both match a path, so "/tickets/new" beats "/tickets/{id}".
func (reg *Registry) Register(route Route) {
	reg.routes = append(reg.routes, route)
	sort.SliceStable(reg.routes, func(i, j int) bool {
		pi, pj := countParams(reg.routes[i].Pattern), countParams(reg.routes[j].Pattern)
		if pi != pj {
			return pi < pj
		}
		return len(reg.routes[i].Pattern) > len(reg.routes[j].Pattern)
	})
}

func countParams(pattern string) int {
	return strings.Count(pattern, "{")
}

// Lookup matches a concrete path against the registered patterns and
// returns the route plus any path parameters.
func (reg *Registry) Lookup(path string) (Route, map[string]string, bool) {
	for _, route := range reg.routes {
		if params, ok := matchPattern(route.Pattern, path); ok {
			return route, params, true
		}
	}
	return Route{}, nil, false
}

// Routes returns the registered routes, most specific first.
func (reg *Registry) Routes() []Route {
	out := make([]Route, len(reg.routes))
	copy(out, reg.routes)
	return out
}

// matchPattern matches a single pattern against a path segment by
// segment. A {name} segment matches any one non-empty segment.
func matchPattern(pattern, path string) (map[string]string, bool) {
	patSegs := splitPath(pattern)
	pathSegs := splitPath(path)
	if len(patSegs) != len(pathSegs) {
		return nil, false
	}

	var params map[string]string
	for i, seg := range patSegs {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			if pathSegs[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[seg[1:len(seg)-1]] = pathSegs[i]
			continue
		}
		if seg != pathSegs[i] {
			return nil, false
		}
	}
	return params, true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// DefaultRegistry returns the ServiceBay route table: the public home,
// login and register views, the per-role dashboards, the ticket views,
// and the admin area.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	for _, route := range []Route{
		{Pattern: auth.PathRoot, Title: "Home"},
		{Pattern: auth.PathLogin, Title: "Log in"},
		{Pattern: "/register", Title: "Create account"},
		{Pattern: auth.PathCustomerDashboard, Title: "My tickets", Protected: true, AllowedRoles: []auth.Role{auth.RoleCustomer}},
		{Pattern: auth.PathMechanicDashboard, Title: "Job queue", Protected: true, AllowedRoles: []auth.Role{auth.RoleTechnician}},
		{Pattern: "/tickets/new", Title: "New ticket", Protected: true, AllowedRoles: []auth.Role{auth.RoleCustomer}},
		{Pattern: "/tickets/{id}", Title: "Ticket detail", Protected: true, AllowedRoles: []auth.Role{auth.RoleCustomer, auth.RoleTechnician, auth.RoleAdmin}},
		{Pattern: auth.PathAdminDashboard, Title: "Admin dashboard", Protected: true, AllowedRoles: []auth.Role{auth.RoleAdmin}},
		{Pattern: "/admin/tickets", Title: "All tickets", Protected: true, AllowedRoles: []auth.Role{auth.RoleAdmin}},
		{Pattern: "/admin/users", Title: "Manage users", Protected: true, AllowedRoles: []auth.Role{auth.RoleAdmin}},
	} {
		reg.Register(route)
	}
	return reg
}
