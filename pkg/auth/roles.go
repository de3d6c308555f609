package auth

// Role is the closed set of user roles the backend issues. Role values
// arrive inside access-token claims; anything outside the known set is
// treated as "no default route", never as an error.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleTechnician Role = "technician"
	RoleAdmin      Role = "admin"
)

// Application paths the session lifecycle navigates to. The technician
// dashboard keeps its historical /dashboard/mechanic path.
const (
	PathRoot              = "/"
	PathLogin             = "/login"
	PathCustomerDashboard = "/dashboard/customer"
	PathMechanicDashboard = "/dashboard/mechanic"
	PathAdminDashboard    = "/dashboard/admin"
)

// Known reports whether the role is one of the recognized values.
func (r Role) Known() bool {
	switch r {
	case RoleCustomer, RoleTechnician, RoleAdmin:
		return true
	}
	return false
}

// DashboardPath returns the role's own dashboard. Unrecognized roles
// map to the application root.
func (r Role) DashboardPath() string {
	switch r {
	case RoleCustomer:
		return PathCustomerDashboard
	case RoleTechnician:
		return PathMechanicDashboard
	case RoleAdmin:
		return PathAdminDashboard
	default:
		return PathRoot
	}
}
