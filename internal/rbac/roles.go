package rbac

import "fmt"

// Role is the closed set of roles this service knows about.
// Keep these stable; they are part of auth/RBAC contracts and stored on the
// users table. Ad hoc string comparisons against role names are forbidden
// outside this package.
type Role string

const (
	RoleUser        Role = "user"
	RoleAdmin       Role = "admin"
	RoleSuperAdmin  Role = "super_admin"
	RoleAgencyOwner Role = "agency_owner"
)

// Parse validates a stored or transmitted role string.
func Parse(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin, RoleSuperAdmin, RoleAgencyOwner:
		return Role(s), nil
	default:
		return "", fmt.Errorf("rbac: unknown role %q", s)
	}
}

func (r Role) IsSuperAdmin() bool { return r == RoleSuperAdmin }

// Capability checks. Handlers consume these instead of comparing role strings.

// CanManageUsers covers listing users, changing roles, and deleting users.
func (r Role) CanManageUsers() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// CanManageAgency covers agency creation and membership changes.
// Agency scoping (own agency only for owners) is enforced by the service.
func (r Role) CanManageAgency() bool {
	return r == RoleAgencyOwner || r == RoleAdmin || r == RoleSuperAdmin
}

// CanManageBilling covers Stripe customer and invoice administration.
func (r Role) CanManageBilling() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// CanTriggerMonitor covers running usage/budget evaluation for another tenant.
func (r Role) CanTriggerMonitor() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}
