// Package auth carries the viewer's identity through request contexts and
// enforces the role hierarchy on protected routes.
package auth

// Role is a profile's access level. Roles form a strict hierarchy; a higher
// role can do everything a lower one can.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleAgent  Role = "agent"
	RoleAdmin  Role = "admin"
)

// rank maps roles to their position in the hierarchy. Unknown roles rank 0
// so a corrupted or future role value never grants access.
func (r Role) rank() int {
	switch r {
	case RoleViewer:
		return 1
	case RoleAgent:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	return r.rank() > 0
}

// HasAccess reports whether a holder of r meets the required role. Both
// sides fail closed: an unrecognized role on either side denies.
func (r Role) HasAccess(required Role) bool {
	rr := required.rank()
	return rr > 0 && r.rank() >= rr
}

// CanManageListings reports whether r may create and edit property listings.
func (r Role) CanManageListings() bool {
	return r.HasAccess(RoleAgent)
}

// CanAccessAdmin reports whether r may use the admin surface.
func (r Role) CanAccessAdmin() bool {
	return r.HasAccess(RoleAdmin)
}
