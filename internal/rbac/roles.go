package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleContractor = "contractor"
	RoleOperator   = "operator"
	RoleSuperAdmin = "super_admin"
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

// IsStaff reports whether role belongs to the marketplace operations team.
func IsStaff(role string) bool { return role == RoleOperator || role == RoleSuperAdmin }

func IsKnownRole(role string) bool {
	switch role {
	case RoleContractor, RoleOperator, RoleSuperAdmin:
		return true
	default:
		return false
	}
}
