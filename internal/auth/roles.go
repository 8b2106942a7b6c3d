package auth

// Role represents a user role within a customer company.
type Role string

const (
	RoleMember  Role = "member"
	RoleBilling Role = "billing"
	RoleAdmin   Role = "admin"
)

// NormalizeRole validates and normalizes a role string.
func NormalizeRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleMember, RoleBilling, RoleAdmin:
		return Role(value), true
	default:
		return "", false
	}
}

// RoleAtLeast returns true when role satisfies required role.
func RoleAtLeast(role Role, required Role) bool {
	return roleRank(role) >= roleRank(required)
}

func roleRank(role Role) int {
	switch role {
	case RoleMember:
		return 1
	case RoleBilling:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}
