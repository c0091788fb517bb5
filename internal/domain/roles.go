package domain

const (
	RoleAdmin    = "ADMIN"
	RoleHR       = "HR"
	RoleManager  = "MANAGER"
	RoleEmployee = "EMPLOYEE"
)

// CanDecideForAnyEmployee reports whether role may decide requests outside
// its own reporting line.
func CanDecideForAnyEmployee(role string) bool {
	return role == RoleAdmin || role == RoleHR
}
