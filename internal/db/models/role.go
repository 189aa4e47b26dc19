package models

// Role of a staff account.
type Role string

const (
	// RoleRoot is the reserved super role. It can neither be created nor deleted through the API.
	RoleRoot Role = "root"
	// RoleAdmin manages users and persons.
	RoleAdmin Role = "admin"
	// RoleOperator manages persons and its own account.
	RoleOperator Role = "operator"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleRoot, RoleAdmin, RoleOperator:
		return true
	default:
		return false
	}
}

// Assignable reports whether r may be given to an account through the API.
func (r Role) Assignable() bool {
	return r == RoleAdmin || r == RoleOperator
}
