package types

import "strings"

// Role is the closed set of authorization levels a user can hold.
type Role string

const (
	// RoleAdmin grants unrestricted access to every project.
	RoleAdmin Role = "ADMIN"

	// RoleUser restricts project access to the user's own company.
	RoleUser Role = "USER"
)

// ParseRole normalizes a stored role string into a Role.
// Anything that is not recognizably admin degrades to RoleUser, so a
// corrupted or legacy value can never grant elevated access.
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}
