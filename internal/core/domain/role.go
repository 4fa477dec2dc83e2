package domain

import "fmt"

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleUser}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole converts raw input into a Role. An empty string yields RoleUser.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return RoleUser, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
	}
	return r, nil
}

// Authorize allows role when it is a member of allowed.
func Authorize(role Role, allowed ...Role) error {
	for _, a := range allowed {
		if role == a {
			return nil
		}
	}
	return ErrInsufficientPermissions
}
