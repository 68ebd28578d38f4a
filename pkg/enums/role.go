package enums

import (
	"fmt"
	"strings"
)

// Role is the coarse access-control tag carried on every identity.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var validRoles = []Role{RoleUser, RoleAdmin}

// IsValid checks whether the role matches the canonical enum.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// ParseRole converts raw strings into Role.
func ParseRole(value string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if role.IsValid() {
		return role, nil
	}
	return "", fmt.Errorf("invalid role %q", value)
}
