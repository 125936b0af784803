// Package domain holds the vocabulary shared by every module: roles,
// the acting user, and the error taxonomy surfaced to callers.
package domain

import (
	"github.com/google/uuid"
)

// Role is the access level of a user account.
type Role string

const (
	RoleAdmin            Role = "admin"
	RoleGovernorateAdmin Role = "governorate_admin"
	RoleEmployee         Role = "employee"
)

// Valid reports whether the role is one of the known levels.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleGovernorateAdmin, RoleEmployee:
		return true
	}
	return false
}

// Actor identifies the authenticated caller of a core operation. It is
// threaded explicitly through every service instead of living in ambient
// session state.
type Actor struct {
	ID   uuid.UUID
	Role Role
}
