package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/govhealth/fieldsurvey/internal/domain"
)

// User is a platform account. Employees carry an assigned region,
// governorate admins are bound through a separate link table.
type User struct {
	ID             uuid.UUID   `json:"id"`
	Username       string      `json:"username"`
	FullName       string      `json:"full_name"`
	Role           domain.Role `json:"role"`
	AssignedRegion *uuid.UUID  `json:"assigned_region,omitempty"`
	RegionName     *string     `json:"region_name,omitempty"`
	LastLogin      *time.Time  `json:"last_login,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Credentials is the stored authentication material for a user.
type Credentials struct {
	ID           uuid.UUID
	Username     string
	FullName     string
	Role         domain.Role
	PasswordHash string
}
