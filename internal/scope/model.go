package scope

import (
	"github.com/google/uuid"
)

// Governorate is a top-level administrative region.
type Governorate struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

// Region is a health-administration sub-unit of exactly one governorate. It
// is the finest-grained scope an employee is assigned to.
type Region struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	GovernorateID   uuid.UUID `json:"governorate_id"`
	GovernorateName string    `json:"governorate_name,omitempty"`
}
