package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action kinds recorded for administrative mutations.
const (
	ActionInsert = "INSERT"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// Table names referenced by audit entries.
const (
	TableGovernorates      = "governorates"
	TableRegions           = "health_regions"
	TableUsers             = "users"
	TableSurveys           = "surveys"
	TableUserSurveys       = "user_surveys"
	TableGovernorateAdmins = "governorate_admins"
)

// Entry is one immutable record of an administrative mutation. Old and new
// values are stored as opaque serialized payloads; the trail never interprets
// their structure.
type Entry struct {
	ID        uuid.UUID  `json:"id"`
	ActorID   uuid.UUID  `json:"actor_id"`
	ActorName string     `json:"actor_name"`
	Action    string     `json:"action"`
	Table     string     `json:"table"`
	RecordID  *uuid.UUID `json:"record_id,omitempty"`
	OldValue  *string    `json:"old_value,omitempty"`
	NewValue  *string    `json:"new_value,omitempty"`
	At        time.Time  `json:"timestamp"`
}

// Filter narrows a trail query. Zero values mean "no constraint"; all present
// constraints are AND-combined.
type Filter struct {
	Table     string
	Action    string
	ActorName string
	From      *time.Time
	To        *time.Time
	Search    string
}
