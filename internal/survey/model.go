package survey

import (
	"time"

	"github.com/google/uuid"
)

// FieldType enumerates the supported answer widgets.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldDropdown FieldType = "dropdown"
	FieldCheckbox FieldType = "checkbox"
	FieldDate     FieldType = "date"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldNumber, FieldDropdown, FieldCheckbox, FieldDate:
		return true
	}
	return false
}

// Survey is the schema header. Fields live in their own table and are
// always ordered by position.
type Survey struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Field is one question of a survey. Options only applies to dropdowns.
type Field struct {
	ID       uuid.UUID `json:"id"`
	SurveyID uuid.UUID `json:"survey_id"`
	Type     FieldType `json:"field_type"`
	Label    string    `json:"label"`
	Options  []string  `json:"options,omitempty"`
	Required bool      `json:"required"`
	Order    int       `json:"field_order"`
}

// FieldInput describes a question on create or update. A nil ID appends
// a new field at the end, a set ID edits the existing one in place.
type FieldInput struct {
	ID       *uuid.UUID `json:"id,omitempty"`
	Type     FieldType  `json:"field_type"`
	Label    string     `json:"label"`
	Options  []string   `json:"options,omitempty"`
	Required bool       `json:"required"`

	// Order is resolved server side, never taken from the payload.
	Order int `json:"-"`
}

// CreateInput is the payload for building or editing a survey schema.
// IsActive only applies on update; new surveys always start active.
type CreateInput struct {
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	IsActive       bool         `json:"is_active"`
	GovernorateIDs []uuid.UUID  `json:"governorate_ids"`
	Fields         []FieldInput `json:"fields"`
}

// Definition is the full renderable schema.
type Definition struct {
	Survey Survey  `json:"survey"`
	Fields []Field `json:"fields"`
}
