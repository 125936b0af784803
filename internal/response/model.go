package response

import (
	"time"

	"github.com/google/uuid"
)

// Response is one submission of a survey by an employee. Drafts carry
// IsComplete=false and never count against the daily completion rule.
type Response struct {
	ID          uuid.UUID `json:"id"`
	SurveyID    uuid.UUID `json:"survey_id"`
	UserID      uuid.UUID `json:"user_id"`
	RegionID    uuid.UUID `json:"region_id"`
	IsComplete  bool      `json:"is_complete"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Detail is one stored answer joined with its question metadata.
type Detail struct {
	ID         uuid.UUID `json:"id"`
	ResponseID uuid.UUID `json:"response_id"`
	FieldID    uuid.UUID `json:"field_id"`
	Label      string    `json:"label"`
	FieldType  string    `json:"field_type"`
	Value      string    `json:"value"`
	Order      int       `json:"field_order"`
}

// Answer is a single field value in a submission payload.
type Answer struct {
	FieldID uuid.UUID `json:"field_id"`
	Value   string    `json:"value"`
}

// SubmitInput is the submission payload. Complete=false saves a draft
// and skips required-field validation and the daily duplicate check.
type SubmitInput struct {
	SurveyID uuid.UUID `json:"survey_id"`
	Complete bool      `json:"complete"`
	Answers  []Answer  `json:"answers"`
}

// View is the full read of one response joined across survey, user,
// region and governorate.
type View struct {
	Response
	SurveyName      string   `json:"survey_name"`
	UserName        string   `json:"user_name"`
	RegionName      string   `json:"region_name"`
	GovernorateName string   `json:"governorate_name"`
	Details         []Detail `json:"details"`
}

// HistoryRow is one entry in an employee's own submission history.
type HistoryRow struct {
	ResponseID  uuid.UUID `json:"response_id"`
	SurveyID    uuid.UUID `json:"survey_id"`
	SurveyName  string    `json:"survey_name"`
	IsComplete  bool      `json:"is_complete"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// AdminRow is one entry in the administrative listing of a survey's
// submissions.
type AdminRow struct {
	ResponseID  uuid.UUID `json:"response_id"`
	UserID      uuid.UUID `json:"user_id"`
	UserName    string    `json:"user_name"`
	RegionID    uuid.UUID `json:"region_id"`
	RegionName  string    `json:"region_name"`
	IsComplete  bool      `json:"is_complete"`
	SubmittedAt time.Time `json:"submitted_at"`
}
