package access

import "github.com/google/uuid"

// SurveySummary is the slim survey view shown in assignment listings.
type SurveySummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

// Grant is the outcome of a survey assignment. Ignored carries the
// requested surveys that were not enabled for the user's governorate.
type Grant struct {
	UserID  uuid.UUID   `json:"user_id"`
	Granted []uuid.UUID `json:"granted"`
	Ignored []uuid.UUID `json:"ignored"`
}
