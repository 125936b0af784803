package response

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/govhealth/fieldsurvey/internal/domain"
)

const dbTimeout = 3 * time.Second

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) CreateResponse(ctx context.Context, surveyID, userID, regionID uuid.UUID, complete bool) (uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
        INSERT INTO responses (survey_id, user_id, region_id, is_completed)
        VALUES ($1, $2, $3, $4)
        RETURNING id`, surveyID, userID, regionID, complete).Scan(&id)
	return id, err
}

func (r *Repository) AddDetail(ctx context.Context, responseID, fieldID uuid.UUID, value string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, `
        INSERT INTO response_details (response_id, field_id, answer_value)
        VALUES ($1, $2, $3)`, responseID, fieldID, value)
	return err
}

// HasCompletedToday checks the once-per-day rule against the database
// clock. Drafts do not count.
func (r *Repository) HasCompletedToday(ctx context.Context, userID, surveyID uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM responses
             WHERE user_id = $1
               AND survey_id = $2
               AND is_completed = TRUE
               AND DATE(submission_date) = CURRENT_DATE
        )`, userID, surveyID).Scan(&exists)
	return exists, err
}

func (r *Repository) RegionOfUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var regionID *uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT assigned_region FROM users WHERE id = $1`, userID).Scan(&regionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, domain.ErrNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	if regionID == nil {
		return uuid.Nil, domain.ErrUnscopedUser
	}
	return *regionID, nil
}

// ListMine returns a user's own submissions, newest first. A non-nil
// surveyID narrows the history to one survey.
func (r *Repository) ListMine(ctx context.Context, userID uuid.UUID, surveyID *uuid.UUID) ([]HistoryRow, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
        SELECT r.id, r.survey_id, s.name, r.is_completed, r.submission_date
          FROM responses r
          JOIN surveys s ON s.id = r.survey_id
         WHERE r.user_id = $1
           AND ($2::uuid IS NULL OR r.survey_id = $2)
         ORDER BY r.submission_date DESC`, userID, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]HistoryRow, 0)
	for rows.Next() {
		var h HistoryRow
		if err := rows.Scan(&h.ResponseID, &h.SurveyID, &h.SurveyName, &h.IsComplete, &h.SubmittedAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

func (r *Repository) ListForSurvey(ctx context.Context, surveyID uuid.UUID) ([]AdminRow, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
        SELECT r.id, r.user_id, u.full_name, r.region_id, hr.name, r.is_completed, r.submission_date
          FROM responses r
          JOIN users u ON u.id = r.user_id
          JOIN health_regions hr ON hr.id = r.region_id
         WHERE r.survey_id = $1
         ORDER BY r.submission_date DESC`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]AdminRow, 0)
	for rows.Next() {
		var row AdminRow
		if err := rows.Scan(&row.ResponseID, &row.UserID, &row.UserName, &row.RegionID,
			&row.RegionName, &row.IsComplete, &row.SubmittedAt); err != nil {
			return nil, err
		}
		list = append(list, row)
	}
	return list, rows.Err()
}

// GetInfo returns one response joined with its survey, submitter,
// region and governorate names. Details are filled by the caller.
func (r *Repository) GetInfo(ctx context.Context, id uuid.UUID) (View, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var v View
	err := r.pool.QueryRow(ctx, `
        SELECT r.id, r.survey_id, r.user_id, r.region_id, r.is_completed, r.submission_date,
               s.name, u.full_name, hr.name, g.name
          FROM responses r
          JOIN surveys s ON s.id = r.survey_id
          JOIN users u ON u.id = r.user_id
          JOIN health_regions hr ON hr.id = r.region_id
          JOIN governorates g ON g.id = hr.governorate_id
         WHERE r.id = $1`, id).
		Scan(&v.ID, &v.SurveyID, &v.UserID, &v.RegionID, &v.IsComplete, &v.SubmittedAt,
			&v.SurveyName, &v.UserName, &v.RegionName, &v.GovernorateName)
	if errors.Is(err, pgx.ErrNoRows) {
		return View{}, domain.ErrNotFound
	}
	return v, err
}

// ListDetails returns the stored answers in question order.
func (r *Repository) ListDetails(ctx context.Context, responseID uuid.UUID) ([]Detail, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
        SELECT rd.id, rd.response_id, rd.field_id, sf.label, sf.field_type, rd.answer_value, sf.field_order
          FROM response_details rd
          JOIN survey_fields sf ON sf.id = rd.field_id
         WHERE rd.response_id = $1
         ORDER BY sf.field_order`, responseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]Detail, 0)
	for rows.Next() {
		var d Detail
		if err := rows.Scan(&d.ID, &d.ResponseID, &d.FieldID, &d.Label, &d.FieldType, &d.Value, &d.Order); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func (r *Repository) UpdateDetail(ctx context.Context, detailID uuid.UUID, value string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `UPDATE response_details SET answer_value = $1 WHERE id = $2`, value, detailID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DetailOwner returns the user who submitted the response a detail
// belongs to.
func (r *Repository) DetailOwner(ctx context.Context, detailID uuid.UUID) (uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var userID uuid.UUID
	err := r.pool.QueryRow(ctx, `
        SELECT r.user_id
          FROM response_details rd
          JOIN responses r ON r.id = rd.response_id
         WHERE rd.id = $1`, detailID).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, domain.ErrNotFound
	}
	return userID, err
}

// GovernorateOfResponse resolves the governorate a response was
// submitted under, through its region.
func (r *Repository) GovernorateOfResponse(ctx context.Context, responseID uuid.UUID) (uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var govID uuid.UUID
	err := r.pool.QueryRow(ctx, `
        SELECT hr.governorate_id
          FROM responses r
          JOIN health_regions hr ON hr.id = r.region_id
         WHERE r.id = $1`, responseID).Scan(&govID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, domain.ErrNotFound
	}
	return govID, err
}

// SurveyEnabledForGovernorate reports whether a survey is enabled in a
// governorate.
func (r *Repository) SurveyEnabledForGovernorate(ctx context.Context, surveyID, governorateID uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var enabled bool
	err := r.pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM survey_governorates
             WHERE survey_id = $1 AND governorate_id = $2
        )`, surveyID, governorateID).Scan(&enabled)
	return enabled, err
}
