package access

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/govhealth/fieldsurvey/internal/db"
	"github.com/govhealth/fieldsurvey/internal/domain"
)

const dbTimeout = 3 * time.Second

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GovernorateForEmployee resolves the governorate through the employee's
// assigned region.
func (r *Repository) GovernorateForEmployee(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
        SELECT hr.governorate_id
          FROM users u
          JOIN health_regions hr ON hr.id = u.assigned_region
         WHERE u.id = $1`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, domain.ErrNotFound
	}
	return id, err
}

// GovernorateForAdmin resolves the governorate a governorate admin manages.
func (r *Repository) GovernorateForAdmin(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
        SELECT governorate_id FROM governorate_admins WHERE user_id = $1`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, domain.ErrNotFound
	}
	return id, err
}

// EnabledSurveyIDs lists the surveys enabled for a governorate.
func (r *Repository) EnabledSurveyIDs(ctx context.Context, governorateID uuid.UUID) ([]uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
        SELECT survey_id FROM survey_governorates WHERE governorate_id = $1`, governorateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanIDs(rows)
}

// GrantedSurveyIDs lists the surveys currently assigned to a user.
func (r *Repository) GrantedSurveyIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
        SELECT survey_id FROM user_surveys WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanIDs(rows)
}

// ReplaceGrants swaps a user's survey assignments for the given set
// inside one transaction.
func (r *Repository) ReplaceGrants(ctx context.Context, userID uuid.UUID, surveyIDs []uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_surveys WHERE user_id = $1`, userID); err != nil {
			return err
		}
		for _, surveyID := range surveyIDs {
			if _, err := tx.Exec(ctx, `
                INSERT INTO user_surveys (user_id, survey_id)
                VALUES ($1, $2)`, userID, surveyID); err != nil {
				return err
			}
		}
		return nil
	})
}

// AllowedSurveys returns the active surveys a user may fill, ordered by name.
func (r *Repository) AllowedSurveys(ctx context.Context, userID uuid.UUID) ([]SurveySummary, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
        SELECT s.id, s.name, s.description
          FROM surveys s
          JOIN user_surveys us ON us.survey_id = s.id
         WHERE us.user_id = $1 AND s.is_active = TRUE
         ORDER BY s.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	surveys := make([]SurveySummary, 0)
	for rows.Next() {
		var s SurveySummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Description); err != nil {
			return nil, err
		}
		surveys = append(surveys, s)
	}
	return surveys, rows.Err()
}

// IsSurveyAllowed reports whether a user holds a grant on an active survey.
func (r *Repository) IsSurveyAllowed(ctx context.Context, userID, surveyID uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var allowed bool
	err := r.pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1
              FROM user_surveys us
              JOIN surveys s ON s.id = us.survey_id
             WHERE us.user_id = $1 AND us.survey_id = $2 AND s.is_active = TRUE
        )`, userID, surveyID).Scan(&allowed)
	return allowed, err
}

// UserRole reads the role of an account.
func (r *Repository) UserRole(ctx context.Context, userID uuid.UUID) (domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var role domain.Role
	err := r.pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	return role, err
}

func scanIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
