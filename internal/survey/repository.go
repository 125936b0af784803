package survey

import (
	"context"
	"encoding/json"
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

// Create writes the survey header, its governorate enables and its
// fields in one transaction. Field order arrives resolved on the input.
func (r *Repository) Create(ctx context.Context, in CreateInput, createdBy uuid.UUID) (uuid.UUID, error) {
	var surveyID uuid.UUID
	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
            INSERT INTO surveys (name, description, created_by, is_active)
            VALUES ($1, $2, $3, TRUE)
            RETURNING id`, in.Name, in.Description, createdBy).Scan(&surveyID); err != nil {
			return err
		}

		for _, govID := range in.GovernorateIDs {
			if _, err := tx.Exec(ctx, `
                INSERT INTO survey_governorates (survey_id, governorate_id)
                VALUES ($1, $2)`, surveyID, govID); err != nil {
				return err
			}
		}

		for _, f := range in.Fields {
			opts, err := encodeOptions(f.Options)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
                INSERT INTO survey_fields (survey_id, field_type, label, options, required, field_order)
                VALUES ($1, $2, $3, $4, $5, $6)`,
				surveyID, f.Type, f.Label, opts, f.Required, f.Order); err != nil {
				return err
			}
		}
		return nil
	})
	return surveyID, err
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Survey, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var s Survey
	err := r.pool.QueryRow(ctx, `
        SELECT id, name, description, is_active, created_at
          FROM surveys
         WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Description, &s.IsActive, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Survey{}, domain.ErrNotFound
	}
	return s, err
}

func (r *Repository) List(ctx context.Context) ([]Survey, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
        SELECT id, name, description, is_active, created_at
          FROM surveys
         ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSurveys(rows)
}

// ListEnabled returns the surveys enabled for a governorate.
func (r *Repository) ListEnabled(ctx context.Context, governorateID uuid.UUID) ([]Survey, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
        SELECT s.id, s.name, s.description, s.is_active, s.created_at
          FROM surveys s
          JOIN survey_governorates sg ON sg.survey_id = s.id
         WHERE sg.governorate_id = $1
         ORDER BY s.name`, governorateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSurveys(rows)
}

// ListFields returns the questions of a survey in render order.
func (r *Repository) ListFields(ctx context.Context, surveyID uuid.UUID) ([]Field, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
        SELECT id, survey_id, field_type, label, options, required, field_order
          FROM survey_fields
         WHERE survey_id = $1
         ORDER BY field_order`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := make([]Field, 0)
	for rows.Next() {
		var (
			f    Field
			opts *string
		)
		if err := rows.Scan(&f.ID, &f.SurveyID, &f.Type, &f.Label, &opts, &f.Required, &f.Order); err != nil {
			return nil, err
		}
		if f.Options, err = decodeOptions(opts); err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

// Update rewrites the header, replaces the governorate enables and
// applies the field edits. Field order arrives resolved on the input.
// Grants held by users of a governorate that lost its enable are
// revoked in the same transaction, so the assignment set never widens
// beyond the enabled set.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, in CreateInput) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
            UPDATE surveys SET name = $1, description = $2, is_active = $3 WHERE id = $4`,
			in.Name, in.Description, in.IsActive, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}

		if _, err := tx.Exec(ctx, `
            DELETE FROM survey_governorates WHERE survey_id = $1`, id); err != nil {
			return err
		}
		for _, govID := range in.GovernorateIDs {
			if _, err := tx.Exec(ctx, `
                INSERT INTO survey_governorates (survey_id, governorate_id)
                VALUES ($1, $2)`, id, govID); err != nil {
				return err
			}
		}

		if len(in.GovernorateIDs) == 0 {
			if _, err := tx.Exec(ctx, `DELETE FROM user_surveys WHERE survey_id = $1`, id); err != nil {
				return err
			}
		} else if _, err := tx.Exec(ctx, `
            DELETE FROM user_surveys us
             USING users u
              JOIN health_regions hr ON hr.id = u.assigned_region
             WHERE us.user_id = u.id
               AND us.survey_id = $1
               AND NOT (hr.governorate_id = ANY($2))`, id, in.GovernorateIDs); err != nil {
			return err
		}

		for _, f := range in.Fields {
			opts, err := encodeOptions(f.Options)
			if err != nil {
				return err
			}
			if f.ID != nil {
				tag, err := tx.Exec(ctx, `
                    UPDATE survey_fields
                       SET field_type = $1, label = $2, options = $3, required = $4, field_order = $5
                     WHERE id = $6 AND survey_id = $7`,
					f.Type, f.Label, opts, f.Required, f.Order, *f.ID, id)
				if err != nil {
					return err
				}
				if tag.RowsAffected() == 0 {
					return domain.ErrNotFound
				}
				continue
			}

			if _, err := tx.Exec(ctx, `
                INSERT INTO survey_fields (survey_id, field_type, label, options, required, field_order)
                VALUES ($1, $2, $3, $4, $5, $6)`,
				id, f.Type, f.Label, opts, f.Required, f.Order); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `UPDATE surveys SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a survey and everything hanging off it. Children go
// first so the foreign keys never dangle mid-transaction.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
            DELETE FROM response_details
             WHERE response_id IN (SELECT id FROM responses WHERE survey_id = $1)`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM responses WHERE survey_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM survey_fields WHERE survey_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_surveys WHERE survey_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM survey_governorates WHERE survey_id = $1`, id); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM surveys WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// EnabledGovernorateIDs lists the governorates a survey is enabled for.
func (r *Repository) EnabledGovernorateIDs(ctx context.Context, surveyID uuid.UUID) ([]uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
        SELECT governorate_id FROM survey_governorates WHERE survey_id = $1`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

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

func scanSurveys(rows pgx.Rows) ([]Survey, error) {
	surveys := make([]Survey, 0)
	for rows.Next() {
		var s Survey
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, err
		}
		surveys = append(surveys, s)
	}
	return surveys, rows.Err()
}

func encodeOptions(options []string) (*string, error) {
	if len(options) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(options)
	if err != nil {
		return nil, err
	}
	s := string(raw)
	return &s, nil
}

func decodeOptions(raw *string) ([]string, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	var options []string
	if err := json.Unmarshal([]byte(*raw), &options); err != nil {
		return nil, err
	}
	return options, nil
}
