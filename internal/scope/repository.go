package scope

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

// Repository provides access to the governorate/region hierarchy.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListGovernorates(ctx context.Context) ([]Governorate, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, name, description
		FROM governorates
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var governorates []Governorate
	for rows.Next() {
		var g Governorate
		if err := rows.Scan(&g.ID, &g.Name, &g.Description); err != nil {
			return nil, err
		}
		governorates = append(governorates, g)
	}
	return governorates, rows.Err()
}

func (r *Repository) GetGovernorate(ctx context.Context, id uuid.UUID) (Governorate, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var g Governorate
	err := r.db.QueryRow(ctx, `
		SELECT id, name, description FROM governorates WHERE id = $1
	`, id).Scan(&g.ID, &g.Name, &g.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return g, domain.ErrNotFound
	}
	return g, err
}

func (r *Repository) GovernorateNameExists(ctx context.Context, name string, exclude uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM governorates WHERE name = $1 AND id <> $2)
	`, name, exclude).Scan(&exists)
	return exists, err
}

func (r *Repository) CreateGovernorate(ctx context.Context, name, description string) (Governorate, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	g := Governorate{Name: name, Description: description}
	err := r.db.QueryRow(ctx, `
		INSERT INTO governorates (name, description) VALUES ($1,$2)
		RETURNING id
	`, name, description).Scan(&g.ID)
	return g, err
}

func (r *Repository) UpdateGovernorate(ctx context.Context, id uuid.UUID, name, description string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE governorates SET name = $1, description = $2 WHERE id = $3
	`, name, description, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteGovernorate(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM governorates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GovernorateHasDependents reports whether any region, survey link, or
// governorate-admin grant still references the governorate.
func (r *Repository) GovernorateHasDependents(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM health_regions WHERE governorate_id = $1)
		    OR EXISTS (SELECT 1 FROM survey_governorates WHERE governorate_id = $1)
		    OR EXISTS (SELECT 1 FROM governorate_admins WHERE governorate_id = $1)
	`, id).Scan(&exists)
	return exists, err
}

func (r *Repository) ListRegions(ctx context.Context) ([]Region, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT h.id, h.name, h.description, h.governorate_id, g.name
		FROM health_regions h
		JOIN governorates g ON g.id = h.governorate_id
		ORDER BY g.name, h.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regions []Region
	for rows.Next() {
		var reg Region
		if err := rows.Scan(&reg.ID, &reg.Name, &reg.Description, &reg.GovernorateID, &reg.GovernorateName); err != nil {
			return nil, err
		}
		regions = append(regions, reg)
	}
	return regions, rows.Err()
}

func (r *Repository) GetRegion(ctx context.Context, id uuid.UUID) (Region, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var reg Region
	err := r.db.QueryRow(ctx, `
		SELECT h.id, h.name, h.description, h.governorate_id, g.name
		FROM health_regions h
		JOIN governorates g ON g.id = h.governorate_id
		WHERE h.id = $1
	`, id).Scan(&reg.ID, &reg.Name, &reg.Description, &reg.GovernorateID, &reg.GovernorateName)
	if errors.Is(err, pgx.ErrNoRows) {
		return reg, domain.ErrNotFound
	}
	return reg, err
}

func (r *Repository) RegionNameExists(ctx context.Context, name string, governorateID, exclude uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM health_regions
			WHERE name = $1 AND governorate_id = $2 AND id <> $3
		)
	`, name, governorateID, exclude).Scan(&exists)
	return exists, err
}

func (r *Repository) CreateRegion(ctx context.Context, name, description string, governorateID uuid.UUID) (Region, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	reg := Region{Name: name, Description: description, GovernorateID: governorateID}
	err := r.db.QueryRow(ctx, `
		INSERT INTO health_regions (name, description, governorate_id) VALUES ($1,$2,$3)
		RETURNING id
	`, name, description, governorateID).Scan(&reg.ID)
	return reg, err
}

func (r *Repository) UpdateRegion(ctx context.Context, id uuid.UUID, name, description string, governorateID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE health_regions SET name = $1, description = $2, governorate_id = $3 WHERE id = $4
	`, name, description, governorateID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteRegion(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM health_regions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RegionHasDependents reports whether any user assignment or response still
// references the region.
func (r *Repository) RegionHasDependents(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE assigned_region = $1)
		    OR EXISTS (SELECT 1 FROM responses WHERE region_id = $1)
	`, id).Scan(&exists)
	return exists, err
}
