package user

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

func (r *Repository) GetCredentialsByUsername(ctx context.Context, username string) (Credentials, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var creds Credentials
	err := r.pool.QueryRow(ctx, `
        SELECT id, username, full_name, role, password_hash
          FROM users
         WHERE username = $1`, username).
		Scan(&creds.ID, &creds.Username, &creds.FullName, &creds.Role, &creds.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return Credentials{}, domain.ErrNotFound
	}
	if err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var u User
	err := r.pool.QueryRow(ctx, `
        SELECT u.id, u.username, u.full_name, u.role, u.assigned_region, hr.name,
               u.last_login, u.created_at
          FROM users u
          LEFT JOIN health_regions hr ON hr.id = u.assigned_region
         WHERE u.id = $1`, id).
		Scan(&u.ID, &u.Username, &u.FullName, &u.Role, &u.AssignedRegion, &u.RegionName,
			&u.LastLogin, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, domain.ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (r *Repository) UsernameExists(ctx context.Context, username string, exclude uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND id <> $2)`,
		username, exclude).Scan(&exists)
	return exists, err
}

func (r *Repository) Create(ctx context.Context, u User, passwordHash string) (uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
        INSERT INTO users (username, password_hash, full_name, role, assigned_region)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id`,
		u.Username, passwordHash, u.FullName, u.Role, u.AssignedRegion).Scan(&id)
	return id, err
}

// Update rewrites the mutable profile columns. An empty passwordHash
// keeps the current one.
func (r *Repository) Update(ctx context.Context, u User, passwordHash string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `
        UPDATE users
           SET username = $1,
               full_name = $2,
               role = $3,
               assigned_region = $4,
               password_hash = CASE WHEN $5 = '' THEN password_hash ELSE $5 END
         WHERE id = $6`,
		u.Username, u.FullName, u.Role, u.AssignedRegion, passwordHash, u.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context) ([]User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
        SELECT u.id, u.username, u.full_name, u.role, u.assigned_region, hr.name,
               u.last_login, u.created_at
          FROM users u
          LEFT JOIN health_regions hr ON hr.id = u.assigned_region
         ORDER BY u.username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUsers(rows)
}

// ListGovernorateEmployees returns the employees whose assigned region
// belongs to the given governorate.
func (r *Repository) ListGovernorateEmployees(ctx context.Context, governorateID uuid.UUID) ([]User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
        SELECT u.id, u.username, u.full_name, u.role, u.assigned_region, hr.name,
               u.last_login, u.created_at
          FROM users u
          JOIN health_regions hr ON hr.id = u.assigned_region
         WHERE u.role = $1 AND hr.governorate_id = $2
         ORDER BY u.username`, domain.RoleEmployee, governorateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUsers(rows)
}

func scanUsers(rows pgx.Rows) ([]User, error) {
	users := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.FullName, &u.Role, &u.AssignedRegion,
			&u.RegionName, &u.LastLogin, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetGovernorateAdmin replaces the governorate binding for an admin user.
// A nil governorate clears any existing binding.
func (r *Repository) SetGovernorateAdmin(ctx context.Context, userID uuid.UUID, governorateID *uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM governorate_admins WHERE user_id = $1`, userID); err != nil {
			return err
		}
		if governorateID == nil {
			return nil
		}
		_, err := tx.Exec(ctx, `
            INSERT INTO governorate_admins (user_id, governorate_id)
            VALUES ($1, $2)`, userID, *governorateID)
		return err
	})
}

// GovernorateAdminOf returns the governorate a governorate admin manages.
func (r *Repository) GovernorateAdminOf(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
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

func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login = NOW() WHERE id = $1`, id)
	return err
}
