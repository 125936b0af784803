package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the schema when it does not exist yet. Statements are
// idempotent and ordered so foreign keys resolve.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS governorates (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS health_regions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			governorate_id UUID NOT NULL REFERENCES governorates(id),
			UNIQUE (name, governorate_id)
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			full_name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL,
			assigned_region UUID REFERENCES health_regions(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_login TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS governorate_admins (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id),
			governorate_id UUID NOT NULL REFERENCES governorates(id),
			UNIQUE (user_id, governorate_id)
		)`,
		`CREATE TABLE IF NOT EXISTS surveys (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_by UUID NOT NULL REFERENCES users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS survey_fields (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			survey_id UUID NOT NULL REFERENCES surveys(id),
			field_type TEXT NOT NULL,
			label TEXT NOT NULL,
			options TEXT,
			required BOOLEAN NOT NULL DEFAULT FALSE,
			field_order INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS survey_governorates (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			survey_id UUID NOT NULL REFERENCES surveys(id),
			governorate_id UUID NOT NULL REFERENCES governorates(id),
			UNIQUE (survey_id, governorate_id)
		)`,
		`CREATE TABLE IF NOT EXISTS user_surveys (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id),
			survey_id UUID NOT NULL REFERENCES surveys(id),
			UNIQUE (user_id, survey_id)
		)`,
		`CREATE TABLE IF NOT EXISTS responses (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			survey_id UUID NOT NULL REFERENCES surveys(id),
			user_id UUID NOT NULL REFERENCES users(id),
			region_id UUID NOT NULL REFERENCES health_regions(id),
			submission_date TIMESTAMPTZ NOT NULL DEFAULT now(),
			is_completed BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS response_details (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			response_id UUID NOT NULL REFERENCES responses(id),
			field_id UUID NOT NULL REFERENCES survey_fields(id),
			answer_value TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id),
			action_type TEXT NOT NULL,
			table_name TEXT NOT NULL,
			record_id UUID,
			old_value TEXT,
			new_value TEXT,
			action_timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_daily
			ON responses (user_id, survey_id, submission_date)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_timestamp
			ON audit_log (action_timestamp DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
