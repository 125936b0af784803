package user

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/govhealth/fieldsurvey/internal/auth"
	"github.com/govhealth/fieldsurvey/internal/domain"
)

// EnsureAdmin seeds the platform admin account on first boot. It does
// nothing when the account already exists or no password is configured.
func EnsureAdmin(ctx context.Context, repo *Repository, password string) error {
	if password == "" {
		return nil
	}

	exists, err := repo.UsernameExists(ctx, "admin", uuid.Nil)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	hash, err := auth.Hash(password)
	if err != nil {
		return err
	}

	id, err := repo.Create(ctx, User{
		Username: "admin",
		FullName: "Platform Administrator",
		Role:     domain.RoleAdmin,
	}, hash)
	if err != nil {
		return err
	}

	log.Info().Str("user_id", id.String()).Msg("admin account seeded")
	return nil
}
