package user

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/govhealth/fieldsurvey/internal/audit"
	"github.com/govhealth/fieldsurvey/internal/auth"
	"github.com/govhealth/fieldsurvey/internal/domain"
)

// AccountStore is the persistence contract used by the service.
type AccountStore interface {
	GetCredentialsByUsername(ctx context.Context, username string) (Credentials, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	UsernameExists(ctx context.Context, username string, exclude uuid.UUID) (bool, error)
	Create(ctx context.Context, u User, passwordHash string) (uuid.UUID, error)
	Update(ctx context.Context, u User, passwordHash string) error
	List(ctx context.Context) ([]User, error)
	ListGovernorateEmployees(ctx context.Context, governorateID uuid.UUID) ([]User, error)
	SetGovernorateAdmin(ctx context.Context, userID uuid.UUID, governorateID *uuid.UUID) error
	GovernorateAdminOf(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
}

type AuditRecorder interface {
	Record(ctx context.Context, actorID uuid.UUID, action, table string, recordID uuid.UUID, oldValue, newValue any) error
}

type Service struct {
	store AccountStore
	audit AuditRecorder
	jwt   *auth.JWTManager
}

func NewService(store AccountStore, recorder AuditRecorder, jwt *auth.JWTManager) *Service {
	return &Service{store: store, audit: recorder, jwt: jwt}
}

// CreateInput carries the fields accepted when creating or updating
// an account. Password is optional on update.
type CreateInput struct {
	Username       string      `json:"username"`
	Password       string      `json:"password"`
	FullName       string      `json:"full_name"`
	Role           domain.Role `json:"role"`
	AssignedRegion *uuid.UUID  `json:"assigned_region"`
	GovernorateID  *uuid.UUID  `json:"governorate_id"`
}

// LoginResult is what a successful authentication returns.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	creds, err := s.store.GetCredentialsByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return LoginResult{}, domain.ErrForbidden
		}
		return LoginResult{}, err
	}

	match, err := auth.Verify(password, creds.PasswordHash)
	if err != nil || !match {
		return LoginResult{}, domain.ErrForbidden
	}

	token, err := s.jwt.GenerateAccessToken(creds.ID.String(), string(creds.Role))
	if err != nil {
		return LoginResult{}, err
	}

	if err := s.store.UpdateLastLogin(ctx, creds.ID); err != nil {
		log.Warn().Err(err).Str("user_id", creds.ID.String()).Msg("last_login update failed")
	}

	u, err := s.store.GetByID(ctx, creds.ID)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{AccessToken: token, User: u}, nil
}

func (s *Service) Create(ctx context.Context, actor domain.Actor, in CreateInput) (User, error) {
	if actor.Role != domain.RoleAdmin {
		return User{}, domain.ErrForbidden
	}

	in.Username = strings.TrimSpace(in.Username)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validateInput(in, true); err != nil {
		return User{}, err
	}

	taken, err := s.store.UsernameExists(ctx, in.Username, uuid.Nil)
	if err != nil {
		return User{}, err
	}
	if taken {
		return User{}, domain.ErrConflict
	}

	hash, err := auth.Hash(in.Password)
	if err != nil {
		return User{}, err
	}

	u := User{
		Username:       in.Username,
		FullName:       in.FullName,
		Role:           in.Role,
		AssignedRegion: regionFor(in),
	}
	id, err := s.store.Create(ctx, u, hash)
	if err != nil {
		return User{}, err
	}

	if in.Role == domain.RoleGovernorateAdmin {
		if err := s.store.SetGovernorateAdmin(ctx, id, in.GovernorateID); err != nil {
			return User{}, err
		}
	}

	created, err := s.store.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	if err := s.audit.Record(ctx, actor.ID, audit.ActionInsert, audit.TableUsers, id, nil, created); err != nil {
		return created, &domain.AuditWriteError{Err: err}
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, in CreateInput) (User, error) {
	if actor.Role != domain.RoleAdmin {
		return User{}, domain.ErrForbidden
	}

	before, err := s.store.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	in.Username = strings.TrimSpace(in.Username)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validateInput(in, false); err != nil {
		return User{}, err
	}

	taken, err := s.store.UsernameExists(ctx, in.Username, id)
	if err != nil {
		return User{}, err
	}
	if taken {
		return User{}, domain.ErrConflict
	}

	var hash string
	if in.Password != "" {
		if hash, err = auth.Hash(in.Password); err != nil {
			return User{}, err
		}
	}

	u := User{
		ID:             id,
		Username:       in.Username,
		FullName:       in.FullName,
		Role:           in.Role,
		AssignedRegion: regionFor(in),
	}
	if err := s.store.Update(ctx, u, hash); err != nil {
		return User{}, err
	}

	// The binding table must track role changes. Demoting a governorate
	// admin clears the row, promoting one creates it.
	if in.Role == domain.RoleGovernorateAdmin {
		if err := s.store.SetGovernorateAdmin(ctx, id, in.GovernorateID); err != nil {
			return User{}, err
		}
	} else if before.Role == domain.RoleGovernorateAdmin {
		if err := s.store.SetGovernorateAdmin(ctx, id, nil); err != nil {
			return User{}, err
		}
	}

	after, err := s.store.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	if err := s.audit.Record(ctx, actor.ID, audit.ActionUpdate, audit.TableUsers, id, before, after); err != nil {
		return after, &domain.AuditWriteError{Err: err}
	}
	return after, nil
}

func (s *Service) Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (User, error) {
	if actor.Role != domain.RoleAdmin && actor.ID != id {
		return User{}, domain.ErrForbidden
	}
	return s.store.GetByID(ctx, id)
}

// List returns every account for platform admins, or the employees of
// the caller's governorate for governorate admins.
func (s *Service) List(ctx context.Context, actor domain.Actor) ([]User, error) {
	switch actor.Role {
	case domain.RoleAdmin:
		return s.store.List(ctx)
	case domain.RoleGovernorateAdmin:
		govID, err := s.store.GovernorateAdminOf(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrUnscopedUser
			}
			return nil, err
		}
		return s.store.ListGovernorateEmployees(ctx, govID)
	default:
		return nil, domain.ErrForbidden
	}
}

func validateInput(in CreateInput, requirePassword bool) error {
	var missing []string
	if in.Username == "" {
		missing = append(missing, "username")
	}
	if in.FullName == "" {
		missing = append(missing, "full_name")
	}
	if requirePassword && in.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return &domain.ValidationError{Reason: "required fields missing", Missing: missing}
	}
	if !in.Role.Valid() {
		return &domain.ValidationError{Reason: "unknown role"}
	}
	if in.Role == domain.RoleEmployee && in.AssignedRegion == nil {
		return &domain.ValidationError{Reason: "employees require an assigned region", Missing: []string{"assigned_region"}}
	}
	if in.Role == domain.RoleGovernorateAdmin && in.GovernorateID == nil {
		return &domain.ValidationError{Reason: "governorate admins require a governorate", Missing: []string{"governorate_id"}}
	}
	return nil
}

func regionFor(in CreateInput) *uuid.UUID {
	if in.Role != domain.RoleEmployee {
		return nil
	}
	return in.AssignedRegion
}
