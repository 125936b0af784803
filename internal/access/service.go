package access

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/govhealth/fieldsurvey/internal/audit"
	"github.com/govhealth/fieldsurvey/internal/domain"
)

const allowedCacheTTL = 5 * time.Minute

// ScopeStore is the persistence contract used by the scoping engine.
type ScopeStore interface {
	GovernorateForEmployee(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	GovernorateForAdmin(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	EnabledSurveyIDs(ctx context.Context, governorateID uuid.UUID) ([]uuid.UUID, error)
	GrantedSurveyIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ReplaceGrants(ctx context.Context, userID uuid.UUID, surveyIDs []uuid.UUID) error
	AllowedSurveys(ctx context.Context, userID uuid.UUID) ([]SurveySummary, error)
	IsSurveyAllowed(ctx context.Context, userID, surveyID uuid.UUID) (bool, error)
	UserRole(ctx context.Context, userID uuid.UUID) (domain.Role, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, actorID uuid.UUID, action, table string, recordID uuid.UUID, oldValue, newValue any) error
}

// Service decides which surveys a user can see and submit. It never
// widens a grant beyond the governorate's enabled set.
type Service struct {
	store ScopeStore
	audit AuditRecorder
	cache *redis.Client
}

func NewService(store ScopeStore, recorder AuditRecorder, cache *redis.Client) *Service {
	return &Service{store: store, audit: recorder, cache: cache}
}

// GovernorateOf resolves the governorate scope of a user by role.
// Platform admins have no single governorate and resolve to an error.
func (s *Service) GovernorateOf(ctx context.Context, userID uuid.UUID, role domain.Role) (uuid.UUID, error) {
	var (
		id  uuid.UUID
		err error
	)
	switch role {
	case domain.RoleEmployee:
		id, err = s.store.GovernorateForEmployee(ctx, userID)
	case domain.RoleGovernorateAdmin:
		id, err = s.store.GovernorateForAdmin(ctx, userID)
	default:
		return uuid.Nil, domain.ErrUnscopedUser
	}
	if errors.Is(err, domain.ErrNotFound) {
		return uuid.Nil, domain.ErrUnscopedUser
	}
	return id, err
}

// AuthorizeAdmin checks that the actor may administer the target
// governorate. Platform admins always pass, governorate admins only
// for their own governorate.
func (s *Service) AuthorizeAdmin(ctx context.Context, actor domain.Actor, governorateID uuid.UUID) error {
	switch actor.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleGovernorateAdmin:
		own, err := s.GovernorateOf(ctx, actor.ID, actor.Role)
		if err != nil {
			return err
		}
		if own != governorateID {
			return domain.ErrForbidden
		}
		return nil
	default:
		return domain.ErrForbidden
	}
}

// Grant replaces a user's survey assignments with the intersection of
// the requested set and the surveys enabled for the user's governorate.
// Requested surveys outside that set are dropped, not rejected.
func (s *Service) Grant(ctx context.Context, actor domain.Actor, targetID uuid.UUID, requested []uuid.UUID) (Grant, error) {
	targetRole, err := s.store.UserRole(ctx, targetID)
	if err != nil {
		return Grant{}, err
	}

	govID, err := s.GovernorateOf(ctx, targetID, targetRole)
	if err != nil {
		return Grant{}, err
	}

	if err := s.AuthorizeAdmin(ctx, actor, govID); err != nil {
		return Grant{}, err
	}

	enabled, err := s.store.EnabledSurveyIDs(ctx, govID)
	if err != nil {
		return Grant{}, err
	}
	enabledSet := make(map[uuid.UUID]struct{}, len(enabled))
	for _, id := range enabled {
		enabledSet[id] = struct{}{}
	}

	granted := make([]uuid.UUID, 0, len(requested))
	ignored := make([]uuid.UUID, 0)
	seen := make(map[uuid.UUID]struct{}, len(requested))
	for _, id := range requested {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := enabledSet[id]; ok {
			granted = append(granted, id)
		} else {
			ignored = append(ignored, id)
		}
	}

	before, err := s.store.GrantedSurveyIDs(ctx, targetID)
	if err != nil {
		return Grant{}, err
	}

	if err := s.store.ReplaceGrants(ctx, targetID, granted); err != nil {
		return Grant{}, err
	}

	s.invalidateAllowed(ctx, targetID)

	result := Grant{UserID: targetID, Granted: granted, Ignored: ignored}
	if err := s.audit.Record(ctx, actor.ID, audit.ActionUpdate, audit.TableUserSurveys, targetID, before, granted); err != nil {
		return result, &domain.AuditWriteError{Err: err}
	}
	return result, nil
}

// GrantedIDs returns the raw assignment set for the admin view.
func (s *Service) GrantedIDs(ctx context.Context, actor domain.Actor, targetID uuid.UUID) ([]uuid.UUID, error) {
	targetRole, err := s.store.UserRole(ctx, targetID)
	if err != nil {
		return nil, err
	}

	govID, err := s.GovernorateOf(ctx, targetID, targetRole)
	if err != nil {
		return nil, err
	}
	if err := s.AuthorizeAdmin(ctx, actor, govID); err != nil {
		return nil, err
	}
	return s.store.GrantedSurveyIDs(ctx, targetID)
}

// Allowed returns the active surveys a user can fill. Results are
// cached briefly; the cache is dropped whenever grants change.
func (s *Service) Allowed(ctx context.Context, userID uuid.UUID) ([]SurveySummary, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, allowedKey(userID)).Bytes()
		if err == nil {
			var cached []SurveySummary
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("allowed surveys cache read failed")
		}
	}

	surveys, err := s.store.AllowedSurveys(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(surveys); err == nil {
			if err := s.cache.Set(ctx, allowedKey(userID), raw, allowedCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("allowed surveys cache write failed")
			}
		}
	}

	return surveys, nil
}

// AuthorizeSubmission gates a response submission on a live grant. The
// grant is re-checked against the governorate's enabled set so a row
// that outlives a scope edit never authorizes anything.
func (s *Service) AuthorizeSubmission(ctx context.Context, userID, surveyID uuid.UUID) error {
	allowed, err := s.store.IsSurveyAllowed(ctx, userID, surveyID)
	if err != nil {
		return err
	}
	if !allowed {
		return domain.ErrForbidden
	}

	govID, err := s.GovernorateOf(ctx, userID, domain.RoleEmployee)
	if err != nil {
		return err
	}
	enabled, err := s.store.EnabledSurveyIDs(ctx, govID)
	if err != nil {
		return err
	}
	for _, id := range enabled {
		if id == surveyID {
			return nil
		}
	}
	return domain.ErrForbidden
}

func (s *Service) invalidateAllowed(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, allowedKey(userID)).Err(); err != nil {
		log.Warn().Err(err).Msg("allowed surveys cache invalidation failed")
	}
}

func allowedKey(userID uuid.UUID) string {
	return "fieldsurvey:allowed:" + userID.String()
}
