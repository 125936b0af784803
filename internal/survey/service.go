package survey

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/govhealth/fieldsurvey/internal/audit"
	"github.com/govhealth/fieldsurvey/internal/domain"
)

const fieldsCacheTTL = time.Minute

// SchemaStore is the persistence contract for survey schemas.
type SchemaStore interface {
	Create(ctx context.Context, in CreateInput, createdBy uuid.UUID) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (Survey, error)
	List(ctx context.Context) ([]Survey, error)
	ListEnabled(ctx context.Context, governorateID uuid.UUID) ([]Survey, error)
	ListFields(ctx context.Context, surveyID uuid.UUID) ([]Field, error)
	Update(ctx context.Context, id uuid.UUID, in CreateInput) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	EnabledGovernorateIDs(ctx context.Context, surveyID uuid.UUID) ([]uuid.UUID, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, actorID uuid.UUID, action, table string, recordID uuid.UUID, oldValue, newValue any) error
}

// ScopeResolver is the scoping engine's read surface: governorate
// resolution and the per-user grant check.
type ScopeResolver interface {
	GovernorateOf(ctx context.Context, userID uuid.UUID, role domain.Role) (uuid.UUID, error)
	AuthorizeSubmission(ctx context.Context, userID, surveyID uuid.UUID) error
}

// Service owns the survey schema lifecycle. Schema mutations are
// admin-only and always audited.
type Service struct {
	store  SchemaStore
	audit  AuditRecorder
	scopes ScopeResolver
	cache  *redis.Client
}

func NewService(store SchemaStore, recorder AuditRecorder, scopes ScopeResolver, cache *redis.Client) *Service {
	return &Service{store: store, audit: recorder, scopes: scopes, cache: cache}
}

func (s *Service) Create(ctx context.Context, actor domain.Actor, in CreateInput) (Definition, error) {
	if actor.Role != domain.RoleAdmin {
		return Definition{}, domain.ErrForbidden
	}

	in.Name = strings.TrimSpace(in.Name)
	if err := validateSchema(in); err != nil {
		return Definition{}, err
	}
	for i := range in.Fields {
		in.Fields[i].Order = i + 1
	}

	id, err := s.store.Create(ctx, in, actor.ID)
	if err != nil {
		return Definition{}, err
	}

	def, err := s.definition(ctx, id)
	if err != nil {
		return Definition{}, err
	}

	if err := s.audit.Record(ctx, actor.ID, audit.ActionInsert, audit.TableSurveys, id, nil, def); err != nil {
		return def, &domain.AuditWriteError{Err: err}
	}
	return def, nil
}

func (s *Service) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, in CreateInput) (Definition, error) {
	if actor.Role != domain.RoleAdmin {
		return Definition{}, domain.ErrForbidden
	}

	before, err := s.definition(ctx, id)
	if err != nil {
		return Definition{}, err
	}

	in.Name = strings.TrimSpace(in.Name)
	if err := validateSchema(in); err != nil {
		return Definition{}, err
	}
	assignFieldOrders(before.Fields, in.Fields)

	if err := s.store.Update(ctx, id, in); err != nil {
		return Definition{}, err
	}

	s.invalidateFields(ctx, id)

	after, err := s.definition(ctx, id)
	if err != nil {
		return Definition{}, err
	}

	if err := s.audit.Record(ctx, actor.ID, audit.ActionUpdate, audit.TableSurveys, id, before, after); err != nil {
		return after, &domain.AuditWriteError{Err: err}
	}
	return after, nil
}

func (s *Service) SetActive(ctx context.Context, actor domain.Actor, id uuid.UUID, active bool) error {
	if actor.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}

	before, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.SetActive(ctx, id, active); err != nil {
		return err
	}

	after := before
	after.IsActive = active
	if err := s.audit.Record(ctx, actor.ID, audit.ActionUpdate, audit.TableSurveys, id, before, after); err != nil {
		return &domain.AuditWriteError{Err: err}
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	if actor.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}

	before, err := s.definition(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateFields(ctx, id)

	if err := s.audit.Record(ctx, actor.ID, audit.ActionDelete, audit.TableSurveys, id, before, nil); err != nil {
		return &domain.AuditWriteError{Err: err}
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Definition, error) {
	header, err := s.store.Get(ctx, id)
	if err != nil {
		return Definition{}, err
	}

	fields, err := s.Fields(ctx, id)
	if err != nil {
		return Definition{}, err
	}

	return Definition{Survey: header, Fields: fields}, nil
}

// GetForEmployee serves the renderable definition of a granted survey.
func (s *Service) GetForEmployee(ctx context.Context, actor domain.Actor, id uuid.UUID) (Definition, error) {
	if err := s.scopes.AuthorizeSubmission(ctx, actor.ID, id); err != nil {
		return Definition{}, err
	}
	return s.Get(ctx, id)
}

// FieldsForEmployee serves the ordered questions of a granted survey.
func (s *Service) FieldsForEmployee(ctx context.Context, actor domain.Actor, id uuid.UUID) ([]Field, error) {
	if err := s.scopes.AuthorizeSubmission(ctx, actor.ID, id); err != nil {
		return nil, err
	}
	return s.Fields(ctx, id)
}

// List returns every survey for platform admins, or the surveys enabled
// for the caller's governorate for governorate admins.
func (s *Service) List(ctx context.Context, actor domain.Actor) ([]Survey, error) {
	switch actor.Role {
	case domain.RoleAdmin:
		return s.store.List(ctx)
	case domain.RoleGovernorateAdmin:
		govID, err := s.scopes.GovernorateOf(ctx, actor.ID, actor.Role)
		if err != nil {
			return nil, err
		}
		return s.store.ListEnabled(ctx, govID)
	default:
		return nil, domain.ErrForbidden
	}
}

// EnabledGovernorateIDs lists the governorates a survey is enabled for.
func (s *Service) EnabledGovernorateIDs(ctx context.Context, surveyID uuid.UUID) ([]uuid.UUID, error) {
	return s.store.EnabledGovernorateIDs(ctx, surveyID)
}

// Fields returns the ordered questions, served from cache when warm.
func (s *Service) Fields(ctx context.Context, surveyID uuid.UUID) ([]Field, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, fieldsKey(surveyID)).Bytes()
		if err == nil {
			var cached []Field
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("survey fields cache read failed")
		}
	}

	fields, err := s.store.ListFields(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(fields); err == nil {
			if err := s.cache.Set(ctx, fieldsKey(surveyID), raw, fieldsCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("survey fields cache write failed")
			}
		}
	}

	return fields, nil
}

// definition bypasses the cache so audit snapshots always reflect the
// database state.
func (s *Service) definition(ctx context.Context, id uuid.UUID) (Definition, error) {
	header, err := s.store.Get(ctx, id)
	if err != nil {
		return Definition{}, err
	}
	fields, err := s.store.ListFields(ctx, id)
	if err != nil {
		return Definition{}, err
	}
	return Definition{Survey: header, Fields: fields}, nil
}

func (s *Service) invalidateFields(ctx context.Context, surveyID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, fieldsKey(surveyID)).Err(); err != nil {
		log.Warn().Err(err).Msg("survey fields cache invalidation failed")
	}
}

// assignFieldOrders keeps the position of fields edited in place and
// appends new fields after the current highest position.
func assignFieldOrders(existing []Field, edits []FieldInput) {
	orders := make(map[uuid.UUID]int, len(existing))
	maxOrder := 0
	for _, f := range existing {
		orders[f.ID] = f.Order
		if f.Order > maxOrder {
			maxOrder = f.Order
		}
	}
	for i, f := range edits {
		if f.ID != nil {
			if order, ok := orders[*f.ID]; ok {
				edits[i].Order = order
				continue
			}
		}
		maxOrder++
		edits[i].Order = maxOrder
	}
}

func validateSchema(in CreateInput) error {
	var missing []string
	if in.Name == "" {
		missing = append(missing, "name")
	}
	for _, f := range in.Fields {
		if strings.TrimSpace(f.Label) == "" {
			missing = append(missing, "label")
			continue
		}
		if !f.Type.Valid() {
			return &domain.ValidationError{Reason: "unknown field type: " + string(f.Type)}
		}
		if f.Type == FieldDropdown && len(f.Options) == 0 {
			return &domain.ValidationError{Reason: "dropdown field requires options: " + f.Label}
		}
	}
	if len(missing) > 0 {
		return &domain.ValidationError{Reason: "required fields missing", Missing: missing}
	}
	return nil
}

func fieldsKey(surveyID uuid.UUID) string {
	return "fieldsurvey:fields:" + surveyID.String()
}
