package scope

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/govhealth/fieldsurvey/internal/audit"
	"github.com/govhealth/fieldsurvey/internal/domain"
)

// HierarchyStore is the persistence surface the service needs.
type HierarchyStore interface {
	ListGovernorates(ctx context.Context) ([]Governorate, error)
	GetGovernorate(ctx context.Context, id uuid.UUID) (Governorate, error)
	GovernorateNameExists(ctx context.Context, name string, exclude uuid.UUID) (bool, error)
	CreateGovernorate(ctx context.Context, name, description string) (Governorate, error)
	UpdateGovernorate(ctx context.Context, id uuid.UUID, name, description string) error
	DeleteGovernorate(ctx context.Context, id uuid.UUID) error
	GovernorateHasDependents(ctx context.Context, id uuid.UUID) (bool, error)

	ListRegions(ctx context.Context) ([]Region, error)
	GetRegion(ctx context.Context, id uuid.UUID) (Region, error)
	RegionNameExists(ctx context.Context, name string, governorateID, exclude uuid.UUID) (bool, error)
	CreateRegion(ctx context.Context, name, description string, governorateID uuid.UUID) (Region, error)
	UpdateRegion(ctx context.Context, id uuid.UUID, name, description string, governorateID uuid.UUID) error
	DeleteRegion(ctx context.Context, id uuid.UUID) error
	RegionHasDependents(ctx context.Context, id uuid.UUID) (bool, error)
}

// AuditRecorder appends one audit entry for an administrative mutation.
type AuditRecorder interface {
	Record(ctx context.Context, actorID uuid.UUID, action, table string, recordID uuid.UUID, oldValue, newValue any) error
}

// Service holds the hierarchy rules: name uniqueness inside a scope and
// refusal to delete records that still have dependents.
type Service struct {
	store HierarchyStore
	trail AuditRecorder
}

func NewService(store HierarchyStore, trail AuditRecorder) *Service {
	return &Service{store: store, trail: trail}
}

func (s *Service) ListGovernorates(ctx context.Context) ([]Governorate, error) {
	return s.store.ListGovernorates(ctx)
}

func (s *Service) GetGovernorate(ctx context.Context, id uuid.UUID) (Governorate, error) {
	return s.store.GetGovernorate(ctx, id)
}

func (s *Service) CreateGovernorate(ctx context.Context, actor domain.Actor, name, description string) (Governorate, error) {
	if err := requireAdmin(actor); err != nil {
		return Governorate{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Governorate{}, &domain.ValidationError{Reason: "governorate name is required"}
	}

	taken, err := s.store.GovernorateNameExists(ctx, name, uuid.Nil)
	if err != nil {
		return Governorate{}, err
	}
	if taken {
		return Governorate{}, domain.ErrConflict
	}

	g, err := s.store.CreateGovernorate(ctx, name, description)
	if err != nil {
		return Governorate{}, err
	}

	if err := s.trail.Record(ctx, actor.ID, audit.ActionInsert, audit.TableGovernorates, g.ID, nil, g); err != nil {
		return g, &domain.AuditWriteError{Err: err}
	}
	return g, nil
}

func (s *Service) UpdateGovernorate(ctx context.Context, actor domain.Actor, id uuid.UUID, name, description string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return &domain.ValidationError{Reason: "governorate name is required"}
	}

	old, err := s.store.GetGovernorate(ctx, id)
	if err != nil {
		return err
	}

	taken, err := s.store.GovernorateNameExists(ctx, name, id)
	if err != nil {
		return err
	}
	if taken {
		return domain.ErrConflict
	}

	if err := s.store.UpdateGovernorate(ctx, id, name, description); err != nil {
		return err
	}

	updated := Governorate{ID: id, Name: name, Description: description}
	if err := s.trail.Record(ctx, actor.ID, audit.ActionUpdate, audit.TableGovernorates, id, old, updated); err != nil {
		return &domain.AuditWriteError{Err: err}
	}
	return nil
}

func (s *Service) DeleteGovernorate(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	old, err := s.store.GetGovernorate(ctx, id)
	if err != nil {
		return err
	}

	busy, err := s.store.GovernorateHasDependents(ctx, id)
	if err != nil {
		return err
	}
	if busy {
		return domain.ErrHasDependents
	}

	if err := s.store.DeleteGovernorate(ctx, id); err != nil {
		return err
	}

	if err := s.trail.Record(ctx, actor.ID, audit.ActionDelete, audit.TableGovernorates, id, old, nil); err != nil {
		return &domain.AuditWriteError{Err: err}
	}
	return nil
}

func (s *Service) ListRegions(ctx context.Context) ([]Region, error) {
	return s.store.ListRegions(ctx)
}

func (s *Service) GetRegion(ctx context.Context, id uuid.UUID) (Region, error) {
	return s.store.GetRegion(ctx, id)
}

func (s *Service) CreateRegion(ctx context.Context, actor domain.Actor, name, description string, governorateID uuid.UUID) (Region, error) {
	if err := requireAdmin(actor); err != nil {
		return Region{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Region{}, &domain.ValidationError{Reason: "region name is required"}
	}

	if _, err := s.store.GetGovernorate(ctx, governorateID); err != nil {
		return Region{}, err
	}

	taken, err := s.store.RegionNameExists(ctx, name, governorateID, uuid.Nil)
	if err != nil {
		return Region{}, err
	}
	if taken {
		return Region{}, domain.ErrConflict
	}

	reg, err := s.store.CreateRegion(ctx, name, description, governorateID)
	if err != nil {
		return Region{}, err
	}

	if err := s.trail.Record(ctx, actor.ID, audit.ActionInsert, audit.TableRegions, reg.ID, nil, reg); err != nil {
		return reg, &domain.AuditWriteError{Err: err}
	}
	return reg, nil
}

func (s *Service) UpdateRegion(ctx context.Context, actor domain.Actor, id uuid.UUID, name, description string, governorateID uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return &domain.ValidationError{Reason: "region name is required"}
	}

	old, err := s.store.GetRegion(ctx, id)
	if err != nil {
		return err
	}

	taken, err := s.store.RegionNameExists(ctx, name, governorateID, id)
	if err != nil {
		return err
	}
	if taken {
		return domain.ErrConflict
	}

	if err := s.store.UpdateRegion(ctx, id, name, description, governorateID); err != nil {
		return err
	}

	updated := Region{ID: id, Name: name, Description: description, GovernorateID: governorateID}
	if err := s.trail.Record(ctx, actor.ID, audit.ActionUpdate, audit.TableRegions, id, old, updated); err != nil {
		return &domain.AuditWriteError{Err: err}
	}
	return nil
}

func (s *Service) DeleteRegion(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	old, err := s.store.GetRegion(ctx, id)
	if err != nil {
		return err
	}

	busy, err := s.store.RegionHasDependents(ctx, id)
	if err != nil {
		return err
	}
	if busy {
		return domain.ErrHasDependents
	}

	if err := s.store.DeleteRegion(ctx, id); err != nil {
		return err
	}

	if err := s.trail.Record(ctx, actor.ID, audit.ActionDelete, audit.TableRegions, id, old, nil); err != nil {
		return &domain.AuditWriteError{Err: err}
	}
	return nil
}

func requireAdmin(actor domain.Actor) error {
	if actor.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}
	return nil
}
