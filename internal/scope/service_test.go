package scope

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/govhealth/fieldsurvey/internal/domain"
)

type stubStore struct {
	governorates    map[uuid.UUID]Governorate
	regions         map[uuid.UUID]Region
	nameTaken       bool
	hasDependents   bool
	deleted         []uuid.UUID
	createdGovName  string
	createdRegoName string
}

func newStubStore() *stubStore {
	return &stubStore{
		governorates: make(map[uuid.UUID]Governorate),
		regions:      make(map[uuid.UUID]Region),
	}
}

func (s *stubStore) ListGovernorates(context.Context) ([]Governorate, error) { return nil, nil }

func (s *stubStore) GetGovernorate(_ context.Context, id uuid.UUID) (Governorate, error) {
	g, ok := s.governorates[id]
	if !ok {
		return Governorate{}, domain.ErrNotFound
	}
	return g, nil
}

func (s *stubStore) GovernorateNameExists(context.Context, string, uuid.UUID) (bool, error) {
	return s.nameTaken, nil
}

func (s *stubStore) CreateGovernorate(_ context.Context, name, description string) (Governorate, error) {
	g := Governorate{ID: uuid.New(), Name: name, Description: description}
	s.governorates[g.ID] = g
	s.createdGovName = name
	return g, nil
}

func (s *stubStore) UpdateGovernorate(_ context.Context, id uuid.UUID, name, description string) error {
	if _, ok := s.governorates[id]; !ok {
		return domain.ErrNotFound
	}
	s.governorates[id] = Governorate{ID: id, Name: name, Description: description}
	return nil
}

func (s *stubStore) DeleteGovernorate(_ context.Context, id uuid.UUID) error {
	delete(s.governorates, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubStore) GovernorateHasDependents(context.Context, uuid.UUID) (bool, error) {
	return s.hasDependents, nil
}

func (s *stubStore) ListRegions(context.Context) ([]Region, error) { return nil, nil }

func (s *stubStore) GetRegion(_ context.Context, id uuid.UUID) (Region, error) {
	r, ok := s.regions[id]
	if !ok {
		return Region{}, domain.ErrNotFound
	}
	return r, nil
}

func (s *stubStore) RegionNameExists(context.Context, string, uuid.UUID, uuid.UUID) (bool, error) {
	return s.nameTaken, nil
}

func (s *stubStore) CreateRegion(_ context.Context, name, description string, governorateID uuid.UUID) (Region, error) {
	r := Region{ID: uuid.New(), Name: name, Description: description, GovernorateID: governorateID}
	s.regions[r.ID] = r
	s.createdRegoName = name
	return r, nil
}

func (s *stubStore) UpdateRegion(_ context.Context, id uuid.UUID, name, description string, governorateID uuid.UUID) error {
	if _, ok := s.regions[id]; !ok {
		return domain.ErrNotFound
	}
	s.regions[id] = Region{ID: id, Name: name, Description: description, GovernorateID: governorateID}
	return nil
}

func (s *stubStore) DeleteRegion(_ context.Context, id uuid.UUID) error {
	delete(s.regions, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubStore) RegionHasDependents(context.Context, uuid.UUID) (bool, error) {
	return s.hasDependents, nil
}

type stubTrail struct {
	entries int
	err     error
}

func (t *stubTrail) Record(context.Context, uuid.UUID, string, string, uuid.UUID, any, any) error {
	if t.err != nil {
		return t.err
	}
	t.entries++
	return nil
}

var adminActor = domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}

func TestCreateGovernorate(t *testing.T) {
	tests := []struct {
		name      string
		actor     domain.Actor
		govName   string
		nameTaken bool
		wantErr   error
	}{
		{name: "ok", actor: adminActor, govName: "Central"},
		{name: "trims whitespace", actor: adminActor, govName: "  Central  "},
		{name: "employee forbidden", actor: domain.Actor{ID: uuid.New(), Role: domain.RoleEmployee}, govName: "Central", wantErr: domain.ErrForbidden},
		{name: "duplicate name", actor: adminActor, govName: "Central", nameTaken: true, wantErr: domain.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStubStore()
			store.nameTaken = tt.nameTaken
			trail := &stubTrail{}
			svc := NewService(store, trail)

			g, err := svc.CreateGovernorate(context.Background(), tt.actor, tt.govName, "desc")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				if trail.entries != 0 {
					t.Fatalf("audit entry written on failure")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if g.Name != "Central" {
				t.Fatalf("name not trimmed: %q", g.Name)
			}
			if trail.entries != 1 {
				t.Fatalf("want 1 audit entry, got %d", trail.entries)
			}
		})
	}
}

func TestCreateGovernorateEmptyName(t *testing.T) {
	svc := NewService(newStubStore(), &stubTrail{})

	_, err := svc.CreateGovernorate(context.Background(), adminActor, "   ", "")
	var validation *domain.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestDeleteGovernorateWithDependents(t *testing.T) {
	store := newStubStore()
	g, _ := store.CreateGovernorate(context.Background(), "North", "")
	store.hasDependents = true
	svc := NewService(store, &stubTrail{})

	err := svc.DeleteGovernorate(context.Background(), adminActor, g.ID)
	if !errors.Is(err, domain.ErrHasDependents) {
		t.Fatalf("want ErrHasDependents, got %v", err)
	}
	if len(store.deleted) != 0 {
		t.Fatalf("record deleted despite dependents")
	}
}

func TestDeleteRegion(t *testing.T) {
	store := newStubStore()
	reg, _ := store.CreateRegion(context.Background(), "East District", "", uuid.New())
	trail := &stubTrail{}
	svc := NewService(store, trail)

	if err := svc.DeleteRegion(context.Background(), adminActor, reg.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != reg.ID {
		t.Fatalf("region not deleted")
	}
	if trail.entries != 1 {
		t.Fatalf("want 1 audit entry, got %d", trail.entries)
	}
}

func TestAuditFailureDoesNotRollBack(t *testing.T) {
	store := newStubStore()
	trail := &stubTrail{err: errors.New("trail down")}
	svc := NewService(store, trail)

	g, err := svc.CreateGovernorate(context.Background(), adminActor, "West", "")
	var auditErr *domain.AuditWriteError
	if !errors.As(err, &auditErr) {
		t.Fatalf("want AuditWriteError, got %v", err)
	}
	if _, ok := store.governorates[g.ID]; !ok {
		t.Fatalf("mutation rolled back on audit failure")
	}
}
