package access

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/govhealth/fieldsurvey/internal/domain"
)

type stubScopeStore struct {
	employeeGov map[uuid.UUID]uuid.UUID
	adminGov    map[uuid.UUID]uuid.UUID
	enabled     map[uuid.UUID][]uuid.UUID
	grants      map[uuid.UUID][]uuid.UUID
	roles       map[uuid.UUID]domain.Role
	allowed     []SurveySummary
}

func newStubScopeStore() *stubScopeStore {
	return &stubScopeStore{
		employeeGov: make(map[uuid.UUID]uuid.UUID),
		adminGov:    make(map[uuid.UUID]uuid.UUID),
		enabled:     make(map[uuid.UUID][]uuid.UUID),
		grants:      make(map[uuid.UUID][]uuid.UUID),
		roles:       make(map[uuid.UUID]domain.Role),
	}
}

func (s *stubScopeStore) GovernorateForEmployee(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	id, ok := s.employeeGov[userID]
	if !ok {
		return uuid.Nil, domain.ErrNotFound
	}
	return id, nil
}

func (s *stubScopeStore) GovernorateForAdmin(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	id, ok := s.adminGov[userID]
	if !ok {
		return uuid.Nil, domain.ErrNotFound
	}
	return id, nil
}

func (s *stubScopeStore) EnabledSurveyIDs(_ context.Context, governorateID uuid.UUID) ([]uuid.UUID, error) {
	return s.enabled[governorateID], nil
}

func (s *stubScopeStore) GrantedSurveyIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.grants[userID], nil
}

func (s *stubScopeStore) ReplaceGrants(_ context.Context, userID uuid.UUID, surveyIDs []uuid.UUID) error {
	s.grants[userID] = surveyIDs
	return nil
}

func (s *stubScopeStore) AllowedSurveys(context.Context, uuid.UUID) ([]SurveySummary, error) {
	return s.allowed, nil
}

func (s *stubScopeStore) IsSurveyAllowed(_ context.Context, userID, surveyID uuid.UUID) (bool, error) {
	for _, id := range s.grants[userID] {
		if id == surveyID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubScopeStore) UserRole(_ context.Context, userID uuid.UUID) (domain.Role, error) {
	role, ok := s.roles[userID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return role, nil
}

type noopTrail struct{ entries int }

func (t *noopTrail) Record(context.Context, uuid.UUID, string, string, uuid.UUID, any, any) error {
	t.entries++
	return nil
}

func TestGrantIntersectsWithEnabledSet(t *testing.T) {
	store := newStubScopeStore()
	govID := uuid.New()
	employee := uuid.New()
	enabledA, enabledB, foreign := uuid.New(), uuid.New(), uuid.New()

	store.roles[employee] = domain.RoleEmployee
	store.employeeGov[employee] = govID
	store.enabled[govID] = []uuid.UUID{enabledA, enabledB}

	svc := NewService(store, &noopTrail{}, nil)
	admin := domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}

	grant, err := svc.Grant(context.Background(), admin, employee, []uuid.UUID{enabledA, foreign, enabledA})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(grant.Granted) != 1 || grant.Granted[0] != enabledA {
		t.Fatalf("want granted [%s], got %v", enabledA, grant.Granted)
	}
	if len(grant.Ignored) != 1 || grant.Ignored[0] != foreign {
		t.Fatalf("want ignored [%s], got %v", foreign, grant.Ignored)
	}
	if got := store.grants[employee]; len(got) != 1 || got[0] != enabledA {
		t.Fatalf("stored grants mismatch: %v", got)
	}
}

func TestGrantReplacesPreviousAssignments(t *testing.T) {
	store := newStubScopeStore()
	govID := uuid.New()
	employee := uuid.New()
	oldSurvey, newSurvey := uuid.New(), uuid.New()

	store.roles[employee] = domain.RoleEmployee
	store.employeeGov[employee] = govID
	store.enabled[govID] = []uuid.UUID{oldSurvey, newSurvey}
	store.grants[employee] = []uuid.UUID{oldSurvey}

	svc := NewService(store, &noopTrail{}, nil)
	admin := domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}

	if _, err := svc.Grant(context.Background(), admin, employee, []uuid.UUID{newSurvey}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := store.grants[employee]
	if len(got) != 1 || got[0] != newSurvey {
		t.Fatalf("previous grants survived replacement: %v", got)
	}
}

func TestGrantUnscopedEmployee(t *testing.T) {
	store := newStubScopeStore()
	employee := uuid.New()
	store.roles[employee] = domain.RoleEmployee

	svc := NewService(store, &noopTrail{}, nil)
	admin := domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}

	_, err := svc.Grant(context.Background(), admin, employee, []uuid.UUID{uuid.New()})
	if !errors.Is(err, domain.ErrUnscopedUser) {
		t.Fatalf("want ErrUnscopedUser, got %v", err)
	}
}

func TestGovernorateAdminCannotGrantOutsideScope(t *testing.T) {
	store := newStubScopeStore()
	ownGov, otherGov := uuid.New(), uuid.New()
	govAdmin := uuid.New()
	employee := uuid.New()

	store.adminGov[govAdmin] = ownGov
	store.roles[employee] = domain.RoleEmployee
	store.employeeGov[employee] = otherGov

	svc := NewService(store, &noopTrail{}, nil)
	actor := domain.Actor{ID: govAdmin, Role: domain.RoleGovernorateAdmin}

	_, err := svc.Grant(context.Background(), actor, employee, []uuid.UUID{uuid.New()})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestAuthorizeSubmission(t *testing.T) {
	store := newStubScopeStore()
	govID := uuid.New()
	employee := uuid.New()
	granted := uuid.New()
	store.employeeGov[employee] = govID
	store.enabled[govID] = []uuid.UUID{granted}
	store.grants[employee] = []uuid.UUID{granted}

	svc := NewService(store, &noopTrail{}, nil)

	if err := svc.AuthorizeSubmission(context.Background(), employee, granted); err != nil {
		t.Fatalf("granted survey rejected: %v", err)
	}
	if err := svc.AuthorizeSubmission(context.Background(), employee, uuid.New()); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestAuthorizeSubmissionAfterScopeEdit(t *testing.T) {
	store := newStubScopeStore()
	govID := uuid.New()
	employee := uuid.New()
	surveyID := uuid.New()
	store.employeeGov[employee] = govID
	store.grants[employee] = []uuid.UUID{surveyID}

	svc := NewService(store, &noopTrail{}, nil)

	if err := svc.AuthorizeSubmission(context.Background(), employee, surveyID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("grant outside the enabled set passed: %v", err)
	}

	store.enabled[govID] = []uuid.UUID{surveyID}
	if err := svc.AuthorizeSubmission(context.Background(), employee, surveyID); err != nil {
		t.Fatalf("enabled survey rejected: %v", err)
	}
}

func TestGovernorateOfAdminRole(t *testing.T) {
	svc := NewService(newStubScopeStore(), &noopTrail{}, nil)

	_, err := svc.GovernorateOf(context.Background(), uuid.New(), domain.RoleAdmin)
	if !errors.Is(err, domain.ErrUnscopedUser) {
		t.Fatalf("want ErrUnscopedUser for platform admin, got %v", err)
	}
}
