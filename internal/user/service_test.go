package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/govhealth/fieldsurvey/internal/auth"
	"github.com/govhealth/fieldsurvey/internal/domain"
)

type stubAccountStore struct {
	byUsername    map[string]Credentials
	byID          map[uuid.UUID]User
	usernameTaken bool
	bindings      map[uuid.UUID]*uuid.UUID
	lastLogin     []uuid.UUID
}

func newStubAccountStore() *stubAccountStore {
	return &stubAccountStore{
		byUsername: make(map[string]Credentials),
		byID:       make(map[uuid.UUID]User),
		bindings:   make(map[uuid.UUID]*uuid.UUID),
	}
}

func (s *stubAccountStore) GetCredentialsByUsername(_ context.Context, username string) (Credentials, error) {
	creds, ok := s.byUsername[username]
	if !ok {
		return Credentials{}, domain.ErrNotFound
	}
	return creds, nil
}

func (s *stubAccountStore) GetByID(_ context.Context, id uuid.UUID) (User, error) {
	u, ok := s.byID[id]
	if !ok {
		return User{}, domain.ErrNotFound
	}
	return u, nil
}

func (s *stubAccountStore) UsernameExists(context.Context, string, uuid.UUID) (bool, error) {
	return s.usernameTaken, nil
}

func (s *stubAccountStore) Create(_ context.Context, u User, _ string) (uuid.UUID, error) {
	u.ID = uuid.New()
	s.byID[u.ID] = u
	return u.ID, nil
}

func (s *stubAccountStore) Update(_ context.Context, u User, _ string) error {
	if _, ok := s.byID[u.ID]; !ok {
		return domain.ErrNotFound
	}
	s.byID[u.ID] = u
	return nil
}

func (s *stubAccountStore) List(context.Context) ([]User, error) { return nil, nil }

func (s *stubAccountStore) ListGovernorateEmployees(context.Context, uuid.UUID) ([]User, error) {
	return []User{}, nil
}

func (s *stubAccountStore) SetGovernorateAdmin(_ context.Context, userID uuid.UUID, governorateID *uuid.UUID) error {
	s.bindings[userID] = governorateID
	return nil
}

func (s *stubAccountStore) GovernorateAdminOf(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	gov, ok := s.bindings[userID]
	if !ok || gov == nil {
		return uuid.Nil, domain.ErrNotFound
	}
	return *gov, nil
}

func (s *stubAccountStore) UpdateLastLogin(_ context.Context, id uuid.UUID) error {
	s.lastLogin = append(s.lastLogin, id)
	return nil
}

type noopTrail struct{}

func (noopTrail) Record(context.Context, uuid.UUID, string, string, uuid.UUID, any, any) error {
	return nil
}

var (
	testJWT    = auth.NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour)
	adminActor = domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}
)

func TestLogin(t *testing.T) {
	store := newStubAccountStore()
	hash, err := auth.Hash("secret123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	id := uuid.New()
	store.byUsername["field1"] = Credentials{ID: id, Username: "field1", Role: domain.RoleEmployee, PasswordHash: hash}
	store.byID[id] = User{ID: id, Username: "field1", Role: domain.RoleEmployee}

	svc := NewService(store, noopTrail{}, testJWT)

	result, err := svc.Login(context.Background(), "field1", "secret123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatalf("no token issued")
	}
	claims, err := testJWT.ParseAndValidate(result.AccessToken)
	if err != nil {
		t.Fatalf("issued token invalid: %v", err)
	}
	if claims.Subject != id.String() || claims.Role != string(domain.RoleEmployee) {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if len(store.lastLogin) != 1 {
		t.Fatalf("last login not recorded")
	}

	if _, err := svc.Login(context.Background(), "field1", "wrong"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("want ErrForbidden for bad password, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "ghost", "secret123"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("want ErrForbidden for unknown user, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	regionID := uuid.New()
	govID := uuid.New()

	tests := []struct {
		name        string
		input       CreateInput
		wantMissing bool
	}{
		{
			name:        "missing everything",
			input:       CreateInput{Role: domain.RoleEmployee},
			wantMissing: true,
		},
		{
			name: "employee without region",
			input: CreateInput{
				Username: "field1", Password: "pw", FullName: "Field One",
				Role: domain.RoleEmployee,
			},
			wantMissing: true,
		},
		{
			name: "governorate admin without governorate",
			input: CreateInput{
				Username: "gadmin", Password: "pw", FullName: "Gov Admin",
				Role: domain.RoleGovernorateAdmin,
			},
			wantMissing: true,
		},
		{
			name: "unknown role",
			input: CreateInput{
				Username: "x", Password: "pw", FullName: "X",
				Role: "supervisor", AssignedRegion: &regionID, GovernorateID: &govID,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(newStubAccountStore(), noopTrail{}, testJWT)

			_, err := svc.Create(context.Background(), adminActor, tt.input)
			var validation *domain.ValidationError
			if !errors.As(err, &validation) {
				t.Fatalf("want validation error, got %v", err)
			}
			if tt.wantMissing && len(validation.Missing) == 0 {
				t.Fatalf("missing fields not reported")
			}
		})
	}
}

func TestCreateUsernameConflict(t *testing.T) {
	store := newStubAccountStore()
	store.usernameTaken = true
	svc := NewService(store, noopTrail{}, testJWT)
	regionID := uuid.New()

	_, err := svc.Create(context.Background(), adminActor, CreateInput{
		Username: "field1", Password: "pw", FullName: "Field One",
		Role: domain.RoleEmployee, AssignedRegion: &regionID,
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestCreateRequiresAdmin(t *testing.T) {
	svc := NewService(newStubAccountStore(), noopTrail{}, testJWT)
	govAdmin := domain.Actor{ID: uuid.New(), Role: domain.RoleGovernorateAdmin}

	_, err := svc.Create(context.Background(), govAdmin, CreateInput{})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestCreateGovernorateAdminBinds(t *testing.T) {
	store := newStubAccountStore()
	svc := NewService(store, noopTrail{}, testJWT)
	govID := uuid.New()

	created, err := svc.Create(context.Background(), adminActor, CreateInput{
		Username: "gadmin", Password: "pw", FullName: "Gov Admin",
		Role: domain.RoleGovernorateAdmin, GovernorateID: &govID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bound, ok := store.bindings[created.ID]
	if !ok || bound == nil || *bound != govID {
		t.Fatalf("governorate binding not stored")
	}
}

func TestUpdateDemotionClearsBinding(t *testing.T) {
	store := newStubAccountStore()
	svc := NewService(store, noopTrail{}, testJWT)
	govID := uuid.New()
	regionID := uuid.New()

	created, err := svc.Create(context.Background(), adminActor, CreateInput{
		Username: "gadmin", Password: "pw", FullName: "Gov Admin",
		Role: domain.RoleGovernorateAdmin, GovernorateID: &govID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.Update(context.Background(), adminActor, created.ID, CreateInput{
		Username: "gadmin", FullName: "Gov Admin",
		Role: domain.RoleEmployee, AssignedRegion: &regionID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bound := store.bindings[created.ID]; bound != nil {
		t.Fatalf("binding survived demotion")
	}
}

func TestListAsGovernorateAdminWithoutBinding(t *testing.T) {
	svc := NewService(newStubAccountStore(), noopTrail{}, testJWT)
	actor := domain.Actor{ID: uuid.New(), Role: domain.RoleGovernorateAdmin}

	_, err := svc.List(context.Background(), actor)
	if !errors.Is(err, domain.ErrUnscopedUser) {
		t.Fatalf("want ErrUnscopedUser, got %v", err)
	}
}
