package survey

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/govhealth/fieldsurvey/internal/domain"
)

type stubSchemaStore struct {
	surveys map[uuid.UUID]Survey
	fields  map[uuid.UUID][]Field
	deleted []uuid.UUID
	updated map[uuid.UUID]CreateInput
}

func newStubSchemaStore() *stubSchemaStore {
	return &stubSchemaStore{
		surveys: make(map[uuid.UUID]Survey),
		fields:  make(map[uuid.UUID][]Field),
		updated: make(map[uuid.UUID]CreateInput),
	}
}

func (s *stubSchemaStore) Create(_ context.Context, in CreateInput, _ uuid.UUID) (uuid.UUID, error) {
	id := uuid.New()
	s.surveys[id] = Survey{ID: id, Name: in.Name, Description: in.Description, IsActive: true}
	fields := make([]Field, 0, len(in.Fields))
	for _, f := range in.Fields {
		fields = append(fields, Field{
			ID: uuid.New(), SurveyID: id, Type: f.Type, Label: f.Label,
			Options: f.Options, Required: f.Required, Order: f.Order,
		})
	}
	s.fields[id] = fields
	return id, nil
}

func (s *stubSchemaStore) Get(_ context.Context, id uuid.UUID) (Survey, error) {
	sv, ok := s.surveys[id]
	if !ok {
		return Survey{}, domain.ErrNotFound
	}
	return sv, nil
}

func (s *stubSchemaStore) List(context.Context) ([]Survey, error) { return nil, nil }

func (s *stubSchemaStore) ListEnabled(context.Context, uuid.UUID) ([]Survey, error) { return nil, nil }

func (s *stubSchemaStore) ListFields(_ context.Context, surveyID uuid.UUID) ([]Field, error) {
	return s.fields[surveyID], nil
}

func (s *stubSchemaStore) Update(_ context.Context, id uuid.UUID, in CreateInput) error {
	sv, ok := s.surveys[id]
	if !ok {
		return domain.ErrNotFound
	}
	sv.Name = in.Name
	sv.Description = in.Description
	sv.IsActive = in.IsActive
	s.surveys[id] = sv
	s.updated[id] = in
	return nil
}

func (s *stubSchemaStore) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	sv, ok := s.surveys[id]
	if !ok {
		return domain.ErrNotFound
	}
	sv.IsActive = active
	s.surveys[id] = sv
	return nil
}

func (s *stubSchemaStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.surveys[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.surveys, id)
	delete(s.fields, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubSchemaStore) EnabledGovernorateIDs(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
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

type stubScopes struct {
	governorate uuid.UUID
	granted     map[uuid.UUID]bool
}

func (s *stubScopes) GovernorateOf(context.Context, uuid.UUID, domain.Role) (uuid.UUID, error) {
	if s.governorate == uuid.Nil {
		return uuid.Nil, domain.ErrUnscopedUser
	}
	return s.governorate, nil
}

func (s *stubScopes) AuthorizeSubmission(_ context.Context, _ uuid.UUID, surveyID uuid.UUID) error {
	if s.granted[surveyID] {
		return nil
	}
	return domain.ErrForbidden
}

var admin = domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}

func TestCreateAssignsFieldOrder(t *testing.T) {
	store := newStubSchemaStore()
	svc := NewService(store, &stubTrail{}, &stubScopes{}, nil)

	def, err := svc.Create(context.Background(), admin, CreateInput{
		Name: "Household Visit",
		Fields: []FieldInput{
			{Type: FieldText, Label: "Address", Required: true},
			{Type: FieldNumber, Label: "Residents"},
			{Type: FieldDate, Label: "Visit date"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, f := range def.Fields {
		if f.Order != i+1 {
			t.Fatalf("field %q order = %d, want %d", f.Label, f.Order, i+1)
		}
	}
}

func TestUpdateKeepsAndAppendsFieldOrder(t *testing.T) {
	store := newStubSchemaStore()
	svc := NewService(store, &stubTrail{}, &stubScopes{}, nil)

	def, err := svc.Create(context.Background(), admin, CreateInput{
		Name: "Household Visit",
		Fields: []FieldInput{
			{Type: FieldText, Label: "Address"},
			{Type: FieldNumber, Label: "Residents"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := def.Fields[0]

	if _, err := svc.Update(context.Background(), admin, def.Survey.ID, CreateInput{
		Name:     "Household Visit",
		IsActive: true,
		Fields: []FieldInput{
			{ID: &first.ID, Type: FieldText, Label: "Street address"},
			{Type: FieldDate, Label: "Visit date"},
		},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := store.updated[def.Survey.ID].Fields
	if got[0].Order != 1 {
		t.Fatalf("edited field order = %d, want 1", got[0].Order)
	}
	if got[1].Order != 3 {
		t.Fatalf("appended field order = %d, want 3", got[1].Order)
	}
}

func TestUpdateWritesActiveFlag(t *testing.T) {
	store := newStubSchemaStore()
	svc := NewService(store, &stubTrail{}, &stubScopes{}, nil)

	def, err := svc.Create(context.Background(), admin, CreateInput{Name: "Visit"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after, err := svc.Update(context.Background(), admin, def.Survey.ID, CreateInput{Name: "Visit"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after.Survey.IsActive {
		t.Fatalf("survey still active after update with is_active=false")
	}

	after, err = svc.Update(context.Background(), admin, def.Survey.ID, CreateInput{Name: "Visit", IsActive: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !after.Survey.IsActive {
		t.Fatalf("survey not reactivated by update")
	}
}

func TestEmployeeReadsRequireGrant(t *testing.T) {
	store := newStubSchemaStore()
	scopes := &stubScopes{granted: make(map[uuid.UUID]bool)}
	svc := NewService(store, &stubTrail{}, scopes, nil)

	def, err := svc.Create(context.Background(), admin, CreateInput{
		Name:   "Visit",
		Fields: []FieldInput{{Type: FieldText, Label: "Address"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	emp := domain.Actor{ID: uuid.New(), Role: domain.RoleEmployee}

	if _, err := svc.GetForEmployee(context.Background(), emp, def.Survey.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("definition: want ErrForbidden, got %v", err)
	}
	if _, err := svc.FieldsForEmployee(context.Background(), emp, def.Survey.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("fields: want ErrForbidden, got %v", err)
	}

	scopes.granted[def.Survey.ID] = true
	if _, err := svc.GetForEmployee(context.Background(), emp, def.Survey.ID); err != nil {
		t.Fatalf("granted definition rejected: %v", err)
	}
	fields, err := svc.FieldsForEmployee(context.Background(), emp, def.Survey.ID)
	if err != nil || len(fields) != 1 {
		t.Fatalf("granted fields rejected: %v (%d fields)", err, len(fields))
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		input CreateInput
	}{
		{
			name:  "empty name",
			input: CreateInput{Name: "  "},
		},
		{
			name: "field without label",
			input: CreateInput{
				Name:   "Visit",
				Fields: []FieldInput{{Type: FieldText, Label: " "}},
			},
		},
		{
			name: "unknown field type",
			input: CreateInput{
				Name:   "Visit",
				Fields: []FieldInput{{Type: "slider", Label: "Score"}},
			},
		},
		{
			name: "dropdown without options",
			input: CreateInput{
				Name:   "Visit",
				Fields: []FieldInput{{Type: FieldDropdown, Label: "Outcome"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStubSchemaStore()
			svc := NewService(store, &stubTrail{}, &stubScopes{}, nil)

			_, err := svc.Create(context.Background(), admin, tt.input)
			var validation *domain.ValidationError
			if !errors.As(err, &validation) {
				t.Fatalf("want validation error, got %v", err)
			}
			if len(store.surveys) != 0 {
				t.Fatalf("survey created despite invalid schema")
			}
		})
	}
}

func TestCreateDropdownWithOptions(t *testing.T) {
	store := newStubSchemaStore()
	svc := NewService(store, &stubTrail{}, &stubScopes{}, nil)

	def, err := svc.Create(context.Background(), admin, CreateInput{
		Name: "Visit",
		Fields: []FieldInput{
			{Type: FieldDropdown, Label: "Outcome", Options: []string{"done", "absent"}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(def.Fields[0].Options) != 2 {
		t.Fatalf("options not stored: %v", def.Fields[0].Options)
	}
}

func TestMutationsRequireAdmin(t *testing.T) {
	store := newStubSchemaStore()
	svc := NewService(store, &stubTrail{}, &stubScopes{}, nil)
	govAdmin := domain.Actor{ID: uuid.New(), Role: domain.RoleGovernorateAdmin}

	if _, err := svc.Create(context.Background(), govAdmin, CreateInput{Name: "X"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("create: want ErrForbidden, got %v", err)
	}
	if err := svc.Delete(context.Background(), govAdmin, uuid.New()); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("delete: want ErrForbidden, got %v", err)
	}
	if err := svc.SetActive(context.Background(), govAdmin, uuid.New(), false); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("set active: want ErrForbidden, got %v", err)
	}
}

func TestDeleteRecordsAudit(t *testing.T) {
	store := newStubSchemaStore()
	trail := &stubTrail{}
	svc := NewService(store, trail, &stubScopes{}, nil)

	def, err := svc.Create(context.Background(), admin, CreateInput{Name: "Visit"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Delete(context.Background(), admin, def.Survey.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.deleted) != 1 {
		t.Fatalf("survey not deleted")
	}
	if trail.entries != 2 {
		t.Fatalf("want 2 audit entries, got %d", trail.entries)
	}
}

func TestCreateAuditFailureKeepsSurvey(t *testing.T) {
	store := newStubSchemaStore()
	trail := &stubTrail{err: errors.New("trail down")}
	svc := NewService(store, trail, &stubScopes{}, nil)

	def, err := svc.Create(context.Background(), admin, CreateInput{Name: "Visit"})
	var auditErr *domain.AuditWriteError
	if !errors.As(err, &auditErr) {
		t.Fatalf("want AuditWriteError, got %v", err)
	}
	if _, ok := store.surveys[def.Survey.ID]; !ok {
		t.Fatalf("survey rolled back on audit failure")
	}
}
