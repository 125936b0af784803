package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type stubTrailStore struct {
	inserted []insertedEntry
	err      error
}

type insertedEntry struct {
	actorID  uuid.UUID
	action   string
	table    string
	recordID *uuid.UUID
	oldValue *string
	newValue *string
}

func (s *stubTrailStore) Insert(_ context.Context, actorID uuid.UUID, action, table string, recordID *uuid.UUID, oldValue, newValue *string) error {
	if s.err != nil {
		return s.err
	}
	s.inserted = append(s.inserted, insertedEntry{actorID, action, table, recordID, oldValue, newValue})
	return nil
}

func (s *stubTrailStore) List(context.Context, Filter) ([]Entry, error) {
	return []Entry{}, nil
}

func TestRecordSerializesValues(t *testing.T) {
	store := &stubTrailStore{}
	svc := NewService(store)
	actorID := uuid.New()
	recordID := uuid.New()

	type payload struct {
		Name string `json:"name"`
	}

	err := svc.Record(context.Background(), actorID, ActionUpdate, TableGovernorates, recordID,
		payload{Name: "old"}, payload{Name: "new"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.inserted) != 1 {
		t.Fatalf("want 1 entry, got %d", len(store.inserted))
	}
	e := store.inserted[0]
	if e.recordID == nil || *e.recordID != recordID {
		t.Fatalf("record id not forwarded")
	}
	if e.oldValue == nil || *e.oldValue != `{"name":"old"}` {
		t.Fatalf("old value = %v", e.oldValue)
	}
	if e.newValue == nil || *e.newValue != `{"name":"new"}` {
		t.Fatalf("new value = %v", e.newValue)
	}
}

func TestRecordNilValuesAndRecord(t *testing.T) {
	store := &stubTrailStore{}
	svc := NewService(store)

	err := svc.Record(context.Background(), uuid.New(), ActionDelete, TableSurveys, uuid.Nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := store.inserted[0]
	if e.recordID != nil {
		t.Fatalf("nil record id stored as %v", e.recordID)
	}
	if e.oldValue != nil || e.newValue != nil {
		t.Fatalf("nil payloads serialized: %v / %v", e.oldValue, e.newValue)
	}
}

func TestRecordPropagatesStoreFailure(t *testing.T) {
	storeErr := errors.New("insert failed")
	svc := NewService(&stubTrailStore{err: storeErr})

	err := svc.Record(context.Background(), uuid.New(), ActionInsert, TableUsers, uuid.New(), nil, "x")
	if !errors.Is(err, storeErr) {
		t.Fatalf("want store error, got %v", err)
	}
}
