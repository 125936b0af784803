package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// TrailStore is the persistence surface the service needs.
type TrailStore interface {
	Insert(ctx context.Context, actorID uuid.UUID, action, table string, recordID *uuid.UUID, oldValue, newValue *string) error
	List(ctx context.Context, filter Filter) ([]Entry, error)
}

// Service appends and queries audit entries. Writes happen after the primary
// mutation commits; a failure here is reported to the caller, never used to
// roll the mutation back.
type Service struct {
	store TrailStore
}

func NewService(store TrailStore) *Service {
	return &Service{store: store}
}

// Record appends one entry. Old and new values are serialized as opaque JSON
// payloads mirroring the mutated entity's fields.
func (s *Service) Record(ctx context.Context, actorID uuid.UUID, action, table string, recordID uuid.UUID, oldValue, newValue any) error {
	old, err := serialize(oldValue)
	if err != nil {
		return fmt.Errorf("audit: serialize old value: %w", err)
	}
	updated, err := serialize(newValue)
	if err != nil {
		return fmt.Errorf("audit: serialize new value: %w", err)
	}

	var record *uuid.UUID
	if recordID != uuid.Nil {
		record = &recordID
	}

	if err := s.store.Insert(ctx, actorID, action, table, record, old, updated); err != nil {
		log.Error().Err(err).
			Str("action", action).
			Str("table", table).
			Str("actor_id", actorID.String()).
			Msg("audit write failed")
		return err
	}
	return nil
}

// Query returns entries matching the filter, newest first.
func (s *Service) Query(ctx context.Context, filter Filter) ([]Entry, error) {
	return s.store.List(ctx, filter)
}

func serialize(v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	str := string(raw)
	return &str, nil
}
