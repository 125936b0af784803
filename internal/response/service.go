package response

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/govhealth/fieldsurvey/internal/domain"
	"github.com/govhealth/fieldsurvey/internal/survey"
)

// LifecycleStore is the persistence contract for submissions.
type LifecycleStore interface {
	CreateResponse(ctx context.Context, surveyID, userID, regionID uuid.UUID, complete bool) (uuid.UUID, error)
	AddDetail(ctx context.Context, responseID, fieldID uuid.UUID, value string) error
	HasCompletedToday(ctx context.Context, userID, surveyID uuid.UUID) (bool, error)
	RegionOfUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	ListMine(ctx context.Context, userID uuid.UUID, surveyID *uuid.UUID) ([]HistoryRow, error)
	ListForSurvey(ctx context.Context, surveyID uuid.UUID) ([]AdminRow, error)
	GetInfo(ctx context.Context, id uuid.UUID) (View, error)
	ListDetails(ctx context.Context, responseID uuid.UUID) ([]Detail, error)
	UpdateDetail(ctx context.Context, detailID uuid.UUID, value string) error
	DetailOwner(ctx context.Context, detailID uuid.UUID) (uuid.UUID, error)
	GovernorateOfResponse(ctx context.Context, responseID uuid.UUID) (uuid.UUID, error)
	SurveyEnabledForGovernorate(ctx context.Context, surveyID, governorateID uuid.UUID) (bool, error)
}

// Authorizer gates submissions and resolves governorate scope.
type Authorizer interface {
	AuthorizeSubmission(ctx context.Context, userID, surveyID uuid.UUID) error
	GovernorateOf(ctx context.Context, userID uuid.UUID, role domain.Role) (uuid.UUID, error)
}

// FieldLister serves the ordered schema of a survey.
type FieldLister interface {
	Fields(ctx context.Context, surveyID uuid.UUID) ([]survey.Field, error)
}

// Receipt summarizes what a submission wrote.
type Receipt struct {
	ResponseID uuid.UUID `json:"response_id"`
	IsComplete bool      `json:"is_complete"`
	Written    int       `json:"written"`
	Total      int       `json:"total"`
}

type Service struct {
	store  LifecycleStore
	access Authorizer
	schema FieldLister
}

func NewService(store LifecycleStore, access Authorizer, schema FieldLister) *Service {
	return &Service{store: store, access: access, schema: schema}
}

// Submit runs the full submission pipeline: grant check, required-field
// validation, daily duplicate check, then the response row and its
// details. Detail writes are best effort; a partial landing reports
// what was written without rolling back.
func (s *Service) Submit(ctx context.Context, actor domain.Actor, in SubmitInput) (Receipt, error) {
	if actor.Role != domain.RoleEmployee {
		return Receipt{}, domain.ErrForbidden
	}

	if err := s.access.AuthorizeSubmission(ctx, actor.ID, in.SurveyID); err != nil {
		return Receipt{}, err
	}

	regionID, err := s.store.RegionOfUser(ctx, actor.ID)
	if err != nil {
		return Receipt{}, err
	}

	fields, err := s.schema.Fields(ctx, in.SurveyID)
	if err != nil {
		return Receipt{}, err
	}

	answers := make(map[uuid.UUID]string, len(in.Answers))
	for _, a := range in.Answers {
		answers[a.FieldID] = a.Value
	}

	if in.Complete {
		var missing []string
		for _, f := range fields {
			if !f.Required {
				continue
			}
			if strings.TrimSpace(answers[f.ID]) == "" {
				missing = append(missing, f.Label)
			}
		}
		if len(missing) > 0 {
			return Receipt{}, &domain.ValidationError{Reason: "required fields missing", Missing: missing}
		}

		done, err := s.store.HasCompletedToday(ctx, actor.ID, in.SurveyID)
		if err != nil {
			return Receipt{}, err
		}
		if done {
			return Receipt{}, domain.ErrDuplicateCompletion
		}
	}

	responseID, err := s.store.CreateResponse(ctx, in.SurveyID, actor.ID, regionID, in.Complete)
	if err != nil {
		return Receipt{}, err
	}

	// Answers are written in question order. Unknown field ids are
	// dropped silently so a stale client cannot corrupt the schema.
	var written, total int
	var lastErr error
	for _, f := range fields {
		value, ok := answers[f.ID]
		if !ok {
			continue
		}
		total++
		if err := s.store.AddDetail(ctx, responseID, f.ID, value); err != nil {
			lastErr = err
			log.Error().Err(err).
				Str("response_id", responseID.String()).
				Str("field_id", f.ID.String()).
				Msg("detail write failed")
			continue
		}
		written++
	}

	receipt := Receipt{ResponseID: responseID, IsComplete: in.Complete, Written: written, Total: total}
	if written < total {
		return receipt, &domain.PartialFailure{Written: written, Total: total, Err: lastErr}
	}
	return receipt, nil
}

// History lists the caller's own submissions, newest first. A non-nil
// surveyID narrows the listing to one survey.
func (s *Service) History(ctx context.Context, actor domain.Actor, surveyID *uuid.UUID) ([]HistoryRow, error) {
	return s.store.ListMine(ctx, actor.ID, surveyID)
}

// ListForSurvey lists a survey's submissions for administrators.
// Governorate admins only see surveys enabled in their governorate.
func (s *Service) ListForSurvey(ctx context.Context, actor domain.Actor, surveyID uuid.UUID) ([]AdminRow, error) {
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleGovernorateAdmin:
		govID, err := s.access.GovernorateOf(ctx, actor.ID, actor.Role)
		if err != nil {
			return nil, err
		}
		enabled, err := s.store.SurveyEnabledForGovernorate(ctx, surveyID, govID)
		if err != nil {
			return nil, err
		}
		if !enabled {
			return nil, domain.ErrForbidden
		}
	default:
		return nil, domain.ErrForbidden
	}

	return s.store.ListForSurvey(ctx, surveyID)
}

// View returns one response joined across survey, submitter, region and
// governorate, answers included. Owners always pass, governorate admins
// only inside their governorate.
func (s *Service) View(ctx context.Context, actor domain.Actor, responseID uuid.UUID) (View, error) {
	view, err := s.store.GetInfo(ctx, responseID)
	if err != nil {
		return View{}, err
	}

	if err := s.authorizeRead(ctx, actor, view.Response); err != nil {
		return View{}, err
	}

	if view.Details, err = s.store.ListDetails(ctx, responseID); err != nil {
		return View{}, err
	}
	return view, nil
}

// EditDetail corrects one stored answer. Employees may only touch their
// own responses.
func (s *Service) EditDetail(ctx context.Context, actor domain.Actor, detailID uuid.UUID, value string) error {
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleEmployee:
		owner, err := s.store.DetailOwner(ctx, detailID)
		if err != nil {
			return err
		}
		if owner != actor.ID {
			return domain.ErrForbidden
		}
	default:
		return domain.ErrForbidden
	}

	return s.store.UpdateDetail(ctx, detailID, value)
}

func (s *Service) authorizeRead(ctx context.Context, actor domain.Actor, resp Response) error {
	switch actor.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleEmployee:
		if resp.UserID != actor.ID {
			return domain.ErrForbidden
		}
		return nil
	case domain.RoleGovernorateAdmin:
		own, err := s.access.GovernorateOf(ctx, actor.ID, actor.Role)
		if err != nil {
			return err
		}
		respGov, err := s.store.GovernorateOfResponse(ctx, resp.ID)
		if err != nil {
			return err
		}
		if own != respGov {
			return domain.ErrForbidden
		}
		return nil
	default:
		return domain.ErrForbidden
	}
}
