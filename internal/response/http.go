package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/govhealth/fieldsurvey/internal/domain"
	"github.com/govhealth/fieldsurvey/internal/httpx"
	"github.com/govhealth/fieldsurvey/internal/httpx/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterEmployeeRoutes mounts the submission endpoints.
func (h *Handler) RegisterEmployeeRoutes(r chi.Router) {
	r.Post("/surveys/{id}/responses", h.handleSubmit)
	r.Get("/surveys/{id}/responses", h.handleSurveyHistory)
	r.Get("/me/responses", h.handleHistory)
	r.Get("/responses/{id}", h.handleDetails)
	r.Put("/details/{id}", h.handleEditDetail)
}

// RegisterAdminRoutes mounts the administrative read surface.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/surveys/{id}/responses", h.handleListForSurvey)
	r.Get("/responses/{id}", h.handleDetails)
	r.Put("/details/{id}", h.handleEditDetail)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetActor(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "AUTH", "invalid session", nil)
		return
	}

	surveyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return
	}

	var in SubmitInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	in.SurveyID = surveyID

	receipt, err := h.service.Submit(r.Context(), actor, in)
	if err != nil {
		var partial *domain.PartialFailure
		if errors.As(err, &partial) {
			httpx.WritePartial(w, receipt, partial)
			return
		}
		httpx.WriteDomainError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, receipt)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetActor(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "AUTH", "invalid session", nil)
		return
	}

	history, err := h.service.History(r.Context(), actor, nil)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, history)
}

func (h *Handler) handleSurveyHistory(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetActor(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "AUTH", "invalid session", nil)
		return
	}

	surveyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return
	}

	history, err := h.service.History(r.Context(), actor, &surveyID)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, history)
}

func (h *Handler) handleListForSurvey(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetActor(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "AUTH", "invalid session", nil)
		return
	}

	surveyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return
	}

	list, err := h.service.ListForSurvey(r.Context(), actor, surveyID)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleDetails(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetActor(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "AUTH", "invalid session", nil)
		return
	}

	responseID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return
	}

	view, err := h.service.View(r.Context(), actor, responseID)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleEditDetail(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetActor(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "AUTH", "invalid session", nil)
		return
	}

	detailID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return
	}

	var payload struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}

	if err := h.service.EditDetail(r.Context(), actor, detailID, payload.Value); err != nil {
		httpx.WriteDomainError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"id": detailID, "value": payload.Value})
}
