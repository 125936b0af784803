package access

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/govhealth/fieldsurvey/internal/httpx"
	"github.com/govhealth/fieldsurvey/internal/httpx/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterAdminRoutes mounts the assignment endpoints under the admin area.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/users/{id}/surveys", h.handleGrantedIDs)
	r.Put("/users/{id}/surveys", h.handleGrant)
}

// RegisterEmployeeRoutes mounts the self-service listing.
func (h *Handler) RegisterEmployeeRoutes(r chi.Router) {
	r.Get("/me/surveys", h.handleAllowed)
}

func (h *Handler) handleGrant(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetActor(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "AUTH", "invalid session", nil)
		return
	}

	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return
	}

	var payload struct {
		SurveyIDs []uuid.UUID `json:"survey_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}

	grant, err := h.service.Grant(r.Context(), actor, targetID, payload.SurveyIDs)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, grant)
}

func (h *Handler) handleGrantedIDs(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetActor(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "AUTH", "invalid session", nil)
		return
	}

	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return
	}

	ids, err := h.service.GrantedIDs(r.Context(), actor, targetID)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"survey_ids": ids})
}

func (h *Handler) handleAllowed(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetActor(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "AUTH", "invalid session", nil)
		return
	}

	surveys, err := h.service.Allowed(r.Context(), actor.ID)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, surveys)
}
