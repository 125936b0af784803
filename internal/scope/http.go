package scope

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/govhealth/fieldsurvey/internal/httpx"
	"github.com/govhealth/fieldsurvey/internal/httpx/middleware"
)

// Handler exposes hierarchy administration routes.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/governorates", func(r chi.Router) {
		r.Get("/", h.handleListGovernorates)
		r.Post("/", h.handleCreateGovernorate)
		r.Put("/{id}", h.handleUpdateGovernorate)
		r.Delete("/{id}", h.handleDeleteGovernorate)
	})
	r.Route("/regions", func(r chi.Router) {
		r.Get("/", h.handleListRegions)
		r.Post("/", h.handleCreateRegion)
		r.Put("/{id}", h.handleUpdateRegion)
		r.Delete("/{id}", h.handleDeleteRegion)
	})
}

type governoratePayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type regionPayload struct {
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	GovernorateID uuid.UUID `json:"governorate_id"`
}

func (h *Handler) handleListGovernorates(w http.ResponseWriter, r *http.Request) {
	governorates, err := h.service.ListGovernorates(r.Context())
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"governorates": governorates})
}

func (h *Handler) handleCreateGovernorate(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetActor(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "AUTH", "invalid identity", nil)
		return
	}

	var payload governoratePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid JSON", nil)
		return
	}

	g, err := h.service.CreateGovernorate(r.Context(), actor, payload.Name, payload.Description)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, g)
}

func (h *Handler) handleUpdateGovernorate(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetActor(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "AUTH", "invalid identity", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid id", nil)
		return
	}

	var payload governoratePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid JSON", nil)
		return
	}

	if err := h.service.UpdateGovernorate(r.Context(), actor, id, payload.Name, payload.Description); err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) handleDeleteGovernorate(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetActor(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "AUTH", "invalid identity", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid id", nil)
		return
	}

	if err := h.service.DeleteGovernorate(r.Context(), actor, id); err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) handleListRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.service.ListRegions(r.Context())
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"regions": regions})
}

func (h *Handler) handleCreateRegion(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetActor(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "AUTH", "invalid identity", nil)
		return
	}

	var payload regionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid JSON", nil)
		return
	}

	reg, err := h.service.CreateRegion(r.Context(), actor, payload.Name, payload.Description, payload.GovernorateID)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, reg)
}

func (h *Handler) handleUpdateRegion(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetActor(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "AUTH", "invalid identity", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid id", nil)
		return
	}

	var payload regionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid JSON", nil)
		return
	}

	if err := h.service.UpdateRegion(r.Context(), actor, id, payload.Name, payload.Description, payload.GovernorateID); err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) handleDeleteRegion(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetActor(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "AUTH", "invalid identity", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid id", nil)
		return
	}

	if err := h.service.DeleteRegion(r.Context(), actor, id); err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
