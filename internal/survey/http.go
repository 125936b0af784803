package survey

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

// RegisterAdminRoutes mounts the schema management endpoints. Patterns
// are registered flat so sibling packages can hang routes off the same
// prefix.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/surveys", h.handleList)
	r.Post("/surveys", h.handleCreate)
	r.Get("/surveys/{id}", h.handleGet)
	r.Put("/surveys/{id}", h.handleUpdate)
	r.Post("/surveys/{id}/retire", h.handleRetire)
	r.Post("/surveys/{id}/reactivate", h.handleReactivate)
	r.Delete("/surveys/{id}", h.handleDelete)
}

// RegisterEmployeeRoutes mounts the read-only schema endpoints used when
// rendering a form. Both are gated on the caller's grant set.
func (h *Handler) RegisterEmployeeRoutes(r chi.Router) {
	r.Get("/surveys/{id}", h.handleEmployeeGet)
	r.Get("/surveys/{id}/fields", h.handleFields)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetActor(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "AUTH", "invalid session", nil)
		return
	}

	surveys, err := h.service.List(r.Context(), actor)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, surveys)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetActor(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "AUTH", "invalid session", nil)
		return
	}

	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}

	def, err := h.service.Create(r.Context(), actor, in)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, def)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return
	}

	def, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, def)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetActor(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "AUTH", "invalid session", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return
	}

	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}

	def, err := h.service.Update(r.Context(), actor, id, in)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, def)
}

func (h *Handler) handleRetire(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) handleReactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	actor, err := middleware.GetActor(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "AUTH", "invalid session", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return
	}

	if err := h.service.SetActive(r.Context(), actor, id, active); err != nil {
		httpx.WriteDomainError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"id": id, "is_active": active})
}

func (h *Handler) handleEmployeeGet(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetActor(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "AUTH", "invalid session", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return
	}

	def, err := h.service.GetForEmployee(r.Context(), actor, id)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, def)
}

func (h *Handler) handleFields(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetActor(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "AUTH", "invalid session", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return
	}

	fields, err := h.service.FieldsForEmployee(r.Context(), actor, id)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, fields)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetActor(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "AUTH", "invalid session", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return
	}

	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		httpx.WriteDomainError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"deleted": id})
}
