package audit

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/govhealth/fieldsurvey/internal/httpx"
)

// Handler exposes the trail query surface.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/audit", h.handleQuery)
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{
		Table:     q.Get("table"),
		Action:    q.Get("action"),
		ActorName: q.Get("actor"),
		Search:    q.Get("q"),
	}

	if from := q.Get("from"); from != "" {
		ts, err := time.Parse("2006-01-02", from)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid from date", nil)
			return
		}
		filter.From = &ts
	}
	if to := q.Get("to"); to != "" {
		ts, err := time.Parse("2006-01-02", to)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid to date", nil)
			return
		}
		filter.To = &ts
	}

	entries, err := h.service.Query(r.Context(), filter)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
