// Package httpx carries the HTTP plumbing shared by every module: JSON
// envelopes, the domain error mapping, the router, and middleware.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/govhealth/fieldsurvey/internal/domain"
)

// SuccessEnvelope standardizes responses carrying data.
type SuccessEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

// ErrorEnvelope standardizes failure responses.
type ErrorEnvelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody describes a normalized failure.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON writes a success envelope.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessEnvelope{Data: data, Error: nil})
}

// WriteError writes an error envelope with a consistent shape.
func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Data:  nil,
		Error: &ErrorBody{Code: code, Message: message, Details: details},
	})
}

// WritePartial reports a mutation that landed only partially: the envelope
// carries both the data written so far and the failure description.
func WritePartial(w http.ResponseWriter, data any, pf *domain.PartialFailure) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": data,
		"error": &ErrorBody{
			Code:    "PARTIAL",
			Message: pf.Error(),
			Details: map[string]int{"written": pf.Written, "total": pf.Total},
		},
	})
}

// WriteDomainError translates the error taxonomy into HTTP responses.
func WriteDomainError(w http.ResponseWriter, err error) {
	var validation *domain.ValidationError
	var auditErr *domain.AuditWriteError

	switch {
	case errors.As(err, &validation):
		details := any(nil)
		if len(validation.Missing) > 0 {
			details = map[string]any{"missing": validation.Missing}
		}
		WriteError(w, http.StatusBadRequest, "VALIDATION", validation.Error(), details)
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "record not found", nil)
	case errors.Is(err, domain.ErrForbidden):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "access denied", nil)
	case errors.Is(err, domain.ErrConflict):
		WriteError(w, http.StatusConflict, "CONFLICT", "record already exists", nil)
	case errors.Is(err, domain.ErrHasDependents):
		WriteError(w, http.StatusConflict, "CONFLICT", "record still has dependent rows", nil)
	case errors.Is(err, domain.ErrDuplicateCompletion):
		WriteError(w, http.StatusConflict, "DUPLICATE_COMPLETION", "survey already completed today", nil)
	case errors.Is(err, domain.ErrUnscopedUser):
		WriteError(w, http.StatusUnprocessableEntity, "UNSCOPED_USER", "user has no governorate scope", nil)
	case errors.As(err, &auditErr):
		WriteError(w, http.StatusInternalServerError, "AUDIT_WRITE", auditErr.Error(), nil)
	default:
		log.Error().Err(err).Msg("handler error")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
