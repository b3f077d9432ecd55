// Package handlers provides HTTP handlers for the portfolio module.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/catalyst/internal/modules/portfolio"
)

// Handler handles portfolio HTTP requests.
type Handler struct {
	service *portfolio.Service
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler.
func NewHandler(service *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleGetPortfolio returns the reconciled aggregate positions.
// GET /api/portfolio
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Latest()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to reconcile portfolio")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

// HandleGetConflicts returns only the reconciliation conflicts.
// GET /api/portfolio/conflicts
func (h *Handler) HandleGetConflicts(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Latest()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to reconcile portfolio")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"conflicts":     view.Conflicts,
		"reconciled_at": view.ReconciledAt,
		"stale":         view.Stale,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]any{
		"error": map[string]any{"message": message},
	})
}
