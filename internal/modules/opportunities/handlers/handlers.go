// Package handlers provides HTTP handlers for the opportunities module.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/catalyst/internal/modules/opportunities"
)

// Handler handles opportunity HTTP requests.
type Handler struct {
	service     *opportunities.Service
	urgencyDays int
	log         zerolog.Logger
}

// NewHandler creates a new opportunities handler.
func NewHandler(service *opportunities.Service, urgencyDays int, log zerolog.Logger) *Handler {
	return &Handler{
		service:     service,
		urgencyDays: urgencyDays,
		log:         log.With().Str("handler", "opportunities").Logger(),
	}
}

// opportunityView is the wire projection of a record plus its evaluation-time
// derivations for the rendering sink.
type opportunityView struct {
	opportunities.Projection
	IsUrgent        bool     `json:"is_urgent"`
	RiskRewardRatio *float64 `json:"risk_reward_ratio"`
}

func (h *Handler) toViews(records []opportunities.Record, now time.Time) []opportunityView {
	views := make([]opportunityView, 0, len(records))
	for _, rec := range records {
		v := opportunityView{
			Projection: opportunities.ToProjection(rec),
			IsUrgent:   opportunities.IsUrgent(rec, now, h.urgencyDays),
		}
		if ratio, ok := opportunities.RiskRewardRatio(rec); ok {
			v.RiskRewardRatio = &ratio
		}
		views = append(views, v)
	}
	return views
}

// HandleRankBatch ranks a posted batch of raw candidates.
// POST /api/opportunities/rank with a JSON array of candidate field sets.
func (h *Handler) HandleRankBatch(w http.ResponseWriter, r *http.Request) {
	var raw []map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		h.writeError(w, http.StatusBadRequest, "request body must be a JSON array of candidates")
		return
	}

	result, err := h.service.RankBatch(raw)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to rank batch")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"cycle_id":      result.CycleID,
		"opportunities": h.toViews(result.Records, time.Now()),
		"stats":         result.Stats,
		"skipped":       result.Skipped,
	})
}

// HandleGetLatest returns the most recently persisted ranked batch.
// GET /api/opportunities
func (h *Handler) HandleGetLatest(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Latest()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load latest batch")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"cycle_id":      result.CycleID,
		"opportunities": h.toViews(result.Records, time.Now()),
		"stats":         result.Stats,
	})
}

// HandleGetStats returns only the confidence statistics of the latest batch.
// GET /api/opportunities/stats
func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Latest()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load latest batch")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result.Stats)
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
