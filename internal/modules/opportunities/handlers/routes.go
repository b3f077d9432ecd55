package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all opportunity routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/opportunities", func(r chi.Router) {
		r.Get("/", h.HandleGetLatest)      // Latest ranked batch
		r.Get("/stats", h.HandleGetStats)  // Batch confidence statistics
		r.Post("/rank", h.HandleRankBatch) // Rank a posted candidate batch
	})
}
