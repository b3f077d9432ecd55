package portfolio

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/catalyst/internal/domain"
)

// View is the reconciled portfolio handed to the rendering sink.
type View struct {
	Positions    []AggregatePosition `json:"positions"`
	Conflicts    []Conflict          `json:"conflicts"`
	ReconciledAt time.Time           `json:"reconciled_at"`
	Stale        bool                `json:"stale"` // true when served from the last snapshot
}

// Service orchestrates the reconciliation cycle: fetch automated positions,
// merge them with the static manual holdings, and snapshot the result.
type Service struct {
	sources  []domain.BrokerPositionSource
	manual   []Holding
	prices   domain.PriceLookup
	snapshot *SnapshotRepository
	log      zerolog.Logger
}

// NewService creates the portfolio service. All collaborators are optional;
// with no broker sources the view contains manual holdings only.
func NewService(
	sources []domain.BrokerPositionSource,
	manual []Holding,
	prices domain.PriceLookup,
	snapshot *SnapshotRepository,
	log zerolog.Logger,
) *Service {
	return &Service{
		sources:  sources,
		manual:   manual,
		prices:   prices,
		snapshot: snapshot,
		log:      log.With().Str("module", "portfolio").Logger(),
	}
}

// Reconcile runs one reconciliation cycle against the live broker feeds.
// Positions that fail validation are skipped; a failing source is skipped
// with a warning so one dead broker does not blank the whole portfolio.
func (s *Service) Reconcile() (View, error) {
	var automated []Holding
	for _, source := range s.sources {
		positions, err := source.GetPositions()
		if err != nil {
			s.log.Warn().Err(err).Str("broker", source.Broker()).Msg("Failed to fetch broker positions")
			continue
		}
		for _, pos := range positions {
			h, err := NewAutomatedHolding(source.Broker(), pos)
			if err != nil {
				s.log.Warn().
					Err(err).
					Str("broker", source.Broker()).
					Str("symbol", pos.Symbol).
					Msg("Skipping invalid broker position")
				continue
			}
			automated = append(automated, h)
		}
	}

	aggregates := Reconcile(automated, s.manual, s.prices)

	view := View{
		Positions:    aggregates,
		Conflicts:    collectConflicts(aggregates),
		ReconciledAt: time.Now().UTC(),
	}

	if s.snapshot != nil {
		if err := s.snapshot.Save(aggregates); err != nil {
			s.log.Error().Err(err).Msg("Failed to store reconciliation snapshot")
		}
	}

	s.log.Info().
		Int("automated", len(automated)).
		Int("manual", len(s.manual)).
		Int("positions", len(aggregates)).
		Int("conflicts", len(view.Conflicts)).
		Msg("Reconciliation cycle completed")

	return view, nil
}

// Latest returns a fresh reconciliation, falling back to the stored snapshot
// when every broker source fails and nothing was reconciled.
func (s *Service) Latest() (View, error) {
	view, err := s.Reconcile()
	if err == nil && (len(view.Positions) > 0 || s.snapshot == nil) {
		return view, nil
	}

	if s.snapshot != nil {
		aggregates, capturedAt, snapErr := s.snapshot.Load()
		if snapErr == nil {
			s.log.Warn().Time("captured_at", capturedAt).Msg("Serving portfolio from last snapshot")
			return View{
				Positions:    aggregates,
				Conflicts:    collectConflicts(aggregates),
				ReconciledAt: capturedAt,
				Stale:        true,
			}, nil
		}
		if !errors.Is(snapErr, sql.ErrNoRows) {
			s.log.Error().Err(snapErr).Msg("Failed to load reconciliation snapshot")
		}
	}

	if err != nil {
		return View{}, fmt.Errorf("reconciliation failed: %w", err)
	}
	return view, nil
}

func collectConflicts(aggregates []AggregatePosition) []Conflict {
	conflicts := []Conflict{}
	for _, agg := range aggregates {
		conflicts = append(conflicts, agg.Conflicts...)
	}
	return conflicts
}
