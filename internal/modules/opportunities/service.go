package opportunities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/catalyst/internal/domain"
)

// RankResult is the outcome of one discovery cycle.
type RankResult struct {
	CycleID string      `json:"cycle_id"`
	Records []Record    `json:"records"`
	Stats   BatchStats  `json:"stats"`
	Skipped []SkipEntry `json:"skipped,omitempty"`
}

// SkipEntry records one candidate that failed validation during a cycle.
// Per-record failures are isolated: one bad candidate never aborts the batch.
type SkipEntry struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Service orchestrates the discovery cycle: pull raw candidates, validate
// one at a time collecting successes, rank, and persist the result.
type Service struct {
	source      domain.DiscoverySource
	repo        *Repository
	urgencyDays int
	log         zerolog.Logger
}

// NewService creates the opportunities service. The discovery source may be
// nil, in which case only RankBatch and Latest are usable.
func NewService(source domain.DiscoverySource, repo *Repository, urgencyDays int, log zerolog.Logger) *Service {
	return &Service{
		source:      source,
		repo:        repo,
		urgencyDays: urgencyDays,
		log:         log.With().Str("module", "opportunities").Logger(),
	}
}

// RunDiscoveryCycle pulls candidates from the discovery source and ranks
// them. The ranked batch replaces the persisted one.
func (s *Service) RunDiscoveryCycle() (RankResult, error) {
	if s.source == nil {
		return RankResult{}, fmt.Errorf("no discovery source configured")
	}

	raw, err := s.source.Discover()
	if err != nil {
		return RankResult{}, fmt.Errorf("discovery failed: %w", err)
	}

	return s.RankBatch(raw)
}

// RankBatch validates a batch of raw candidate field sets, ranks the valid
// ones, and persists the result under a fresh cycle ID. Invalid candidates
// are skipped and reported, never silently dropped and never fatal to the
// batch.
func (s *Service) RankBatch(raw []map[string]any) (RankResult, error) {
	records := make([]Record, 0, len(raw))
	var skipped []SkipEntry

	for i, fields := range raw {
		rec, err := DecodeFields(fields)
		if err != nil {
			s.log.Warn().Err(err).Int("index", i).Msg("Skipping invalid candidate")
			skipped = append(skipped, SkipEntry{Index: i, Reason: err.Error()})
			continue
		}
		records = append(records, rec)
	}

	ranked := Rank(records)

	result := RankResult{
		CycleID: uuid.New().String(),
		Records: ranked,
		Stats:   ComputeBatchStats(ranked, time.Now(), s.urgencyDays),
		Skipped: skipped,
	}

	if s.repo != nil {
		if err := s.repo.ReplaceBatch(result.CycleID, ranked); err != nil {
			return RankResult{}, fmt.Errorf("failed to persist ranked batch: %w", err)
		}
	}

	s.log.Info().
		Str("cycle_id", result.CycleID).
		Int("candidates", len(raw)).
		Int("ranked", len(ranked)).
		Int("skipped", len(skipped)).
		Msg("Discovery cycle completed")

	return result, nil
}

// Latest returns the most recently persisted ranked batch with fresh stats.
func (s *Service) Latest() (RankResult, error) {
	if s.repo == nil {
		return RankResult{}, fmt.Errorf("no repository configured")
	}

	cycleID, records, err := s.repo.GetLatest()
	if err != nil {
		return RankResult{}, fmt.Errorf("failed to load latest batch: %w", err)
	}

	return RankResult{
		CycleID: cycleID,
		Records: records,
		Stats:   ComputeBatchStats(records, time.Now(), s.urgencyDays),
	}, nil
}
