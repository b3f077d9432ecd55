package opportunities

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// BatchStats summarizes the confidence distribution of a ranked batch for
// the dashboard sink.
type BatchStats struct {
	Count            int     `json:"count"`
	UrgentCount      int     `json:"urgent_count"`
	MeanConfidence   float64 `json:"mean_confidence"`
	StdDevConfidence float64 `json:"stddev_confidence"`
	MedianConfidence float64 `json:"median_confidence"`
	MaxConfidence    float64 `json:"max_confidence"`
}

// ComputeBatchStats derives summary statistics over a batch of records.
// Urgency is evaluated against the given clock and threshold.
func ComputeBatchStats(records []Record, now time.Time, urgencyDays int) BatchStats {
	stats := BatchStats{Count: len(records)}
	if len(records) == 0 {
		return stats
	}

	scores := make([]float64, len(records))
	for i, r := range records {
		scores[i] = r.ConfidenceScore
		if IsUrgent(r, now, urgencyDays) {
			stats.UrgentCount++
		}
	}

	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)

	stats.MeanConfidence = stat.Mean(scores, nil)
	stats.MedianConfidence = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	stats.MaxConfidence = sorted[len(sorted)-1]
	if len(scores) > 1 {
		stats.StdDevConfidence = stat.StdDev(scores, nil)
	}

	return stats
}
