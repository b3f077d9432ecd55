package opportunities

import "sort"

// Rank collapses duplicate candidates and orders the batch for presentation.
//
// Merge: records are grouped by (ticker, catalyst type). Within a group the
// record with the highest confidence survives; exact ties go to the more
// recently discovered record, then to the record whose source (and finally
// headline) sorts first, so the survivor is the same for any input ordering.
// The survivor's details are extended with keys present only in discarded
// group members; the survivor's own values win on collision.
//
// Order: confidence descending, event date ascending, ticker ascending, with
// catalyst type as the last key to keep the comparator total.
//
// Rank is pure: inputs are never mutated, the result is a fresh slice, and
// ranking an already ranked, already deduplicated batch returns it unchanged.
func Rank(records []Record) []Record {
	type groupKey struct {
		ticker       string
		catalystType string
	}

	groups := make(map[groupKey][]Record)
	for _, r := range records {
		k := groupKey{ticker: r.Ticker, catalystType: r.CatalystType}
		groups[k] = append(groups[k], r)
	}

	merged := make([]Record, 0, len(groups))
	for _, group := range groups {
		merged = append(merged, mergeGroup(group))
	}

	sort.Slice(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.ConfidenceScore != b.ConfidenceScore {
			return a.ConfidenceScore > b.ConfidenceScore
		}
		if !a.EventDate.Equal(b.EventDate) {
			return a.EventDate.Before(b.EventDate)
		}
		if a.Ticker != b.Ticker {
			return a.Ticker < b.Ticker
		}
		return a.CatalystType < b.CatalystType
	})

	return merged
}

// mergeGroup picks the surviving record of one duplicate group and unions the
// details of the rest into it.
func mergeGroup(group []Record) Record {
	if len(group) == 1 {
		return group[0]
	}

	sorted := make([]Record, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.ConfidenceScore != b.ConfidenceScore {
			return a.ConfidenceScore > b.ConfidenceScore
		}
		if !a.DiscoveredAt.Equal(b.DiscoveredAt) {
			return a.DiscoveredAt.After(b.DiscoveredAt)
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Headline < b.Headline
	})

	survivor := sorted[0]
	details := survivor.Details.Clone()
	for _, discarded := range sorted[1:] {
		for _, key := range discarded.Details.Keys() {
			if details.Has(key) {
				continue
			}
			if v, ok := discarded.Details.Get(key); ok {
				details.Set(key, v.Clone())
			}
		}
	}
	survivor.Details = details

	return survivor
}
