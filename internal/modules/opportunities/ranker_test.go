package opportunities

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/catalyst/internal/domain"
)

func mustRecord(t *testing.T, r Record) Record {
	t.Helper()
	rec, err := NewRecord(r)
	require.NoError(t, err)
	return rec
}

func candidate(t *testing.T, ticker, catalystType string, confidence float64, discovered time.Time) Record {
	t.Helper()
	r := validRecord()
	r.Ticker = ticker
	r.CatalystType = catalystType
	r.ConfidenceScore = confidence
	r.DiscoveredAt = discovered
	return mustRecord(t, r)
}

func TestRank_OrdersByConfidenceDescending(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	records := []Record{
		candidate(t, "MSFT", CatalystEarnings, 0.5, base),
		candidate(t, "AAPL", CatalystFDAApproval, 0.9, base),
		candidate(t, "NVDA", CatalystPartnership, 0.7, base),
	}

	ranked := Rank(records)
	require.Len(t, ranked, 3)
	assert.Equal(t, "AAPL", ranked[0].Ticker)
	assert.Equal(t, "NVDA", ranked[1].Ticker)
	assert.Equal(t, "MSFT", ranked[2].Ticker)
}

func TestRank_TiesBrokenByEventDateThenTicker(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	early := validRecord()
	early.Ticker = "ZZZZ"
	early.ConfidenceScore = 0.8
	early.EventDate = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	early.DiscoveredAt = base

	late := validRecord()
	late.Ticker = "AAAA"
	late.ConfidenceScore = 0.8
	late.EventDate = time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC)
	late.DiscoveredAt = base

	sameDateA := validRecord()
	sameDateA.Ticker = "BBBB"
	sameDateA.ConfidenceScore = 0.8
	sameDateA.EventDate = late.EventDate
	sameDateA.DiscoveredAt = base

	ranked := Rank([]Record{mustRecord(t, late), mustRecord(t, sameDateA), mustRecord(t, early)})
	require.Len(t, ranked, 3)
	assert.Equal(t, "ZZZZ", ranked[0].Ticker, "earlier event wins the confidence tie")
	assert.Equal(t, "AAAA", ranked[1].Ticker, "ticker breaks the event date tie")
	assert.Equal(t, "BBBB", ranked[2].Ticker)
}

func TestRank_MergesDuplicates(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	low := validRecord()
	low.Ticker = "MSFT"
	low.CatalystType = CatalystMergers
	low.ConfidenceScore = 0.6
	low.DiscoveredAt = base
	low.Headline = "Rumored acquisition target"
	low.Details = domain.NewMap().
		Set("rumor_source", domain.String("forum")).
		Set("deal_size", domain.String("unknown"))

	high := validRecord()
	high.Ticker = "MSFT"
	high.CatalystType = CatalystMergers
	high.ConfidenceScore = 0.9
	high.DiscoveredAt = base.Add(time.Hour)
	high.Headline = "Acquisition confirmed by press release"
	high.Details = domain.NewMap().
		Set("deal_size", domain.String("68B")).
		Set("press_url", domain.String("https://example.com/pr"))

	ranked := Rank([]Record{mustRecord(t, low), mustRecord(t, high)})
	require.Len(t, ranked, 1)

	survivor := ranked[0]
	assert.Equal(t, 0.9, survivor.ConfidenceScore)
	assert.Equal(t, "Acquisition confirmed by press release", survivor.Headline)

	// Details union: survivor's values win, discarded-only keys are added.
	dealSize, ok := survivor.Details.Get("deal_size")
	require.True(t, ok)
	assert.Equal(t, "68B", dealSize.StringVal())
	rumor, ok := survivor.Details.Get("rumor_source")
	require.True(t, ok)
	assert.Equal(t, "forum", rumor.StringVal())
	assert.True(t, survivor.Details.Has("press_url"))
}

func TestRank_ConfidenceTieGoesToLatestDiscovery(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	older := validRecord()
	older.Ticker = "AMD"
	older.ConfidenceScore = 0.7
	older.DiscoveredAt = base
	older.Headline = "older"

	newer := validRecord()
	newer.Ticker = "AMD"
	newer.ConfidenceScore = 0.7
	newer.DiscoveredAt = base.Add(2 * time.Hour)
	newer.Headline = "newer"

	ranked := Rank([]Record{mustRecord(t, older), mustRecord(t, newer)})
	require.Len(t, ranked, 1)
	assert.Equal(t, "newer", ranked[0].Headline)
}

func TestRank_SameTickerDifferentCatalystNotMerged(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	records := []Record{
		candidate(t, "AAPL", CatalystEarnings, 0.6, base),
		candidate(t, "AAPL", CatalystSECFiling, 0.6, base),
	}

	ranked := Rank(records)
	assert.Len(t, ranked, 2)
}

func TestRank_DeterministicUnderShuffle(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	records := []Record{
		candidate(t, "AAPL", CatalystEarnings, 0.9, base),
		candidate(t, "AAPL", CatalystEarnings, 0.6, base.Add(time.Hour)),
		candidate(t, "MSFT", CatalystMergers, 0.8, base),
		candidate(t, "NVDA", CatalystPartnership, 0.8, base),
		candidate(t, "TSLA", CatalystFDAApproval, 0.3, base),
	}

	want := Rank(records)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]Record, len(records))
		copy(shuffled, records)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, want, Rank(shuffled), "ranking must not depend on input order")
	}
}

func TestRank_Idempotent(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	records := []Record{
		candidate(t, "AAPL", CatalystEarnings, 0.9, base),
		candidate(t, "AAPL", CatalystEarnings, 0.6, base.Add(time.Hour)),
		candidate(t, "MSFT", CatalystMergers, 0.8, base),
	}

	once := Rank(records)
	twice := Rank(once)
	assert.Equal(t, once, twice)
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	a := validRecord()
	a.Ticker = "AAPL"
	a.ConfidenceScore = 0.9
	a.DiscoveredAt = base
	a.Details = domain.NewMap().Set("k", domain.String("survivor"))

	b := validRecord()
	b.Ticker = "AAPL"
	b.ConfidenceScore = 0.5
	b.DiscoveredAt = base
	b.Details = domain.NewMap().Set("extra", domain.String("merged in"))

	recA, recB := mustRecord(t, a), mustRecord(t, b)
	input := []Record{recA, recB}

	_ = Rank(input)

	assert.Equal(t, 1, recA.Details.Len(), "merge must clone, not extend the input's details")
	assert.Equal(t, "AAPL", input[0].Ticker)
	assert.Equal(t, 0.9, input[0].ConfidenceScore)
}

func TestRank_EmptyBatch(t *testing.T) {
	ranked := Rank(nil)
	assert.NotNil(t, ranked)
	assert.Len(t, ranked, 0)
}
