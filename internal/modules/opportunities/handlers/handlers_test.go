package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/aristath/catalyst/internal/modules/opportunities"
)

func setupRouter(t *testing.T) (chi.Router, *opportunities.Service) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo, err := opportunities.NewRepository(db, log)
	require.NoError(t, err)
	service := opportunities.NewService(nil, repo, opportunities.DefaultUrgencyThresholdDays, log)

	r := chi.NewRouter()
	NewHandler(service, opportunities.DefaultUrgencyThresholdDays, log).RegisterRoutes(r)
	return r, service
}

func rankBody(t *testing.T, candidates []map[string]any) string {
	t.Helper()
	data, err := json.Marshal(candidates)
	require.NoError(t, err)
	return string(data)
}

func urgentCandidate(ticker string, confidence float64) map[string]any {
	now := time.Now().UTC()
	return map[string]any{
		"ticker":             ticker,
		"catalyst_type":      "EARNINGS",
		"event_date":         now.AddDate(0, 0, 3).Format(time.RFC3339Nano),
		"confidence_score":   confidence,
		"estimated_upside":   20.0,
		"estimated_downside": 8.0,
		"source_url":         "https://example.com/" + ticker,
		"discovered_at":      now.Format(time.RFC3339Nano),
	}
}

func TestHandleRankBatch(t *testing.T) {
	router, _ := setupRouter(t)

	body := rankBody(t, []map[string]any{
		urgentCandidate("msft", 0.6),
		urgentCandidate("aapl", 0.9),
	})
	req := httptest.NewRequest(http.MethodPost, "/opportunities/rank", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		CycleID       string `json:"cycle_id"`
		Opportunities []struct {
			Ticker          string   `json:"ticker"`
			IsUrgent        bool     `json:"is_urgent"`
			RiskRewardRatio *float64 `json:"risk_reward_ratio"`
		} `json:"opportunities"`
		Stats opportunities.BatchStats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.CycleID)
	require.Len(t, resp.Opportunities, 2)
	assert.Equal(t, "AAPL", resp.Opportunities[0].Ticker, "response is in rank order")
	assert.True(t, resp.Opportunities[0].IsUrgent)
	require.NotNil(t, resp.Opportunities[0].RiskRewardRatio)
	assert.InDelta(t, 2.5, *resp.Opportunities[0].RiskRewardRatio, 1e-9)
	assert.Equal(t, 2, resp.Stats.Count)
}

func TestHandleRankBatch_InvalidBody(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/opportunities/rank", strings.NewReader(`{"not": "an array"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestHandleRankBatch_ReportsSkipped(t *testing.T) {
	router, _ := setupRouter(t)

	bad := urgentCandidate("aapl", 0.9)
	delete(bad, "source_url")
	body := rankBody(t, []map[string]any{bad})

	req := httptest.NewRequest(http.MethodPost, "/opportunities/rank", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, "invalid candidates are skipped, not a request failure")

	var resp struct {
		Skipped []struct {
			Index  int    `json:"index"`
			Reason string `json:"reason"`
		} `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Skipped, 1)
	assert.Contains(t, resp.Skipped[0].Reason, "source_url")
}

func TestHandleGetLatest(t *testing.T) {
	router, service := setupRouter(t)

	_, err := service.RankBatch([]map[string]any{urgentCandidate("aapl", 0.9)})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/opportunities", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Opportunities []struct {
			Ticker string `json:"ticker"`
		} `json:"opportunities"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Opportunities, 1)
	assert.Equal(t, "AAPL", resp.Opportunities[0].Ticker)
}

func TestHandleGetLatest_EmptyStore(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/opportunities", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Opportunities []any `json:"opportunities"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Opportunities)
}

func TestHandleGetStats(t *testing.T) {
	router, service := setupRouter(t)

	_, err := service.RankBatch([]map[string]any{
		urgentCandidate("aapl", 0.9),
		urgentCandidate("msft", 0.5),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/opportunities/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var stats opportunities.BatchStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Count)
	assert.InDelta(t, 0.7, stats.MeanConfidence, 1e-9)
	assert.InDelta(t, 0.9, stats.MaxConfidence, 1e-9)
}
