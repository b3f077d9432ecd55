package portfolio

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/catalyst/internal/domain"
)

// stubBrokerSource plays one broker feed that either returns fixed positions
// or fails.
type stubBrokerSource struct {
	broker    string
	positions []domain.BrokerPosition
	err       error
}

func (s *stubBrokerSource) Broker() string { return s.broker }

func (s *stubBrokerSource) GetPositions() ([]domain.BrokerPosition, error) {
	return s.positions, s.err
}

func TestService_Reconcile(t *testing.T) {
	source := &stubBrokerSource{
		broker: "Alpaca",
		positions: []domain.BrokerPosition{
			{Symbol: "NVDA", Qty: 8, AvgCost: 450, CurrentPrice: 500, MarketValue: 4000, UnrealizedPL: 400},
		},
	}
	manual := []Holding{
		manualHolding(t, "AAPL", 10, 175, "SoFi"),
		manualHolding(t, "NVDA", 6, 430, "Alpaca"), // stale duplicate
	}
	svc := NewService([]domain.BrokerPositionSource{source}, manual, nil, setupSnapshotRepository(t),
		zerolog.New(nil).Level(zerolog.Disabled))

	view, err := svc.Reconcile()
	require.NoError(t, err)
	require.Len(t, view.Positions, 2)
	assert.False(t, view.Stale)
	assert.False(t, view.ReconciledAt.IsZero())

	assert.Equal(t, "AAPL", view.Positions[0].Symbol)
	assert.Equal(t, 10.0, view.Positions[0].Quantity)
	assert.Equal(t, "NVDA", view.Positions[1].Symbol)
	assert.Equal(t, 8.0, view.Positions[1].Quantity, "same-broker manual entry is excluded")
	assert.Empty(t, view.Conflicts)
}

func TestService_ReconcileFlagsCrossBrokerConflicts(t *testing.T) {
	source := &stubBrokerSource{
		broker: "Alpaca",
		positions: []domain.BrokerPosition{
			{Symbol: "TSLA", Qty: 3, AvgCost: 200, CurrentPrice: 250},
		},
	}
	manual := []Holding{manualHolding(t, "TSLA", 2, 210, "SoFi")}
	svc := NewService([]domain.BrokerPositionSource{source}, manual, nil, nil,
		zerolog.New(nil).Level(zerolog.Disabled))

	view, err := svc.Reconcile()
	require.NoError(t, err)
	require.Len(t, view.Conflicts, 1)
	assert.Equal(t, "TSLA", view.Conflicts[0].Symbol)
	require.Len(t, view.Positions, 1)
	assert.Equal(t, 5.0, view.Positions[0].Quantity)
}

func TestService_ReconcileSkipsFailingSource(t *testing.T) {
	dead := &stubBrokerSource{broker: "Tradier", err: errors.New("connection refused")}
	alive := &stubBrokerSource{
		broker:    "Alpaca",
		positions: []domain.BrokerPosition{{Symbol: "NVDA", Qty: 8, AvgCost: 450}},
	}
	svc := NewService([]domain.BrokerPositionSource{dead, alive}, nil, nil, nil,
		zerolog.New(nil).Level(zerolog.Disabled))

	view, err := svc.Reconcile()
	require.NoError(t, err, "one dead broker must not fail the cycle")
	require.Len(t, view.Positions, 1)
	assert.Equal(t, "NVDA", view.Positions[0].Symbol)
}

func TestService_ReconcileSkipsInvalidPositions(t *testing.T) {
	source := &stubBrokerSource{
		broker: "Alpaca",
		positions: []domain.BrokerPosition{
			{Symbol: "", Qty: 8, AvgCost: 450},
			{Symbol: "NVDA", Qty: 8, AvgCost: 450},
		},
	}
	svc := NewService([]domain.BrokerPositionSource{source}, nil, nil, nil,
		zerolog.New(nil).Level(zerolog.Disabled))

	view, err := svc.Reconcile()
	require.NoError(t, err)
	require.Len(t, view.Positions, 1)
	assert.Equal(t, "NVDA", view.Positions[0].Symbol)
}

func TestService_LatestFallsBackToSnapshot(t *testing.T) {
	snapshot := setupSnapshotRepository(t)
	log := zerolog.New(nil).Level(zerolog.Disabled)

	// First cycle with a live broker populates the snapshot.
	alive := &stubBrokerSource{
		broker:    "Alpaca",
		positions: []domain.BrokerPosition{{Symbol: "NVDA", Qty: 8, AvgCost: 450, CurrentPrice: 500}},
	}
	svc := NewService([]domain.BrokerPositionSource{alive}, nil, nil, snapshot, log)
	_, err := svc.Reconcile()
	require.NoError(t, err)

	// Later the broker dies; Latest serves the snapshot and marks it stale.
	dead := &stubBrokerSource{broker: "Alpaca", err: errors.New("connection refused")}
	svc = NewService([]domain.BrokerPositionSource{dead}, nil, nil, snapshot, log)

	view, err := svc.Latest()
	require.NoError(t, err)
	assert.True(t, view.Stale)
	require.Len(t, view.Positions, 1)
	assert.Equal(t, "NVDA", view.Positions[0].Symbol)
	assert.False(t, view.ReconciledAt.IsZero())
}

func TestService_LatestPrefersFreshData(t *testing.T) {
	snapshot := setupSnapshotRepository(t)
	require.NoError(t, snapshot.Save([]AggregatePosition{{Symbol: "OLD", Quantity: 1}}))

	alive := &stubBrokerSource{
		broker:    "Alpaca",
		positions: []domain.BrokerPosition{{Symbol: "NVDA", Qty: 8, AvgCost: 450}},
	}
	svc := NewService([]domain.BrokerPositionSource{alive}, nil, nil, snapshot,
		zerolog.New(nil).Level(zerolog.Disabled))

	view, err := svc.Latest()
	require.NoError(t, err)
	assert.False(t, view.Stale)
	require.Len(t, view.Positions, 1)
	assert.Equal(t, "NVDA", view.Positions[0].Symbol)
}

func TestService_LatestEmptyWithNoSnapshot(t *testing.T) {
	dead := &stubBrokerSource{broker: "Alpaca", err: errors.New("connection refused")}
	svc := NewService([]domain.BrokerPositionSource{dead}, nil, nil, setupSnapshotRepository(t),
		zerolog.New(nil).Level(zerolog.Disabled))

	view, err := svc.Latest()
	require.NoError(t, err)
	assert.Empty(t, view.Positions)
	assert.False(t, view.Stale)
}
