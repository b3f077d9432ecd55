package scheduler

import (
	"github.com/aristath/catalyst/internal/modules/opportunities"
	"github.com/aristath/catalyst/internal/modules/portfolio"
)

// DiscoveryJob runs one discovery cycle against the configured feed.
type DiscoveryJob struct {
	Service *opportunities.Service
}

func (j *DiscoveryJob) Name() string { return "discovery_cycle" }

func (j *DiscoveryJob) Run() error {
	_, err := j.Service.RunDiscoveryCycle()
	return err
}

// ReconcileJob runs one portfolio reconciliation cycle.
type ReconcileJob struct {
	Service *portfolio.Service
}

func (j *ReconcileJob) Name() string { return "reconcile_cycle" }

func (j *ReconcileJob) Run() error {
	_, err := j.Service.Reconcile()
	return err
}
