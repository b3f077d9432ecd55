package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs atomic.Int64
	err  error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run() error {
	j.runs.Add(1)
	return j.err
}

func TestAddJob_InvalidSchedule(t *testing.T) {
	s := New(zerolog.New(nil).Level(zerolog.Disabled))
	err := s.AddJob("not a cron spec", &countingJob{})
	assert.Error(t, err)
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := New(zerolog.New(nil).Level(zerolog.Disabled))
	job := &countingJob{}
	require.NoError(t, s.AddJob("@every 100ms", job))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return job.runs.Load() >= 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestScheduler_JobErrorDoesNotStopSchedule(t *testing.T) {
	s := New(zerolog.New(nil).Level(zerolog.Disabled))
	job := &countingJob{err: assert.AnError}
	require.NoError(t, s.AddJob("@every 100ms", job))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return job.runs.Load() >= 2
	}, 3*time.Second, 20*time.Millisecond)
}
