package schedule

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRegister(t *testing.T) {
	s := NewScheduler()

	require.NoError(t, s.Register("nightly", RescrapeCronSpec, func() {}))
	assert.True(t, s.Registered("nightly"))
	assert.False(t, s.Registered("other"))
}

func TestSchedulerRegisterReplaces(t *testing.T) {
	s := NewScheduler()

	var first, second atomic.Int64
	require.NoError(t, s.Register("job", "* * * * *", func() { first.Add(1) }))
	require.NoError(t, s.Register("job", "* * * * *", func() { second.Add(1) }))

	assert.True(t, s.Registered("job"))

	// Only the replacement entry remains in the cron table.
	s.Start()
	defer s.Stop()
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, first.Load())
}

func TestSchedulerRegisterValidation(t *testing.T) {
	s := NewScheduler()

	err := s.Register("", RescrapeCronSpec, func() {})
	assert.ErrorIs(t, err, ErrJobNameRequired)

	err = s.Register("bad", "not a cron spec", func() {})
	assert.Error(t, err)
	assert.False(t, s.Registered("bad"))
}

func TestSweepCronSpecs(t *testing.T) {
	// Both standing sweeps are parseable cron entries.
	s := NewScheduler()
	assert.NoError(t, s.Register("rescrape", RescrapeCronSpec, func() {}))
	assert.NoError(t, s.Register("deletion", DeletionCronSpec, func() {}))
}
