package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-co-op/gocron/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestJanitorSweepCutoff(t *testing.T) {
	repo := &memEntryChecks{deleted: 3}
	clk := clock.NewMock()
	clk.Set(t0)
	j := NewEntryCheckJanitor(repo, 168*time.Hour, clk, zaptest.NewLogger(t).Sugar())

	n, err := j.Sweep(context.Background())

	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.Equal(t, []time.Time{t0.Add(-168 * time.Hour)}, repo.cutoffs)
}

type failingChecks struct{ memEntryChecks }

func (f *failingChecks) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, errors.New("locked")
}

func TestJanitorSweepError(t *testing.T) {
	j := NewEntryCheckJanitor(&failingChecks{}, time.Hour, nil, nil)
	_, err := j.Sweep(context.Background())
	assert.ErrorContains(t, err, "locked")
}

func TestJanitorSchedule(t *testing.T) {
	repo := &memEntryChecks{}
	j := NewEntryCheckJanitor(repo, time.Hour, nil, zaptest.NewLogger(t).Sugar())

	s, err := gocron.NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })

	_, err = j.Schedule(s, 20*time.Millisecond)
	require.NoError(t, err)
	s.Start()

	assert.Eventually(t, func() bool { return repo.sweeps() >= 2 }, 2*time.Second, 10*time.Millisecond)
}
