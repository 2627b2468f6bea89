package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
)

func openAt(t *testing.T, reg *Registry, identity string, first, last time.Time) {
	t.Helper()
	_, err := reg.Open(identity, plateBox, first)
	require.NoError(t, err)
	reg.Touch(identity, plateBox, last)
}

func TestReapLeavesTracksWithinGrace(t *testing.T) {
	reg := NewRegistry()
	openAt(t, reg, "KA 18 EQ 0001", t0, t0.Add(40*time.Second))
	r := NewReaper(DefaultConfig(), nil, zaptest.NewLogger(t).Sugar())

	closed := r.Reap(reg, Seen{}, t0.Add(43*time.Second))

	assert.Empty(t, closed)
	assert.Equal(t, 1, reg.Len())
}

func TestReapUsesLastSeen(t *testing.T) {
	reg := NewRegistry()
	openAt(t, reg, "KA 18 EQ 0001", t0, t0.Add(40*time.Second))
	events := &recordingEvents{}
	r := NewReaper(DefaultConfig(), events, zaptest.NewLogger(t).Sugar())

	now := t0.Add(44 * time.Second)
	closed := r.Reap(reg, Seen{}, now)

	require.Len(t, closed, 1)
	assert.Equal(t, domain.ClosedTrack{
		Plate:     "KA 18 EQ 0001",
		FirstSeen: t0,
		LastSeen:  t0.Add(40 * time.Second),
		Duration:  40 * time.Second,
		ReapedAt:  now,
	}, closed[0])
	assert.Zero(t, reg.Len())

	departed := events.ofType(domain.TrackDeparted)
	require.Len(t, departed, 1)
	assert.True(t, departed[0].SessionEmitted)
	assert.InDelta(t, 40.0, departed[0].DwellSeconds, 1e-9)
}

func TestReapDropsShortDwell(t *testing.T) {
	reg := NewRegistry()
	openAt(t, reg, "KA 18 EQ 0001", t0, t0.Add(5*time.Second))
	events := &recordingEvents{}
	r := NewReaper(DefaultConfig(), events, zaptest.NewLogger(t).Sugar())

	closed := r.Reap(reg, Seen{}, t0.Add(10*time.Second))

	assert.Empty(t, closed)
	assert.Zero(t, reg.Len())
	require.Len(t, events.events, 1)
	assert.False(t, events.events[0].SessionEmitted)
}

func TestReapMinDwellIsStrict(t *testing.T) {
	reg := NewRegistry()
	openAt(t, reg, "KA 18 EQ 0001", t0, t0.Add(30*time.Second))
	r := NewReaper(DefaultConfig(), nil, zaptest.NewLogger(t).Sugar())

	assert.Empty(t, r.Reap(reg, Seen{}, t0.Add(time.Minute)))
}

func TestReapSkipsSeenTracks(t *testing.T) {
	reg := NewRegistry()
	openAt(t, reg, "KA 18 EQ 0001", t0, t0)
	openAt(t, reg, "MH 01 AB 1234", t0, t0)
	r := NewReaper(DefaultConfig(), nil, zaptest.NewLogger(t).Sugar())

	seen := Seen{"KA 18 EQ 0001": {}}
	r.Reap(reg, seen, t0.Add(10*time.Second))

	_, ok := reg.Get("KA 18 EQ 0001")
	assert.True(t, ok)
	_, ok = reg.Get("MH 01 AB 1234")
	assert.False(t, ok)
}
