package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newEmitter(t *testing.T, store SessionStore, queue int) (*SessionEmitter, *recordingPublisher) {
	events := &recordingPublisher{}
	e := NewSessionEmitter(store, EmitterConfig{
		MinDwell:     30 * time.Second,
		QueueSize:    queue,
		StoreTimeout: time.Second,
	}, events, zaptest.NewLogger(t).Sugar())
	t.Cleanup(e.Close)
	return e, events
}

func TestEmitSessionStores(t *testing.T) {
	store := &memSessionStore{}
	e, events := newEmitter(t, store, 4)

	end := t0.Add(40 * time.Second)
	require.NoError(t, e.EmitSession("KA 18 EQ 0001", "Lot_A", "Slot_1", t0, end, 40*time.Second))
	e.Close()

	sessions := store.all()
	require.Len(t, sessions, 1)
	s := sessions[0]
	assert.Equal(t, "KA 18 EQ 0001", s.Plate)
	assert.Equal(t, "Lot_A", s.Lot)
	assert.Equal(t, "Slot_1", s.Slot)
	assert.Equal(t, t0, s.StartTime)
	assert.Equal(t, end, s.EndTime)
	assert.Equal(t, 40*time.Second, s.Duration)
	assert.False(t, s.Paid)
	assert.NotEqual(t, [16]byte{}, [16]byte(s.SessionUID))

	assert.Equal(t, EmitterStats{Queued: 1, Stored: 1}, e.Stats())
	evs := events.all()
	require.Len(t, evs, 1)
	assert.Equal(t, domain.SessionStored, evs[0].Type)
}

func TestEmitSessionValidation(t *testing.T) {
	e, _ := newEmitter(t, &memSessionStore{}, 4)
	end := t0.Add(time.Minute)

	tests := []struct {
		name       string
		plate      string
		start, end time.Time
		duration   time.Duration
	}{
		{"empty plate", "", t0, end, time.Minute},
		{"end before start", "KA 18 EQ 0001", end, t0, -time.Minute},
		{"duration mismatch", "KA 18 EQ 0001", t0, end, 50 * time.Second},
		{"below min dwell", "KA 18 EQ 0001", t0, t0.Add(30 * time.Second), 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.EmitSession(tt.plate, "Lot_A", "Slot_1", tt.start, tt.end, tt.duration)
			assert.ErrorIs(t, err, ErrInvalidSession)
		})
	}
	assert.Zero(t, e.Stats().Queued)
}

func TestEmitSessionStoreFailureIsCountedNotRetried(t *testing.T) {
	store := &memSessionStore{err: errors.New("db down")}
	e, events := newEmitter(t, store, 4)

	require.NoError(t, e.EmitSession("KA 18 EQ 0001", "Lot_A", "Slot_1", t0, t0.Add(time.Minute), time.Minute))
	e.Close()

	assert.Equal(t, EmitterStats{Queued: 1, Failed: 1}, e.Stats())
	assert.Empty(t, events.all())
}

func TestEmitSessionDropsWhenQueueFull(t *testing.T) {
	store := &memSessionStore{block: make(chan struct{})}
	e, _ := newEmitter(t, store, 1)

	emit := func() error {
		return e.EmitSession("KA 18 EQ 0001", "Lot_A", "Slot_1", t0, t0.Add(time.Minute), time.Minute)
	}
	// The worker takes the first session and blocks in Store; the second fills the queue.
	require.NoError(t, emit())
	require.Eventually(t, func() bool { return len(e.queue) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, emit())

	assert.ErrorIs(t, emit(), ErrQueueFull)
	assert.EqualValues(t, 1, e.Stats().Dropped)

	close(store.block)
	e.Close()
	assert.Len(t, store.all(), 2)
}

func TestEmitSessionAfterClose(t *testing.T) {
	e, _ := newEmitter(t, &memSessionStore{}, 1)
	e.Close()

	err := e.EmitSession("KA 18 EQ 0001", "Lot_A", "Slot_1", t0, t0.Add(time.Minute), time.Minute)
	assert.ErrorIs(t, err, ErrEmitterClosed)
}
