package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
)

type engineHarness struct {
	engine   *Engine
	clock    *clock.Mock
	detector *stubDetector
	rec      *scriptedRecognizer
	sessions *recordingSessions
	source   *frameQueue
}

func newHarness(t *testing.T) *engineHarness {
	t.Helper()
	h := &engineHarness{
		clock:    clock.NewMock(),
		detector: &stubDetector{},
		rec:      reads("KA 18 EQ 0001"),
		sessions: &recordingSessions{},
		source:   &frameQueue{},
	}
	h.clock.Set(t0)
	e, err := NewEngine(DefaultConfig(), Deps{
		Source:     h.source,
		Detector:   h.detector,
		Recognizer: h.rec,
		Sessions:   h.sessions,
		Clock:      h.clock,
		Logger:     zaptest.NewLogger(t).Sugar(),
	})
	require.NoError(t, err)
	h.engine = e
	return h
}

// step advances the clock by d and processes one frame.
func (h *engineHarness) step(d time.Duration, boxes ...domain.Box) {
	h.clock.Add(d)
	h.detector.boxes = boxes
	h.engine.ProcessFrame(context.Background(), blankFrame())
}

func TestEngineSingleDwell(t *testing.T) {
	h := newHarness(t)

	h.step(0, plateBox)
	for i := 0; i < 40; i++ {
		h.step(time.Second, plateBox)
	}
	for i := 0; i < 14; i++ {
		h.step(time.Second)
	}

	sessions := h.sessions.all()
	require.Len(t, sessions, 1)
	s := sessions[0]
	assert.Equal(t, "KA 18 EQ 0001", s.plate)
	assert.Equal(t, "Lot_A", s.lot)
	assert.Equal(t, "Slot_1", s.slot)
	assert.Equal(t, t0, s.start)
	assert.Equal(t, t0.Add(40*time.Second), s.end)
	assert.Equal(t, 40*time.Second, s.duration)
	assert.Equal(t, 1, h.rec.calls, "only the first frame is read")
	assert.Empty(t, h.engine.Tracks())
}

func TestEngineShortDwellNoSession(t *testing.T) {
	h := newHarness(t)

	h.step(0, plateBox)
	for i := 0; i < 5; i++ {
		h.step(time.Second, plateBox)
	}
	for i := 0; i < 10; i++ {
		h.step(time.Second)
	}

	assert.Empty(t, h.sessions.all())
	assert.Empty(t, h.engine.Tracks())
}

func TestEngineBridgesShortGap(t *testing.T) {
	h := newHarness(t)

	h.step(0, plateBox)
	h.step(10*time.Second, plateBox)
	h.step(time.Second)
	h.step(time.Second)
	h.step(0, plateBox)

	tracks := h.engine.Tracks()
	require.Len(t, tracks, 1)
	assert.Equal(t, t0, tracks[0].FirstSeen)
	assert.Equal(t, t0.Add(12*time.Second), tracks[0].LastSeen)
	assert.Equal(t, 1, h.rec.calls)
}

func TestEngineReapsAfterLongGap(t *testing.T) {
	h := newHarness(t)

	h.step(0, plateBox)
	h.step(35*time.Second, plateBox)
	h.step(2 * time.Second)
	assert.Len(t, h.engine.Tracks(), 1)
	h.step(2 * time.Second)

	sessions := h.sessions.all()
	require.Len(t, sessions, 1)
	assert.Equal(t, t0.Add(35*time.Second), sessions[0].end)
	assert.Equal(t, 35*time.Second, sessions[0].duration)
	assert.Empty(t, h.engine.Tracks())
}

func TestEngineDetectorErrorSkipsFrame(t *testing.T) {
	h := newHarness(t)

	h.step(0, plateBox)
	h.step(35*time.Second, plateBox)
	h.detector.err = errors.New("camera glitch")
	h.clock.Add(10 * time.Second)
	h.engine.ProcessFrame(context.Background(), blankFrame())

	assert.Len(t, h.engine.Tracks(), 1, "a failed frame must not reap")
	assert.Empty(t, h.sessions.all())
}

func TestEngineSessionErrorDoesNotStopLoop(t *testing.T) {
	h := newHarness(t)
	h.sessions.err = errors.New("queue full")

	h.step(0, plateBox)
	h.step(35*time.Second, plateBox)
	h.step(5 * time.Second)
	h.step(time.Second, plateBox)

	assert.Len(t, h.sessions.all(), 1)
	assert.Len(t, h.engine.Tracks(), 1)
}

func TestEngineRunEOF(t *testing.T) {
	h := newHarness(t)
	h.source.n = 3
	h.detector.boxes = []domain.Box{plateBox}

	err := h.engine.Run(context.Background())

	require.NoError(t, err)
	assert.True(t, h.source.closed)
	assert.EqualValues(t, 3, h.engine.Frames())
}

func TestEngineRunCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	h.source.n = 100
	h.source.onNext = func(i int) {
		if i == 4 {
			cancel()
		}
	}

	err := h.engine.Run(ctx)

	require.NoError(t, err)
	assert.True(t, h.source.closed)
	assert.EqualValues(t, 5, h.engine.Frames())
}

func TestEngineRunSourceError(t *testing.T) {
	h := newHarness(t)
	h.source.err = errors.New("device unplugged")

	err := h.engine.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "device unplugged")
	assert.True(t, h.source.closed)
}

func TestNewEngineRequiresDeps(t *testing.T) {
	_, err := NewEngine(DefaultConfig(), Deps{})
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.MatchPolicy = "nearest"
	_, err = NewEngine(cfg, Deps{
		Source:     &frameQueue{},
		Detector:   &stubDetector{},
		Recognizer: reads(),
		Sessions:   &recordingSessions{},
	})
	assert.Error(t, err)
}
