package tracker

import (
	"context"
	"image"
	"io"
	"sync"
	"time"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
)

func blankFrame() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 640, 480))
}

type stubDetector struct {
	boxes []domain.Box
	err   error
}

func (d *stubDetector) Detect(context.Context, image.Image) ([]domain.Box, error) {
	return d.boxes, d.err
}

// scriptedRecognizer returns reads in order; once exhausted it repeats the last one.
type scriptedRecognizer struct {
	reads [][]domain.TextCandidate
	err   error
	calls int
}

func (r *scriptedRecognizer) Recognize(context.Context, image.Image) ([]domain.TextCandidate, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	if len(r.reads) == 0 {
		return nil, nil
	}
	i := min(r.calls-1, len(r.reads)-1)
	return r.reads[i], nil
}

func reads(texts ...string) *scriptedRecognizer {
	r := &scriptedRecognizer{}
	for _, t := range texts {
		r.reads = append(r.reads, []domain.TextCandidate{{Text: t, Confidence: 0.9}})
	}
	return r
}

type emitted struct {
	plate, lot, slot string
	start, end       time.Time
	duration         time.Duration
}

type recordingSessions struct {
	mu       sync.Mutex
	sessions []emitted
	err      error
}

func (s *recordingSessions) EmitSession(plate, lot, slot string, start, end time.Time, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append(s.sessions, emitted{plate, lot, slot, start, end, duration})
	return s.err
}

func (s *recordingSessions) all() []emitted {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]emitted(nil), s.sessions...)
}

type recordingEvents struct {
	events []domain.TrackEvent
}

func (e *recordingEvents) PublishTrackEvent(ev domain.TrackEvent) {
	e.events = append(e.events, ev)
}

func (e *recordingEvents) ofType(t domain.TrackEventType) []domain.TrackEvent {
	var out []domain.TrackEvent
	for _, ev := range e.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type recordingEntries struct {
	entries []domain.EntryEvent
}

func (e *recordingEntries) HandleEntry(ev domain.EntryEvent) {
	e.entries = append(e.entries, ev)
}

type recordingSnapshots struct {
	names []string
}

func (s *recordingSnapshots) SaveCrop(name string, _ image.Image) error {
	s.names = append(s.names, name)
	return nil
}

// frameQueue yields n frames, then io.EOF. onNext runs before each frame is returned.
type frameQueue struct {
	n      int
	onNext func(i int)
	err    error
	closed bool
	served int
}

func (q *frameQueue) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.err != nil {
		return nil, q.err
	}
	if q.served >= q.n {
		return nil, io.EOF
	}
	if q.onNext != nil {
		q.onNext(q.served)
	}
	q.served++
	return blankFrame(), nil
}

func (q *frameQueue) Close() error {
	q.closed = true
	return nil
}
