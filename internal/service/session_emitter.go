package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
)

var (
	ErrInvalidSession = errors.New("invalid session")
	ErrEmitterClosed  = errors.New("session emitter is closed")
	ErrQueueFull      = errors.New("session queue is full")
)

// SessionStore is the write side of the session repository.
type SessionStore interface {
	Store(ctx context.Context, session *domain.Session) error
}

// EventPublisher receives lifecycle notifications; the websocket hub implements it.
type EventPublisher interface {
	PublishTrackEvent(event domain.TrackEvent)
}

type EmitterConfig struct {
	MinDwell     time.Duration
	QueueSize    int
	StoreTimeout time.Duration
}

type EmitterStats struct {
	Queued  int64 `json:"queued"`
	Stored  int64 `json:"stored"`
	Failed  int64 `json:"failed"`
	Dropped int64 `json:"dropped"`
}

// SessionEmitter validates closed tracks and hands them to a background writer so
// the frame loop never waits on the store. Failed writes are logged and counted,
// not retried.
type SessionEmitter struct {
	store  SessionStore
	cfg    EmitterConfig
	events EventPublisher
	logger *zap.SugaredLogger

	queue  chan domain.Session
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	queued  atomic.Int64
	stored  atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

func NewSessionEmitter(store SessionStore, cfg EmitterConfig, events EventPublisher, logger *zap.SugaredLogger) *SessionEmitter {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	e := &SessionEmitter{
		store:  store,
		cfg:    cfg,
		events: events,
		logger: logger.Named("emitter"),
		queue:  make(chan domain.Session, cfg.QueueSize),
	}
	e.wg.Add(1)
	go e.run()
	return e
}

// EmitSession never blocks. A full queue drops the session and reports ErrQueueFull.
func (e *SessionEmitter) EmitSession(plate, lot, slot string, start, end time.Time, duration time.Duration) error {
	session, err := e.build(plate, lot, slot, start, end, duration)
	if err != nil {
		return err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrEmitterClosed
	}
	select {
	case e.queue <- session:
		e.queued.Add(1)
		return nil
	default:
		e.dropped.Add(1)
		e.logger.Errorf("SessionEmitter: queue full, dropping session %s for %s", session.SessionUID, plate)
		return fmt.Errorf("SessionEmitter.EmitSession %s: %w", plate, ErrQueueFull)
	}
}

func (e *SessionEmitter) build(plate, lot, slot string, start, end time.Time, duration time.Duration) (domain.Session, error) {
	switch {
	case plate == "":
		return domain.Session{}, fmt.Errorf("%w: empty plate", ErrInvalidSession)
	case end.Before(start):
		return domain.Session{}, fmt.Errorf("%w: end %s before start %s", ErrInvalidSession, end, start)
	case duration != end.Sub(start):
		return domain.Session{}, fmt.Errorf("%w: duration %s does not match end-start %s", ErrInvalidSession, duration, end.Sub(start))
	case duration <= e.cfg.MinDwell:
		return domain.Session{}, fmt.Errorf("%w: duration %s not above minimum %s", ErrInvalidSession, duration, e.cfg.MinDwell)
	}
	return domain.Session{
		SessionUID: uuid.New(),
		Plate:      plate,
		Lot:        lot,
		Slot:       slot,
		StartTime:  start,
		EndTime:    end,
		Duration:   duration,
	}, nil
}

func (e *SessionEmitter) run() {
	defer e.wg.Done()
	for session := range e.queue {
		e.write(session)
	}
}

func (e *SessionEmitter) write(session domain.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.StoreTimeout)
	defer cancel()

	if err := e.store.Store(ctx, &session); err != nil {
		e.failed.Add(1)
		e.logger.Errorf("SessionEmitter: storing session %s for %s failed: %v", session.SessionUID, session.Plate, err)
		return
	}
	e.stored.Add(1)
	e.logger.Infof("Session stored: %s in %s/%s for %s", session.Plate, session.Lot, session.Slot, session.Duration)

	if e.events != nil {
		e.events.PublishTrackEvent(domain.TrackEvent{
			EventID:        uuid.NewString(),
			Type:           domain.SessionStored,
			Plate:          session.Plate,
			Timestamp:      session.EndTime,
			DwellSeconds:   session.Duration.Seconds(),
			SessionEmitted: true,
			Lot:            session.Lot,
			Slot:           session.Slot,
		})
	}
}

// Close stops accepting sessions and waits until the queue is drained.
func (e *SessionEmitter) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.queue)
	e.mu.Unlock()

	e.wg.Wait()
}

func (e *SessionEmitter) Stats() EmitterStats {
	return EmitterStats{
		Queued:  e.queued.Load(),
		Stored:  e.stored.Load(),
		Failed:  e.failed.Load(),
		Dropped: e.dropped.Load(),
	}
}
