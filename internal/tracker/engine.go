package tracker

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
)

type Deps struct {
	Source     FrameSource
	Detector   Detector
	Enhancer   Enhancer
	Recognizer Recognizer
	Sessions   SessionSink

	// Optional.
	Entries   EntrySink
	Events    EventSink
	Snapshots Snapshotter
	Clock     clock.Clock
	Logger    *zap.SugaredLogger
}

// Engine runs the per-frame loop: detect, resolve, reap, emit.
type Engine struct {
	cfg      Config
	source   FrameSource
	detector Detector
	sessions SessionSink
	clock    clock.Clock
	logger   *zap.SugaredLogger

	registry *Registry
	resolver *Resolver
	reaper   *Reaper

	frames   atomic.Int64
	snapshot atomic.Pointer[[]domain.Track]
}

func NewEngine(cfg Config, deps Deps) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("NewEngine: %w", err)
	}
	switch {
	case deps.Source == nil:
		return nil, errors.New("NewEngine: frame source is required")
	case deps.Detector == nil:
		return nil, errors.New("NewEngine: detector is required")
	case deps.Recognizer == nil:
		return nil, errors.New("NewEngine: recognizer is required")
	case deps.Sessions == nil:
		return nil, errors.New("NewEngine: session sink is required")
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop().Sugar()
	}
	logger := deps.Logger.Named("tracker")

	e := &Engine{
		cfg:      cfg,
		source:   deps.Source,
		detector: deps.Detector,
		sessions: deps.Sessions,
		clock:    deps.Clock,
		logger:   logger,
		registry: NewRegistry(),
		resolver: NewResolver(cfg, deps.Enhancer, deps.Recognizer, logger).
			WithSnapshots(deps.Snapshots).
			WithEntries(deps.Entries).
			WithEvents(deps.Events),
		reaper: NewReaper(cfg, deps.Events, logger),
	}
	empty := []domain.Track{}
	e.snapshot.Store(&empty)
	return e, nil
}

// Run pulls frames until ctx is cancelled or the source reports io.EOF. The
// source is closed on every exit path. Open tracks are not flushed on exit.
func (e *Engine) Run(ctx context.Context) (err error) {
	defer func() {
		if cerr := e.source.Close(); cerr != nil {
			e.logger.Warnf("Engine: closing frame source: %v", cerr)
		}
	}()

	e.logger.Infof("Engine: tracking started for %s/%s", e.cfg.Lot, e.cfg.Slot)
	for {
		if ctx.Err() != nil {
			e.logger.Info("Engine: stop requested")
			return nil
		}
		frame, err := e.source.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				e.logger.Info("Engine: frame source exhausted")
				return nil
			}
			if ctx.Err() != nil {
				e.logger.Info("Engine: stop requested")
				return nil
			}
			return fmt.Errorf("Engine.Run: reading frame: %w", err)
		}
		e.ProcessFrame(ctx, frame)
	}
}

// ProcessFrame runs one detect/resolve/reap cycle at the current clock time.
// Not safe for concurrent use with Run.
func (e *Engine) ProcessFrame(ctx context.Context, frame image.Image) {
	now := e.clock.Now()
	e.frames.Add(1)

	boxes, err := e.detector.Detect(ctx, frame)
	if err != nil {
		// Reaping on a frame we could not look at would fake departures.
		e.logger.Warnf("Engine: detector failed, skipping frame: %v", err)
		return
	}

	seen := e.resolver.Resolve(ctx, e.registry, frame, boxes, now)
	for _, ct := range e.reaper.Reap(e.registry, seen, now) {
		if err := e.sessions.EmitSession(ct.Plate, e.cfg.Lot, e.cfg.Slot, ct.FirstSeen, ct.LastSeen, ct.Duration); err != nil {
			e.logger.Errorf("Engine: session for %s not emitted: %v", ct.Plate, err)
		}
	}

	snap := e.registry.Snapshot()
	e.snapshot.Store(&snap)
}

// Tracks returns the live tracks as of the last processed frame. Safe to call
// from any goroutine.
func (e *Engine) Tracks() []domain.Track {
	return *e.snapshot.Load()
}

func (e *Engine) Frames() int64 {
	return e.frames.Load()
}

func (e *Engine) OCRCalls() int64 {
	return e.resolver.OCRCalls()
}
