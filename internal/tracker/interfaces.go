package tracker

import (
	"context"
	"image"
	"time"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
)

// FrameSource is a blocking pull source. Next returns io.EOF at end of stream.
type FrameSource interface {
	Next(ctx context.Context) (image.Image, error)
	Close() error
}

type Detector interface {
	Detect(ctx context.Context, frame image.Image) ([]domain.Box, error)
}

// Enhancer must be deterministic and stateless.
type Enhancer interface {
	Enhance(img image.Image) image.Image
}

type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]domain.TextCandidate, error)
}

// SessionSink receives departed tracks. Implementations must not block on I/O.
type SessionSink interface {
	EmitSession(plate, lot, slot string, start, end time.Time, duration time.Duration) error
}

// EntrySink receives a value copy of every newly validated plate. Must not block.
type EntrySink interface {
	HandleEntry(event domain.EntryEvent)
}

// EventSink receives lifecycle notifications. Must not block.
type EventSink interface {
	PublishTrackEvent(event domain.TrackEvent)
}

// Snapshotter persists OCR crops for debugging.
type Snapshotter interface {
	SaveCrop(name string, img image.Image) error
}
