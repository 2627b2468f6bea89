package tracker

import (
	"cmp"
	"context"
	"fmt"
	"image"
	"slices"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
	"github.com/pruthvir7/ParkingManagement/internal/geometry"
	"github.com/pruthvir7/ParkingManagement/internal/plate"
)

// Seen is the set of identities matched in the current frame.
type Seen map[string]struct{}

func (s Seen) Has(identity string) bool {
	_, ok := s[identity]
	return ok
}

// Resolver matches the boxes of one frame against the registry and decides which
// boxes need a fresh OCR read.
type Resolver struct {
	cfg        Config
	enhancer   Enhancer
	recognizer Recognizer
	snapshots  Snapshotter
	entries    EntrySink
	events     EventSink
	logger     *zap.SugaredLogger

	ocrCalls atomic.Int64
}

func NewResolver(cfg Config, enhancer Enhancer, recognizer Recognizer, logger *zap.SugaredLogger) *Resolver {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Resolver{
		cfg:        cfg,
		enhancer:   enhancer,
		recognizer: recognizer,
		logger:     logger,
	}
}

func (r *Resolver) WithSnapshots(s Snapshotter) *Resolver { r.snapshots = s; return r }
func (r *Resolver) WithEntries(s EntrySink) *Resolver     { r.entries = s; return r }
func (r *Resolver) WithEvents(s EventSink) *Resolver      { r.events = s; return r }

// OCRCalls is the number of recognizer invocations so far.
func (r *Resolver) OCRCalls() int64 {
	return r.ocrCalls.Load()
}

// Resolve mutates reg in place and returns the identities seen in this frame.
func (r *Resolver) Resolve(ctx context.Context, reg *Registry, frame image.Image, boxes []domain.Box, now time.Time) Seen {
	seen := make(Seen)

	candidates := make([]domain.Box, 0, len(boxes))
	for _, b := range boxes {
		if b.Area() > r.cfg.MinPlateArea {
			candidates = append(candidates, b)
		}
	}

	if r.cfg.MatchPolicy == MatchGreedy {
		assigned := greedyAssign(reg, candidates, r.cfg.IoUThreshold)
		for i, c := range candidates {
			if id, ok := assigned[i]; ok {
				r.continueTrack(reg, id, c, now, seen)
				continue
			}
			r.readCandidate(ctx, reg, frame, c, now, seen)
		}
		return seen
	}

	for _, c := range candidates {
		if id, ok := firstMatch(reg, c, r.cfg.IoUThreshold); ok {
			r.continueTrack(reg, id, c, now, seen)
			continue
		}
		r.readCandidate(ctx, reg, frame, c, now, seen)
	}
	return seen
}

func firstMatch(reg *Registry, box domain.Box, threshold float64) (string, bool) {
	var matched string
	reg.Each(func(t *domain.Track) bool {
		if geometry.Overlap(t.LastBox, box) > threshold {
			matched = t.Identity
			return false
		}
		return true
	})
	return matched, matched != ""
}

type pairing struct {
	candidate int
	rank      int
	identity  string
	iou       float64
}

// greedyAssign only considers tracks that were live at the start of the frame.
func greedyAssign(reg *Registry, candidates []domain.Box, threshold float64) map[int]string {
	var pairs []pairing
	rank := 0
	reg.Each(func(t *domain.Track) bool {
		for i, c := range candidates {
			if iou := geometry.Overlap(t.LastBox, c); iou > threshold {
				pairs = append(pairs, pairing{candidate: i, rank: rank, identity: t.Identity, iou: iou})
			}
		}
		rank++
		return true
	})

	slices.SortStableFunc(pairs, func(a, b pairing) int {
		if c := cmp.Compare(b.iou, a.iou); c != 0 {
			return c
		}
		if c := cmp.Compare(a.candidate, b.candidate); c != 0 {
			return c
		}
		return cmp.Compare(a.rank, b.rank)
	})

	assigned := make(map[int]string)
	taken := make(map[string]bool)
	for _, p := range pairs {
		if _, done := assigned[p.candidate]; done || taken[p.identity] {
			continue
		}
		assigned[p.candidate] = p.identity
		taken[p.identity] = true
	}
	return assigned
}

func (r *Resolver) continueTrack(reg *Registry, identity string, box domain.Box, now time.Time, seen Seen) {
	t, ok := reg.Touch(identity, box, now)
	if !ok {
		return
	}
	seen[identity] = struct{}{}

	if !t.Announced {
		t.Announced = true
		r.logger.Infof("Plate %s still in view.", identity)
		r.publish(domain.TrackEvent{
			Type:      domain.TrackInView,
			Plate:     identity,
			Box:       &box,
			Timestamp: now,
		})
	}
}

func (r *Resolver) readCandidate(ctx context.Context, reg *Registry, frame image.Image, box domain.Box, now time.Time, seen Seen) {
	text, ok := r.recognize(ctx, frame, box)
	if !ok || !plate.Validate(text) {
		r.logger.Debugf("Resolver: discarding detection at (%d,%d), text %q is not a valid plate", box.X, box.Y, text)
		return
	}

	// Same plate read again after moving too far for IoU: still the same vehicle.
	if _, exists := reg.Get(text); exists {
		r.continueTrack(reg, text, box, now, seen)
		return
	}

	if _, err := reg.Open(text, box, now); err != nil {
		r.logger.Errorf("Resolver: %v", err)
		return
	}
	seen[text] = struct{}{}
	r.logger.Infof("Plate %s detected at (%d,%d).", text, box.X, box.Y)

	r.publish(domain.TrackEvent{
		Type:      domain.TrackEntered,
		Plate:     text,
		Box:       &box,
		Timestamp: now,
		Lot:       r.cfg.Lot,
		Slot:      r.cfg.Slot,
	})
	if r.entries != nil {
		r.entries.HandleEntry(domain.EntryEvent{
			EventID: uuid.NewString(),
			Plate:   text,
			Lot:     r.cfg.Lot,
			Slot:    r.cfg.Slot,
			At:      now,
			Source:  "tracker",
		})
	}
}

// recognize crops, enhances and reads one box. The second result is false when the
// crop is empty or the recognizer failed; both count as transient noise.
func (r *Resolver) recognize(ctx context.Context, frame image.Image, box domain.Box) (string, bool) {
	rect := box.Rect().Intersect(frame.Bounds())
	if rect.Empty() {
		return "", false
	}
	crop := imaging.Crop(frame, rect)

	var enhanced image.Image = crop
	if r.enhancer != nil {
		enhanced = r.enhancer.Enhance(crop)
	}
	r.saveSnapshots(box, crop, enhanced)

	r.ocrCalls.Add(1)
	candidates, err := r.recognizer.Recognize(ctx, enhanced)
	if err != nil {
		r.logger.Warnf("Resolver: recognizer failed for box (%d,%d): %v", box.X, box.Y, err)
		return "", false
	}
	text, _ := plate.SelectText(candidates, box)
	return text, true
}

func (r *Resolver) saveSnapshots(box domain.Box, crop, enhanced image.Image) {
	if r.snapshots == nil {
		return
	}
	if err := r.snapshots.SaveCrop(fmt.Sprintf("Plate_%d_%d_entry.png", box.X, box.Y), crop); err != nil {
		r.logger.Warnf("Resolver: could not save crop: %v", err)
	}
	if err := r.snapshots.SaveCrop(fmt.Sprintf("Processed_%d_%d.png", box.X, box.Y), enhanced); err != nil {
		r.logger.Warnf("Resolver: could not save processed crop: %v", err)
	}
}

func (r *Resolver) publish(ev domain.TrackEvent) {
	if r.events == nil {
		return
	}
	ev.EventID = uuid.NewString()
	r.events.PublishTrackEvent(ev)
}
