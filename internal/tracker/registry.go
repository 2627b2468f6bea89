package tracker

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
	"github.com/pruthvir7/ParkingManagement/internal/plate"
)

var (
	ErrInvalidIdentity   = errors.New("track identity does not satisfy the plate grammar")
	ErrDuplicateIdentity = errors.New("a live track with this identity already exists")
)

// Registry maps validated plate identities to live tracks. Iteration follows
// insertion order so first-match correspondence is deterministic.
// A Registry is not safe for concurrent use; the tracking loop owns it.
type Registry struct {
	tracks map[string]*domain.Track
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{tracks: make(map[string]*domain.Track)}
}

func (r *Registry) Len() int {
	return len(r.tracks)
}

func (r *Registry) Get(identity string) (*domain.Track, bool) {
	t, ok := r.tracks[identity]
	return t, ok
}

// Open creates a track first seen at now.
func (r *Registry) Open(identity string, box domain.Box, now time.Time) (*domain.Track, error) {
	if !plate.Validate(identity) {
		return nil, fmt.Errorf("Registry.Open %q: %w", identity, ErrInvalidIdentity)
	}
	if _, exists := r.tracks[identity]; exists {
		return nil, fmt.Errorf("Registry.Open %q: %w", identity, ErrDuplicateIdentity)
	}
	t := &domain.Track{
		Identity:  identity,
		LastBox:   box,
		FirstSeen: now,
		LastSeen:  now,
	}
	r.tracks[identity] = t
	r.order = append(r.order, identity)
	return t, nil
}

// Touch records a match. LastSeen never moves backwards, so a clock step back
// cannot break LastSeen >= FirstSeen.
func (r *Registry) Touch(identity string, box domain.Box, now time.Time) (*domain.Track, bool) {
	t, ok := r.tracks[identity]
	if !ok {
		return nil, false
	}
	t.LastBox = box
	if now.After(t.LastSeen) {
		t.LastSeen = now
	}
	return t, true
}

func (r *Registry) Remove(identity string) (*domain.Track, bool) {
	t, ok := r.tracks[identity]
	if !ok {
		return nil, false
	}
	delete(r.tracks, identity)
	if i := slices.Index(r.order, identity); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	return t, true
}

// Each visits tracks in insertion order until fn returns false. fn must not add
// or remove tracks.
func (r *Registry) Each(fn func(t *domain.Track) bool) {
	for _, id := range r.order {
		if !fn(r.tracks[id]) {
			return
		}
	}
}

// Snapshot returns value copies of all live tracks in insertion order.
func (r *Registry) Snapshot() []domain.Track {
	out := make([]domain.Track, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.tracks[id])
	}
	return out
}
