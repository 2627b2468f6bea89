package tracker

import (
	"fmt"
	"time"
)

// MatchPolicy decides which track a candidate box continues when several overlap it.
type MatchPolicy string

const (
	// MatchFirst takes the first track, in registry insertion order, whose IoU exceeds
	// the threshold. Candidates are processed one by one in detector order, so a track
	// created earlier in the same frame can be matched by a later candidate.
	MatchFirst MatchPolicy = "first"
	// MatchGreedy assigns (candidate, track) pairs by descending IoU, each side at most once.
	MatchGreedy MatchPolicy = "greedy"
)

type Config struct {
	IoUThreshold float64
	MatchPolicy  MatchPolicy
	MinPlateArea int
	GracePeriod  time.Duration
	MinDwell     time.Duration

	// Single camera, single lane: every session is attributed to this lot/slot.
	Lot  string
	Slot string
}

func DefaultConfig() Config {
	return Config{
		IoUThreshold: 0.5,
		MatchPolicy:  MatchFirst,
		MinPlateArea: 500,
		GracePeriod:  3 * time.Second,
		MinDwell:     30 * time.Second,
		Lot:          "Lot_A",
		Slot:         "Slot_1",
	}
}

func (c Config) Validate() error {
	if c.IoUThreshold < 0 || c.IoUThreshold >= 1 {
		return fmt.Errorf("iou threshold must be in [0,1), got %v", c.IoUThreshold)
	}
	switch c.MatchPolicy {
	case MatchFirst, MatchGreedy:
	default:
		return fmt.Errorf("unknown match policy %q", c.MatchPolicy)
	}
	if c.MinPlateArea < 0 {
		return fmt.Errorf("min plate area must not be negative, got %d", c.MinPlateArea)
	}
	if c.GracePeriod < 0 || c.MinDwell < 0 {
		return fmt.Errorf("grace period and min dwell must not be negative")
	}
	return nil
}
