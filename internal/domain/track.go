package domain

import "time"

// Track is the in-memory state for one physical plate currently followed across frames.
type Track struct {
	Identity  string    `json:"identity"`
	LastBox   Box       `json:"last_box"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	Announced bool      `json:"announced"`
}

// Dwell is measured between the first and the last actual match.
func (t Track) Dwell() time.Duration {
	return t.LastSeen.Sub(t.FirstSeen)
}

// ClosedTrack is what the reaper hands to the session emitter.
type ClosedTrack struct {
	Plate     string
	FirstSeen time.Time
	LastSeen  time.Time
	Duration  time.Duration
	ReapedAt  time.Time
}
