package domain

import "time"

type TrackEventType string

const (
	TrackEntered  TrackEventType = "entered"
	TrackInView   TrackEventType = "in_view"
	TrackDeparted TrackEventType = "departed"
	PlateMismatch TrackEventType = "plate_mismatch"
	SessionStored TrackEventType = "session_stored"
)

// TrackEvent is pushed to the frontend over WebSocket. It is a value copy, never a
// reference into the registry.
type TrackEvent struct {
	EventID   string         `json:"event_id"`
	Type      TrackEventType `json:"event_type"`
	Plate     string         `json:"plate"`
	Box       *Box           `json:"box,omitempty"`
	Timestamp time.Time      `json:"timestamp"`

	DwellSeconds   float64 `json:"dwell_seconds,omitempty"`
	SessionEmitted bool    `json:"session_emitted,omitempty"`

	ExpectedPlate string `json:"expected_plate,omitempty"`
	Lot           string `json:"lot_name,omitempty"`
	Slot          string `json:"slot_name,omitempty"`
	Message       string `json:"message,omitempty"`
}
