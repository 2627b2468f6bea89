package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// Reservation is read-only here; the booking flow that writes it lives elsewhere.
type Reservation struct {
	ID     int       `json:"id"`
	Plate  string    `json:"license_plate"`
	Lot    string    `json:"lot_name"`
	Slot   string    `json:"slot_name"`
	Expiry time.Time `json:"reservation_expiry"`
}

type EntryStatus string

const (
	EntryMatched       EntryStatus = "matched"
	EntryMismatch      EntryStatus = "mismatch"
	EntryNoReservation EntryStatus = "no_reservation"
)

// EntryEvent is a gated-entry decision point: one detected plate at one lot/slot.
type EntryEvent struct {
	EventID       string    `json:"event_id"`
	Plate         string    `json:"detected_plate"`
	ExpectedPlate string    `json:"expected_plate,omitempty"`
	Lot           string    `json:"lot_name,omitempty"`
	Slot          string    `json:"slot_name,omitempty"`
	At            time.Time `json:"at"`
	Source        string    `json:"source,omitempty"` // "tracker", "sqs", "http"
}

type EntryResult struct {
	EventID  string      `json:"event_id"`
	Status   EntryStatus `json:"status"`
	Detected string      `json:"detected_plate"`
	Expected string      `json:"expected_plate,omitempty"`
	Alerted  bool        `json:"alerted"`
}

// Matched reports whether the entry contract was satisfied.
func (r EntryResult) Matched() bool {
	return r.Status == EntryMatched
}

// EntryCheck is the bookkeeping row written for every entry validation.
type EntryCheck struct {
	ID            int         `json:"id"`
	EventID       string      `json:"event_id"`
	DetectedPlate string      `json:"detected_plate"`
	ExpectedPlate null.String `json:"expected_plate"`
	Lot           null.String `json:"lot_name"`
	Slot          null.String `json:"slot_name"`
	Status        EntryStatus `json:"status"`
	Alerted       bool        `json:"alerted"`
	AlertError    null.String `json:"alert_error"`
	CheckedAt     time.Time   `json:"checked_at"`
}

type EntryValidationDTO struct {
	DetectedPlate string `json:"detected_plate" binding:"required"`
	ExpectedPlate string `json:"expected_plate"`
	Lot           string `json:"lot_name"`
	Slot          string `json:"slot_name"`
}
