package domain

import (
	"encoding/json"
	"time"
)

// GateEntryMessage is the SQS body published by the gate controller (via an IoT rule)
// when a vehicle stops at the entry barrier.
type GateEntryMessage struct {
	DeviceID          string          `json:"device_id"`
	MessageType       string          `json:"message_type"`
	EventID           string          `json:"event_id"`
	Timestamp         string          `json:"timestamp"` // ISO 8601 UTC
	LotName           string          `json:"lot_name"`
	SlotName          string          `json:"slot_name"`
	DetectedPlate     string          `json:"detected_plate"`
	ExpectedPlate     string          `json:"expected_plate,omitempty"`
	ReceivedMqttTopic string          `json:"received_mqtt_topic,omitempty"`
	RawPayload        json.RawMessage `json:"-"`
}

const GateEntryMessageType = "gate_entry"

// ToEntryEvent falls back to receivedAt when the device timestamp is missing or malformed.
func (m GateEntryMessage) ToEntryEvent(receivedAt time.Time) EntryEvent {
	at := receivedAt
	if m.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339, m.Timestamp); err == nil {
			at = t
		}
	}
	return EntryEvent{
		EventID:       m.EventID,
		Plate:         m.DetectedPlate,
		ExpectedPlate: m.ExpectedPlate,
		Lot:           m.LotName,
		Slot:          m.SlotName,
		At:            at.UTC(),
		Source:        "sqs",
	}
}
