package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Session is the durable record of one completed vehicle dwell.
type Session struct {
	ID         int           `json:"id"`
	SessionUID uuid.UUID     `json:"session_uid"`
	Plate      string        `json:"license_plate"`
	Lot        string        `json:"lot_name"`
	Slot       string        `json:"slot_name"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	Duration   time.Duration `json:"-"`
	Paid       bool          `json:"paid"`
	CreatedAt  time.Time     `json:"created_at"`
}

func (s Session) MarshalJSON() ([]byte, error) {
	type alias Session
	return json.Marshal(struct {
		alias
		DurationSeconds float64 `json:"duration"`
	}{alias: alias(s), DurationSeconds: s.Duration.Seconds()})
}

type SessionFilterDTO struct {
	Plate *string `form:"plate"`
	Lot   *string `form:"lot"`
	Limit int     `form:"limit"`
}
