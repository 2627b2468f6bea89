package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
)

// TrackSource is implemented by tracker.Engine.
type TrackSource interface {
	Tracks() []domain.Track
	Frames() int64
	OCRCalls() int64
}

type TrackHandler struct {
	source TrackSource
	lot    string
	slot   string
}

func NewTrackHandler(source TrackSource, lot, slot string) *TrackHandler {
	return &TrackHandler{source: source, lot: lot, slot: slot}
}

// GET /api/v1/tracks
func (h *TrackHandler) GetTracks(c *gin.Context) {
	tracks := h.source.Tracks()
	if tracks == nil {
		tracks = []domain.Track{}
	}
	c.JSON(http.StatusOK, gin.H{
		"lot_name":  h.lot,
		"slot_name": h.slot,
		"frames":    h.source.Frames(),
		"ocr_calls": h.source.OCRCalls(),
		"tracks":    tracks,
	})
}
