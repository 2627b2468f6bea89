package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
	"github.com/pruthvir7/ParkingManagement/internal/repository"
)

// EntryValidator is implemented by service.EntryValidator.
type EntryValidator interface {
	HandleEvent(ctx context.Context, ev domain.EntryEvent) (domain.EntryResult, error)
}

type EntryHandler struct {
	validator    EntryValidator
	checks       repository.EntryCheckRepository
	reservations repository.ReservationRepository
}

func NewEntryHandler(validator EntryValidator, checks repository.EntryCheckRepository, reservations repository.ReservationRepository) *EntryHandler {
	return &EntryHandler{validator: validator, checks: checks, reservations: reservations}
}

type entryValidationResponse struct {
	domain.EntryResult
	AlertError string `json:"alert_error,omitempty"`
}

// POST /api/v1/entries/validate
func (h *EntryHandler) ValidateEntry(c *gin.Context) {
	var dto domain.EntryValidationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}
	dto.DetectedPlate = strings.TrimSpace(dto.DetectedPlate)
	if dto.ExpectedPlate == "" && (dto.Lot == "" || dto.Slot == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected_plate or both lot_name and slot_name are required"})
		return
	}

	result, err := h.validator.HandleEvent(c.Request.Context(), domain.EntryEvent{
		Plate:         dto.DetectedPlate,
		ExpectedPlate: strings.TrimSpace(dto.ExpectedPlate),
		Lot:           dto.Lot,
		Slot:          dto.Slot,
		Source:        "http",
	})
	if err != nil && result.Status == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Entry validation failed", "details": err.Error()})
		return
	}

	resp := entryValidationResponse{EntryResult: result}
	if err != nil {
		resp.AlertError = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// GET /api/v1/entries?limit=
func (h *EntryHandler) GetRecentEntries(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = v
	}
	checks, err := h.checks.FindRecent(c.Request.Context(), repository.ClampLimit(limit))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cannot list entry checks", "details": err.Error()})
		return
	}
	if checks == nil {
		checks = []domain.EntryCheck{}
	}
	c.JSON(http.StatusOK, checks)
}

type reservationRequest struct {
	Plate  string    `json:"license_plate" binding:"required"`
	Lot    string    `json:"lot_name" binding:"required"`
	Slot   string    `json:"slot_name" binding:"required"`
	Expiry time.Time `json:"reservation_expiry" binding:"required"`
}

// POST /api/v1/reservations
func (h *EntryHandler) CreateReservation(c *gin.Context) {
	var req reservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}
	reservation := &domain.Reservation{
		Plate:  strings.TrimSpace(req.Plate),
		Lot:    req.Lot,
		Slot:   req.Slot,
		Expiry: req.Expiry.UTC(),
	}
	if err := h.reservations.Create(c.Request.Context(), reservation); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cannot create reservation", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, reservation)
}
