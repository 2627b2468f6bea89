package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
	"github.com/pruthvir7/ParkingManagement/internal/repository"
)

type ParkingSessionHandler struct {
	sessions repository.SessionRepository
}

func NewParkingSessionHandler(sessions repository.SessionRepository) *ParkingSessionHandler {
	return &ParkingSessionHandler{sessions: sessions}
}

// GET /api/v1/sessions?plate=&lot=&limit=
func (h *ParkingSessionHandler) FindParkingSessions(c *gin.Context) {
	var filter domain.SessionFilterDTO
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter: " + err.Error()})
		return
	}
	filter.Limit = repository.ClampLimit(filter.Limit)

	sessions, err := h.sessions.Find(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cannot list sessions", "details": err.Error()})
		return
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	c.JSON(http.StatusOK, sessions)
}

// GET /api/v1/sessions/:uid
func (h *ParkingSessionHandler) GetParkingSessionByUID(c *gin.Context) {
	uid, err := uuid.Parse(c.Param("uid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session UID"})
		return
	}
	session, err := h.sessions.FindByUID(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cannot load session", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session)
}
