package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
	"github.com/pruthvir7/ParkingManagement/internal/plate"
)

type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]domain.TextCandidate, error)
}

type Enhancer interface {
	Enhance(img image.Image) image.Image
}

// LPRHandler reads a plate from an uploaded crop with the same recognizer and
// rules the tracker uses.
type LPRHandler struct {
	recognizer Recognizer
	enhancer   Enhancer
}

func NewLPRHandler(recognizer Recognizer, enhancer Enhancer) *LPRHandler {
	return &LPRHandler{recognizer: recognizer, enhancer: enhancer}
}

// POST /api/v1/lpr/process-image
func (h *LPRHandler) ProcessImage(c *gin.Context) {
	var req domain.LPRRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}

	imageBytes, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil || len(imageBytes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image data"})
		return
	}
	img, err := imaging.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported image", "details": err.Error()})
		return
	}
	if req.Enhance && h.enhancer != nil {
		img = h.enhancer.Enhance(img)
	}

	candidates, err := h.recognizer.Recognize(c.Request.Context(), img)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Plate recognition failed", "details": err.Error()})
		return
	}
	if candidates == nil {
		candidates = []domain.TextCandidate{}
	}

	resp := domain.LPRResponseDTO{Candidates: candidates}
	if text, ok := plate.SelectText(candidates, domain.BoxFromRect(img.Bounds())); ok {
		resp.DetectedPlate = text
		resp.Valid = plate.Validate(text)
	}
	if !resp.Valid {
		resp.ErrorMessage = "No valid plate recognised."
	}
	c.JSON(http.StatusOK, resp)
}
