// Package tesseract is the local OCR backend, built on gosseract.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
)

// plateCharset limits recognition to what a plate can contain.
const plateCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "

// Recognizer reads text lines from a crop. A gosseract client is not safe for
// concurrent use, so calls are serialised.
type Recognizer struct {
	mu     sync.Mutex
	client *gosseract.Client
}

func NewRecognizer(languages ...string) (*Recognizer, error) {
	client := gosseract.NewClient()
	if len(languages) > 0 {
		if err := client.SetLanguage(languages...); err != nil {
			client.Close()
			return nil, fmt.Errorf("tesseract.NewRecognizer: set languages: %w", err)
		}
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		client.Close()
		return nil, fmt.Errorf("tesseract.NewRecognizer: set page segmentation mode: %w", err)
	}
	if err := client.SetWhitelist(plateCharset); err != nil {
		client.Close()
		return nil, fmt.Errorf("tesseract.NewRecognizer: set whitelist: %w", err)
	}
	return &Recognizer{client: client}, nil
}

func (r *Recognizer) Recognize(ctx context.Context, img image.Image) ([]domain.TextCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("Recognizer.Recognize: encode: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("Recognizer.Recognize: set image: %w", err)
	}
	lines, err := r.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("Recognizer.Recognize: %w", err)
	}
	return candidates(lines), nil
}

func (r *Recognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.client.Close()
}

func candidates(lines []gosseract.BoundingBox) []domain.TextCandidate {
	var out []domain.TextCandidate
	for _, l := range lines {
		text := strings.ToUpper(strings.Join(strings.Fields(l.Word), " "))
		if text == "" {
			continue
		}
		out = append(out, domain.TextCandidate{Text: text, Confidence: float32(l.Confidence / 100)})
	}
	return out
}
