package vision

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
)

// CascadeDetector finds plate regions with a Haar cascade such as
// haarcascade_russian_plate_number.xml.
type CascadeDetector struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
}

func NewCascadeDetector(path string) (*CascadeDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("vision.NewCascadeDetector: cannot load cascade %s", path)
	}
	return &CascadeDetector{classifier: classifier}, nil
}

func (d *CascadeDetector) Detect(ctx context.Context, frame image.Image) ([]domain.Box, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("CascadeDetector.Detect: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	d.mu.Lock()
	rects := d.classifier.DetectMultiScale(gray)
	d.mu.Unlock()

	return toBoxes(rects, frame.Bounds().Min), nil
}

func (d *CascadeDetector) Close() error {
	return d.classifier.Close()
}

// toBoxes shifts detections from Mat coordinates back into the frame's coordinate
// space.
func toBoxes(rects []image.Rectangle, origin image.Point) []domain.Box {
	boxes := make([]domain.Box, 0, len(rects))
	for _, r := range rects {
		boxes = append(boxes, domain.BoxFromRect(r.Add(origin)))
	}
	return boxes
}
