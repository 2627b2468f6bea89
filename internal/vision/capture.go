// Package vision binds the tracker to OpenCV through gocv: camera or file capture,
// Haar cascade plate detection and the OpenCV rendition of the OCR enhancer.
package vision

import (
	"context"
	"fmt"
	"image"
	"io"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

// Capture is a tracker.FrameSource over a gocv VideoCapture. A numeric source
// opens a local camera; anything else is treated as a file or stream URL.
type Capture struct {
	mu     sync.Mutex
	source string
	vc     *gocv.VideoCapture
	mat    gocv.Mat
	closed bool
}

func OpenCapture(source string, width, height int) (*Capture, error) {
	vc, err := gocv.OpenVideoCapture(parseSource(source))
	if err != nil {
		return nil, fmt.Errorf("vision.OpenCapture: %s: %w", source, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("vision.OpenCapture: %s: capture is not opened", source)
	}
	if width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(width))
	}
	if height > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}
	return &Capture{source: source, vc: vc, mat: gocv.NewMat()}, nil
}

func parseSource(source string) interface{} {
	if id, err := strconv.Atoi(source); err == nil {
		return id
	}
	return source
}

// Next blocks until the device delivers a frame. A failed read is the end of the
// stream.
func (c *Capture) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, io.EOF
	}
	if !c.vc.Read(&c.mat) || c.mat.Empty() {
		return nil, io.EOF
	}
	img, err := c.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("Capture.Next: converting frame: %w", err)
	}
	return img, nil
}

func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.mat.Close()
	return c.vc.Close()
}
