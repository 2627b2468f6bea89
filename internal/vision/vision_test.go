package vision

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
)

func TestParseSource(t *testing.T) {
	assert.Equal(t, 0, parseSource("0"))
	assert.Equal(t, 2, parseSource("2"))
	assert.Equal(t, "rtsp://cam/stream", parseSource("rtsp://cam/stream"))
	assert.Equal(t, "clip.mp4", parseSource("clip.mp4"))
}

func TestToBoxesShiftsByOrigin(t *testing.T) {
	rects := []image.Rectangle{image.Rect(10, 20, 110, 50), image.Rect(0, 0, 5, 5)}

	boxes := toBoxes(rects, image.Pt(3, 4))

	assert.Equal(t, []domain.Box{
		{X: 13, Y: 24, Width: 100, Height: 30},
		{X: 3, Y: 4, Width: 5, Height: 5},
	}, boxes)
}

func TestToBoxesEmpty(t *testing.T) {
	assert.Empty(t, toBoxes(nil, image.Point{}))
}

func TestEnhancerKeepsSize(t *testing.T) {
	e := NewEnhancer()
	defer e.Close()

	src := image.NewRGBA(image.Rect(0, 0, 60, 20))
	out := e.Enhance(src)
	assert.Equal(t, 60, out.Bounds().Dx())
	assert.Equal(t, 20, out.Bounds().Dy())
}
