package imageproc

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotWriterSavesPNG(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snaps")
	w := NewSnapshotWriter(dir)

	require.NoError(t, w.SaveCrop("Plate_10_20_entry.png", filled(8, 4, color.White)))

	img, err := imaging.Open(filepath.Join(dir, "Plate_10_20_entry.png"))
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())
}

func TestSnapshotWriterRejectsPaths(t *testing.T) {
	w := NewSnapshotWriter(t.TempDir())
	assert.Error(t, w.SaveCrop("../escape.png", filled(2, 2, color.White)))
}

func TestSnapshotWriterUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	w := NewSnapshotWriter(dir)
	assert.Error(t, w.SaveCrop("crop.xyz", filled(2, 2, color.White)))

	_, err := os.Stat(filepath.Join(dir, "crop.xyz"))
	assert.True(t, os.IsNotExist(err))
}
