package imageproc

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
)

// SnapshotWriter saves crops into a directory, creating it on first use. The
// format follows the file extension.
type SnapshotWriter struct {
	dir  string
	once sync.Once
	err  error
}

func NewSnapshotWriter(dir string) *SnapshotWriter {
	return &SnapshotWriter{dir: dir}
}

func (w *SnapshotWriter) Dir() string { return w.dir }

func (w *SnapshotWriter) SaveCrop(name string, img image.Image) error {
	w.once.Do(func() {
		w.err = os.MkdirAll(w.dir, 0o755)
	})
	if w.err != nil {
		return fmt.Errorf("SnapshotWriter.SaveCrop: creating %s: %w", w.dir, w.err)
	}
	if name != filepath.Base(name) {
		return fmt.Errorf("SnapshotWriter.SaveCrop: invalid name %q", name)
	}
	if err := imaging.Save(img, filepath.Join(w.dir, name)); err != nil {
		return fmt.Errorf("SnapshotWriter.SaveCrop: %w", err)
	}
	return nil
}
