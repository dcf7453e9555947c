// Package output writes finished thumbnails to disk as PNG files.
package output

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrEmptyImage is returned for images with no pixels.
var ErrEmptyImage = errors.New("output: empty image")

// Writer saves images into a directory.
type Writer struct {
	dir string
	now func() time.Time
}

// NewWriter creates a writer for dir. The directory is created on the
// first write.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Filename returns the path name would be written to. An empty name gets
// a timestamped one.
func (w *Writer) Filename(name string) string {
	name = sanitize(name)
	if name == "" {
		name = "thumbnail_" + w.now().Format("2006-01-02_15-04-05")
	}
	return filepath.Join(w.dir, name+".png")
}

// Write encodes img as PNG under name and returns the file path. The file
// appears atomically.
func (w *Writer) Write(name string, img image.Image) (string, error) {
	if img == nil || img.Bounds().Empty() {
		return "", ErrEmptyImage
	}

	if w.dir != "" {
		if err := os.MkdirAll(w.dir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := w.Filename(name)
	tmp, err := os.CreateTemp(filepath.Dir(filename), ".thumb-*.png")
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return "", fmt.Errorf("renaming to %s: %w", filename, err)
	}

	return filename, nil
}

// sanitize keeps names inside the output directory.
func sanitize(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." {
		return ""
	}
	return name
}
