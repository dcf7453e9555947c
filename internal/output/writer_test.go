package output

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "thumbs")
	w := NewWriter(dir)

	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	path, err := w.Write("sword", img)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if want := filepath.Join(dir, "sword.png"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer f.Close()

	got, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if got.Bounds() != img.Bounds() {
		t.Errorf("bounds = %v, want %v", got.Bounds(), img.Bounds())
	}
	if r, _, _, a := got.At(1, 1).RGBA(); r != 0xffff || a != 0xffff {
		t.Errorf("pixel (1,1) = %v, want opaque red", got.At(1, 1))
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want 1 (temp file left behind?)", len(entries))
	}
}

func TestWriter_Filename(t *testing.T) {
	w := NewWriter("out")
	w.now = func() time.Time { return time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC) }

	tests := []struct {
		name string
		want string
	}{
		{"sword", filepath.Join("out", "sword.png")},
		{"../../etc/passwd", filepath.Join("out", "passwd.png")},
		{`data\model\tree`, filepath.Join("out", "tree.png")},
		{"", filepath.Join("out", "thumbnail_2024-03-01_10-20-30.png")},
	}
	for _, tt := range tests {
		if got := w.Filename(tt.name); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestWriter_EmptyImage(t *testing.T) {
	w := NewWriter(t.TempDir())

	if _, err := w.Write("x", image.NewRGBA(image.Rect(0, 0, 0, 0))); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Write(empty) error = %v, want ErrEmptyImage", err)
	}
	if _, err := w.Write("x", nil); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Write(nil) error = %v, want ErrEmptyImage", err)
	}
}
