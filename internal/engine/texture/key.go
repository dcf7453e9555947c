package texture

import (
	"image"

	"golang.org/x/image/draw"
)

// IsMagentaKey reports whether a color is the transparency key used by RO
// textures. The tolerance absorbs rounding from lossy BMP exports.
func IsMagentaKey(r, g, b uint8) bool {
	return r >= 250 && g <= 10 && b >= 250
}

// ApplyMagentaKey clears every magenta pixel of img to transparent black, so
// filtering does not bleed the key color into neighbours.
func ApplyMagentaKey(img *image.RGBA) {
	for i := 0; i+3 < len(img.Pix); i += 4 {
		if IsMagentaKey(img.Pix[i], img.Pix[i+1], img.Pix[i+2]) {
			copy(img.Pix[i:i+4], []byte{0, 0, 0, 0})
		}
	}
}

// ImageToRGBA copies img into a new *image.RGBA with the same bounds,
// optionally applying the magenta key.
func ImageToRGBA(img image.Image, applyMagentaKey bool) *image.RGBA {
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	if applyMagentaKey {
		ApplyMagentaKey(rgba)
	}
	return rgba
}
