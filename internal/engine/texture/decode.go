// Package texture decodes RO texture files (BMP, TGA, PNG, JPEG) into RGBA
// images ready for upload.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"golang.org/x/image/bmp"
)

// ErrEmptyImage is returned for textures with a zero width or height.
var ErrEmptyImage = errors.New("texture: empty image")

// Decode decodes texture data, choosing the decoder from the file extension
// and falling back to content sniffing. Magenta pixels become transparent.
func Decode(data []byte, name string) (*image.RGBA, error) {
	var (
		img image.Image
		err error
	)
	switch strings.ToLower(path.Ext(name)) {
	case ".tga":
		img, err = DecodeTGA(data)
	case ".bmp":
		img, err = bmp.Decode(bytes.NewReader(data))
	default:
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("decoding %s: %w", name, ErrEmptyImage)
	}
	return ImageToRGBA(img, true), nil
}

// White returns a 1x1 opaque white texture, used when a texture is missing.
func White() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	return img
}
