package texture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA errors.
var (
	ErrTGATruncated   = errors.New("tga: truncated data")
	ErrTGAUnsupported = errors.New("tga: unsupported format")
)

const (
	tgaHeaderSize = 18
	tgaTrueColor  = 2
	tgaRLE        = 10
	tgaTopOrigin  = 0x20
)

type tgaHeader struct {
	idLength    int
	colorMap    bool
	imageType   byte
	width       int
	height      int
	depth       int
	topToBottom bool
}

func readTGAHeader(data []byte) (tgaHeader, error) {
	if len(data) < tgaHeaderSize {
		return tgaHeader{}, ErrTGATruncated
	}
	h := tgaHeader{
		idLength:    int(data[0]),
		colorMap:    data[1] != 0,
		imageType:   data[2],
		width:       int(binary.LittleEndian.Uint16(data[12:])),
		height:      int(binary.LittleEndian.Uint16(data[14:])),
		depth:       int(data[16]),
		topToBottom: data[17]&tgaTopOrigin != 0,
	}
	switch {
	case h.colorMap:
		return h, fmt.Errorf("%w: color-mapped image", ErrTGAUnsupported)
	case h.imageType != tgaTrueColor && h.imageType != tgaRLE:
		return h, fmt.Errorf("%w: image type %d", ErrTGAUnsupported, h.imageType)
	case h.depth != 24 && h.depth != 32:
		return h, fmt.Errorf("%w: %d bits per pixel", ErrTGAUnsupported, h.depth)
	case h.width == 0 || h.height == 0:
		return h, fmt.Errorf("%w: %dx%d", ErrEmptyImage, h.width, h.height)
	}
	return h, nil
}

// DecodeTGA decodes uncompressed or RLE true-color TGA data, the two
// variants found in the client's texture folders.
func DecodeTGA(data []byte) (image.Image, error) {
	h, err := readTGAHeader(data)
	if err != nil {
		return nil, err
	}
	start := tgaHeaderSize + h.idLength
	if start > len(data) {
		return nil, ErrTGATruncated
	}

	p := &tgaPixels{data: data[start:], size: h.depth / 8}
	img := image.NewRGBA(image.Rect(0, 0, h.width, h.height))
	total := h.width * h.height
	for n := 0; n < total; {
		run, repeat := total-n, false
		if h.imageType == tgaRLE {
			packet, ok := p.byte()
			if !ok {
				break
			}
			run = min(int(packet&0x7f)+1, total-n)
			repeat = packet&0x80 != 0
		}

		var c color.RGBA
		for i := 0; i < run; i++ {
			if i == 0 || !repeat {
				var ok bool
				if c, ok = p.pixel(); !ok {
					if h.imageType == tgaTrueColor {
						return nil, ErrTGATruncated
					}
					return img, nil
				}
			}
			x, y := n%h.width, n/h.width
			if !h.topToBottom {
				y = h.height - 1 - y
			}
			img.SetRGBA(x, y, c)
			n++
		}
	}
	return img, nil
}

// tgaPixels reads BGR(A) pixels off the front of data.
type tgaPixels struct {
	data []byte
	size int
}

func (p *tgaPixels) byte() (byte, bool) {
	if len(p.data) == 0 {
		return 0, false
	}
	b := p.data[0]
	p.data = p.data[1:]
	return b, true
}

func (p *tgaPixels) pixel() (color.RGBA, bool) {
	if len(p.data) < p.size {
		return color.RGBA{}, false
	}
	c := color.RGBA{R: p.data[2], G: p.data[1], B: p.data[0], A: 255}
	if p.size == 4 {
		c.A = p.data[3]
	}
	p.data = p.data[p.size:]
	return c, true
}
