// Package texture provides image decoding and texture processing utilities.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image type constants.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeGray         = 3  // Uncompressed grayscale
	TGATypeRLE          = 10 // RLE compressed true-color
	TGATypeGrayRLE      = 11 // RLE compressed grayscale
)

var errTGATruncated = errors.New("TGA pixel data truncated")

// tgaReader walks TGA pixel data in file order and writes it into an image.
type tgaReader struct {
	img         *image.RGBA
	data        []byte
	width       int
	height      int
	bpp         int // bytes per pixel
	topToBottom bool
	pos         int // next byte in data
	pixel       int // next pixel in file order
}

// read decodes one pixel at the current data position.
func (r *tgaReader) read() (color.RGBA, bool) {
	if r.pos+r.bpp > len(r.data) {
		return color.RGBA{}, false
	}
	p := r.data[r.pos : r.pos+r.bpp]
	r.pos += r.bpp

	switch r.bpp {
	case 1:
		return color.RGBA{R: p[0], G: p[0], B: p[0], A: 255}, true
	case 2:
		// Grayscale with alpha.
		return color.RGBA{R: p[0], G: p[0], B: p[0], A: p[1]}, true
	case 3:
		return color.RGBA{R: p[2], G: p[1], B: p[0], A: 255}, true
	default:
		return color.RGBA{R: p[2], G: p[1], B: p[0], A: p[3]}, true
	}
}

func (r *tgaReader) put(c color.RGBA) {
	x := r.pixel % r.width
	y := r.pixel / r.width
	if !r.topToBottom {
		y = r.height - 1 - y
	}
	r.img.SetRGBA(x, y, c)
	r.pixel++
}

func (r *tgaReader) done() bool {
	return r.pixel >= r.width*r.height
}

// DecodeTGA decodes a TGA image file.
// Supports uncompressed and RLE compressed true-color (24/32 bit) and
// grayscale (8/16 bit) images.
func DecodeTGA(data []byte) (*image.RGBA, error) {
	if len(data) < 18 {
		return nil, fmt.Errorf("TGA data too short")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bits := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("color-mapped TGA not supported")
	}

	switch imageType {
	case TGATypeUncompressed, TGATypeRLE:
		if bits != 24 && bits != 32 {
			return nil, fmt.Errorf("unsupported true-color TGA bit depth %d", bits)
		}
	case TGATypeGray, TGATypeGrayRLE:
		if bits != 8 && bits != 16 {
			return nil, fmt.Errorf("unsupported grayscale TGA bit depth %d", bits)
		}
	default:
		return nil, fmt.Errorf("unsupported TGA type %d", imageType)
	}

	offset := 18 + idLength
	if offset > len(data) {
		return nil, fmt.Errorf("TGA data truncated")
	}

	r := &tgaReader{
		img:         image.NewRGBA(image.Rect(0, 0, width, height)),
		data:        data[offset:],
		width:       width,
		height:      height,
		bpp:         bits / 8,
		topToBottom: descriptor&0x20 != 0,
	}

	if imageType == TGATypeRLE || imageType == TGATypeGrayRLE {
		r.decodeRLE()
		return r.img, nil
	}

	if len(r.data) < width*height*r.bpp {
		return nil, errTGATruncated
	}
	for !r.done() {
		c, _ := r.read()
		r.put(c)
	}
	return r.img, nil
}

// decodeRLE decodes run-length packets until the image is full or the data
// runs out. A short stream leaves the remaining pixels transparent.
func (r *tgaReader) decodeRLE() {
	for !r.done() && r.pos < len(r.data) {
		packet := r.data[r.pos]
		r.pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			c, ok := r.read()
			if !ok {
				return
			}
			for i := 0; i < count && !r.done(); i++ {
				r.put(c)
			}
			continue
		}

		for i := 0; i < count && !r.done(); i++ {
			c, ok := r.read()
			if !ok {
				return
			}
			r.put(c)
		}
	}
}
