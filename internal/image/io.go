// Package image encodes, decodes and prepares the images that back sample
// arguments and kernel input images.
package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/h2non/filetype"
	"golang.org/x/image/draw"
)

// I/O errors.
var (
	// ErrUnsupportedFormat is returned when the image format is not supported.
	ErrUnsupportedFormat = errors.New("image: unsupported format")

	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("image: empty data")

	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("image: invalid dimensions")
)

// JPEGQuality is the quality used for project resources.
const JPEGQuality = 100

// DefaultSize is the edge length of the default sample image.
const DefaultSize = 256

// Black is opaque black.
var Black = color.NRGBA{A: 255}

// Decode decodes resource bytes. The container format is sniffed from the
// content, not from a file name, so renamed resources still load.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}

	kind, err := filetype.Match(data)
	if err != nil {
		return nil, fmt.Errorf("image: sniff: %w", err)
	}

	var img image.Image
	switch kind.Extension {
	case "jpg":
		img, err = jpeg.Decode(bytes.NewReader(data))
	case "png":
		img, err = png.Decode(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, kind.MIME.Value)
	}
	if err != nil {
		return nil, fmt.Errorf("image: decode %s: %w", kind.Extension, err)
	}
	return img, nil
}

// EncodeJPEG encodes img as JPEG to w with the given quality (1-100).
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("image: encode JPEG: %w", err)
	}
	return nil
}

// JPEGBytes encodes img as a JPEG resource.
func JPEGBytes(img image.Image) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrInvalidDimensions
	}
	var buf bytes.Buffer
	if err := EncodeJPEG(&buf, img, JPEGQuality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Solid returns a width x height image filled with c.
func Solid(width, height int, c color.Color) *image.NRGBA {
	if width <= 0 || height <= 0 {
		width, height = 1, 1
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// Fit scales img down so that neither edge exceeds maxEdge, keeping the aspect
// ratio. Images that already fit are returned unchanged.
func Fit(img image.Image, maxEdge int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxEdge <= 0 || (w <= maxEdge && h <= maxEdge) {
		return img
	}

	scale := float64(maxEdge) / float64(max(w, h))
	dw := max(1, int(float64(w)*scale+0.5))
	dh := max(1, int(float64(h)*scale+0.5))

	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
