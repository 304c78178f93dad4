package image

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJPEGRoundTrip(t *testing.T) {
	src := Solid(16, 8, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	data, err := JPEGBytes(src)
	require.NoError(t, err)

	img, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 8), img.Bounds())

	r, g, b, _ := img.At(4, 4).RGBA()
	assert.InDelta(t, 200, int(r>>8), 6)
	assert.InDelta(t, 100, int(g>>8), 6)
	assert.InDelta(t, 50, int(b>>8), 6)
}

func TestDecodePNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, Solid(3, 3, Black)))

	img, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrEmptyData)

	_, err = Decode([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestJPEGBytes_Empty(t *testing.T) {
	_, err := JPEGBytes(image.NewNRGBA(image.Rectangle{}))
	assert.ErrorIs(t, err, ErrInvalidDimensions)
}

func TestSolid(t *testing.T) {
	img := Solid(0, -1, Black)
	assert.Equal(t, image.Rect(0, 0, 1, 1), img.Bounds())
	assert.Equal(t, color.NRGBA{A: 255}, img.NRGBAAt(0, 0))
}

func TestFit(t *testing.T) {
	small := Solid(10, 10, Black)
	assert.Same(t, small, Fit(small, 64))

	wide := Solid(400, 100, Black)
	fitted := Fit(wide, 100)
	assert.Equal(t, image.Rect(0, 0, 100, 25), fitted.Bounds())
}
