package dctpress

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFromExt(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"a.png", PNG},
		{"dir/b.PNG", PNG},
		{"c.jpg", JPEG},
		{"d.jpeg", JPEG},
		{"e.qoi", QOI},
	}
	for _, tt := range tests {
		got, err := FormatFromExt(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
	for _, name := range []string{"f.gif", "noext", "g.webp"} {
		_, err := FormatFromExt(name)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, name)
	}
}

func TestFormatStrings(t *testing.T) {
	assert.Equal(t, "PNG", PNG.String())
	assert.Equal(t, "image/jpeg", JPEG.MIME())
	assert.Equal(t, "image/qoi", QOI.MIME())
}

func TestEncodeDecodeLossless(t *testing.T) {
	tests := []struct {
		format Format
		src    *Buffer
	}{
		{PNG, noiseBuffer(19, 7, 6)},
		// QOI keeps color exactly only where alpha is opaque.
		{QOI, photoBuffer(19, 7)},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, tt.src, tt.format, 0))
		got, err := Decode(&buf)
		require.NoError(t, err, tt.format.String())
		assert.Equal(t, tt.src.Width, got.Width)
		assert.Equal(t, tt.src.Height, got.Height)
		assert.Equal(t, tt.src.Pix, got.Pix, tt.format.String())
	}
}

func TestEncodeDecodeJPEG(t *testing.T) {
	src := photoBuffer(40, 24)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, src, JPEG, 90))
	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), got.Bounds())

	p, err := PSNR(src, got)
	require.NoError(t, err)
	assert.Greater(t, p, 30.0)
}

func TestDecodeUnknownFormat(t *testing.T) {
	_, err := Decode(strings.NewReader("definitely not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSaveAndOpen(t *testing.T) {
	dir := t.TempDir()
	src := photoBuffer(16, 12)
	for _, name := range []string{"out.png", "out.qoi", "out.jpg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Save(src, path, 80), name)
		got, err := Open(path)
		require.NoError(t, err, name)
		assert.Equal(t, src.Bounds(), got.Bounds(), name)
	}

	err := Save(src, filepath.Join(dir, "out.bmp"), 80)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Open(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDataURIRoundTrip(t *testing.T) {
	src := photoBuffer(8, 8)
	uri, err := EncodeDataURI(src, PNG, 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	data, mime, err := DecodeDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	got, err := DecodeBytes(data, true)
	require.NoError(t, err)
	assert.Equal(t, src.Pix, got.Pix)
}

func TestDecodeDataURIErrors(t *testing.T) {
	for _, uri := range []string{
		"image/png;base64,AAAA",
		"data:image/png;base64",
		"data:image/png,AAAA",
	} {
		_, _, err := DecodeDataURI(uri)
		assert.ErrorIs(t, err, ErrInvalidParameter, uri)
	}
	_, _, err := DecodeDataURI("data:image/png;base64,!!!")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestDecodeCorruptData(t *testing.T) {
	data := encodePNG(t, photoBuffer(16, 16))
	_, err := DecodeBytes(data[:len(data)/2], false)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.NotErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFromImageSubImageAndPremultiplied(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 4, 4))
	rgba.Set(2, 1, color.NRGBA{R: 200, G: 100, B: 50, A: 128})
	rgba.Set(3, 3, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	sub := rgba.SubImage(image.Rect(2, 1, 4, 4))
	b := FromImage(sub)
	require.Equal(t, 2, b.Width)
	require.Equal(t, 3, b.Height)

	// (2,1) is the new origin; its color comes back un-premultiplied.
	assert.InDelta(t, 200, int(b.Pix[0]), 2)
	assert.InDelta(t, 100, int(b.Pix[1]), 2)
	assert.InDelta(t, 50, int(b.Pix[2]), 2)
	assert.Equal(t, uint8(128), b.Pix[3])

	last := (2*2 + 1) * 4
	assert.Equal(t, []uint8{10, 20, 30, 255}, b.Pix[last:last+4])
}

func TestFromImageNRGBAOffset(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 5, 5))
	src.SetNRGBA(3, 2, color.NRGBA{R: 1, G: 2, B: 3, A: 4})
	b := FromImage(src.SubImage(image.Rect(3, 2, 5, 5)))
	assert.Equal(t, []uint8{1, 2, 3, 4}, b.Pix[:4])
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h, maxW, maxH int
		wantW, wantH     int
	}{
		{100, 50, 0, 0, 100, 50},
		{100, 50, 200, 200, 100, 50},
		{100, 50, 50, 0, 50, 25},
		{100, 50, 0, 10, 20, 10},
		{100, 50, 30, 30, 30, 15},
		{1000, 1, 10, 0, 10, 1},
	}
	for _, tt := range tests {
		w, h := fitWithin(tt.w, tt.h, tt.maxW, tt.maxH)
		assert.Equal(t, tt.wantW, w, "%+v", tt)
		assert.Equal(t, tt.wantH, h, "%+v", tt)
	}
}

func TestDownscale(t *testing.T) {
	src := photoBuffer(64, 32)
	out := Downscale(src, 16, 0)
	assert.Equal(t, 16, out.Width)
	assert.Equal(t, 8, out.Height)
	assert.NoError(t, out.Validate())

	same := Downscale(src, 100, 100)
	assert.Same(t, src, same)
}
