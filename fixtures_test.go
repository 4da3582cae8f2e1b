package dctpress

import (
	"bytes"
	"image/png"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Synthetic inputs so tests need no files on disk.

func constantBuffer(w, h int, v uint8) *Buffer {
	b := NewBuffer(w, h)
	for i := 0; i < len(b.Pix); i += 4 {
		b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3] = v, v, v, 0xff
	}
	return b
}

func checkerBuffer(w, h, cell int) *Buffer {
	b := NewBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(0)
			if (x/cell+y/cell)%2 == 0 {
				v = 255
			}
			off := (y*w + x) * 4
			b.Pix[off], b.Pix[off+1], b.Pix[off+2], b.Pix[off+3] = v, v, v, 0xff
		}
	}
	return b
}

func stripeBuffer(w, h, width int) *Buffer {
	b := NewBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(0)
			if (x/width)%2 == 1 {
				v = 255
			}
			off := (y*w + x) * 4
			b.Pix[off], b.Pix[off+1], b.Pix[off+2], b.Pix[off+3] = v, v, v, 0xff
		}
	}
	return b
}

func noiseBuffer(w, h int, seed uint64) *Buffer {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	b := NewBuffer(w, h)
	for i := range b.Pix {
		b.Pix[i] = uint8(rng.IntN(256))
	}
	return b
}

// photoBuffer is smooth structure plus mild noise, closer to a photograph
// than pure noise or flat color.
func photoBuffer(w, h int) *Buffer {
	rng := rand.New(rand.NewPCG(7, 11))
	b := NewBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			fx, fy := float64(x), float64(y)
			r := 128 + 60*math.Sin(fx/5) + 40*math.Cos(fy/7) + rng.NormFloat64()*4
			g := 255*fx/float64(max(1, w-1)) + rng.NormFloat64()*4
			bl := 90 + 70*math.Sin((fx+fy)/9) + rng.NormFloat64()*4
			off := (y*w + x) * 4
			b.Pix[off] = roundSample(r)
			b.Pix[off+1] = roundSample(g)
			b.Pix[off+2] = roundSample(bl)
			b.Pix[off+3] = 0xff
		}
	}
	return b
}

func encodePNG(t *testing.T, b *Buffer) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, b.NRGBA()))
	return buf.Bytes()
}

func writePNG(t *testing.T, dir, name string, b *Buffer) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, encodePNG(t, b), 0644))
	return path
}
