package dctpress

import "math"

// ExtractBlock reads a size×size block of one channel with its top-left
// corner at (originX, originY). Coordinates outside the buffer are clamped
// to the nearest edge pixel, so blocks hanging off the right or bottom
// edge replicate the last column or row.
//
// dst is reused when it has enough capacity. channel must be in [0, 4).
func ExtractBlock(b *Buffer, originX, originY, size, channel int, dst []float64) []float64 {
	n := size * size
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]

	maxX, maxY := b.Width-1, b.Height-1
	for dy := 0; dy < size; dy++ {
		row := clampInt(originY+dy, 0, maxY) * b.Width
		for dx := 0; dx < size; dx++ {
			px := clampInt(originX+dx, 0, maxX)
			dst[dy*size+dx] = float64(b.Pix[(row+px)*4+channel])
		}
	}
	return dst
}

// InsertBlock writes block back at the coordinates ExtractBlock read from,
// rounding each value half up and clamping it to [0, 255].
//
// Where the footprint crosses the image edge several block positions map
// to the same pixel; they are written in row-major order and the last one
// wins. Reference outputs depend on this.
func InsertBlock(b *Buffer, originX, originY, size, channel int, block []float64) {
	maxX, maxY := b.Width-1, b.Height-1
	for dy := 0; dy < size; dy++ {
		row := clampInt(originY+dy, 0, maxY) * b.Width
		for dx := 0; dx < size; dx++ {
			px := clampInt(originX+dx, 0, maxX)
			b.Pix[(row+px)*4+channel] = roundSample(block[dy*size+dx])
		}
	}
}

// roundSample rounds half up and saturates to the 8-bit range.
func roundSample(v float64) uint8 {
	r := math.Floor(v + 0.5)
	if !(r > 0) {
		return 0
	}
	if r >= 255 {
		return 255
	}
	return uint8(r)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
