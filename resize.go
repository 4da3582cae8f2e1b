package dctpress

import (
	"image"

	"golang.org/x/image/draw"
)

// fitWithin returns the largest size with the aspect ratio of w×h that fits in
// maxW×maxH. A zero limit leaves that dimension unconstrained. The result
// is never larger than the input and never smaller than 1×1.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	scale := 1.0
	if maxW > 0 && w > maxW {
		scale = float64(maxW) / float64(w)
	}
	if maxH > 0 && h > maxH {
		if s := float64(maxH) / float64(h); s < scale {
			scale = s
		}
	}
	if scale >= 1 {
		return w, h
	}
	nw := int(float64(w)*scale + 0.5)
	nh := int(float64(h)*scale + 0.5)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}

// Downscale shrinks b to fit within maxW×maxH with Catmull-Rom resampling,
// preserving the aspect ratio. b is returned unchanged when it already
// fits.
func Downscale(b *Buffer, maxW, maxH int) *Buffer {
	nw, nh := fitWithin(b.Width, b.Height, maxW, maxH)
	if nw == b.Width && nh == b.Height {
		return b
	}
	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), b.NRGBA(), image.Rect(0, 0, b.Width, b.Height), draw.Src, nil)
	return &Buffer{Width: nw, Height: nh, Pix: dst.Pix}
}
