package dctpress

import (
	"image"
)

// FromImage copies any image.Image into a new Buffer with non-premultiplied
// samples, the layout a canvas getImageData call produces. The image's
// bounds are translated to start at the origin.
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	dst := NewBuffer(bounds.Dx(), bounds.Dy())

	if src, ok := img.(*image.NRGBA); ok {
		rowLen := bounds.Dx() * 4
		for y := 0; y < bounds.Dy(); y++ {
			off := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(dst.Pix[y*rowLen:(y+1)*rowLen], src.Pix[off:off+rowLen])
		}
		return dst
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			off := ((y-bounds.Min.Y)*dst.Width + (x - bounds.Min.X)) * 4
			switch a {
			case 0:
				// Fully transparent: all samples stay zero.
			case 0xffff:
				dst.Pix[off] = uint8(r >> 8)
				dst.Pix[off+1] = uint8(g >> 8)
				dst.Pix[off+2] = uint8(b >> 8)
				dst.Pix[off+3] = 0xff
			default:
				// Un-premultiply.
				dst.Pix[off] = uint8(((r * 0xffff) / a) >> 8)
				dst.Pix[off+1] = uint8(((g * 0xffff) / a) >> 8)
				dst.Pix[off+2] = uint8(((b * 0xffff) / a) >> 8)
				dst.Pix[off+3] = uint8(a >> 8)
			}
		}
	}
	return dst
}

// isOpaque checks if all pixels have full alpha.
func isOpaque(b *Buffer) bool {
	for i := 3; i < len(b.Pix); i += 4 {
		if b.Pix[i] != 0xff {
			return false
		}
	}
	return true
}

// isGrayscale checks if all pixels have R == G == B.
func isGrayscale(b *Buffer) bool {
	for i := 0; i < len(b.Pix); i += 4 {
		if b.Pix[i] != b.Pix[i+1] || b.Pix[i+1] != b.Pix[i+2] {
			return false
		}
	}
	return true
}
