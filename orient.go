package dctpress

import (
	"bytes"
	"encoding/binary"
)

// Orientation describes an EXIF orientation tag value.
type Orientation int

const (
	OrientNormal      Orientation = 1
	OrientFlipH       Orientation = 2
	OrientRotate180   Orientation = 3
	OrientFlipV       Orientation = 4
	OrientTranspose   Orientation = 5
	OrientRotate90CW  Orientation = 6
	OrientTransverse  Orientation = 7
	OrientRotate270CW Orientation = 8
)

const (
	markerSOI  = 0xD8
	markerAPP1 = 0xE1
	markerSOS  = 0xDA
	tagOrient  = 0x0112
	typeShort  = 3
)

// ReadOrientation returns the EXIF orientation stored in a JPEG stream, or
// OrientNormal when data is not a JPEG or carries no orientation tag.
// Only the APP1 segments before the first scan are inspected.
func ReadOrientation(data []byte) Orientation {
	if len(data) < 4 || data[0] != 0xFF || data[1] != markerSOI {
		return OrientNormal
	}

	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != 0xFF {
			return OrientNormal
		}
		marker := data[pos+1]
		if marker == 0xFF {
			pos++ // fill byte
			continue
		}
		if marker == markerSOS {
			return OrientNormal
		}
		segLen := int(binary.BigEndian.Uint16(data[pos+2 : pos+4]))
		if segLen < 2 || pos+2+segLen > len(data) {
			return OrientNormal
		}
		if marker == markerAPP1 {
			if o, ok := exifOrientation(data[pos+4 : pos+2+segLen]); ok {
				return o
			}
		}
		pos += 2 + segLen
	}
	return OrientNormal
}

// exifOrientation reads tag 0x0112 from IFD0 of an APP1 payload.
func exifOrientation(seg []byte) (Orientation, bool) {
	if !bytes.HasPrefix(seg, []byte("Exif\x00\x00")) {
		return 0, false
	}
	tiff := seg[6:]
	if len(tiff) < 8 {
		return 0, false
	}

	var bo binary.ByteOrder
	switch string(tiff[:2]) {
	case "II":
		bo = binary.LittleEndian
	case "MM":
		bo = binary.BigEndian
	default:
		return 0, false
	}
	if bo.Uint16(tiff[2:4]) != 42 {
		return 0, false
	}

	ifd := int(bo.Uint32(tiff[4:8]))
	if ifd < 8 || ifd+2 > len(tiff) {
		return 0, false
	}
	entries := int(bo.Uint16(tiff[ifd : ifd+2]))
	for i := 0; i < entries; i++ {
		e := ifd + 2 + i*12
		if e+12 > len(tiff) {
			break
		}
		if bo.Uint16(tiff[e:e+2]) != tagOrient {
			continue
		}
		if bo.Uint16(tiff[e+2:e+4]) != typeShort {
			return OrientNormal, true
		}
		v := Orientation(bo.Uint16(tiff[e+8 : e+10]))
		if v < OrientNormal || v > OrientRotate270CW {
			return OrientNormal, true
		}
		return v, true
	}
	return 0, false
}

// ApplyOrientation returns b transformed so that it displays upright for
// the given EXIF orientation. OrientNormal and unknown values return b.
func ApplyOrientation(b *Buffer, o Orientation) *Buffer {
	w, h := b.Width, b.Height

	// src maps a destination pixel to the source pixel it shows.
	var src func(x, y int) (int, int)
	dw, dh := w, h
	switch o {
	case OrientFlipH:
		src = func(x, y int) (int, int) { return w - 1 - x, y }
	case OrientRotate180:
		src = func(x, y int) (int, int) { return w - 1 - x, h - 1 - y }
	case OrientFlipV:
		src = func(x, y int) (int, int) { return x, h - 1 - y }
	case OrientTranspose:
		dw, dh = h, w
		src = func(x, y int) (int, int) { return y, x }
	case OrientRotate90CW:
		dw, dh = h, w
		src = func(x, y int) (int, int) { return y, h - 1 - x }
	case OrientTransverse:
		dw, dh = h, w
		src = func(x, y int) (int, int) { return w - 1 - y, h - 1 - x }
	case OrientRotate270CW:
		dw, dh = h, w
		src = func(x, y int) (int, int) { return w - 1 - y, x }
	default:
		return b
	}

	dst := NewBuffer(dw, dh)
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			sx, sy := src(x, y)
			so := (sy*w + sx) * 4
			do := (y*dw + x) * 4
			copy(dst.Pix[do:do+4], b.Pix[so:so+4])
		}
	}
	return dst
}
