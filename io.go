package dctpress

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xfmoulet/qoi"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Format is an output encoding for a reconstructed buffer.
type Format int

const (
	// PNG stores the reconstruction losslessly.
	PNG Format = iota
	// JPEG re-encodes the reconstruction lossily.
	JPEG
	// QOI stores the reconstruction losslessly, fast to encode.
	QOI
)

func (f Format) String() string {
	switch f {
	case PNG:
		return "PNG"
	case JPEG:
		return "JPEG"
	case QOI:
		return "QOI"
	default:
		return "Unknown"
	}
}

// MIME returns the media type used in data URIs.
func (f Format) MIME() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	case QOI:
		return "image/qoi"
	default:
		return "image/png"
	}
}

// FormatFromExt picks the output format for a file name.
func FormatFromExt(filename string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".png":
		return PNG, nil
	case ".jpg", ".jpeg":
		return JPEG, nil
	case ".qoi":
		return QOI, nil
	default:
		return 0, fmt.Errorf("dctpress: extension %q (use .png, .jpg or .qoi): %w", ext, ErrUnsupportedFormat)
	}
}

// Decode reads any registered image format (JPEG, PNG, GIF, BMP, TIFF,
// WebP, QOI) from r into a Buffer. EXIF orientation is not applied.
// Unknown formats yield ErrUnsupportedFormat and corrupt or truncated
// data ErrInvalidParameter.
func Decode(r io.Reader) (*Buffer, error) {
	img, _, err := image.Decode(r)
	if errors.Is(err, image.ErrFormat) {
		return nil, fmt.Errorf("dctpress: decode: %w", ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("dctpress: decode: %v: %w", err, ErrInvalidParameter)
	}
	return FromImage(img), nil
}

// DecodeBytes decodes an encoded image. With autoOrient, the JPEG EXIF
// orientation is applied so the buffer matches what a browser draws.
func DecodeBytes(data []byte, autoOrient bool) (*Buffer, error) {
	b, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if autoOrient {
		b = ApplyOrientation(b, ReadOrientation(data))
	}
	return b, nil
}

// Open loads and orients an image file.
func Open(filename string) (*Buffer, error) {
	b, _, err := openFile(filename, true)
	return b, err
}

// openFile returns the decoded buffer and the encoded file size.
func openFile(filename string, autoOrient bool) (*Buffer, int64, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, 0, fmt.Errorf("dctpress: open %q: %w", filename, err)
	}
	b, err := DecodeBytes(data, autoOrient)
	if err != nil {
		return nil, 0, fmt.Errorf("dctpress: %q: %w", filename, err)
	}
	return b, int64(len(data)), nil
}

// Encode writes b to w. jpegQuality (1–100) is used only for JPEG.
func Encode(w io.Writer, b *Buffer, f Format, jpegQuality int) error {
	if err := b.Validate(); err != nil {
		return err
	}
	switch f {
	case PNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		return enc.Encode(w, b.NRGBA())
	case JPEG:
		return encodeJPEG(w, b, JPEGEstimator{Quality: jpegQuality}.jpegQuality())
	case QOI:
		return qoi.Encode(w, b.NRGBA())
	default:
		return fmt.Errorf("dctpress: encode %v: %w", f, ErrUnsupportedFormat)
	}
}

// Save writes b to filename in the format implied by its extension.
func Save(b *Buffer, filename string, jpegQuality int) error {
	f, err := FormatFromExt(filename)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, b, f, jpegQuality); err != nil {
		return fmt.Errorf("dctpress: encode %q: %w", filename, err)
	}
	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("dctpress: write %q: %w", filename, err)
	}
	return nil
}

// EncodeDataURI encodes b as a base64 data URI.
func EncodeDataURI(b *Buffer, f Format, jpegQuality int) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, b, f, jpegQuality); err != nil {
		return "", err
	}
	return "data:" + f.MIME() + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeDataURI returns the payload and media type of a base64 data URI.
func DecodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", fmt.Errorf("dctpress: not a data URI: %w", ErrInvalidParameter)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("dctpress: data URI without payload: %w", ErrInvalidParameter)
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, "", fmt.Errorf("dctpress: data URI is not base64: %w", ErrInvalidParameter)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("dctpress: data URI payload: %v: %w", err, ErrInvalidParameter)
	}
	return data, mime, nil
}
