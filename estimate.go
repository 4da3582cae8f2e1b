package dctpress

import (
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/xfmoulet/qoi"
)

// Estimator reports how many bytes an encoded form of a buffer takes.
// The codec never produces a bitstream of its own; an Estimator stands in
// for "file size" by handing the reconstruction to a real encoder.
type Estimator interface {
	Name() string
	Estimate(b *Buffer) (int, error)
}

// JPEGEstimator re-encodes the buffer as baseline JPEG, the way the browser
// path sizes its result with canvas.toDataURL("image/jpeg", quality).
type JPEGEstimator struct {
	// Quality is the JPEG quality, 1–100.
	Quality int
}

// Name implements Estimator.
func (e JPEGEstimator) Name() string { return fmt.Sprintf("jpeg q%d", e.jpegQuality()) }

// Estimate implements Estimator.
func (e JPEGEstimator) Estimate(b *Buffer) (int, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	var n byteCounter
	if err := encodeJPEG(&n, b, e.jpegQuality()); err != nil {
		return 0, fmt.Errorf("dctpress: jpeg estimate: %w", err)
	}
	return int(n), nil
}

func (e JPEGEstimator) jpegQuality() int {
	q := e.Quality
	if q < 1 {
		q = jpeg.DefaultQuality
	}
	if q > 100 {
		q = 100
	}
	return q
}

// ZstdEstimator compresses the raw color samples with zstd. Quantization
// removes high-frequency detail, so lower quality factors leave fewer
// bytes after entropy coding.
type ZstdEstimator struct{}

// Name implements Estimator.
func (ZstdEstimator) Name() string { return "zstd" }

// Estimate implements Estimator.
func (ZstdEstimator) Estimate(b *Buffer) (int, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	samples := make([]byte, 0, len(b.Pix)/4*colorChannels)
	for i := 0; i < len(b.Pix); i += 4 {
		samples = append(samples, b.Pix[i:i+colorChannels]...)
	}

	enc := zstdEncPool.Get().(*zstd.Encoder)
	out := enc.EncodeAll(samples, nil)
	zstdEncPool.Put(enc)
	return len(out), nil
}

// QOIEstimator encodes the buffer losslessly as QOI, a baseline for how
// much a lossless store of the reconstruction would take.
type QOIEstimator struct{}

// Name implements Estimator.
func (QOIEstimator) Name() string { return "qoi" }

// Estimate implements Estimator.
func (QOIEstimator) Estimate(b *Buffer) (int, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	var n byteCounter
	if err := qoi.Encode(&n, b.NRGBA()); err != nil {
		return 0, fmt.Errorf("dctpress: qoi estimate: %w", err)
	}
	return int(n), nil
}

// ParseEstimator returns the estimator named by name ("jpeg", "zstd" or
// "qoi"). jpegQuality applies to the JPEG estimator only.
func ParseEstimator(name string, jpegQuality int) (Estimator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "jpeg", "jpg":
		return JPEGEstimator{Quality: jpegQuality}, nil
	case "zstd":
		return ZstdEstimator{}, nil
	case "qoi":
		return QOIEstimator{}, nil
	default:
		return nil, fmt.Errorf("dctpress: estimator %q: %w", name, ErrUnsupportedFormat)
	}
}

var zstdEncPool = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(
			nil,
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
			zstd.WithLowerEncoderMem(true),
		)
		if err != nil {
			panic(err)
		}
		return enc
	},
}

// encodeJPEG writes b as JPEG, using an RGBA view for opaque buffers
// (identical pixels, faster path through the encoder).
func encodeJPEG(w io.Writer, b *Buffer, quality int) error {
	if isOpaque(b) {
		rgba := &image.RGBA{
			Pix:    b.Pix,
			Stride: b.Width * 4,
			Rect:   image.Rect(0, 0, b.Width, b.Height),
		}
		return jpeg.Encode(w, rgba, &jpeg.Options{Quality: quality})
	}
	return jpeg.Encode(w, b.NRGBA(), &jpeg.Options{Quality: quality})
}

// byteCounter is an io.Writer that only counts.
type byteCounter int64

func (c *byteCounter) Write(p []byte) (int, error) {
	*c += byteCounter(len(p))
	return len(p), nil
}
