package dctpress

import (
	"context"
	"fmt"
	"image"
	"time"
)

// Version is the library version.
const Version = "1.0.0"

// Default pipeline parameters, matching the slider defaults of the web UI.
const (
	DefaultQuality   = 0.5
	DefaultBlockSize = 8
)

// Buffer is an 8-bit RGBA raster: Width*Height pixels, four interleaved
// samples per pixel (three color channels and one pass-through channel),
// row-major, without row padding.
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewBuffer allocates a zeroed buffer of the given size.
func NewBuffer(width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
}

// Validate reports whether the buffer is non-empty and its sample slice
// matches its dimensions.
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("dctpress: nil buffer: %w", ErrInvalidParameter)
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("dctpress: empty buffer (%dx%d): %w", b.Width, b.Height, ErrInvalidParameter)
	}
	if want := b.Width * b.Height * 4; len(b.Pix) != want {
		return fmt.Errorf("dctpress: buffer has %d samples, want %d for %dx%d: %w",
			len(b.Pix), want, b.Width, b.Height, ErrInvalidParameter)
	}
	return nil
}

// Clone returns a deep copy of b.
func (b *Buffer) Clone() *Buffer {
	dst := &Buffer{Width: b.Width, Height: b.Height, Pix: make([]uint8, len(b.Pix))}
	copy(dst.Pix, b.Pix)
	return dst
}

// NRGBA returns an *image.NRGBA view sharing b's samples.
// Writes through the view modify b.
func (b *Buffer) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// Bounds returns the buffer dimensions as a point.
func (b *Buffer) Bounds() image.Point {
	return image.Pt(b.Width, b.Height)
}

func (b *Buffer) sameShape(o *Buffer) bool {
	return b.Width == o.Width && b.Height == o.Height && len(b.Pix) == len(o.Pix)
}

// ProgressStage describes what the compressor is currently doing.
type ProgressStage string

const (
	StageDecoding    ProgressStage = "decoding"
	StageResizing    ProgressStage = "resizing"
	StageCompressing ProgressStage = "compressing"
	StageMeasuring   ProgressStage = "measuring"
	StageEstimating  ProgressStage = "estimating"
	StageWriting     ProgressStage = "writing"
)

// ProgressFunc is called during compression to report progress.
// stage describes the current operation, percent is 0.0–1.0.
// Return a non-nil error to abort the operation.
type ProgressFunc func(stage ProgressStage, percent float64) error

// Options configures a compression run.
type Options struct {
	// Quality is the quality factor in (0, 1]. 1 keeps the most detail.
	Quality float64

	// BlockSize is the edge length of the square transform block.
	BlockSize int

	// Workers bounds the goroutines used by the block pipeline.
	// 0 means runtime.GOMAXPROCS(0).
	Workers int

	// MaxWidth and MaxHeight downscale the input before compression.
	// 0 means no constraint. Aspect ratio is preserved.
	MaxWidth  int
	MaxHeight int

	// AutoOrient applies the JPEG EXIF orientation when decoding bytes,
	// matching what a browser canvas hands to the pipeline.
	AutoOrient bool

	// Estimator produces the reported compressed size. nil uses a JPEG
	// re-encode at the quality percent.
	Estimator Estimator

	// OnProgress is called during compression to report progress.
	// Optional. Returning a non-nil error aborts the operation.
	OnProgress ProgressFunc
}

// DefaultOptions returns the defaults used by the CLI and the HTTP handler.
func DefaultOptions() Options {
	return Options{
		Quality:    DefaultQuality,
		BlockSize:  DefaultBlockSize,
		AutoOrient: true,
	}
}

// Validate checks the quality factor and block size.
func (o *Options) Validate() error {
	if err := validateQuality(o.Quality); err != nil {
		return err
	}
	if err := validateBlockSize(o.BlockSize); err != nil {
		return err
	}
	if o.MaxWidth < 0 || o.MaxHeight < 0 {
		return fmt.Errorf("dctpress: negative size constraint %dx%d: %w", o.MaxWidth, o.MaxHeight, ErrInvalidParameter)
	}
	return nil
}

// QualityPercent returns the quality factor on the 1–100 UI scale.
func (o *Options) QualityPercent() int {
	return percentOf(o.Quality)
}

func (o *Options) estimator() Estimator {
	if o.Estimator != nil {
		return o.Estimator
	}
	return JPEGEstimator{Quality: o.QualityPercent()}
}

// reportProgress checks ctx and invokes the progress callback if set.
func (o *Options) reportProgress(ctx context.Context, stage ProgressStage, percent float64) error {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	if o.OnProgress != nil {
		return o.OnProgress(stage, percent)
	}
	return nil
}

// Result holds the reconstructed image and its quality and size figures.
type Result struct {
	// Image is the reconstructed buffer.
	Image *Buffer

	// Quality and BlockSize are the parameters the pipeline ran with.
	Quality   float64
	BlockSize int

	// MSE and PSNR compare the reconstruction with the pipeline input.
	MSE  float64
	PSNR float64

	// SSIM is the luminance structural similarity of the same pair.
	SSIM float64

	// Estimator names the size estimator behind CompressedSize.
	Estimator string

	// OriginalSize is the encoded input size in bytes, when known.
	OriginalSize int64

	// CompressedSize is the estimated encoded size of the reconstruction.
	CompressedSize int64

	// Ratio is OriginalSize / CompressedSize.
	Ratio float64

	// SpaceSaved is the percentage of bytes saved relative to OriginalSize.
	SpaceSaved float64

	// OriginalDimensions is the decoded (and oriented) input size.
	OriginalDimensions image.Point

	// FinalDimensions is the size the pipeline ran at.
	FinalDimensions image.Point

	// Elapsed is the wall time of the whole call.
	Elapsed time.Duration
}

// String returns a human-readable summary of the compression result.
func (r *Result) String() string {
	return fmt.Sprintf(
		"dctpress: Q=%d N=%d | %dx%d → %dx%d | %s → %s (%s) | PSNR: %.2f dB | MSE: %.2f | SSIM: %.4f | Saved: %.1f%%",
		percentOf(r.Quality), r.BlockSize,
		r.OriginalDimensions.X, r.OriginalDimensions.Y,
		r.FinalDimensions.X, r.FinalDimensions.Y,
		humanBytes(r.OriginalSize), humanBytes(r.CompressedSize), r.Estimator,
		r.PSNR, r.MSE, r.SSIM, r.SpaceSaved,
	)
}

// computeStats fills Ratio and SpaceSaved from the sizes. Both stay neutral
// while the original size is unknown.
func (r *Result) computeStats() {
	r.Ratio, r.SpaceSaved = 1, 0
	if r.OriginalSize > 0 && r.CompressedSize > 0 {
		r.Ratio = float64(r.OriginalSize) / float64(r.CompressedSize)
	}
	if r.OriginalSize > 0 {
		r.SpaceSaved = float64(r.OriginalSize-r.CompressedSize) / float64(r.OriginalSize) * 100
	}
}

// percentOf maps a quality factor to the nearest 1–100 percent.
func percentOf(q float64) int {
	p := int(q*100 + 0.5)
	if p < 1 {
		return 1
	}
	if p > 100 {
		return 100
	}
	return p
}

// humanBytes formats a byte count for human reading.
func humanBytes(b int64) string {
	if b == 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	i := 0
	bf := float64(b)
	for bf >= 1024 && i < len(units)-1 {
		bf /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", b)
	}
	return fmt.Sprintf("%.1f %s", bf, units[i])
}
