// Package dctpress is a block-based lossy transform codec for raster
// images. Every N×N block of each color channel goes through an
// orthonormal 2-D DCT-II, a quality-driven quantizer and the inverse DCT;
// the reconstruction is compared with the input by MSE and PSNR.
//
// No bitstream is produced. The reported size of a result comes from an
// Estimator that re-encodes the reconstruction with a real encoder.
//
//   - Pure core: CompressBuffer, MSE and PSNR are functions of their inputs
//   - Parallel block rows with output identical to a sequential run
//   - Size estimation by JPEG re-encode, zstd or QOI
//   - PSNR-targeted quality search
//   - Batch processing with a worker pool
//   - HTTP handler and client for the remote path, with local fallback
package dctpress

import (
	"context"
	"fmt"
	"image"
	"time"
)

// Compress runs the codec over an already-decoded image.
func Compress(ctx context.Context, img image.Image, opts Options) (*Result, error) {
	if img == nil {
		return nil, fmt.Errorf("dctpress: nil image: %w", ErrInvalidParameter)
	}
	return compressBuffer(ctx, FromImage(img), 0, opts)
}

// CompressBytes decodes an encoded image (applying EXIF orientation when
// opts.AutoOrient is set) and runs the codec over it. The input length is
// reported as the original size.
func CompressBytes(ctx context.Context, data []byte, opts Options) (*Result, error) {
	if err := opts.reportProgress(ctx, StageDecoding, 0); err != nil {
		return nil, err
	}
	b, err := DecodeBytes(data, opts.AutoOrient)
	if err != nil {
		return nil, err
	}
	return compressBuffer(ctx, b, int64(len(data)), opts)
}

// CompressFile compresses the image at src and writes the reconstruction
// to dst in the format implied by dst's extension.
func CompressFile(ctx context.Context, src, dst string, opts Options) (*Result, error) {
	if _, err := FormatFromExt(dst); err != nil {
		return nil, err
	}
	if err := opts.reportProgress(ctx, StageDecoding, 0); err != nil {
		return nil, err
	}
	b, size, err := openFile(src, opts.AutoOrient)
	if err != nil {
		return nil, err
	}

	result, err := compressBuffer(ctx, b, size, opts)
	if err != nil {
		return nil, err
	}

	if err := opts.reportProgress(ctx, StageWriting, 0.95); err != nil {
		return nil, err
	}
	if err := Save(result.Image, dst, opts.QualityPercent()); err != nil {
		return nil, err
	}
	if err := opts.reportProgress(ctx, StageWriting, 1.0); err != nil {
		return nil, err
	}
	return result, nil
}

// compressBuffer is the shared pipeline: resize, compress, measure,
// estimate.
func compressBuffer(ctx context.Context, src *Buffer, originalSize int64, opts Options) (*Result, error) {
	start := time.Now()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		Quality:            opts.Quality,
		BlockSize:          opts.BlockSize,
		OriginalSize:       originalSize,
		OriginalDimensions: src.Bounds(),
	}

	if err := opts.reportProgress(ctx, StageResizing, 0.1); err != nil {
		return nil, err
	}
	if opts.MaxWidth > 0 || opts.MaxHeight > 0 {
		src = Downscale(src, opts.MaxWidth, opts.MaxHeight)
	}
	result.FinalDimensions = src.Bounds()

	if err := opts.reportProgress(ctx, StageCompressing, 0.2); err != nil {
		return nil, err
	}
	p := Pipeline{Quality: opts.Quality, BlockSize: opts.BlockSize, Workers: opts.Workers}
	out, err := p.Run(ctx, src)
	if err != nil {
		return nil, err
	}
	result.Image = out

	if err := opts.reportProgress(ctx, StageMeasuring, 0.7); err != nil {
		return nil, err
	}
	m, err := Measure(src, out)
	if err != nil {
		return nil, err
	}
	result.MSE, result.PSNR = m.MSE, m.PSNR
	if result.SSIM, err = SSIM(src, out); err != nil {
		return nil, err
	}

	if err := opts.reportProgress(ctx, StageEstimating, 0.85); err != nil {
		return nil, err
	}
	est := opts.estimator()
	size, err := est.Estimate(out)
	if err != nil {
		return nil, err
	}
	result.Estimator = est.Name()
	result.CompressedSize = int64(size)
	result.computeStats()
	result.Elapsed = time.Since(start)

	return result, nil
}
