package dctpress

import (
	"context"
	"fmt"
	"math"
)

// SearchResult is the outcome of a quality search.
type SearchResult struct {
	// Percent is the chosen quality on the 1–100 scale.
	Percent int
	// Image is the reconstruction at Percent.
	Image *Buffer
	// Metrics compares Image with the search input.
	Metrics Metrics
	// Reached reports whether Metrics.PSNR met the target. When false,
	// the result is the best quality tried (100).
	Reached bool
	// Steps is the number of pipeline runs performed.
	Steps int
}

// SearchQuality binary-searches the quality percent (1–100) for the lowest
// setting whose reconstruction still reaches targetPSNR decibels. The PSNR
// of this codec grows with quality for natural images, which the search
// relies on; it never reports a result below the target as reached.
func SearchQuality(ctx context.Context, src *Buffer, blockSize int, targetPSNR float64, workers int) (*SearchResult, error) {
	if math.IsNaN(targetPSNR) || targetPSNR <= 0 {
		return nil, fmt.Errorf("dctpress: target PSNR %v must be positive: %w", targetPSNR, ErrInvalidParameter)
	}
	if err := validateBlockSize(blockSize); err != nil {
		return nil, err
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}

	run := func(percent int) (*Buffer, Metrics, error) {
		p := Pipeline{Quality: float64(percent) / 100, BlockSize: blockSize, Workers: workers}
		out, err := p.Run(ctx, src)
		if err != nil {
			return nil, Metrics{}, err
		}
		m, err := Measure(src, out)
		return out, m, err
	}

	res := &SearchResult{}
	lo, hi := 1, 100
	for lo <= hi {
		mid := (lo + hi) / 2
		out, m, err := run(mid)
		if err != nil {
			return nil, err
		}
		res.Steps++

		if m.PSNR >= targetPSNR {
			// Good enough: remember it and try lower quality.
			res.Percent, res.Image, res.Metrics, res.Reached = mid, out, m, true
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}

	if !res.Reached {
		out, m, err := run(100)
		if err != nil {
			return nil, err
		}
		res.Steps++
		res.Percent, res.Image, res.Metrics = 100, out, m
	}
	return res, nil
}
