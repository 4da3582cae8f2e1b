package dctpress

import (
	"fmt"
	"math"
)

// psnrIdentical is reported when two buffers do not differ at all.
// It is a finite stand-in for an infinite ratio.
const psnrIdentical = 100.0

// Metrics is the pair of distortion figures reported for a reconstruction.
type Metrics struct {
	MSE  float64
	PSNR float64
}

// MSE returns the mean squared error over the three color channels of a
// and b. The pass-through channel is skipped and the sum is divided by
// three quarters of the sample count.
func MSE(a, b *Buffer) (float64, error) {
	if err := checkShapes(a, b); err != nil {
		return 0, err
	}
	return mse(a, b), nil
}

// PSNR returns 10·log10(255² / MSE) in decibels, or 100 when the color
// channels are identical.
func PSNR(a, b *Buffer) (float64, error) {
	m, err := MSE(a, b)
	if err != nil {
		return 0, err
	}
	return psnrFromMSE(m), nil
}

// Measure computes MSE and PSNR in one pass.
func Measure(a, b *Buffer) (Metrics, error) {
	m, err := MSE(a, b)
	if err != nil {
		return Metrics{}, err
	}
	return Metrics{MSE: m, PSNR: psnrFromMSE(m)}, nil
}

func mse(a, b *Buffer) float64 {
	if len(a.Pix) == 0 {
		return 0
	}
	// Integer accumulation keeps the sum exact for any realistic size.
	var sum int64
	for i := 0; i+3 < len(a.Pix); i += 4 {
		for c := 0; c < colorChannels; c++ {
			d := int64(a.Pix[i+c]) - int64(b.Pix[i+c])
			sum += d * d
		}
	}
	return float64(sum) / (float64(len(a.Pix)) * 0.75)
}

func psnrFromMSE(m float64) float64 {
	if m == 0 {
		return psnrIdentical
	}
	return 10 * math.Log10(255*255/m)
}

func checkShapes(a, b *Buffer) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}
	if !a.sameShape(b) {
		return fmt.Errorf("dctpress: shape mismatch %dx%d vs %dx%d: %w",
			a.Width, a.Height, b.Width, b.Height, ErrInvalidParameter)
	}
	return nil
}
