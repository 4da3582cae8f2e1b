package dctpress

import (
	"fmt"
	"math"
)

// qualityScale maps a quality factor to the step growth factor: very
// steep below 0.5, linear towards zero at 1.
func qualityScale(quality float64) float64 {
	if quality < 0.5 {
		return (1 / quality) * 25
	}
	return (2 - 2*quality) * 25
}

// QuantizationMatrix returns the n×n step matrix for a quality factor.
// step(i, j) = max(1, 1 + (i+j)·q/10), so steps grow with spatial
// frequency and never drop below 1.
func QuantizationMatrix(quality float64, n int) ([]float64, error) {
	if err := validateQuality(quality); err != nil {
		return nil, err
	}
	if err := validateBlockSize(n); err != nil {
		return nil, err
	}
	return quantizationMatrix(quality, n), nil
}

func quantizationMatrix(quality float64, n int) []float64 {
	q := qualityScale(quality)
	m := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m[i*n+j] = math.Max(1, 1+float64(i+j)*q/10)
		}
	}
	return m
}

// Quantize snaps every coefficient to the nearest multiple of its step,
// in place. The result stays on the coefficient scale; only the lost
// precision is modelled. Extra entries in the longer slice are ignored.
func Quantize(coeffs, matrix []float64) {
	n := min(len(coeffs), len(matrix))
	for i, step := range matrix[:n] {
		coeffs[i] = math.Floor(coeffs[i]/step+0.5) * step
	}
}

func validateQuality(q float64) error {
	if math.IsNaN(q) || q <= 0 || q > 1 {
		return fmt.Errorf("dctpress: quality %v outside (0, 1]: %w", q, ErrInvalidParameter)
	}
	return nil
}

func validateBlockSize(n int) error {
	if n <= 0 {
		return fmt.Errorf("dctpress: block size %d must be positive: %w", n, ErrInvalidParameter)
	}
	return nil
}
