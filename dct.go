package dctpress

import (
	"fmt"
	"math"
	"sync"
)

// basisCache maps a block size to its read-only scaled cosine table.
var basisCache sync.Map

// dctBasis returns the table b[k*n+i] = c(k)·cos((2i+1)kπ / 2n) with the
// orthonormal scale c(0) = 1/√n, c(k) = √2/√n.
func dctBasis(n int) []float64 {
	if v, ok := basisCache.Load(n); ok {
		return v.([]float64)
	}

	sqrtN := math.Sqrt(float64(n))
	basis := make([]float64, n*n)
	for k := 0; k < n; k++ {
		scale := math.Sqrt2 / sqrtN
		if k == 0 {
			scale = 1 / sqrtN
		}
		for i := 0; i < n; i++ {
			basis[k*n+i] = scale * math.Cos(float64((2*i+1)*k)*math.Pi/float64(2*n))
		}
	}

	v, _ := basisCache.LoadOrStore(n, basis)
	return v.([]float64)
}

// Transform computes the orthonormal 2-D DCT-II of n×n blocks and its
// inverse. Both directions run as a row pass followed by a column pass,
// O(n³) per block instead of the O(n⁴) direct double sum.
//
// A Transform owns scratch space and must not be shared between
// goroutines; the cosine table behind it is shared.
type Transform struct {
	n     int
	basis []float64
	tmp   []float64
}

// NewTransform returns a Transform for n×n blocks.
func NewTransform(n int) (*Transform, error) {
	if err := validateBlockSize(n); err != nil {
		return nil, err
	}
	return newTransform(n), nil
}

func newTransform(n int) *Transform {
	return &Transform{
		n:     n,
		basis: dctBasis(n),
		tmp:   make([]float64, n*n),
	}
}

// Size returns the block edge length.
func (t *Transform) Size() int { return t.n }

// Forward writes the DCT-II coefficients of src into dst and returns dst.
// Coefficient (u, v) lands at index u*n+v, pairing u with the row index of
// src; index 0 is the DC term. dst is allocated when too small and may not
// alias src.
func (t *Transform) Forward(dst, src []float64) []float64 {
	n := t.n
	dst = sized(dst, n*n)
	b, tmp := t.basis, t.tmp

	// Rows: tmp[r][v] = Σc src[r][c]·b[v][c]
	for r := 0; r < n; r++ {
		row := src[r*n : r*n+n]
		for v := 0; v < n; v++ {
			bv := b[v*n : v*n+n]
			var sum float64
			for c, s := range row {
				sum += s * bv[c]
			}
			tmp[r*n+v] = sum
		}
	}

	// Columns: dst[u][v] = Σr b[u][r]·tmp[r][v]
	for u := 0; u < n; u++ {
		bu := b[u*n : u*n+n]
		for v := 0; v < n; v++ {
			var sum float64
			for r, w := range bu {
				sum += w * tmp[r*n+v]
			}
			dst[u*n+v] = sum
		}
	}
	return dst
}

// Inverse reconstructs spatial samples from coefficients laid out as
// Forward produces them, writing into dst. dst may not alias src.
func (t *Transform) Inverse(dst, src []float64) []float64 {
	n := t.n
	dst = sized(dst, n*n)
	b, tmp := t.basis, t.tmp

	// Rows: tmp[u][c] = Σv src[u][v]·b[v][c]
	for u := 0; u < n; u++ {
		row := src[u*n : u*n+n]
		for c := 0; c < n; c++ {
			var sum float64
			for v, coeff := range row {
				sum += coeff * b[v*n+c]
			}
			tmp[u*n+c] = sum
		}
	}

	// Columns: dst[r][c] = Σu b[u][r]·tmp[u][c]
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			var sum float64
			for u := 0; u < n; u++ {
				sum += b[u*n+r] * tmp[u*n+c]
			}
			dst[r*n+c] = sum
		}
	}
	return dst
}

// ForwardDCT returns the DCT-II coefficients of a size×size block.
func ForwardDCT(block []float64, size int) ([]float64, error) {
	if err := checkBlock(block, size); err != nil {
		return nil, err
	}
	return newTransform(size).Forward(nil, block), nil
}

// InverseDCT returns the samples reconstructed from size×size coefficients.
func InverseDCT(coeffs []float64, size int) ([]float64, error) {
	if err := checkBlock(coeffs, size); err != nil {
		return nil, err
	}
	return newTransform(size).Inverse(nil, coeffs), nil
}

func checkBlock(block []float64, size int) error {
	if err := validateBlockSize(size); err != nil {
		return err
	}
	if len(block) != size*size {
		return fmt.Errorf("dctpress: block has %d values, want %d: %w", len(block), size*size, ErrInvalidParameter)
	}
	return nil
}

func sized(s []float64, n int) []float64 {
	if cap(s) < n {
		return make([]float64, n)
	}
	return s[:n]
}
