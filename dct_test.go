package dctpress

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// directDCT is the O(n⁴) double sum the separable transform must match.
func directDCT(x []float64, n int) []float64 {
	c := func(k int) float64 {
		if k == 0 {
			return 1 / math.Sqrt(float64(n))
		}
		return math.Sqrt(2 / float64(n))
	}
	out := make([]float64, n*n)
	for u := 0; u < n; u++ {
		for v := 0; v < n; v++ {
			var sum float64
			for r := 0; r < n; r++ {
				for col := 0; col < n; col++ {
					sum += x[r*n+col] *
						math.Cos(float64((2*r+1)*u)*math.Pi/float64(2*n)) *
						math.Cos(float64((2*col+1)*v)*math.Pi/float64(2*n))
				}
			}
			out[u*n+v] = c(u) * c(v) * sum
		}
	}
	return out
}

func randomBlock(n int, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, 1))
	block := make([]float64, n*n)
	for i := range block {
		block[i] = float64(rng.IntN(256))
	}
	return block
}

func TestForwardMatchesDirectSum(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 5, 7, 8, 16} {
		block := randomBlock(n, uint64(n))
		got, err := ForwardDCT(block, n)
		require.NoError(t, err)
		want := directDCT(block, n)
		assert.InDeltaSlicef(t, want, got, 1e-9, "n=%d", n)
	}
}

func TestInverseRoundTrip(t *testing.T) {
	for _, n := range []int{1, 2, 4, 8, 11, 32} {
		block := randomBlock(n, uint64(100+n))
		coeffs, err := ForwardDCT(block, n)
		require.NoError(t, err)
		back, err := InverseDCT(coeffs, n)
		require.NoError(t, err)
		assert.InDeltaSlicef(t, block, back, 1e-9, "n=%d", n)
	}
}

func TestForwardConstantBlockIsPureDC(t *testing.T) {
	block := make([]float64, 64)
	for i := range block {
		block[i] = 128
	}
	coeffs, err := ForwardDCT(block, 8)
	require.NoError(t, err)
	assert.InDelta(t, 1024.0, coeffs[0], 1e-9)
	for i, c := range coeffs[1:] {
		assert.InDeltaf(t, 0, c, 1e-9, "coefficient %d", i+1)
	}
}

func TestForwardPreservesEnergy(t *testing.T) {
	block := randomBlock(8, 42)
	coeffs, err := ForwardDCT(block, 8)
	require.NoError(t, err)

	var spatial, spectral float64
	for i := range block {
		spatial += block[i] * block[i]
		spectral += coeffs[i] * coeffs[i]
	}
	assert.InEpsilon(t, spatial, spectral, 1e-9)
}

func TestForwardPairsUWithRows(t *testing.T) {
	// Values vary down the rows only, so energy lands in column v = 0.
	n := 4
	block := make([]float64, n*n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			block[r*n+c] = float64(r * 50)
		}
	}
	coeffs, err := ForwardDCT(block, n)
	require.NoError(t, err)
	assert.Greater(t, math.Abs(coeffs[1*n+0]), 1.0)
	assert.InDelta(t, 0, coeffs[0*n+1], 1e-9)
}

func TestTransformReusesScratch(t *testing.T) {
	tr, err := NewTransform(4)
	require.NoError(t, err)
	assert.Equal(t, 4, tr.Size())

	dst := make([]float64, 16)
	block := randomBlock(4, 3)
	out := tr.Forward(dst, block)
	assert.Same(t, &dst[0], &out[0])

	// A second block through the same Transform is unaffected by the first.
	other := randomBlock(4, 4)
	assert.InDeltaSlice(t, directDCT(other, 4), tr.Forward(nil, other), 1e-9)
}

func TestTransformInvalid(t *testing.T) {
	_, err := NewTransform(0)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = ForwardDCT(make([]float64, 10), 3)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = InverseDCT(nil, -1)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestBasisCacheShared(t *testing.T) {
	a := dctBasis(6)
	b := dctBasis(6)
	assert.Same(t, &a[0], &b[0])
}

func BenchmarkForward8(b *testing.B) {
	tr := newTransform(8)
	block := randomBlock(8, 1)
	dst := make([]float64, 64)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.Forward(dst, block)
	}
}
