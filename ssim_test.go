package dctpress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSIMIdentical(t *testing.T) {
	for _, dims := range [][2]int{{32, 24}, {5, 3}} {
		a := photoBuffer(dims[0], dims[1])
		s, err := SSIM(a, a.Clone())
		require.NoError(t, err)
		assert.InDelta(t, 1.0, s, 1e-12)
	}
}

func TestSSIMDropsWithQuality(t *testing.T) {
	src := photoBuffer(64, 64)
	low, err := CompressBuffer(context.Background(), src, 0.05, 8)
	require.NoError(t, err)
	high, err := CompressBuffer(context.Background(), src, 0.9, 8)
	require.NoError(t, err)

	sLow, err := SSIM(src, low)
	require.NoError(t, err)
	sHigh, err := SSIM(src, high)
	require.NoError(t, err)
	assert.Less(t, sLow, sHigh)
	assert.LessOrEqual(t, sHigh, 1.0)
}

func TestSSIMSymmetricAndBounded(t *testing.T) {
	a := noiseBuffer(20, 20, 1)
	b := noiseBuffer(20, 20, 2)
	ab, err := SSIM(a, b)
	require.NoError(t, err)
	ba, err := SSIM(b, a)
	require.NoError(t, err)
	assert.InDelta(t, ab, ba, 1e-12)
	assert.GreaterOrEqual(t, ab, -1.0)
	assert.Less(t, ab, 0.5)
}

func TestSSIMShapeMismatch(t *testing.T) {
	_, err := SSIM(NewBuffer(8, 8), NewBuffer(9, 8))
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestGaussianKernelNormalized(t *testing.T) {
	k := gaussianKernel(ssimWindow, 1.5)
	var sum float64
	for _, v := range k {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}
