package dctpress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xfmoulet/qoi"
)

func TestJPEGEstimatorMatchesEncode(t *testing.T) {
	b := photoBuffer(40, 30)
	for _, q := range []int{10, 50, 95} {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, b, JPEG, q))
		n, err := JPEGEstimator{Quality: q}.Estimate(b)
		require.NoError(t, err)
		assert.Equalf(t, buf.Len(), n, "quality %d", q)
	}
}

func TestJPEGEstimatorQualityOrdering(t *testing.T) {
	b := photoBuffer(64, 64)
	small, err := JPEGEstimator{Quality: 10}.Estimate(b)
	require.NoError(t, err)
	large, err := JPEGEstimator{Quality: 95}.Estimate(b)
	require.NoError(t, err)
	assert.Less(t, small, large)
}

func TestJPEGEstimatorName(t *testing.T) {
	assert.Equal(t, "jpeg q40", JPEGEstimator{Quality: 40}.Name())
	assert.Equal(t, "jpeg q75", JPEGEstimator{}.Name())
	assert.Equal(t, "jpeg q100", JPEGEstimator{Quality: 400}.Name())
}

func TestZstdEstimatorRewardsSmoothness(t *testing.T) {
	flat, err := ZstdEstimator{}.Estimate(constantBuffer(64, 64, 90))
	require.NoError(t, err)
	noisy, err := ZstdEstimator{}.Estimate(noiseBuffer(64, 64, 1))
	require.NoError(t, err)
	assert.Less(t, flat, noisy/10)
}

func TestZstdEstimatorIgnoresPassThrough(t *testing.T) {
	a := constantBuffer(32, 32, 90)
	b := a.Clone()
	for i := 3; i < len(b.Pix); i += 4 {
		b.Pix[i] = uint8(i * 7)
	}
	na, err := ZstdEstimator{}.Estimate(a)
	require.NoError(t, err)
	nb, err := ZstdEstimator{}.Estimate(b)
	require.NoError(t, err)
	assert.Equal(t, na, nb)
}

func TestZstdEstimatorConcurrent(t *testing.T) {
	b := photoBuffer(48, 48)
	want, err := ZstdEstimator{}.Estimate(b)
	require.NoError(t, err)

	got := make([]int, 8)
	parallelDo(8, 0, len(got), func(i int) {
		got[i], _ = ZstdEstimator{}.Estimate(b)
	})
	for _, n := range got {
		assert.Equal(t, want, n)
	}
}

func TestQOIEstimatorMatchesEncode(t *testing.T) {
	b := photoBuffer(33, 21)
	var buf bytes.Buffer
	require.NoError(t, qoi.Encode(&buf, b.NRGBA()))
	n, err := QOIEstimator{}.Estimate(b)
	require.NoError(t, err)
	assert.Equal(t, buf.Len(), n)
}

func TestEstimatorsRejectInvalidBuffer(t *testing.T) {
	for _, e := range []Estimator{JPEGEstimator{}, ZstdEstimator{}, QOIEstimator{}} {
		_, err := e.Estimate(&Buffer{Width: 3, Height: 3})
		assert.ErrorIsf(t, err, ErrInvalidParameter, "%s", e.Name())
	}
}

func TestParseEstimator(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", "jpeg q60"},
		{"jpeg", "jpeg q60"},
		{"JPG", "jpeg q60"},
		{"zstd", "zstd"},
		{" qoi ", "qoi"},
	}
	for _, tt := range tests {
		e, err := ParseEstimator(tt.name, 60)
		require.NoErrorf(t, err, "%q", tt.name)
		assert.Equal(t, tt.want, e.Name())
	}

	_, err := ParseEstimator("webp", 60)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
