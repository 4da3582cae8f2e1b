package dctpress

import (
	"math"
)

// Histogram holds 256-bin sample counts for the three color channels.
type Histogram [colorChannels][256]int

// ComputeHistogram counts the samples of each color channel of b.
func ComputeHistogram(b *Buffer) Histogram {
	var h Histogram
	for i := 0; i+3 < len(b.Pix); i += 4 {
		h[0][b.Pix[i]]++
		h[1][b.Pix[i+1]]++
		h[2][b.Pix[i+2]]++
	}
	return h
}

// Normalized scales each channel to percent of its tallest bin, the form
// the bar charts are drawn from. Empty channels stay at zero.
func (h *Histogram) Normalized() [colorChannels][256]float64 {
	var out [colorChannels][256]float64
	for c := range h {
		peak := 0
		for _, n := range h[c] {
			if n > peak {
				peak = n
			}
		}
		if peak == 0 {
			continue
		}
		for v, n := range h[c] {
			out[c][v] = float64(n) / float64(peak) * 100
		}
	}
	return out
}

// ImageStats contains analysis results for a buffer.
type ImageStats struct {
	// Width and Height in pixels.
	Width, Height int

	// HasAlpha indicates the pass-through channel is not fully opaque.
	HasAlpha bool

	// IsGrayscale indicates all pixels have R == G == B.
	IsGrayscale bool

	// Entropy of the luminance histogram, 0–8 bits.
	Entropy float64

	// EdgeDensity is the proportion of sampled pixels on a Sobel edge (0-1).
	EdgeDensity float64

	// MeanBrightness is the average luminance (0-255).
	MeanBrightness float64

	// Contrast is the standard deviation of luminance (0-127.5).
	Contrast float64

	// RecommendedBlockSize based on the analysis.
	RecommendedBlockSize int
}

// Analyze computes luminance statistics used to pick codec parameters.
func Analyze(b *Buffer) ImageStats {
	stats := ImageStats{Width: b.Width, Height: b.Height}
	if b.Validate() != nil {
		return stats
	}

	lum := luminance(b)
	var hist [256]float64
	var sum float64
	for _, l := range lum {
		sum += l
		hist[int(l+0.5)]++
	}
	n := float64(len(lum))
	mean := sum / n

	var varSum float64
	for _, l := range lum {
		d := l - mean
		varSum += d * d
	}

	stats.HasAlpha = !isOpaque(b)
	stats.IsGrayscale = isGrayscale(b)
	stats.MeanBrightness = mean
	stats.Contrast = math.Sqrt(varSum / n)
	stats.Entropy = computeEntropy(hist[:], n)
	stats.EdgeDensity = computeEdgeDensity(lum, b.Width, b.Height)
	stats.RecommendedBlockSize = recommendBlockSize(stats)
	return stats
}

// computeEntropy calculates Shannon entropy from a histogram.
func computeEntropy(histogram []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	var entropy float64
	for _, count := range histogram {
		if count > 0 {
			p := count / total
			entropy -= p * math.Log2(p)
		}
	}
	return entropy
}

// computeEdgeDensity uses a Sobel operator to detect edges.
// Returns the fraction of sampled pixels that are edge pixels (0-1).
func computeEdgeDensity(lum []float64, w, h int) float64 {
	if w < 3 || h < 3 {
		return 0
	}

	// Sample for performance.
	stepX := max(1, w/200)
	stepY := max(1, h/200)
	const threshold = 30.0

	at := func(x, y int) float64 { return lum[y*w+x] }
	edges, total := 0, 0
	for y := 1; y < h-1; y += stepY {
		for x := 1; x < w-1; x += stepX {
			gx := at(x+1, y-1) - at(x-1, y-1) +
				2*at(x+1, y) - 2*at(x-1, y) +
				at(x+1, y+1) - at(x-1, y+1)
			gy := at(x-1, y+1) - at(x-1, y-1) +
				2*at(x, y+1) - 2*at(x, y-1) +
				at(x+1, y+1) - at(x+1, y-1)
			if math.Sqrt(gx*gx+gy*gy) > threshold {
				edges++
			}
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(edges) / float64(total)
}

// recommendBlockSize prefers small blocks where detail is dense (less
// ringing around edges) and large blocks for smooth content.
func recommendBlockSize(stats ImageStats) int {
	switch {
	case stats.EdgeDensity > 0.25:
		return 4
	case stats.EdgeDensity < 0.05 && stats.Entropy < 6:
		return 16
	default:
		return DefaultBlockSize
	}
}

// Spectrum returns the absolute DCT-II coefficients of one block, the data
// behind a frequency heat map. Index 0 is the DC term; larger row and
// column indices are higher spatial frequencies.
func Spectrum(b *Buffer, originX, originY, size, channel int) ([]float64, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := validateBlockSize(size); err != nil {
		return nil, err
	}
	if channel < 0 || channel >= colorChannels {
		return nil, errInvalidChannel(channel)
	}
	block := ExtractBlock(b, originX, originY, size, channel, nil)
	coeffs := newTransform(size).Forward(nil, block)
	for i, c := range coeffs {
		coeffs[i] = math.Abs(c)
	}
	return coeffs, nil
}
