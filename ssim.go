package dctpress

import "math"

// SSIM constants based on the original Wang et al. paper.
const (
	ssimK1     = 0.01
	ssimK2     = 0.03
	ssimL      = 255.0
	ssimC1     = (ssimK1 * ssimL) * (ssimK1 * ssimL)
	ssimC2     = (ssimK2 * ssimL) * (ssimK2 * ssimL)
	ssimWindow = 8
)

// SSIM computes the structural similarity of the BT.601 luminance of a and
// b with a Gaussian-weighted 8×8 sliding window. Returns a value in
// [-1, 1]; 1 means identical. Images smaller than the window are compared
// as a single window.
func SSIM(a, b *Buffer) (float64, error) {
	if err := checkShapes(a, b); err != nil {
		return 0, err
	}

	lumA := luminance(a)
	lumB := luminance(b)
	w, h := a.Width, a.Height

	if w < ssimWindow || h < ssimWindow {
		return ssimStats(lumA, lumB, nil), nil
	}
	return windowedSSIM(lumA, lumB, w, h), nil
}

// windowedSSIM averages per-window SSIM over every window position.
// Rows of window positions are spread across goroutines; each row writes
// only its own slot of rowSums.
func windowedSSIM(lumA, lumB []float64, w, h int) float64 {
	kernel := gaussianKernel(ssimWindow, 1.5)
	rows := h - ssimWindow + 1
	cols := w - ssimWindow + 1
	rowSums := make([]float64, rows)

	parallelDo(0, 0, rows, func(y int) {
		winA := make([]float64, ssimWindow*ssimWindow)
		winB := make([]float64, ssimWindow*ssimWindow)
		var sum float64
		for x := 0; x < cols; x++ {
			for wy := 0; wy < ssimWindow; wy++ {
				off := (y+wy)*w + x
				copy(winA[wy*ssimWindow:(wy+1)*ssimWindow], lumA[off:off+ssimWindow])
				copy(winB[wy*ssimWindow:(wy+1)*ssimWindow], lumB[off:off+ssimWindow])
			}
			sum += ssimStats(winA, winB, kernel)
		}
		rowSums[y] = sum
	})

	var total float64
	for _, s := range rowSums {
		total += s
	}
	return total / float64(rows*cols)
}

// ssimStats evaluates the SSIM formula over two equally sized sample sets.
// A nil weights slice means uniform weights.
func ssimStats(a, b, weights []float64) float64 {
	if len(a) == 0 {
		return 1
	}
	uniform := 1 / float64(len(a))
	weight := func(i int) float64 {
		if weights == nil {
			return uniform
		}
		return weights[i]
	}

	var muA, muB float64
	for i := range a {
		wt := weight(i)
		muA += a[i] * wt
		muB += b[i] * wt
	}

	var sigAA, sigBB, sigAB float64
	for i := range a {
		wt := weight(i)
		da := a[i] - muA
		db := b[i] - muB
		sigAA += da * da * wt
		sigBB += db * db * wt
		sigAB += da * db * wt
	}

	num := (2*muA*muB + ssimC1) * (2*sigAB + ssimC2)
	den := (muA*muA + muB*muB + ssimC1) * (sigAA + sigBB + ssimC2)
	return num / den
}

// luminance converts the color channels of b to BT.601 luma.
func luminance(b *Buffer) []float64 {
	lum := make([]float64, b.Width*b.Height)
	for i := range lum {
		p := b.Pix[i*4 : i*4+3]
		lum[i] = 0.299*float64(p[0]) + 0.587*float64(p[1]) + 0.114*float64(p[2])
	}
	return lum
}

// gaussianKernel creates a normalized 2D Gaussian kernel.
func gaussianKernel(size int, sigma float64) []float64 {
	kernel := make([]float64, size*size)
	half := size / 2
	var sum float64

	idx := 0
	for y := -half; y < size-half; y++ {
		for x := -half; x < size-half; x++ {
			val := math.Exp(-float64(x*x+y*y) / (2 * sigma * sigma))
			kernel[idx] = val
			sum += val
			idx++
		}
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}
