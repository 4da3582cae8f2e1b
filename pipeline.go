package dctpress

import (
	"context"
	"runtime"
	"sync"
)

// colorChannels is the number of interleaved channels that are transformed.
// The fourth sample of every pixel passes through untouched.
const colorChannels = 3

// Pipeline runs the block transform codec over whole buffers.
type Pipeline struct {
	// Quality is the quality factor in (0, 1].
	Quality float64
	// BlockSize is the transform block edge length.
	BlockSize int
	// Workers bounds the goroutines used. 0 means runtime.GOMAXPROCS(0).
	Workers int
}

// CompressBuffer reconstructs src after a DCT, quantize, inverse DCT round
// trip of every block in each color channel. src is not modified.
func CompressBuffer(ctx context.Context, src *Buffer, quality float64, blockSize int) (*Buffer, error) {
	return Pipeline{Quality: quality, BlockSize: blockSize}.Run(ctx, src)
}

// Run compresses src and returns the reconstructed buffer.
//
// The block grid starts at the origin with step BlockSize; blocks on the
// last row or column may reach past the edge and rely on clamping. Block
// rows are processed concurrently: the clamped footprint of a block never
// leaves its own grid cell, so no two blocks touch the same sample and the
// output does not depend on scheduling.
//
// ctx is checked before every block. The call is all-or-nothing: if ctx
// is cancelled, Run returns ctx.Err() and no buffer.
func (p Pipeline) Run(ctx context.Context, src *Buffer) (*Buffer, error) {
	if err := validateQuality(p.Quality); err != nil {
		return nil, err
	}
	if err := validateBlockSize(p.BlockSize); err != nil {
		return nil, err
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	n := p.BlockSize
	matrix := quantizationMatrix(p.Quality, n)
	dst := src.Clone()
	rows := (src.Height + n - 1) / n

	parallelDo(p.Workers, 0, rows, func(row int) {
		t := newTransform(n)
		var block, coeffs []float64
		y0 := row * n
		for x0 := 0; x0 < src.Width; x0 += n {
			if ctx.Err() != nil {
				return
			}
			for c := 0; c < colorChannels; c++ {
				block = ExtractBlock(src, x0, y0, n, c, block)
				coeffs = t.Forward(coeffs, block)
				Quantize(coeffs, matrix)
				block = t.Inverse(block, coeffs)
				InsertBlock(dst, x0, y0, n, c, block)
			}
		}
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return dst, nil
}

// parallelDo executes fn(i) for i in [start, stop) across at most workers
// goroutines, each owning a contiguous batch. workers <= 0 means
// runtime.GOMAXPROCS(0).
func parallelDo(workers, start, stop int, fn func(i int)) {
	count := stop - start
	if count <= 0 {
		return
	}

	procs := workers
	if procs <= 0 {
		procs = runtime.GOMAXPROCS(0)
	}
	if procs > count {
		procs = count
	}
	if procs <= 1 {
		for i := start; i < stop; i++ {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	batchSize := (count + procs - 1) / procs

	for p := 0; p < procs; p++ {
		batchStart := start + p*batchSize
		batchEnd := batchStart + batchSize
		if batchEnd > stop {
			batchEnd = stop
		}
		if batchStart >= batchEnd {
			continue
		}

		wg.Add(1)
		go func(from, to int) {
			defer wg.Done()
			for i := from; i < to; i++ {
				fn(i)
			}
		}(batchStart, batchEnd)
	}
	wg.Wait()
}
