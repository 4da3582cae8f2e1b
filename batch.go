package dctpress

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// BatchItem is one file to compress in a batch.
type BatchItem struct {
	// Src is the input file path.
	Src string
	// Dst is the output file path; its extension selects the format.
	Dst string
	// Opts overrides BatchOptions.DefaultOpts for this item when non-nil.
	Opts *Options
}

// BatchResult holds the outcome for one item.
type BatchResult struct {
	Item   BatchItem
	Result *Result
	Err    error
	// Index is the position in the input slice.
	Index int
}

// BatchOptions configures CompressBatch.
type BatchOptions struct {
	// Workers is the number of files processed at once. 0 = runtime.NumCPU().
	Workers int
	// DefaultOpts applies to items without their own Opts.
	DefaultOpts Options
	// OnItem is called after each item finishes, from the worker goroutine.
	OnItem func(completed, total int)
}

// CompressBatch compresses files concurrently. Results are in input order.
// Cancelling ctx stops new items from starting; their results carry
// ctx.Err(). Items already running see the same ctx and stop at their next
// check.
func CompressBatch(ctx context.Context, items []BatchItem, batchOpts BatchOptions) []BatchResult {
	if len(items) == 0 {
		return nil
	}

	workers := batchOpts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(items) {
		workers = len(items)
	}

	results := make([]BatchResult, len(items))
	work := make(chan int, len(items))
	for i := range items {
		work <- i
	}
	close(work)

	var (
		wg        sync.WaitGroup
		completed atomic.Int64
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				item := items[idx]
				results[idx] = BatchResult{Item: item, Index: idx}

				if err := ctx.Err(); err != nil {
					results[idx].Err = err
					continue
				}

				opts := batchOpts.DefaultOpts
				if item.Opts != nil {
					opts = *item.Opts
				}
				results[idx].Result, results[idx].Err = CompressFile(ctx, item.Src, item.Dst, opts)

				if batchOpts.OnItem != nil {
					batchOpts.OnItem(int(completed.Add(1)), len(items))
				}
			}
		}()
	}

	wg.Wait()
	return results
}

// BatchSummary aggregates a batch.
type BatchSummary struct {
	Total      int
	Succeeded  int
	Failed     int
	TotalSaved int64
	AvgPSNR    float64
	AvgMSE     float64
}

// Summarize computes aggregate statistics from batch results.
func Summarize(results []BatchResult) BatchSummary {
	s := BatchSummary{Total: len(results)}
	var psnrSum, mseSum float64
	for _, r := range results {
		if r.Err != nil || r.Result == nil {
			s.Failed++
			continue
		}
		s.Succeeded++
		s.TotalSaved += r.Result.OriginalSize - r.Result.CompressedSize
		psnrSum += r.Result.PSNR
		mseSum += r.Result.MSE
	}
	if s.Succeeded > 0 {
		s.AvgPSNR = psnrSum / float64(s.Succeeded)
		s.AvgMSE = mseSum / float64(s.Succeeded)
	}
	return s
}

// String returns a human-readable batch summary.
func (s BatchSummary) String() string {
	return fmt.Sprintf(
		"Batch: %d/%d succeeded | %s saved | Avg PSNR: %.2f dB | Avg MSE: %.2f",
		s.Succeeded, s.Total, humanBytes(s.TotalSaved), s.AvgPSNR, s.AvgMSE,
	)
}
