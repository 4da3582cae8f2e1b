// Command dctpress runs the block DCT codec over image files.
//
// Usage:
//
//	dctpress [flags] <input> [output]
//	dctpress -analyze <input>
//	dctpress -serve :5000
//	dctpress -batch -out dir <inputs...>
//
// Examples:
//
//	dctpress photo.jpg compressed.jpg
//	dctpress -quality 20 -block 16 photo.png out.png
//	dctpress -target-psnr 32 photo.jpg out.jpg
//	dctpress -remote http://localhost:5000/compress photo.jpg out.jpg
//	dctpress -batch -out compressed/ *.jpg
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/shamspias/dctpress"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type config struct {
	quality    int
	block      int
	workers    int
	targetPSNR float64
	estimator  string
	maxWidth   int
	maxHeight  int
	remote     string
	noOrient   bool
	analyze    bool
	serve      string
	batch      bool
	outDir     string
}

func run(args []string, stdout, stderr io.Writer) int {
	var cfg config
	fs := flag.NewFlagSet("dctpress", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&cfg.quality, "quality", 50, "Quality percent 1-100 (higher keeps more detail)")
	fs.IntVar(&cfg.block, "block", dctpress.DefaultBlockSize, "Transform block size in pixels")
	fs.IntVar(&cfg.workers, "workers", 0, "Goroutines per image (0 = all CPUs)")
	fs.Float64Var(&cfg.targetPSNR, "target-psnr", 0, "Pick the lowest quality reaching this PSNR in dB (overrides -quality)")
	fs.StringVar(&cfg.estimator, "estimator", "jpeg", "Size estimator: jpeg|zstd|qoi")
	fs.IntVar(&cfg.maxWidth, "max-width", 0, "Maximum width (0 = no limit)")
	fs.IntVar(&cfg.maxHeight, "max-height", 0, "Maximum height (0 = no limit)")
	fs.StringVar(&cfg.remote, "remote", "", "Compress through a remote /compress URL, falling back to local")
	fs.BoolVar(&cfg.noOrient, "no-orient", false, "Ignore EXIF orientation")
	fs.BoolVar(&cfg.analyze, "analyze", false, "Analyze image without compressing")
	fs.StringVar(&cfg.serve, "serve", "", "Serve the HTTP API on this address (e.g. :5000)")
	fs.BoolVar(&cfg.batch, "batch", false, "Compress every input into -out")
	fs.StringVar(&cfg.outDir, "out", "", "Output directory for -batch")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: dctpress [flags] <input> [output]")
		fmt.Fprintln(stderr, "       dctpress -analyze <input>")
		fmt.Fprintln(stderr, "       dctpress -serve :5000")
		fmt.Fprintln(stderr, "       dctpress -batch -out dir <inputs...>")
		fmt.Fprintln(stderr)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.serve != "" {
		return runServe(ctx, cfg, stderr)
	}

	rest := fs.Args()
	if len(rest) < 1 {
		fs.Usage()
		return 1
	}

	if cfg.analyze {
		return runAnalyze(rest[0], stdout, stderr)
	}

	opts, err := cfg.options()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if cfg.batch {
		return runBatch(ctx, cfg, opts, rest, stdout, stderr)
	}

	input := rest[0]
	output := defaultOutput(input, "")
	if len(rest) >= 2 {
		output = rest[1]
	}

	if cfg.targetPSNR > 0 {
		percent, err := searchQuality(ctx, cfg, opts, input, stderr)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		opts.Quality = float64(percent) / 100
	}

	var result *dctpress.Result
	if cfg.remote != "" {
		result, err = compressRemote(ctx, cfg, opts, input, output, stderr)
	} else {
		result, err = dctpress.CompressFile(ctx, input, output, opts)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, result)
	fmt.Fprintf(stdout, "Saved: %s\n", output)
	return 0
}

func (cfg config) options() (dctpress.Options, error) {
	opts := dctpress.DefaultOptions()
	if cfg.quality < 1 || cfg.quality > 100 {
		return opts, fmt.Errorf("quality %d outside 1..100", cfg.quality)
	}
	if cfg.block <= 0 {
		return opts, fmt.Errorf("block size %d must be positive", cfg.block)
	}
	opts.Quality = float64(cfg.quality) / 100
	opts.BlockSize = cfg.block
	opts.Workers = cfg.workers
	opts.MaxWidth = cfg.maxWidth
	opts.MaxHeight = cfg.maxHeight
	opts.AutoOrient = !cfg.noOrient

	est, err := parseEstimator(cfg.estimator)
	if err != nil {
		return opts, err
	}
	opts.Estimator = est
	return opts, nil
}

// defaultOutput derives "<name>_dct<ext>" next to input, or inside dir when
// set. Inputs with an extension the codec cannot write get .png.
func defaultOutput(input, dir string) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(filepath.Base(input), ext)
	if _, err := dctpress.FormatFromExt(input); err != nil {
		ext = ".png"
	}
	if dir == "" {
		dir = filepath.Dir(input)
		base += "_dct"
	}
	return filepath.Join(dir, base+ext)
}

func searchQuality(ctx context.Context, cfg config, opts dctpress.Options, input string, stderr io.Writer) (int, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		return 0, err
	}
	b, err := dctpress.DecodeBytes(data, opts.AutoOrient)
	if err != nil {
		return 0, err
	}
	if opts.MaxWidth > 0 || opts.MaxHeight > 0 {
		b = dctpress.Downscale(b, opts.MaxWidth, opts.MaxHeight)
	}
	sr, err := dctpress.SearchQuality(ctx, b, opts.BlockSize, cfg.targetPSNR, opts.Workers)
	if err != nil {
		return 0, err
	}
	if sr.Reached {
		fmt.Fprintf(stderr, "Quality %d reaches %.2f dB (target %.2f, %d runs)\n",
			sr.Percent, sr.Metrics.PSNR, cfg.targetPSNR, sr.Steps)
	} else {
		fmt.Fprintf(stderr, "Target %.2f dB not reachable; best is %.2f dB at quality 100\n",
			cfg.targetPSNR, sr.Metrics.PSNR)
	}
	return sr.Percent, nil
}

func compressRemote(ctx context.Context, cfg config, opts dctpress.Options, input, output string, stderr io.Writer) (*dctpress.Result, error) {
	if _, err := dctpress.FormatFromExt(output); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, err
	}
	c := dctpress.Fallback{
		Primary: dctpress.Remote{
			Endpoint: cfg.remote,
			Client:   &http.Client{Timeout: 2 * time.Minute},
		},
		Secondary: dctpress.Local{Options: opts},
		OnFallback: func(err error) {
			fmt.Fprintf(stderr, "Remote failed, compressing locally: %v\n", err)
		},
	}
	result, err := c.Compress(ctx, dctpress.NewRequest(data, opts.QualityPercent(), opts.BlockSize))
	if err != nil {
		return nil, err
	}
	if err := dctpress.Save(result.Image, output, opts.QualityPercent()); err != nil {
		return nil, err
	}
	return result, nil
}

func runBatch(ctx context.Context, cfg config, opts dctpress.Options, inputs []string, stdout, stderr io.Writer) int {
	if cfg.outDir == "" {
		fmt.Fprintln(stderr, "Error: -batch needs -out <dir>")
		return 1
	}
	if err := os.MkdirAll(cfg.outDir, 0755); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	items := make([]dctpress.BatchItem, len(inputs))
	for i, in := range inputs {
		items[i] = dctpress.BatchItem{Src: in, Dst: defaultOutput(in, cfg.outDir)}
	}

	results := dctpress.CompressBatch(ctx, items, dctpress.BatchOptions{
		DefaultOpts: opts,
		OnItem: func(completed, total int) {
			fmt.Fprintf(stderr, "\r[%d/%d]", completed, total)
		},
	})
	fmt.Fprintln(stderr)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", r.Item.Src, r.Err)
			continue
		}
		fmt.Fprintf(stdout, "%s → %s\n  %s\n", r.Item.Src, r.Item.Dst, r.Result)
	}
	summary := dctpress.Summarize(results)
	fmt.Fprintln(stdout, summary)
	if summary.Failed > 0 {
		return 1
	}
	return 0
}

func runAnalyze(path string, stdout, stderr io.Writer) int {
	img, err := dctpress.Open(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening %s: %v\n", path, err)
		return 1
	}

	info, _ := os.Stat(path)
	stats := dctpress.Analyze(img)

	fmt.Fprintf(stdout, "File:          %s\n", path)
	if info != nil {
		fmt.Fprintf(stdout, "Size:          %d bytes\n", info.Size())
	}
	fmt.Fprintf(stdout, "Dimensions:    %d × %d\n", stats.Width, stats.Height)
	fmt.Fprintf(stdout, "Alpha:         %v\n", stats.HasAlpha)
	fmt.Fprintf(stdout, "Grayscale:     %v\n", stats.IsGrayscale)
	fmt.Fprintf(stdout, "Entropy:       %.2f bits\n", stats.Entropy)
	fmt.Fprintf(stdout, "Edge density:  %.1f%%\n", stats.EdgeDensity*100)
	fmt.Fprintf(stdout, "Brightness:    %.0f\n", stats.MeanBrightness)
	fmt.Fprintf(stdout, "Contrast:      %.1f\n", stats.Contrast)
	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "Recommended block size: %d\n", stats.RecommendedBlockSize)
	return 0
}

func runServe(ctx context.Context, cfg config, stderr io.Writer) int {
	logger := slog.New(slog.NewTextHandler(stderr, nil))
	est, err := parseEstimator(cfg.estimator)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	srv := &http.Server{
		Addr: cfg.serve,
		Handler: dctpress.NewHandler(dctpress.HandlerOptions{
			Logger:    logger,
			Workers:   cfg.workers,
			Estimator: est,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.serve, "version", dctpress.Version)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		logger.Error("server stopped", "err", err)
		return 1
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
		return 1
	}
	logger.Info("shutdown complete")
	return 0
}

// parseEstimator leaves the JPEG estimator unset so the library sizes the
// result at whatever quality the run ends up using.
func parseEstimator(name string) (dctpress.Estimator, error) {
	est, err := dctpress.ParseEstimator(name, 0)
	if err != nil {
		return nil, err
	}
	if _, ok := est.(dctpress.JPEGEstimator); ok {
		return nil, nil
	}
	return est, nil
}
