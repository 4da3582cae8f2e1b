package dctpress

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"
)

const (
	// maxBodyBytes bounds request and response bodies on the remote path.
	maxBodyBytes = 32 << 20
	// maxBlockSize bounds the block edge a client may request.
	maxBlockSize = 64
)

// HandlerOptions configures NewHandler.
type HandlerOptions struct {
	// Logger receives one record per request. nil means slog.Default().
	Logger *slog.Logger

	// Workers bounds the goroutines used per request. 0 means
	// runtime.GOMAXPROCS(0).
	Workers int

	// Estimator overrides the reported compressed size. nil reports the
	// length of the returned JPEG, which is re-encoded at the request
	// quality.
	Estimator Estimator

	// MaxBodyBytes bounds the request body. 0 means 32 MiB.
	MaxBodyBytes int64

	// MaxBlockSize bounds blockSize; larger requests get 400. 0 means 64.
	MaxBlockSize int
}

type handler struct {
	log      *slog.Logger
	local    Local
	maxBody  int64
	maxBlock int
}

// NewHandler returns the HTTP surface of the codec:
//
//	POST /compress   run the pipeline on a data URI image
//	GET  /health     liveness probe
//
// Responses allow any origin so a browser front end on another port can
// call it.
func NewHandler(opts HandlerOptions) http.Handler {
	h := &handler{
		log:      opts.Logger,
		maxBody:  opts.MaxBodyBytes,
		maxBlock: opts.MaxBlockSize,
		local: Local{Options: Options{
			Workers:    opts.Workers,
			AutoOrient: true,
			Estimator:  opts.Estimator,
		}},
	}
	if h.log == nil {
		h.log = slog.Default()
	}
	if h.maxBody <= 0 {
		h.maxBody = maxBodyBytes
	}
	if h.maxBlock <= 0 {
		h.maxBlock = maxBlockSize
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /compress", h.compress)
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("OPTIONS /", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return withCORS(mux)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := w.Header()
		hdr.Set("Access-Control-Allow-Origin", "*")
		hdr.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		hdr.Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

// wireRequest accepts numbers in any JSON form so that non-integers can be
// rejected with a useful message instead of a decode error.
type wireRequest struct {
	Image     string      `json:"image"`
	Quality   json.Number `json:"quality"`
	BlockSize json.Number `json:"blockSize"`
}

func (h *handler) compress(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, err := h.decodeRequest(w, r)
	if err != nil {
		h.log.Warn("compress: bad request", "remote", r.RemoteAddr, "err", err)
		writeJSON(w, http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	res, err := h.local.Compress(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrUnsupportedFormat) || errors.Is(err, ErrInvalidParameter) {
			status = http.StatusBadRequest
		}
		h.log.Error("compress: failed",
			"quality", req.Quality, "blockSize", req.BlockSize, "err", err)
		writeJSON(w, status, Response{Error: err.Error()})
		return
	}

	uri, err := EncodeDataURI(res.Image, JPEG, req.Quality)
	if err != nil {
		h.log.Error("compress: encode", "err", err)
		writeJSON(w, http.StatusInternalServerError, Response{Error: err.Error()})
		return
	}

	h.log.Info("compress",
		"quality", req.Quality,
		"blockSize", req.BlockSize,
		"size", fmt.Sprintf("%dx%d", res.Image.Width, res.Image.Height),
		"psnr", res.PSNR,
		"mse", res.MSE,
		"estimator", res.Estimator,
		"elapsed", time.Since(start),
	)
	writeJSON(w, http.StatusOK, Response{
		Success:         true,
		CompressedImage: uri,
		Metrics: &WireMetrics{
			CompressionRatio: round(res.Ratio, 2),
			PSNR:             round(res.PSNR, 2),
			MSE:              round(res.MSE, 2),
			SpaceSaved:       round(res.SpaceSaved, 1),
			OriginalSize:     res.OriginalSize,
			CompressedSize:   res.CompressedSize,
		},
	})
}

func (h *handler) decodeRequest(w http.ResponseWriter, r *http.Request) (Request, error) {
	var wr wireRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err := dec.Decode(&wr); err != nil {
		if errors.Is(err, io.EOF) {
			return Request{}, errors.New("empty request body")
		}
		return Request{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if wr.Image == "" {
		return Request{}, errors.New("missing image")
	}
	quality, err := intField("quality", wr.Quality, 50)
	if err != nil {
		return Request{}, err
	}
	if quality < 1 || quality > 100 {
		return Request{}, fmt.Errorf("quality %d outside 1..100", quality)
	}
	blockSize, err := intField("blockSize", wr.BlockSize, DefaultBlockSize)
	if err != nil {
		return Request{}, err
	}
	if blockSize <= 0 || blockSize > h.maxBlock {
		return Request{}, fmt.Errorf("blockSize %d outside 1..%d", blockSize, h.maxBlock)
	}
	return Request{Image: wr.Image, Quality: quality, BlockSize: blockSize}, nil
}

// intField parses an integral JSON number; an absent field yields def.
func intField(name string, n json.Number, def int) (int, error) {
	if n == "" {
		return def, nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%s %q is not an integer", name, n.String())
	}
	return int(f), nil
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": Version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
