package dctpress

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Request is the body of a POST /compress call.
type Request struct {
	// Image is the encoded input as a base64 data URI.
	Image string `json:"image"`
	// Quality is the quality factor on the 1–100 scale.
	Quality int `json:"quality"`
	// BlockSize is the transform block edge length.
	BlockSize int `json:"blockSize"`
}

// NewRequest wraps encoded image bytes in a Request. The media type of the
// data URI is sniffed from the bytes.
func NewRequest(data []byte, quality, blockSize int) Request {
	mime := http.DetectContentType(data)
	return Request{
		Image:     "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
		Quality:   quality,
		BlockSize: blockSize,
	}
}

// WireMetrics are the figures reported by the remote path, rounded the way
// the web UI displays them.
type WireMetrics struct {
	CompressionRatio float64 `json:"compressionRatio"`
	PSNR             float64 `json:"psnr"`
	MSE              float64 `json:"mse"`
	SpaceSaved       float64 `json:"spaceSaved"`
	OriginalSize     int64   `json:"originalSize"`
	CompressedSize   int64   `json:"compressedSize"`
}

// Response is the body returned by POST /compress.
type Response struct {
	Success         bool         `json:"success"`
	CompressedImage string       `json:"compressedImage,omitempty"`
	Metrics         *WireMetrics `json:"metrics,omitempty"`
	Error           string       `json:"error,omitempty"`
}

// Compressor runs one compression request. Local and Remote are
// interchangeable implementations.
type Compressor interface {
	Compress(ctx context.Context, req Request) (*Result, error)
}

// Local runs the pipeline in-process. Quality and block size come from the
// request; every other setting comes from Options.
type Local struct {
	Options Options
}

// Compress decodes the request image and runs the pipeline over it.
func (l Local) Compress(ctx context.Context, req Request) (*Result, error) {
	data, _, err := DecodeDataURI(req.Image)
	if err != nil {
		return nil, err
	}
	opts := l.Options
	opts.Quality = float64(req.Quality) / 100
	opts.BlockSize = req.BlockSize
	return CompressBytes(ctx, data, opts)
}

// Remote sends requests to a compression service such as the one served by
// NewHandler.
type Remote struct {
	// Endpoint is the full URL of the compress route.
	Endpoint string
	// Client is used for the call. nil means http.DefaultClient.
	Client *http.Client
}

// Compress posts req to the endpoint and decodes the reconstruction.
// Transport failures, non-success answers and undecodable bodies all wrap
// ErrRemote.
func (r Remote) Compress(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("dctpress: remote %s: %v: %w", r.Endpoint, err, ErrRemote)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("dctpress: remote %s: %v: %w", r.Endpoint, err, ErrRemote)
	}
	defer resp.Body.Close()

	var out Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&out); err != nil {
		return nil, fmt.Errorf("dctpress: remote %s: status %d: undecodable body: %w", r.Endpoint, resp.StatusCode, ErrRemote)
	}
	if !out.Success || resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dctpress: remote %s: status %d: %s: %w", r.Endpoint, resp.StatusCode, out.Error, ErrRemote)
	}
	if out.Metrics == nil {
		return nil, fmt.Errorf("dctpress: remote %s: response without metrics: %w", r.Endpoint, ErrRemote)
	}

	data, _, err := DecodeDataURI(out.CompressedImage)
	if err != nil {
		return nil, fmt.Errorf("dctpress: remote %s: compressed image: %v: %w", r.Endpoint, err, ErrRemote)
	}
	img, err := DecodeBytes(data, false)
	if err != nil {
		return nil, fmt.Errorf("dctpress: remote %s: compressed image: %v: %w", r.Endpoint, err, ErrRemote)
	}

	m := out.Metrics
	return &Result{
		Image:              img,
		Quality:            float64(req.Quality) / 100,
		BlockSize:          req.BlockSize,
		MSE:                m.MSE,
		PSNR:               m.PSNR,
		Estimator:          "remote",
		OriginalSize:       m.OriginalSize,
		CompressedSize:     m.CompressedSize,
		Ratio:              m.CompressionRatio,
		SpaceSaved:         m.SpaceSaved,
		OriginalDimensions: img.Bounds(),
		FinalDimensions:    img.Bounds(),
	}, nil
}

// Fallback tries Primary and, if it fails for any reason other than
// cancellation, Secondary.
type Fallback struct {
	Primary   Compressor
	Secondary Compressor
	// OnFallback is called with the primary error before Secondary runs.
	// Optional.
	OnFallback func(err error)
}

// Compress runs the request through Primary, then Secondary on failure.
func (f Fallback) Compress(ctx context.Context, req Request) (*Result, error) {
	res, err := f.Primary.Compress(ctx, req)
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if f.OnFallback != nil {
		f.OnFallback(err)
	}
	res, secondErr := f.Secondary.Compress(ctx, req)
	if secondErr != nil {
		return nil, errors.Join(err, secondErr)
	}
	return res, nil
}
