package httpprobe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/samijaber1/tiergate/internal/eval"
)

// maxBodyBytes caps how much of a version response is read
const maxBodyBytes = 1 << 20

// Config holds probe adapter configuration
type Config struct {
	Timeout        time.Duration
	MaxConcurrency int64
	UserAgent      string
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Timeout:        5 * time.Second,
		MaxConcurrency: 10,
		UserAgent:      "tiergate-probe/1",
	}
}

// HTTPClient is the transport seam used for probing
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Adapter probes version endpoints over HTTP
type Adapter struct {
	config Config
	client HTTPClient
	sem    *semaphore.Weighted
}

// NewAdapter creates a new HTTP probe adapter
func NewAdapter(config Config) *Adapter {
	return NewAdapterWithClient(config, &http.Client{Timeout: config.Timeout})
}

// NewAdapterWithClient creates an adapter that sends requests through client
func NewAdapterWithClient(config Config, client HTTPClient) *Adapter {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 1
	}
	return &Adapter{
		config: config,
		client: client,
		sem:    semaphore.NewWeighted(config.MaxConcurrency),
	}
}

// Probe implements eval.Prober. It performs one GET, with no retries, and
// reports any failure as an offline result.
func (a *Adapter) Probe(ctx context.Context, rawURL string) eval.ProbeResult {
	// Waiting for a slot is bounded by the caller only; the timeout covers
	// the request itself.
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return offline(0, 0, fmt.Errorf("semaphore acquire: %w", err))
	}
	defer a.sem.Release(1)

	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return offline(0, 0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if a.config.UserAgent != "" {
		req.Header.Set("User-Agent", a.config.UserAgent)
	}

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		return offline(0, time.Since(start), fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	elapsed := time.Since(start)
	if err != nil {
		return offline(resp.StatusCode, elapsed, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return offline(resp.StatusCode, elapsed, fmt.Errorf("http status %d", resp.StatusCode))
	}

	info, err := ParseVersionBody(body)
	if err != nil {
		return offline(resp.StatusCode, elapsed, err)
	}

	if info.Service == "" {
		info.Service = eval.ServiceFromURL(rawURL)
	}
	if info.Version == "" {
		info.Version = eval.DefaultVersion
	}

	return eval.ProbeResult{
		Online:       true,
		Service:      info.Service,
		Version:      info.Version,
		HTTPStatus:   resp.StatusCode,
		ResponseTime: elapsed,
	}
}

func offline(status int, elapsed time.Duration, err error) eval.ProbeResult {
	return eval.ProbeResult{
		Online:       false,
		HTTPStatus:   status,
		ResponseTime: elapsed,
		Err:          err,
	}
}
