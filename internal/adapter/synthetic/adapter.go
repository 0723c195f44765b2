package synthetic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/samijaber1/tiergate/internal/eval"
)

// ProbeFixture represents a probe fixture file format
type ProbeFixture struct {
	Instances map[string]InstanceData `json:"instances"`
}

// InstanceData is the canned answer for one instance URL
type InstanceData struct {
	Online         bool   `json:"online"`
	Service        string `json:"service,omitempty"`
	Version        string `json:"version,omitempty"`
	ResponseTimeMs int64  `json:"responseTimeMs,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Adapter is a synthetic prober that answers from JSON fixtures. URLs
// without a fixture are reported offline.
type Adapter struct {
	mu        sync.RWMutex
	instances map[string]InstanceData
}

// NewAdapter creates a new synthetic adapter
func NewAdapter() *Adapter {
	return &Adapter{
		instances: make(map[string]InstanceData),
	}
}

// LoadFixture loads probe fixtures from a JSON file, merging with any
// already loaded.
func (a *Adapter) LoadFixture(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read fixture: %w", err)
	}

	var fixture ProbeFixture
	if err := json.Unmarshal(data, &fixture); err != nil {
		return fmt.Errorf("failed to parse fixture: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for url, inst := range fixture.Instances {
		a.instances[url] = inst
	}
	return nil
}

// Set directly sets the answer for one URL (useful for testing)
func (a *Adapter) Set(url string, data InstanceData) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.instances[url] = data
}

// Probe implements eval.Prober
func (a *Adapter) Probe(ctx context.Context, rawURL string) eval.ProbeResult {
	if err := ctx.Err(); err != nil {
		return eval.ProbeResult{Online: false, Err: err}
	}

	a.mu.RLock()
	data, exists := a.instances[rawURL]
	a.mu.RUnlock()

	if !exists {
		return eval.ProbeResult{Online: false, Err: fmt.Errorf("no fixture for %s", rawURL)}
	}

	if !data.Online {
		msg := data.Error
		if msg == "" {
			msg = "instance offline"
		}
		return eval.ProbeResult{
			Online:       false,
			ResponseTime: time.Duration(data.ResponseTimeMs) * time.Millisecond,
			Err:          errors.New(msg),
		}
	}

	service := data.Service
	if service == "" {
		service = eval.ServiceFromURL(rawURL)
	}
	version := data.Version
	if version == "" {
		version = eval.DefaultVersion
	}

	return eval.ProbeResult{
		Online:       true,
		Service:      service,
		Version:      version,
		HTTPStatus:   200,
		ResponseTime: time.Duration(data.ResponseTimeMs) * time.Millisecond,
	}
}
