package eval

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samijaber1/tiergate/internal/catalog"
	"github.com/samijaber1/tiergate/internal/tier"
)

// Prober retrieves the self-reported version of a running instance.
// Implementations never fail the call: transport problems, non-2xx answers
// and malformed bodies come back as ProbeResult{Online: false, Err: ...}.
type Prober interface {
	Probe(ctx context.Context, rawURL string) ProbeResult
}

// DefaultConcurrency bounds the number of probes in flight per cycle.
const DefaultConcurrency = 16

// Evaluator gathers observations for every registered instance.
type Evaluator struct {
	prober      Prober
	concurrency int
	now         func() time.Time
}

// NewEvaluator creates a new evaluator with the given prober.
func NewEvaluator(prober Prober) *Evaluator {
	return &Evaluator{
		prober:      prober,
		concurrency: DefaultConcurrency,
		now:         time.Now,
	}
}

// SetConcurrency changes the fan-out limit. Values below 1 are ignored.
func (e *Evaluator) SetConcurrency(n int) {
	if n > 0 {
		e.concurrency = n
	}
}

// Collect probes every instance of the catalog concurrently and returns one
// observation per instance, in catalog order. Probe goroutines write only
// their own result slot; observations are assembled after all probes have
// completed or failed.
func (e *Evaluator) Collect(ctx context.Context, cat *catalog.Catalog) []Observation {
	if cat == nil || len(cat.Instances) == 0 {
		return nil
	}

	results := make([]ProbeResult, len(cat.Instances))
	observedAt := make([]time.Time, len(cat.Instances))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, inst := range cat.Instances {
		i, inst := i, inst
		g.Go(func() error {
			results[i] = e.probe(gctx, inst.URL)
			observedAt[i] = e.now()
			return nil
		})
	}
	_ = g.Wait()

	observations := make([]Observation, len(cat.Instances))
	offline := 0
	for i, inst := range cat.Instances {
		observations[i] = observe(inst, cat.ProjectName(inst.ProjectID), results[i], observedAt[i])
		if !observations[i].Online() {
			offline++
		}
	}

	if offline > 0 {
		log.Printf("collected %d observations (%d offline)", len(observations), offline)
	}

	return observations
}

// probe shields the cycle from a misbehaving prober
func (e *Evaluator) probe(ctx context.Context, rawURL string) (result ProbeResult) {
	defer func() {
		if r := recover(); r != nil {
			result = ProbeResult{Online: false, Err: fmt.Errorf("probe panic: %v", r)}
		}
	}()
	return e.prober.Probe(ctx, rawURL)
}

func observe(inst catalog.Instance, projectName string, res ProbeResult, at time.Time) Observation {
	obs := Observation{
		InstanceID:     inst.ID,
		ServiceName:    res.Service,
		ProjectID:      inst.ProjectID,
		ProjectName:    projectName,
		URL:            inst.URL,
		Version:        res.Version,
		Status:         StatusOnline,
		Tier:           tier.Normalize(inst.Environment),
		RawTier:        inst.Environment,
		Region:         inst.Region,
		ResponseTimeMs: res.ResponseTime.Milliseconds(),
		ObservedAt:     at,
	}

	if obs.ServiceName == "" {
		obs.ServiceName = ServiceFromURL(inst.URL)
	}

	if !res.Online {
		obs.Status = StatusOffline
		obs.Version = PlaceholderVersion
		if res.Err != nil {
			obs.Error = res.Err.Error()
		} else {
			obs.Error = "instance offline"
		}
		return obs
	}

	if obs.Version == "" {
		obs.Version = DefaultVersion
	}

	return obs
}
