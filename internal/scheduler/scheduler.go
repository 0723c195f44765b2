package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samijaber1/tiergate/internal/catalog"
	"github.com/samijaber1/tiergate/internal/eval"
	"github.com/samijaber1/tiergate/internal/policy"
	"github.com/samijaber1/tiergate/internal/report"
	"github.com/samijaber1/tiergate/internal/storage"
)

// DefaultInterval is the periodic recomputation interval
const DefaultInterval = 30 * time.Second

// Options configures a Scheduler
type Options struct {
	Interval    time.Duration
	AutoRefresh bool
	// AuditRetention prunes archived reports older than this after each
	// stored report. Zero keeps everything.
	AuditRetention time.Duration
}

// Status describes the scheduler for the API
type Status struct {
	Running        bool       `json:"running"`
	AutoRefresh    bool       `json:"autoRefresh"`
	Interval       string     `json:"interval"`
	Source         string     `json:"source"`
	Cycles         int64      `json:"cycles"`
	LastRun        *time.Time `json:"lastRun,omitempty"`
	LastDurationMs int64      `json:"lastDurationMs"`
	LastError      string     `json:"lastError,omitempty"`
	LastErrorAt    *time.Time `json:"lastErrorAt,omitempty"`
	ReportID       string     `json:"reportId,omitempty"`
	Stale          bool       `json:"stale"`
}

// Scheduler recomputes the compliance report periodically and on demand.
// At most one cycle runs at a time; triggers arriving while a cycle is in
// flight collapse into a single pending cycle.
type Scheduler struct {
	source    catalog.Source
	evaluator *eval.Evaluator
	engine    *policy.Engine
	cache     *ReportCache
	interval  time.Duration
	retention time.Duration
	now       func() time.Time

	autoRefresh atomic.Bool
	trigger     chan struct{}
	runMu       sync.Mutex
	cycles      atomic.Int64

	mu           sync.RWMutex
	audit        storage.AuditStorage
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	running      bool
	lastRun      time.Time
	lastDuration time.Duration
}

// NewScheduler creates a new scheduler
func NewScheduler(source catalog.Source, evaluator *eval.Evaluator, engine *policy.Engine, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}

	s := &Scheduler{
		source:    source,
		evaluator: evaluator,
		engine:    engine,
		cache:     NewReportCache(),
		interval:  opts.Interval,
		retention: opts.AuditRetention,
		now:       time.Now,
		trigger:   make(chan struct{}, 1),
	}
	s.autoRefresh.Store(opts.AutoRefresh)
	return s
}

// SetAuditStorage sets the audit storage backend (optional)
func (s *Scheduler) SetAuditStorage(audit storage.AuditStorage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = audit
}

// Start runs an initial cycle in the background and begins the periodic loop
func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(ctx)

	log.Printf("started scheduler: source=%s interval=%s autoRefresh=%t",
		s.source.Name(), s.interval, s.autoRefresh.Load())
	return nil
}

// Stop stops the scheduler and waits for the current cycle to finish.
// In-flight probes see a cancelled context and the cycle is not published.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}

	s.cancel()
	s.running = false
	s.mu.Unlock()

	log.Println("stopping scheduler...")
	s.wg.Wait()
	log.Println("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	// Initial evaluation
	_ = s.runCycle(ctx, "startup")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.autoRefresh.Load() {
				_ = s.runCycle(ctx, "tick")
			}
		case <-s.trigger:
			_ = s.runCycle(ctx, "trigger")
		}
	}
}

// Trigger requests an asynchronous cycle. It returns false when a request is
// already pending, in which case this one is coalesced into it.
func (s *Scheduler) Trigger() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// RefreshNow runs a cycle synchronously, waiting for any in-flight cycle to
// finish first, and returns the published report.
func (s *Scheduler) RefreshNow(ctx context.Context) (*report.ComplianceReport, error) {
	if err := s.runCycle(ctx, "manual"); err != nil {
		return nil, err
	}
	return s.cache.Report(), nil
}

// SetAutoRefresh toggles periodic recomputation
func (s *Scheduler) SetAutoRefresh(enabled bool) {
	if s.autoRefresh.Swap(enabled) != enabled {
		log.Printf("auto-refresh set to %t", enabled)
	}
}

// AutoRefresh reports whether periodic recomputation is enabled
func (s *Scheduler) AutoRefresh() bool {
	return s.autoRefresh.Load()
}

// Interval returns the periodic recomputation interval
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// runCycle builds and publishes one report. Cycles are serialized by runMu.
func (s *Scheduler) runCycle(ctx context.Context, reason string) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := s.now()
	r, err := s.buildReport(ctx, start)
	elapsed := s.now().Sub(start)

	s.mu.Lock()
	s.lastRun = start
	s.lastDuration = elapsed
	audit := s.audit
	s.mu.Unlock()
	s.cycles.Add(1)

	if err != nil {
		s.cache.SetError(err, start)
		log.Printf("cycle failed (%s): %v", reason, err)
		return err
	}

	r.DurationMs = elapsed.Milliseconds()
	s.cache.Publish(r, 2*s.interval, s.now())

	if audit != nil {
		s.archive(audit, r)
	}

	log.Printf("published report %s (%s): groups=%d violations=%d critical=%d score=%d duration=%s",
		r.ID, reason, r.TotalGroupCount, r.TotalViolations, r.CriticalCount, r.Score, elapsed)
	return nil
}

// archive stores the report and applies the retention window
func (s *Scheduler) archive(audit storage.AuditStorage, r *report.ComplianceReport) {
	if err := audit.StoreReport(r); err != nil {
		log.Printf("Warning: failed to store report %s: %v", r.ID, err)
		return
	}

	if s.retention <= 0 {
		return
	}
	pruned, err := audit.PruneBefore(r.GeneratedAt.Add(-s.retention))
	if err != nil {
		log.Printf("Warning: failed to prune audit trail: %v", err)
		return
	}
	if pruned > 0 {
		log.Printf("pruned %d archived report(s) older than %s", pruned, s.retention)
	}
}

// buildReport runs one full evaluation. A panic anywhere in the pipeline is
// turned into an error so the previous report stays published.
func (s *Scheduler) buildReport(ctx context.Context, now time.Time) (r *report.ComplianceReport, err error) {
	defer func() {
		if p := recover(); p != nil {
			r = nil
			err = fmt.Errorf("evaluation panic: %v", p)
		}
	}()

	cat, err := s.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog from %s: %w", s.source.Name(), err)
	}

	observations := s.evaluator.Collect(ctx, cat)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("cycle cancelled: %w", err)
	}

	groups := eval.Group(observations)
	return report.Build(groups, s.engine, now), nil
}

// Status returns a point-in-time view of the scheduler
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	st := Status{
		Running:        s.running,
		AutoRefresh:    s.autoRefresh.Load(),
		Interval:       s.interval.String(),
		Source:         s.source.Name(),
		Cycles:         s.cycles.Load(),
		LastDurationMs: s.lastDuration.Milliseconds(),
	}
	if !s.lastRun.IsZero() {
		lastRun := s.lastRun
		st.LastRun = &lastRun
	}
	s.mu.RUnlock()

	if cerr := s.cache.LastError(); cerr != nil {
		st.LastError = cerr.Err.Error()
		at := cerr.At
		st.LastErrorAt = &at
	}

	if snap, ok := s.cache.Get(); ok {
		st.ReportID = snap.Report.ID
		st.Stale = snap.IsStale(s.now())
	} else {
		st.Stale = true
	}

	return st
}

// GetCache returns the report cache
func (s *Scheduler) GetCache() *ReportCache {
	return s.cache
}

// GetAuditStorage returns the audit storage backend
func (s *Scheduler) GetAuditStorage() storage.AuditStorage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.audit
}
