package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/samijaber1/tiergate/internal/report"
)

// Snapshot is the published report together with its freshness data
type Snapshot struct {
	Report    *report.ComplianceReport
	UpdatedAt time.Time
	TTL       time.Duration
}

// IsStale returns true if the snapshot is older than its TTL
func (s *Snapshot) IsStale(now time.Time) bool {
	return now.Sub(s.UpdatedAt) > s.TTL
}

// CycleError is the most recent failed evaluation cycle
type CycleError struct {
	Err error
	At  time.Time
}

// ReportCache holds the current report. Publication swaps a pointer, so a
// reader sees either the previous report or the new one.
type ReportCache struct {
	current atomic.Pointer[Snapshot]

	mu      sync.RWMutex
	lastErr *CycleError
	subs    map[int]chan *report.ComplianceReport
	nextSub int
}

// NewReportCache creates an empty report cache
func NewReportCache() *ReportCache {
	return &ReportCache{
		subs: make(map[int]chan *report.ComplianceReport),
	}
}

// Get returns the current snapshot, or false if nothing was published yet
func (c *ReportCache) Get() (*Snapshot, bool) {
	snap := c.current.Load()
	return snap, snap != nil
}

// Report returns the current report or nil
func (c *ReportCache) Report() *report.ComplianceReport {
	if snap := c.current.Load(); snap != nil {
		return snap.Report
	}
	return nil
}

// Publish replaces the current report, clears the last error and notifies
// subscribers. Slow subscribers miss the update.
func (c *ReportCache) Publish(r *report.ComplianceReport, ttl time.Duration, now time.Time) {
	c.current.Store(&Snapshot{Report: r, UpdatedAt: now, TTL: ttl})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = nil
	for _, ch := range c.subs {
		select {
		case ch <- r:
		default:
		}
	}
}

// SetError records a failed cycle. The current report is left untouched.
func (c *ReportCache) SetError(err error, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = &CycleError{Err: err, At: at}
}

// LastError returns the last cycle failure since the most recent publication
func (c *ReportCache) LastError() *CycleError {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Subscribe registers for published reports. The returned cancel func must
// be called to release the subscription; it closes the channel.
func (c *ReportCache) Subscribe(buffer int) (<-chan *report.ComplianceReport, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan *report.ComplianceReport, buffer)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of active subscriptions
func (c *ReportCache) Subscribers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}
