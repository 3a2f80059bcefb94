package application

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/example/trainer-scheduler/internal/analytics"
)

// reportCache keeps the analytics report of one snapshot version. Entries
// also expire after ttl since week and month boundaries move with the clock.
type reportCache struct {
	mu    sync.Mutex
	now   func() time.Time
	ttl   time.Duration
	entry *reportCacheEntry
}

type reportCacheEntry struct {
	version   uint64
	report    analytics.Report
	expiresAt time.Time
}

func newReportCache(ttl time.Duration, now func() time.Time) *reportCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &reportCache{now: now, ttl: ttl}
}

func (c *reportCache) Get(version uint64) (analytics.Report, bool) {
	if c == nil {
		return analytics.Report{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entry == nil || c.entry.version != version {
		return analytics.Report{}, false
	}
	if c.now().After(c.entry.expiresAt) {
		c.entry = nil
		return analytics.Report{}, false
	}
	return cloneReport(c.entry.report), true
}

func (c *reportCache) Store(version uint64, report analytics.Report) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entry = &reportCacheEntry{
		version:   version,
		report:    cloneReport(report),
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
}

func (c *reportCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entry = nil
	c.mu.Unlock()
}

func cloneReport(r analytics.Report) analytics.Report {
	r.Trainers = slices.Clone(r.Trainers)
	r.EventTypeStats = maps.Clone(r.EventTypeStats)
	r.StatusCounts = maps.Clone(r.StatusCounts)
	return r
}
