package tracking

import (
	"sync"
	"time"

	"github.com/Jrmromao/costlens/internal/model"
)

// summaryTTL is how long a computed monthly summary stays fresh.
const summaryTTL = 60 * time.Second

// SummaryCache holds computed monthly cost summaries between reads.
type SummaryCache interface {
	Get(key string) (model.MonthlyCostSummary, bool)
	Set(key string, s model.MonthlyCostSummary)
	Invalidate(key string)
}

type cacheEntry struct {
	summary   model.MonthlyCostSummary
	expiresAt time.Time
}

// MemoryCache is an in-process SummaryCache with a fixed TTL.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache returns a cache with the standard TTL. now may be nil.
func NewMemoryCache(now func() time.Time) *MemoryCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     summaryTTL,
		now:     now,
	}
}

// Get returns the cached summary if present and unexpired.
func (c *MemoryCache) Get(key string) (model.MonthlyCostSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return model.MonthlyCostSummary{}, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return model.MonthlyCostSummary{}, false
	}
	return e.summary, true
}

// Set stores a summary with a fresh TTL.
func (c *MemoryCache) Set(key string, s model.MonthlyCostSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{summary: s, expiresAt: c.now().Add(c.ttl)}
}

// Invalidate drops one entry.
func (c *MemoryCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
