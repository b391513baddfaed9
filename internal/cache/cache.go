// Package cache holds the short-lived project list cache. The list view
// is the landing screen, so it is the one store call worth absorbing;
// everything else goes straight to the store.
package cache

import (
	"sync"
	"time"

	"github.com/mopage/mopage/internal/store"
)

// SummaryCache caches the project list for a fixed TTL. Safe for
// concurrent use.
type SummaryCache struct {
	mu        sync.RWMutex
	ttl       time.Duration
	summaries []store.Summary
	fetchedAt time.Time
	now       func() time.Time
}

// New creates a cache with the given TTL. A zero or negative TTL disables
// caching entirely.
func New(ttl time.Duration) *SummaryCache {
	return &SummaryCache{ttl: ttl, now: time.Now}
}

// Get returns the cached list if it is still fresh.
func (c *SummaryCache) Get() ([]store.Summary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.ttl <= 0 || c.summaries == nil {
		return nil, false
	}
	if c.now().Sub(c.fetchedAt) > c.ttl {
		return nil, false
	}
	return c.summaries, true
}

// Set replaces the cached list.
func (c *SummaryCache) Set(summaries []store.Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summaries = summaries
	c.fetchedAt = c.now()
}

// Invalidate drops the cached list. Called after save and delete so the
// list reflects the writer's own changes immediately.
func (c *SummaryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summaries = nil
}
