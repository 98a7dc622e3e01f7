package dashboard

import (
	"sync"
	"time"

	"MarketPulse/internal/model"
)

// Cache holds the last snapshot until it is older than ttl or cleared.
type Cache struct {
	mu   sync.Mutex
	ttl  time.Duration
	snap *model.Snapshot
}

// NewCache creates a cache; a non-positive ttl disables caching.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl}
}

// Get returns the cached snapshot if it is still fresh at now.
func (c *Cache) Get(now time.Time) (*model.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == nil || c.ttl <= 0 {
		return nil, false
	}
	if now.Sub(c.snap.FetchedAt) >= c.ttl {
		return nil, false
	}
	return c.snap, true
}

// Put replaces the cached snapshot.
func (c *Cache) Put(s *model.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = s
}

// Clear drops the cached snapshot.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = nil
}
