package firehose

import (
	"sync"
	"time"
)

// dedupCache suppresses redundant redelivery within a single process's
// uptime. It is an optimization only: correctness against duplicates
// comes from the engine's idempotence, not from this cache.
type dedupCache struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	window time.Duration
}

func newDedupCache(window time.Duration) *dedupCache {
	return &dedupCache{
		seen:   make(map[string]time.Time),
		window: window,
	}
}

// seenRecently reports whether key was observed within the retention
// window, and records the observation either way.
func (c *dedupCache) seenRecently(key string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	last, ok := c.seen[key]
	c.seen[key] = now
	return ok && now.Sub(last) < c.window
}

// purge drops entries older than the retention window
func (c *dedupCache) purge(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, last := range c.seen {
		if now.Sub(last) >= c.window {
			delete(c.seen, key)
		}
	}
}

// size returns the number of retained entries
func (c *dedupCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
