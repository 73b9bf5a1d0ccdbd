package weather

import (
	"sync"
	"time"

	"github.com/yegors/wx-dash/pkg/logger"
)

// cacheEntry is a raw provider body with its expiry
type cacheEntry struct {
	body      []byte
	expiresAt time.Time
}

// Cache keeps successful provider bodies for a short TTL so that repeated
// page loads do not hit the provider for every request. Failures are never
// cached. A zero TTL disables caching.
type Cache struct {
	ttl     time.Duration
	entries map[string]cacheEntry
	logger  *logger.Logger
	mu      sync.RWMutex
	now     func() time.Time
}

// NewCache creates a new provider response cache
func NewCache(ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		logger:  log.Named("weather-cache"),
		now:     time.Now,
	}
}

// Get returns the cached body for key if present and not expired
func (c *Cache) Get(key string) ([]byte, bool) {
	if c.ttl <= 0 {
		return nil, false
	}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.body, true
}

// Set stores a body under key
func (c *Cache) Set(key string, body []byte) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneLocked()
	c.entries[key] = cacheEntry{body: body, expiresAt: c.now().Add(c.ttl)}
	c.logger.Debug("Provider response cached",
		logger.String("key", key),
		logger.Int("size_bytes", len(body)))
}

// pruneLocked drops expired entries; c.mu must be held
func (c *Cache) pruneLocked() int {
	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached entries, expired ones included
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
