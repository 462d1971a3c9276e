// Package infra provides shared infrastructure for the data sources:
// an in-memory TTL cache, request rate limiting and a retrying HTTP GET.
package infra

import (
	"sync"
	"time"
)

// ════════════════════════════════════════════════════════════════════
// In-memory cache
// ════════════════════════════════════════════════════════════════════

// CacheEntry holds a cached value with expiration.
type CacheEntry struct {
	Value     any
	ExpiresAt time.Time
}

// Cache is a thread-safe in-memory cache with TTL. It only lives for the
// duration of one process; the SQLite store handles reuse across runs.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a cache with the given default TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]CacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a live value. Expired entries are evicted on read.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.ExpiresAt) {
		c.Invalidate(key)
		return nil, false
	}
	return entry.Value, true
}

// Set stores a value with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = CacheEntry{Value: value, ExpiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

// Invalidate removes a key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Flush removes all entries.
func (c *Cache) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]CacheEntry)
	c.mu.Unlock()
}
