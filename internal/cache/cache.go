// Package cache provides a small TTL cache with explicit construction and
// invalidation. There is no package-level singleton: callers build one at
// startup and inject it where cached reads are wanted.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache is a bounded TTL cache for string values keyed by string.
// Entries expire after the TTL given at construction; Invalidate and
// InvalidateAll drop entries early (e.g. after a write to the backing store).
type Cache struct {
	lru *expirable.LRU[string, string]
}

// New returns a Cache holding up to size entries, each live for ttl.
func New(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = 128
	}
	return &Cache{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

// Get returns the cached value for key and whether it was present.
func (c *Cache) Get(key string) (string, bool) {
	return c.lru.Get(key)
}

// Set stores value under key, replacing any previous entry.
func (c *Cache) Set(key, value string) {
	c.lru.Add(key, value)
}

// Invalidate drops the entry for key, if any.
func (c *Cache) Invalidate(key string) {
	c.lru.Remove(key)
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.lru.Purge()
}
