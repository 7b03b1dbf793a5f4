package app

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type cacheEntry[V any] struct {
	value V
	found bool // distinguishes "cached miss" from "not in cache"
}

// Cache is a bounded, expiring cache that can also remember negative lookups.
// Every Delete or Flush bumps its generation; read-through callers pass the
// generation they saw before loading to SetIfCurrent so a value read before a
// write is never cached after it.
type Cache[K comparable, V any] struct {
	mu    sync.Mutex
	gen   uint64
	items *expirable.LRU[K, cacheEntry[V]]
}

// NewCache holds at most size entries, each for at most ttl. A ttl of zero
// keeps entries until evicted or flushed.
func NewCache[K comparable, V any](size int, ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{items: expirable.NewLRU[K, cacheEntry[V]](size, nil, ttl)}
}

// Get returns (value, found, inCache). If inCache is false, the key has never been cached.
// If inCache is true and found is false, the key was cached as a miss.
func (c *Cache[K, V]) Get(key K) (V, bool, bool) {
	entry, inCache := c.items.Get(key)
	if !inCache {
		var zero V
		return zero, false, false
	}
	return entry.value, entry.found, true
}

// Set stores a value in the cache. Use found=false to cache a negative lookup.
func (c *Cache[K, V]) Set(key K, value V, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Add(key, cacheEntry[V]{value: value, found: found})
}

// Generation returns the current write generation.
func (c *Cache[K, V]) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// SetIfCurrent stores the value only if no Delete or Flush happened since gen
// was read. It reports whether the value was stored.
func (c *Cache[K, V]) SetIfCurrent(key K, value V, found bool, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.items.Add(key, cacheEntry[V]{value: value, found: found})
	return true
}

func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.items.Remove(key)
}

func (c *Cache[K, V]) Len() int {
	return c.items.Len()
}

// Flush clears all entries from the cache.
func (c *Cache[K, V]) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.items.Purge()
}
