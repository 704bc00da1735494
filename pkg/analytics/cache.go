package analytics

import (
	"sync"
	"time"
)

// CacheRecorder receives cache metrics. *metrics.Collector implements it.
type CacheRecorder interface {
	RecordCacheHit(cacheName string)
	RecordCacheMiss(cacheName string)
	RecordCacheEviction(cacheName string, n int)
	UpdateCacheSize(cacheName string, size int)
}

// CacheConfig configures the result cache.
type CacheConfig struct {
	// TTL is how long a result stays valid. Zero disables the cache.
	TTL time.Duration

	// MaxEntries bounds the cache; the entry closest to expiry is evicted
	// first. Zero means unbounded.
	MaxEntries int
}

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// Cache is a thread-safe TTL cache for computed reports and rankings.
// It is the target of the cache cleanup task.
type Cache struct {
	name     string
	config   CacheConfig
	entries  map[string]*cacheEntry
	recorder CacheRecorder
	now      func() time.Time
	mu       sync.Mutex
}

// NewCache creates a cache. recorder may be nil.
func NewCache(name string, config CacheConfig, recorder CacheRecorder) *Cache {
	return &Cache{
		name:     name,
		config:   config,
		entries:  make(map[string]*cacheEntry),
		recorder: recorder,
		now:      time.Now,
	}
}

// Enabled reports whether results are cached at all.
func (c *Cache) Enabled() bool {
	return c != nil && c.config.TTL > 0
}

// Get returns the cached value for key if present and not expired.
func (c *Cache) Get(key string) (any, bool) {
	if !c.Enabled() {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if ok && c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		c.evicted(1)
		ok = false
	}
	if !ok {
		if c.recorder != nil {
			c.recorder.RecordCacheMiss(c.name)
		}
		return nil, false
	}

	if c.recorder != nil {
		c.recorder.RecordCacheHit(c.name)
	}
	return entry.value, true
}

// Set stores value under key.
func (c *Cache) Set(key string, value any) {
	if !c.Enabled() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.config.MaxEntries > 0 && len(c.entries) >= c.config.MaxEntries {
		var oldestKey string
		var oldest time.Time
		first := true
		for k, e := range c.entries {
			if first || e.expiresAt.Before(oldest) {
				oldestKey, oldest, first = k, e.expiresAt, false
			}
		}
		delete(c.entries, oldestKey)
		c.evicted(1)
	}

	c.entries[key] = &cacheEntry{value: value, expiresAt: c.now().Add(c.config.TTL)}
	c.sized()
}

// Len returns the number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry and returns how many were dropped.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[string]*cacheEntry)
	c.evicted(n)
	return n
}

// evicted records n dropped entries. Callers hold mu.
func (c *Cache) evicted(n int) {
	if c.recorder == nil {
		return
	}
	if n > 0 {
		c.recorder.RecordCacheEviction(c.name, n)
	}
	c.sized()
}

func (c *Cache) sized() {
	if c.recorder != nil {
		c.recorder.UpdateCacheSize(c.name, len(c.entries))
	}
}
