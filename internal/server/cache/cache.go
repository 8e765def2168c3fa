// Package cache provides the in-process identity cache: a bounded map of
// public identifiers to derived projections, guarded by a single lock per
// cache instance. Entries expire after a TTL and the map is capped, so the
// cache can never grow without bound. Projections are derived data; a lost
// or evicted entry is always reconstructible from the store.
package cache

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Config struct {
	TTL     time.Duration
	MaxSize int
}

// Stats are simple counters for cache behavior, intended for diagnostics.
type Stats struct {
	Hits      int64         `json:"hits"`
	Misses    int64         `json:"misses"`
	Puts      int64         `json:"puts"`
	Evictions int64         `json:"evictions"`
	Size      int           `json:"size"`
	TTL       time.Duration `json:"ttl"`
}

// Cache is a TTL- and size-bounded projection cache keyed by public
// identifier. The zero value is not usable; construct with New.
//
// Callers must not hold the lock across store round trips: the read path is
// Get, then on a miss query the store outside the cache, then Put the result.
// Two concurrent misses for the same key may both query and both Put;
// last write wins, which is fine for idempotent projections.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[uuid.UUID]record[V]
	ttl     time.Duration
	maxSize int

	hits      int64
	misses    int64
	puts      int64
	evictions int64
}

type record[V any] struct {
	value    V
	cachedAt time.Time
}

func New[V any](c Config) *Cache[V] {
	if c.TTL == 0 {
		c.TTL = 5 * time.Minute
	}
	if c.MaxSize == 0 {
		c.MaxSize = 500
	}

	return &Cache[V]{
		entries: make(map[uuid.UUID]record[V]),
		ttl:     c.TTL,
		maxSize: c.MaxSize,
	}
}

// Get returns the cached projection for pid, if present and not expired.
// Expired entries are removed on the way out.
func (c *Cache[V]) Get(pid uuid.UUID) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, exists := c.entries[pid]
	if !exists {
		c.misses++
		var zero V
		return zero, false
	}

	if time.Since(rec.cachedAt) > c.ttl {
		delete(c.entries, pid)
		c.misses++
		var zero V
		return zero, false
	}

	c.hits++
	return rec.value, true
}

// Put inserts or refreshes the projection for pid. When the cache is full an
// arbitrary entry is evicted first; fairness does not matter for derived data.
func (c *Cache[V]) Put(pid uuid.UUID, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[pid]; !exists && len(c.entries) >= c.maxSize {
		for k := range c.entries {
			delete(c.entries, k)
			c.evictions++
			break
		}
	}

	c.entries[pid] = record[V]{
		value:    value,
		cachedAt: time.Now(),
	}
	c.puts++
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Puts:      c.puts,
		Evictions: c.evictions,
		Size:      len(c.entries),
		TTL:       c.ttl,
	}
}
