// Package cache provides a bounded cache of hot prepared-statement handles
// with LRU eviction.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultCapacity is the default maximum number of cached handles.
	DefaultCapacity = 10
)

// Handle is a prepared-statement handle for a hot query.
type Handle struct {
	Query     string    `json:"query"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
	UseCount  int64     `json:"use_count"`
}

// HandleCache stores prepared-statement handles keyed by query identity,
// evicting the least recently used entry when capacity is exceeded.
type HandleCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	lruList  *list.List
	now      func() time.Time

	// Metrics using atomic for lock-free access.
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// cacheEntry pairs a key with its handle inside the LRU list.
type cacheEntry struct {
	key    string
	handle *Handle
}

// New creates a handle cache with the given capacity. Non-positive
// capacities fall back to DefaultCapacity.
func New(capacity int) *HandleCache {
	return NewWithClock(capacity, time.Now)
}

// NewWithClock creates a handle cache with an explicit clock. Tests use
// this to control LastUsed timestamps.
func NewWithClock(capacity int, now func() time.Time) *HandleCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &HandleCache{
		capacity: capacity,
		items:    make(map[string]*list.Element, capacity),
		lruList:  list.New(),
		now:      now,
	}
}

// Get retrieves and touches the handle for a key. A hit increments the
// handle's UseCount, refreshes LastUsed, and moves the entry to the front
// of the LRU list. A copy of the handle is returned so callers cannot
// mutate cache state.
func (c *HandleCache) Get(key string) (Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.items[key]
	if !exists {
		c.misses.Add(1)
		return Handle{}, false
	}

	c.lruList.MoveToFront(elem)
	c.hits.Add(1)

	entry := elem.Value.(*cacheEntry)
	entry.handle.UseCount++
	entry.handle.LastUsed = c.now()
	return *entry.handle, true
}

// GetOrCreate touches the existing handle for a key, or inserts a fresh
// one with UseCount 1, evicting the least recently used entry when the
// cache is at capacity. The cache never exceeds its capacity.
func (c *HandleCache) GetOrCreate(key, query string) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		c.lruList.MoveToFront(elem)
		c.hits.Add(1)
		entry := elem.Value.(*cacheEntry)
		entry.handle.UseCount++
		entry.handle.LastUsed = c.now()
		return *entry.handle
	}

	c.misses.Add(1)
	if c.lruList.Len() >= c.capacity {
		c.evictOldest()
	}

	ts := c.now()
	entry := &cacheEntry{
		key: key,
		handle: &Handle{
			Query:     query,
			CreatedAt: ts,
			LastUsed:  ts,
			UseCount:  1,
		},
	}
	c.items[key] = c.lruList.PushFront(entry)
	return *entry.handle
}

// evictOldest removes the least recently used handle.
// Must be called with lock held.
func (c *HandleCache) evictOldest() {
	elem := c.lruList.Back()
	if elem == nil {
		return
	}

	c.lruList.Remove(elem)
	entry := elem.Value.(*cacheEntry)
	delete(c.items, entry.key)
	c.evictions.Add(1)
}

// RemoveOlderThan drops handles whose LastUsed is before the cutoff and
// returns how many were removed. Touch order keeps the list sorted by
// recency, so the sweep walks from the back and stops at the first fresh
// entry.
func (c *HandleCache) RemoveOlderThan(cutoff time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for {
		elem := c.lruList.Back()
		if elem == nil {
			break
		}
		entry := elem.Value.(*cacheEntry)
		if !entry.handle.LastUsed.Before(cutoff) {
			break
		}
		c.lruList.Remove(elem)
		delete(c.items, entry.key)
		removed++
	}
	return removed
}

// Len returns the number of live handles.
func (c *HandleCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lruList.Len()
}

// Clear removes all handles.
func (c *HandleCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element, c.capacity)
	c.lruList.Init()
}

// Stats holds cache performance counters.
type Stats struct {
	Size      int     `json:"size"`
	Capacity  int     `json:"capacity"`
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Evictions uint64  `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
}

// Stats returns a snapshot of the cache counters.
func (c *HandleCache) Stats() Stats {
	c.mu.Lock()
	size := c.lruList.Len()
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	total := hits + misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Size:      size,
		Capacity:  c.capacity,
		Hits:      hits,
		Misses:    misses,
		Evictions: c.evictions.Load(),
		HitRate:   hitRate,
	}
}
