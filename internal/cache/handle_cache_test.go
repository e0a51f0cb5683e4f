package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock returns a clock that advances one second per call.
func fakeClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func TestNew_DefaultCapacity(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		expected int
	}{
		{"positive capacity", 5, 5},
		{"zero capacity defaults", 0, DefaultCapacity},
		{"negative capacity defaults", -3, DefaultCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.capacity)
			require.NotNil(t, c)
			assert.Equal(t, tt.expected, c.capacity)
		})
	}
}

func TestHandleCache_GetMiss(t *testing.T) {
	c := New(10)

	_, found := c.Get("missing")
	assert.False(t, found)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(0), stats.Hits)
}

func TestHandleCache_GetOrCreate(t *testing.T) {
	c := NewWithClock(10, fakeClock(time.Unix(0, 0)))

	h := c.GetOrCreate("abc12345", "SELECT * FROM tickets WHERE id = ?")
	assert.Equal(t, "SELECT * FROM tickets WHERE id = ?", h.Query)
	assert.Equal(t, int64(1), h.UseCount)
	assert.Equal(t, h.CreatedAt, h.LastUsed)

	// Subsequent lookups touch the handle.
	h2, found := c.Get("abc12345")
	require.True(t, found)
	assert.Equal(t, int64(2), h2.UseCount)
	assert.True(t, h2.LastUsed.After(h2.CreatedAt))

	h3 := c.GetOrCreate("abc12345", "SELECT * FROM tickets WHERE id = ?")
	assert.Equal(t, int64(3), h3.UseCount)
	assert.Equal(t, 1, c.Len())
}

func TestHandleCache_LRUEviction(t *testing.T) {
	c := NewWithClock(3, fakeClock(time.Unix(0, 0)))

	c.GetOrCreate("q1", "SELECT 1")
	c.GetOrCreate("q2", "SELECT 2")
	c.GetOrCreate("q3", "SELECT 3")
	require.Equal(t, 3, c.Len())

	// Touch q1 so q2 becomes the least recently used.
	_, found := c.Get("q1")
	require.True(t, found)

	c.GetOrCreate("q4", "SELECT 4")
	assert.Equal(t, 3, c.Len())

	_, found = c.Get("q2")
	assert.False(t, found, "least recently used entry should be evicted")
	_, found = c.Get("q1")
	assert.True(t, found)
	_, found = c.Get("q4")
	assert.True(t, found)

	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestHandleCache_NeverExceedsCapacity(t *testing.T) {
	c := New(5)
	for i := 0; i < 100; i++ {
		c.GetOrCreate(fmt.Sprintf("q%d", i), fmt.Sprintf("SELECT %d", i))
		assert.LessOrEqual(t, c.Len(), 5)
	}
	assert.Equal(t, 5, c.Len())
}

func TestHandleCache_RemoveOlderThan(t *testing.T) {
	start := time.Unix(0, 0)
	c := NewWithClock(10, fakeClock(start))

	c.GetOrCreate("old1", "SELECT 1") // last used at +1s
	c.GetOrCreate("old2", "SELECT 2") // +2s
	c.GetOrCreate("new1", "SELECT 3") // +3s

	removed := c.RemoveOlderThan(start.Add(2500 * time.Millisecond))
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Len())

	_, found := c.Get("new1")
	assert.True(t, found)
}

func TestHandleCache_Clear(t *testing.T) {
	c := New(10)
	c.GetOrCreate("q1", "SELECT 1")
	c.GetOrCreate("q2", "SELECT 2")

	c.Clear()
	assert.Equal(t, 0, c.Len())

	_, found := c.Get("q1")
	assert.False(t, found)
}

func TestHandleCache_Stats(t *testing.T) {
	c := New(2)

	c.GetOrCreate("q1", "SELECT 1") // miss
	c.GetOrCreate("q1", "SELECT 1") // hit
	c.GetOrCreate("q2", "SELECT 2") // miss
	c.GetOrCreate("q3", "SELECT 3") // miss + eviction

	stats := c.Stats()
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, 2, stats.Capacity)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(3), stats.Misses)
	assert.Equal(t, uint64(1), stats.Evictions)
	assert.InDelta(t, 0.25, stats.HitRate, 0.001)
}
