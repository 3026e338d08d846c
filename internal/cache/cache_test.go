package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type manualClock struct{ t time.Time }

func (c *manualClock) Now() time.Time { return c.t }

func TestTTLCacheExpiry(t *testing.T) {
	clk := &manualClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewTTLCache[string, int](0, clk.Now)

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, 0)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	clk.t = clk.t.Add(time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)

	v, ok = c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestTTLCacheEvictsWhenFull(t *testing.T) {
	clk := &manualClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewTTLCache[string, int](2, clk.Now)

	c.Set("first", 1, time.Minute)
	c.Set("second", 2, time.Hour)
	c.Set("third", 3, time.Hour)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("first")
	assert.False(t, ok)
	_, ok = c.Get("third")
	assert.True(t, ok)
}

func TestDocumentCacheMatchesRevision(t *testing.T) {
	c := NewDocumentCache(time.Minute, nil)

	c.Set(42, 3, []byte("r3"))
	data, ok := c.Get(42, 3)
	assert.True(t, ok)
	assert.Equal(t, []byte("r3"), data)

	_, ok = c.Get(42, 4)
	assert.False(t, ok)

	c.Set(42, 2, []byte("r2"))
	data, ok = c.Get(42, 3)
	assert.True(t, ok)
	assert.Equal(t, []byte("r3"), data)

	c.Invalidate(42)
	_, ok = c.Get(42, 3)
	assert.False(t, ok)
}
