package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_GetSet(t *testing.T) {
	c := NewCache[string, int](10, 0)

	_, found, inCache := c.Get("a")
	assert.False(t, found)
	assert.False(t, inCache)

	c.Set("a", 1, true)
	v, found, inCache := c.Get("a")
	assert.Equal(t, 1, v)
	assert.True(t, found)
	assert.True(t, inCache)
}

func TestCache_NegativeEntry(t *testing.T) {
	c := NewCache[string, int](10, 0)
	c.Set("missing", 0, false)

	_, found, inCache := c.Get("missing")
	assert.False(t, found)
	assert.True(t, inCache)
}

func TestCache_DeleteAndFlush(t *testing.T) {
	c := NewCache[string, int](10, 0)
	c.Set("a", 1, true)
	c.Set("b", 2, true)

	c.Delete("a")
	_, _, inCache := c.Get("a")
	assert.False(t, inCache)
	assert.Equal(t, 1, c.Len())

	c.Flush()
	assert.Equal(t, 0, c.Len())
}

func TestCache_Bounded(t *testing.T) {
	c := NewCache[int, int](2, 0)
	c.Set(1, 1, true)
	c.Set(2, 2, true)
	c.Set(3, 3, true)

	assert.Equal(t, 2, c.Len())
	_, _, inCache := c.Get(1)
	assert.False(t, inCache, "oldest entry evicted")
}

func TestCache_Expires(t *testing.T) {
	c := NewCache[string, int](10, 20*time.Millisecond)
	c.Set("a", 1, true)

	assert.Eventually(t, func() bool {
		_, _, inCache := c.Get("a")
		return !inCache
	}, time.Second, 5*time.Millisecond)
}

func TestCache_SetIfCurrent(t *testing.T) {
	c := NewCache[string, int](10, 0)

	gen := c.Generation()
	assert.True(t, c.SetIfCurrent("a", 1, true, gen))
	_, found, _ := c.Get("a")
	assert.True(t, found)

	gen = c.Generation()
	c.Delete("b")
	assert.False(t, c.SetIfCurrent("b", 2, true, gen), "a delete since gen was read")
	_, _, inCache := c.Get("b")
	assert.False(t, inCache)

	gen = c.Generation()
	c.Flush()
	assert.False(t, c.SetIfCurrent("c", 0, false, gen))
	_, _, inCache = c.Get("c")
	assert.False(t, inCache)
}
