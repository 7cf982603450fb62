package querycache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetInvalidate(t *testing.T) {
	c, err := New(8, 0)
	require.NoError(t, err)

	c.Set("cart/u1", 1)
	v, ok := c.Get("cart/u1")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	c.Invalidate("cart/u1")
	_, ok = c.Get("cart/u1")
	assert.False(t, ok)
}

func TestInvalidatePrefix(t *testing.T) {
	c, err := New(8, 0)
	require.NoError(t, err)

	c.Set("orders/u1/list/1/10", "a")
	c.Set("orders/u1/detail/o1", "b")
	c.Set("orders/u2/list/1/10", "c")

	assert.Equal(t, 2, c.InvalidatePrefix("orders/u1/"))
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("orders/u2/list/1/10")
	assert.True(t, ok)
}

func TestTTL(t *testing.T) {
	c, err := New(8, time.Minute)
	require.NoError(t, err)
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	now = now.Add(30 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestEviction(t *testing.T) {
	c, err := New(2, 0)
	require.NoError(t, err)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestNewInvalidSize(t *testing.T) {
	_, err := New(0, 0)
	assert.Error(t, err)
}

func TestSetIfGenerationAfterInvalidate(t *testing.T) {
	c, err := New(8, 0)
	require.NoError(t, err)

	gen := c.Generation()
	c.Invalidate("cart/u1")
	assert.False(t, c.SetIfGeneration("cart/u1", gen, "stale"))
	_, ok := c.Get("cart/u1")
	assert.False(t, ok)

	assert.True(t, c.SetIfGeneration("cart/u2", gen, "other"))
	assert.True(t, c.SetIfGeneration("cart/u1", c.Generation(), "fresh"))
	v, ok := c.Get("cart/u1")
	require.True(t, ok)
	assert.Equal(t, "fresh", v)
}

func TestSetIfGenerationAfterPrefixInvalidate(t *testing.T) {
	c, err := New(8, 0)
	require.NoError(t, err)

	// the key holds no entry yet when the prefix is dropped
	gen := c.Generation()
	assert.Equal(t, 0, c.InvalidatePrefix("orders/u1/"))
	assert.False(t, c.SetIfGeneration("orders/u1/list/1/10", gen, "stale"))
	assert.True(t, c.SetIfGeneration("orders/u2/list/1/10", gen, "other"))
	assert.Equal(t, 1, c.Len())

	gen = c.Generation()
	c.InvalidatePrefix("")
	assert.False(t, c.SetIfGeneration("orders/u2/list/1/10", gen, "stale"))
}

func TestSetIfGenerationEvictedMarks(t *testing.T) {
	c, err := New(2, 0)
	require.NoError(t, err)

	gen := c.Generation()
	c.Invalidate("cart/u1")
	c.Invalidate("cart/u2")
	c.Invalidate("cart/u3")
	// the mark for cart/u1 is gone; the cache must still refuse the older read
	assert.False(t, c.SetIfGeneration("cart/u1", gen, "stale"))
	assert.True(t, c.SetIfGeneration("cart/u1", c.Generation(), "fresh"))
}
