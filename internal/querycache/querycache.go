// Package querycache keeps snapshots of remote query results (carts, order lists) for the
// sessions served by this process. Entries are invalidated explicitly after mutations and
// never patched in place.
package querycache

import (
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

type entry struct {
	value    any
	storedAt time.Time
}

type Cache struct {
	lru *lru.Cache
	ttl time.Duration
	now func() time.Time

	// mu orders invalidations against conditional stores. clock advances on every
	// invalidation; marks remembers the clock value at which a key (or, under
	// prefixMark, a key prefix) was last invalidated. floor is the newest mark that was
	// evicted from marks and stands in for any mark that is no longer known.
	mu    sync.Mutex
	clock uint64
	marks *lru.Cache
	floor uint64
}

const prefixMark = "\x00"

// New builds a cache holding at most size entries. A zero ttl keeps entries until they
// are invalidated or evicted.
func New(size int, ttl time.Duration) (*Cache, error) {
	l, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("creating lru cache: %w", err)
	}
	c := &Cache{lru: l, ttl: ttl, now: time.Now}
	c.marks, err = lru.NewWithEvict(size, func(_, value interface{}) {
		if at := value.(uint64); at > c.floor {
			c.floor = at
		}
	})
	if err != nil {
		return nil, fmt.Errorf("creating lru cache: %w", err)
	}
	return c, nil
}

func (c *Cache) Get(key string) (any, bool) {
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	e := v.(entry)
	if c.ttl > 0 && c.now().Sub(e.storedAt) > c.ttl {
		c.lru.Remove(key)
		return nil, false
	}
	return e.value, true
}

func (c *Cache) Set(key string, value any) {
	c.lru.Add(key, entry{value: value, storedAt: c.now()})
}

// Generation is taken before a remote read whose result will be stored with
// SetIfGeneration.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clock
}

// SetIfGeneration stores value unless key was invalidated after gen was taken. It
// reports whether the value was stored.
func (c *Cache) SetIfGeneration(key string, gen uint64, value any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.invalidatedAt(key) > gen {
		return false
	}
	c.Set(key, value)
	return true
}

func (c *Cache) invalidatedAt(key string) uint64 {
	latest := c.markOf(key)
	for i := 0; i <= len(key); i++ {
		if at := c.markOf(prefixMark + key[:i]); at > latest {
			latest = at
		}
	}
	return latest
}

func (c *Cache) markOf(mark string) uint64 {
	if at, ok := c.marks.Peek(mark); ok {
		return at.(uint64)
	}
	return c.floor
}

func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock++
	c.marks.Add(key, c.clock)
	c.lru.Remove(key)
}

// InvalidatePrefix drops every entry whose key starts with prefix. Reads of such keys
// that are still in flight will not be stored.
func (c *Cache) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock++
	c.marks.Add(prefixMark+prefix, c.clock)
	removed := 0
	for _, k := range c.lru.Keys() {
		key, ok := k.(string)
		if ok && strings.HasPrefix(key, prefix) {
			c.lru.Remove(key)
			removed++
		}
	}
	return removed
}

func (c *Cache) Len() int {
	return c.lru.Len()
}
