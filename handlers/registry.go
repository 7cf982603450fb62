package handlers

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// registry holds one value per visitor (session subject or client address). Values
// are not safe for concurrent use, so callers work on them inside with.
type registry[T any] struct {
	mu     sync.Mutex
	cache  *lru.Cache
	create func() T
}

func newRegistry[T any](size int, onEvict func(T)) (*registry[T], error) {
	var evict func(key, value interface{})
	if onEvict != nil {
		evict = func(_, value interface{}) { onEvict(value.(T)) }
	}
	cache, err := lru.NewWithEvict(size, evict)
	if err != nil {
		return nil, fmt.Errorf("creating registry: %w", err)
	}
	return &registry[T]{cache: cache}, nil
}

// get returns the value stored under key, creating it with newValue when missing.
func (r *registry[T]) get(key string, newValue func() T) T {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.cache.Get(key); ok {
		return v.(T)
	}
	if newValue == nil {
		newValue = r.create
	}
	v := newValue()
	r.cache.Add(key, v)
	return v
}

// with runs fn on the value under key while holding the registry lock.
func (r *registry[T]) with(key string, newValue func() T, fn func(T)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.cache.Get(key)
	if !ok {
		v = newValue()
		r.cache.Add(key, v)
	}
	fn(v.(T))
}
