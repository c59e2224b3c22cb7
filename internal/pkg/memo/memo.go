// Package memo caches derived values keyed by the identity of their inputs.
package memo

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Cache holds up to capacity computed values and drops the least recently
// used one when full. Keys carry the version of the inputs they were derived
// from, so a replaced input simply stops being asked for.
type Cache[K comparable, V any] struct {
	entries *lru.Cache[K, V]
	group   singleflight.Group

	hits   atomic.Uint64
	misses atomic.Uint64
}

func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity <= 0 {
		capacity = 1
	}
	entries, err := lru.New[K, V](capacity)
	if err != nil {
		panic(fmt.Sprintf("memo: %v", err))
	}
	return &Cache[K, V]{entries: entries}
}

// Get returns the cached value for key, computing it with fn on a miss.
// Concurrent misses for the same key share one computation.
func (c *Cache[K, V]) Get(key K, fn func() (V, error)) (V, error) {
	if v, ok := c.entries.Get(key); ok {
		c.hits.Add(1)
		return v, nil
	}
	c.misses.Add(1)

	res, err, _ := c.group.Do(fmt.Sprintf("%v", key), func() (interface{}, error) {
		v, err := fn()
		if err != nil {
			return v, err
		}
		c.entries.Add(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

func (c *Cache[K, V]) Len() int {
	return c.entries.Len()
}

// Stats returns hit and miss counters.
func (c *Cache[K, V]) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
