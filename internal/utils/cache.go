package utils

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheItem 값과 만료 시각
type cacheItem[V any] struct {
	Data      V
	ExpiresAt time.Time
}

// TTLCache is a bounded LRU whose entries also expire at an absolute instant.
// Expiry is checked against the caller's clock, not the wall clock.
type TTLCache[K comparable, V any] struct {
	lruCache *lru.Cache[K, cacheItem[V]]
}

// NewTTLCache creates a cache holding at most size entries.
func NewTTLCache[K comparable, V any](size int) (*TTLCache[K, V], error) {
	l, err := lru.New[K, cacheItem[V]](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &TTLCache[K, V]{lruCache: l}, nil
}

// Set stores data until expiresAt.
func (c *TTLCache[K, V]) Set(key K, data V, expiresAt time.Time) {
	c.lruCache.Add(key, cacheItem[V]{
		Data:      data,
		ExpiresAt: expiresAt,
	})
}

// Get returns the value if present and not expired at now.
func (c *TTLCache[K, V]) Get(key K, now time.Time) (V, bool) {
	val, ok := c.lruCache.Get(key)
	if !ok {
		var zero V
		return zero, false
	}

	// 만료 확인
	if !now.Before(val.ExpiresAt) {
		c.lruCache.Remove(key)
		var zero V
		return zero, false
	}

	return val.Data, true
}

func (c *TTLCache[K, V]) Delete(key K) {
	c.lruCache.Remove(key)
}

func (c *TTLCache[K, V]) Len() int {
	return c.lruCache.Len()
}
