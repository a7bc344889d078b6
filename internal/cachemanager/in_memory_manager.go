package cachemanager

import (
	"context"

	gocache "github.com/patrickmn/go-cache"

	"github.com/intakehq/intake/internal/log"
)

// NewInMemoryCacheManager returns a store with no expiration and no janitor,
// so entries live until deleted or flushed.
func NewInMemoryCacheManager[K ~string, V any](useCase string) *InMemoryCacheManager[K, V] {
	return &InMemoryCacheManager[K, V]{
		useCase: useCase,
		cache:   gocache.New(gocache.NoExpiration, 0),
	}
}

// InMemoryCacheManager is the go-cache backed CacheManager.
type InMemoryCacheManager[K ~string, V any] struct {
	useCase string
	cache   *gocache.Cache
}

// Get retrieves an item from the cache by its key
func (c *InMemoryCacheManager[K, V]) Get(ctx context.Context, key K) (V, bool) {
	var zeroValue V

	value, found := c.cache.Get(string(key))
	if !found {
		return zeroValue, false
	}

	v, ok := value.(V)
	if !ok {
		log.Error(log.CatQuery, "wrong type assertion when getting value", "store", c.useCase, "key", key)

		return zeroValue, false
	}

	return v, true
}

// Set stores value under key, replacing any previous value.
func (c *InMemoryCacheManager[K, V]) Set(ctx context.Context, key K, value V) {
	c.cache.Set(string(key), value, gocache.NoExpiration)
}

// Delete removes the given keys. Missing keys are ignored.
func (c *InMemoryCacheManager[K, V]) Delete(ctx context.Context, keys ...K) error {
	for _, key := range keys {
		c.cache.Delete(string(key))
	}

	return nil
}

// Keys lists every stored key in no particular order.
func (c *InMemoryCacheManager[K, V]) Keys(ctx context.Context) []K {
	items := c.cache.Items()
	keys := make([]K, 0, len(items))
	for k := range items {
		keys = append(keys, K(k))
	}

	return keys
}

// Flush removes everything.
func (c *InMemoryCacheManager[K, V]) Flush(ctx context.Context) error {
	c.cache.Flush()
	log.Debug(log.CatQuery, "store flushed", "store", c.useCase)

	return nil
}
