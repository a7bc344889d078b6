// Package cachemanager holds the in-memory entry store behind the query client.
package cachemanager

import "context"

// CacheManager stores values by key. Set always replaces; nothing expires.
type CacheManager[K ~string, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	Set(ctx context.Context, key K, value V)
	Delete(ctx context.Context, keys ...K) error
	Keys(ctx context.Context) []K
	Flush(ctx context.Context) error
}
