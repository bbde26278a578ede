// Package cache keeps short-lived per-household read models in memory.
//
// Entries expire lazily: a lookup past the TTL is a miss, and capacity
// bounds how many households are held, so no sweeper goroutine runs.
package cache

import "context"

// Cache is a read-through cache keyed by household.
type Cache[T any] interface {
	// GetOrLoad returns the cached value for key, calling load on a miss.
	GetOrLoad(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error)

	// Delete drops key. A load in flight when Delete runs is not stored.
	Delete(key string)

	// Size returns the current number of items in the cache
	Size() int
}

// Stats counts cache activity since creation.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	// Discarded counts loads not stored because a Delete overtook them.
	Discarded int64
}
