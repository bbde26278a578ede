package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// LRU is a Cache with TTL and size-based eviction, safe for concurrent use.
type LRU[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	order   *list.List
	now     func() time.Time

	// epoch advances on every Delete so racing loads can tell they are stale.
	epoch uint64
	stats Stats
}

var _ Cache[int] = (*LRU[int])(nil)

type entry[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

// NewLRU holds at most maxSize keys (at least one), each for ttl.
func NewLRU[T any](maxSize int, ttl time.Duration) *LRU[T] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LRU[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

// Get returns a live entry and marks it most recently used.
func (c *LRU[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key)
}

func (c *LRU[T]) getLocked(key string) (T, bool) {
	var zero T
	elem, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}
	e := elem.Value.(*entry[T])
	if c.now().After(e.expiresAt) {
		c.remove(elem)
		c.stats.Misses++
		return zero, false
	}
	c.order.MoveToFront(elem)
	c.stats.Hits++
	return e.data, true
}

// GetOrLoad runs load outside the lock, so concurrent misses on one key
// may each load. The result is stored only if no Delete ran meanwhile.
// Load errors are returned and never cached.
func (c *LRU[T]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	if v, ok := c.getLocked(key); ok {
		c.mu.Unlock()
		return v, nil
	}
	epoch := c.epoch
	c.mu.Unlock()

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		c.stats.Discarded++
		return v, nil
	}
	c.setLocked(key, v)
	return v, nil
}

// Set stores data under key, evicting the least recently used key when full.
func (c *LRU[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, data)
}

func (c *LRU[T]) setLocked(key string, data T) {
	e := &entry[T]{key: key, data: data, expiresAt: c.now().Add(c.ttl)}
	if elem, ok := c.items[key]; ok {
		elem.Value = e
		c.order.MoveToFront(elem)
		return
	}
	c.items[key] = c.order.PushFront(e)
	for c.order.Len() > c.maxSize {
		c.remove(c.order.Back())
		c.stats.Evictions++
	}
}

func (c *LRU[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	if elem, ok := c.items[key]; ok {
		c.remove(elem)
	}
}

func (c *LRU[T]) remove(elem *list.Element) {
	delete(c.items, elem.Value.(*entry[T]).key)
	c.order.Remove(elem)
}

func (c *LRU[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns a snapshot of the counters.
func (c *LRU[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
