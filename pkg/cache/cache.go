// Package cache provides a thread-safe LRU cache for compiled expressions.
//
// The cache is used by the gowhere evaluator when the WithCaching option is
// enabled and by the document store for its query plans. It avoids lexing and
// parsing the same source text on every call, which matters when one filter
// is applied to many documents or queries are repeated.
//
// # Example
//
//	c := cache.New(1024)
//	expr, err := c.GetOrCompile("return this.price > 100;", compile)
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sandrolain/gowhere/pkg/types"
)

// DefaultCapacity is used when New receives a non positive capacity.
const DefaultCapacity = 256

// Cache is a thread-safe LRU (Least Recently Used) cache for compiled expressions.
// Once the capacity is reached, the least recently accessed entry is evicted.
//
// Safe for concurrent use by multiple goroutines.
type Cache struct {
	capacity int
	lru      *lru.Cache[string, *types.Expression]
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	onEvict func(key string)
}

// WithEvictCallback registers fn to be called with the key of every entry
// dropped to make room for a new one.
func WithEvictCallback(fn func(key string)) Option {
	return func(o *options) {
		o.onEvict = fn
	}
}

// New creates a new LRU cache with the given capacity.
// capacity must be > 0; if <= 0, DefaultCapacity is used.
func New(capacity int, opts ...Option) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var (
		l   *lru.Cache[string, *types.Expression]
		err error
	)
	if o.onEvict != nil {
		l, err = lru.NewWithEvict(capacity, func(key string, _ *types.Expression) {
			o.onEvict(key)
		})
	} else {
		l, err = lru.New[string, *types.Expression](capacity)
	}
	if err != nil {
		// Only returned for a non positive size.
		panic(err)
	}
	return &Cache{capacity: capacity, lru: l}
}

// Get retrieves a compiled expression from the cache and marks it as
// recently used. Returns (nil, false) if not present.
func (c *Cache) Get(key string) (*types.Expression, bool) {
	return c.lru.Get(key)
}

// Set inserts or replaces an expression in the cache.
// If at capacity, the least recently used entry is evicted first.
func (c *Cache) Set(key string, expr *types.Expression) {
	c.lru.Add(key, expr)
}

// GetOrCompile retrieves the expression for key from cache, or calls compile()
// to create it, caches the result, and returns it.
// Errors are not cached. Concurrent misses on the same key may compile more
// than once; the first stored expression wins.
func (c *Cache) GetOrCompile(key string, compile func() (*types.Expression, error)) (*types.Expression, error) {
	if expr, ok := c.lru.Get(key); ok {
		return expr, nil
	}
	expr, err := compile()
	if err != nil {
		return nil, err
	}
	if prev, ok, _ := c.lru.PeekOrAdd(key, expr); ok {
		return prev, nil
	}
	return expr, nil
}

// Len returns the number of entries currently in the cache.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Capacity returns the maximum number of entries the cache can hold.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Keys returns the cached keys from least to most recently used.
func (c *Cache) Keys() []string {
	return c.lru.Keys()
}

// Invalidate removes a single entry from the cache.
func (c *Cache) Invalidate(key string) {
	c.lru.Remove(key)
}

// Clear removes all entries from the cache.
func (c *Cache) Clear() {
	c.lru.Purge()
}
