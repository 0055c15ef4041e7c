package catalog

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/aluiziolira/go-books-catalog/metrics"
)

// memo caches the results of pure computations over an immutable store.
// Concurrent misses on the same key share one computation.
type memo[K comparable, V any] struct {
	name    string
	entries *lru.Cache[K, V]
	group   singleflight.Group
	metrics *metrics.Metrics
}

// newMemo returns nil when size is not positive, which disables caching.
func newMemo[K comparable, V any](name string, size int, m *metrics.Metrics) *memo[K, V] {
	if size <= 0 {
		return nil
	}
	entries, err := lru.New[K, V](size)
	if err != nil {
		return nil
	}
	return &memo[K, V]{name: name, entries: entries, metrics: m}
}

func (c *memo[K, V]) get(key K, compute func() V) V {
	if c == nil {
		return compute()
	}
	if v, ok := c.entries.Get(key); ok {
		c.metrics.IncCacheHit(c.name)
		return v
	}
	c.metrics.IncCacheMiss(c.name)

	v, _, _ := c.group.Do(fmt.Sprint(key), func() (any, error) {
		if v, ok := c.entries.Get(key); ok {
			return v, nil
		}
		v := compute()
		c.entries.Add(key, v)
		return v, nil
	})
	return v.(V)
}

func (c *memo[K, V]) len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}
