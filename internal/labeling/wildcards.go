package labeling

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yanizio/jye-barcode/internal/store"
)

// wildcardLoadTimeout bounds a shared load, which no single caller owns.
const wildcardLoadTimeout = 10 * time.Second

// wildcardCache holds the distinct-wildcard list for a short TTL.  Concurrent
// misses share one store round-trip through singleflight.
type wildcardCache struct {
	gw  store.Gateway
	ttl time.Duration
	sfg singleflight.Group

	mu       sync.Mutex
	list     []string
	loadedAt time.Time
	gen      uint64 // bumped on invalidate; stale loads are not stored
	now      func() time.Time
}

func newWildcardCache(gw store.Gateway, ttl time.Duration) *wildcardCache {
	return &wildcardCache{gw: gw, ttl: ttl, now: time.Now}
}

func (c *wildcardCache) get(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	if c.list != nil && c.now().Sub(c.loadedAt) < c.ttl {
		out := append([]string(nil), c.list...)
		c.mu.Unlock()
		return out, nil
	}
	gen := c.gen
	c.mu.Unlock()

	ch := c.sfg.DoChan("wildcards", func() (interface{}, error) {
		// Double-check after singleflight barrier.
		c.mu.Lock()
		if c.list != nil && c.gen == gen && c.now().Sub(c.loadedAt) < c.ttl {
			list := c.list
			c.mu.Unlock()
			return list, nil
		}
		c.mu.Unlock()

		// Shared by every waiter, so it outlives the first caller.
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), wildcardLoadTimeout)
		defer cancel()
		list, err := c.gw.DistinctWildcards(lctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.list = list
			c.loadedAt = c.now()
		}
		c.mu.Unlock()
		return list, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return append([]string(nil), res.Val.([]string)...), nil
	}
}

// invalidate drops the cached list after a write.
func (c *wildcardCache) invalidate() {
	c.mu.Lock()
	c.list = nil
	c.gen++
	c.mu.Unlock()
}
