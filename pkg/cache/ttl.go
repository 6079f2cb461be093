package cache

import (
	"context"
	"time"
)

// TTLCache caps the expiry of every entry written through it. Entries that
// would never expire get the cap as well.
type TTLCache struct {
	Cache
	max time.Duration
}

// WithMaxTTL wraps c so no entry outlives max. A non-positive max returns
// c unchanged.
func WithMaxTTL(c Cache, max time.Duration) Cache {
	if max <= 0 {
		return c
	}
	return &TTLCache{Cache: c, max: max}
}

// Set stores data with min(ttl, max) as expiry.
func (c *TTLCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 || ttl > c.max {
		ttl = c.max
	}
	return c.Cache.Set(ctx, key, data, ttl)
}
