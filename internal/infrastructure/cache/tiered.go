package cache

import (
	"context"
	"time"

	"github.com/hszk-dev/mediafeed/internal/domain/model"
)

// TieredResultCache checks the in-process cache first and falls back to Redis.
// Redis hits are promoted into memory with their remaining TTL, so a promoted entry
// never outlives the Redis one.
type TieredResultCache struct {
	l1 *MemoryResultCache
	l2 *RedisResultCache
}

// NewTieredResultCache combines a memory cache (L1) with a Redis cache (L2).
func NewTieredResultCache(l1 *MemoryResultCache, l2 *RedisResultCache) *TieredResultCache {
	return &TieredResultCache{l1: l1, l2: l2}
}

func (c *TieredResultCache) Get(ctx context.Context, key string) (*model.VideoPage, error) {
	if page, _ := c.l1.Get(ctx, key); page != nil {
		return page, nil
	}

	page, ttl, err := c.l2.GetWithTTL(ctx, key)
	if err != nil || page == nil {
		return nil, err
	}

	// PTTL reports a negative value for keys without expiry; those are not promoted.
	if ttl > 0 {
		_ = c.l1.Set(ctx, key, page, ttl)
	}
	return page, nil
}

func (c *TieredResultCache) Set(ctx context.Context, key string, page *model.VideoPage, ttl time.Duration) error {
	_ = c.l1.Set(ctx, key, page, ttl)
	return c.l2.Set(ctx, key, page, ttl)
}

var _ ResultCache = (*TieredResultCache)(nil)
