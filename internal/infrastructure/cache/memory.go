package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hszk-dev/mediafeed/internal/domain/model"
	"github.com/hszk-dev/mediafeed/internal/infrastructure/metrics"
)

type memoryEntry struct {
	page      *model.VideoPage
	expiresAt time.Time
}

// MemoryResultCache is a bounded in-process cache with per-entry TTLs.
// Expired entries are removed when read; the LRU bound evicts the rest.
type MemoryResultCache struct {
	entries *lru.Cache[string, memoryEntry]
	now     func() time.Time
}

// NewMemoryResultCache creates an in-memory cache holding at most maxEntries pages.
func NewMemoryResultCache(maxEntries int) (*MemoryResultCache, error) {
	entries, err := lru.New[string, memoryEntry](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &MemoryResultCache{
		entries: entries,
		now:     time.Now,
	}, nil
}

// Get returns a copy of the cached page, or nil, nil on miss.
func (c *MemoryResultCache) Get(_ context.Context, key string) (*model.VideoPage, error) {
	entry, ok := c.entries.Get(key)
	if !ok {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheTypeMemory).Inc()
		return nil, nil
	}

	if !c.now().Before(entry.expiresAt) {
		c.entries.Remove(key)
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheTypeMemory).Inc()
		return nil, nil
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusHit, metrics.CacheTypeMemory).Inc()
	return clonePage(entry.page), nil
}

// Set stores a copy of page until now+ttl.
func (c *MemoryResultCache) Set(_ context.Context, key string, page *model.VideoPage, ttl time.Duration) error {
	if page == nil || ttl <= 0 {
		return nil
	}

	c.entries.Add(key, memoryEntry{
		page:      clonePage(page),
		expiresAt: c.now().Add(ttl),
	})
	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusSuccess, metrics.CacheTypeMemory).Inc()
	return nil
}

var _ ResultCache = (*MemoryResultCache)(nil)
