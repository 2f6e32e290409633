package cache

import (
	"context"
	"slices"
	"time"

	"github.com/hszk-dev/mediafeed/internal/domain/model"
)

// ResultCache defines the interface for caching normalized provider responses.
// Implementations never serve an entry past its TTL.
type ResultCache interface {
	// Get retrieves a cached page by key.
	// Returns nil, nil if the key is absent or expired (cache miss).
	Get(ctx context.Context, key string) (*model.VideoPage, error)

	// Set stores a page under key for ttl. A non-positive ttl stores nothing.
	// Concurrent writers of the same key are last-write-wins.
	Set(ctx context.Context, key string, page *model.VideoPage, ttl time.Duration) error
}

// clonePage returns a copy that shares no mutable state with page.
func clonePage(page *model.VideoPage) *model.VideoPage {
	if page == nil {
		return nil
	}
	items := make([]model.VideoRecord, len(page.Items))
	for i, item := range page.Items {
		item.Tags = slices.Clone(item.Tags)
		if item.Statistics != nil {
			stats := *item.Statistics
			item.Statistics = &stats
		}
		items[i] = item
	}
	return &model.VideoPage{Items: items, NextPageToken: page.NextPageToken}
}
