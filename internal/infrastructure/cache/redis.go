package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/mediafeed/internal/domain/model"
	"github.com/hszk-dev/mediafeed/internal/infrastructure/metrics"
)

// pageJSON is the JSON representation of a VideoPage for caching.
// Using explicit structs avoids coupling the domain model to a wire format.
type pageJSON struct {
	Items         []videoJSON `json:"items"`
	NextPageToken string      `json:"next_page_token,omitempty"`
}

type videoJSON struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty"`
	PublishedAt  string     `json:"published_at,omitempty"`
	Source       string     `json:"source"`
	VideoURL     string     `json:"video_url,omitempty"`
	ChannelID    string     `json:"channel_id,omitempty"`
	ChannelTitle string     `json:"channel_title,omitempty"`
	CategoryID   string     `json:"category_id,omitempty"`
	Statistics   *statsJSON `json:"statistics,omitempty"`
	FileName     string     `json:"file_name,omitempty"`
	FileType     string     `json:"file_type,omitempty"`
	Size         int64      `json:"size,omitempty"`
	Format       string     `json:"format,omitempty"`
	Duration     string     `json:"duration,omitempty"`
	Resolution   string     `json:"resolution,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	Category     string     `json:"category,omitempty"`
}

type statsJSON struct {
	ViewCount    int64 `json:"view_count"`
	LikeCount    int64 `json:"like_count"`
	CommentCount int64 `json:"comment_count"`
}

// RedisResultCache implements ResultCache using Redis as the backing store.
// Expiry is enforced by Redis key TTLs.
type RedisResultCache struct {
	client *redis.Client
}

// NewRedisResultCache creates a new Redis-backed result cache.
func NewRedisResultCache(client *redis.Client) *RedisResultCache {
	return &RedisResultCache{
		client: client,
	}
}

// Get retrieves a page from Redis cache.
// Returns nil, nil on cache miss.
func (c *RedisResultCache) Get(ctx context.Context, key string) (*model.VideoPage, error) {
	page, _, err := c.GetWithTTL(ctx, key)
	return page, err
}

// GetWithTTL retrieves a page together with its remaining time to live.
// Returns nil, 0, nil on cache miss.
func (c *RedisResultCache) GetWithTTL(ctx context.Context, key string) (*model.VideoPage, time.Duration, error) {
	var (
		getCmd *redis.StringCmd
		ttlCmd *redis.DurationCmd
	)
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		getCmd = pipe.Get(ctx, key)
		ttlCmd = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheTypeRedis).Inc()
			return nil, 0, nil
		}
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return nil, 0, fmt.Errorf("redis get: %w", err)
	}

	data, err := getCmd.Bytes()
	if err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return nil, 0, fmt.Errorf("redis get: %w", err)
	}

	page, err := c.deserialize(data)
	if err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return nil, 0, fmt.Errorf("deserialize page: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusHit, metrics.CacheTypeRedis).Inc()
	return page, ttlCmd.Val(), nil
}

// Set stores a page in Redis cache with the specified TTL.
func (c *RedisResultCache) Set(ctx context.Context, key string, page *model.VideoPage, ttl time.Duration) error {
	if page == nil || ttl <= 0 {
		return nil
	}

	data, err := c.serialize(page)
	if err != nil {
		return fmt.Errorf("serialize page: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusSuccess, metrics.CacheTypeRedis).Inc()
	return nil
}

// Ping verifies the Redis connection is alive.
func (c *RedisResultCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// serialize converts a VideoPage to JSON bytes.
func (c *RedisResultCache) serialize(page *model.VideoPage) ([]byte, error) {
	p := pageJSON{
		Items:         make([]videoJSON, 0, len(page.Items)),
		NextPageToken: page.NextPageToken,
	}
	for _, v := range page.Items {
		item := videoJSON{
			ID:           v.ID,
			Title:        v.Title,
			Description:  v.Description,
			ThumbnailURL: v.ThumbnailURL,
			Source:       string(v.Source),
			VideoURL:     v.VideoURL,
			ChannelID:    v.ChannelID,
			ChannelTitle: v.ChannelTitle,
			CategoryID:   v.CategoryID,
			FileName:     v.FileName,
			FileType:     v.FileType,
			Size:         v.Size,
			Format:       v.Format,
			Duration:     v.Duration,
			Resolution:   v.Resolution,
			Tags:         v.Tags,
			Category:     v.Category,
		}
		if !v.PublishedAt.IsZero() {
			item.PublishedAt = v.PublishedAt.Format(time.RFC3339Nano)
		}
		if v.Statistics != nil {
			item.Statistics = &statsJSON{
				ViewCount:    v.Statistics.ViewCount,
				LikeCount:    v.Statistics.LikeCount,
				CommentCount: v.Statistics.CommentCount,
			}
		}
		p.Items = append(p.Items, item)
	}
	return json.Marshal(p)
}

// deserialize converts JSON bytes to a VideoPage.
func (c *RedisResultCache) deserialize(data []byte) (*model.VideoPage, error) {
	var p pageJSON
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}

	page := &model.VideoPage{
		Items:         make([]model.VideoRecord, 0, len(p.Items)),
		NextPageToken: p.NextPageToken,
	}
	for _, item := range p.Items {
		source := model.Source(item.Source)
		if !source.IsValid() {
			return nil, fmt.Errorf("invalid source %q for %s", item.Source, item.ID)
		}

		v := model.VideoRecord{
			ID:           item.ID,
			Title:        item.Title,
			Description:  item.Description,
			ThumbnailURL: item.ThumbnailURL,
			Source:       source,
			VideoURL:     item.VideoURL,
			ChannelID:    item.ChannelID,
			ChannelTitle: item.ChannelTitle,
			CategoryID:   item.CategoryID,
			FileName:     item.FileName,
			FileType:     item.FileType,
			Size:         item.Size,
			Format:       item.Format,
			Duration:     item.Duration,
			Resolution:   item.Resolution,
			Tags:         item.Tags,
			Category:     item.Category,
		}
		if item.PublishedAt != "" {
			publishedAt, err := time.Parse(time.RFC3339Nano, item.PublishedAt)
			if err != nil {
				return nil, fmt.Errorf("parse published_at: %w", err)
			}
			v.PublishedAt = publishedAt
		}
		if item.Statistics != nil {
			v.Statistics = &model.VideoStatistics{
				ViewCount:    item.Statistics.ViewCount,
				LikeCount:    item.Statistics.LikeCount,
				CommentCount: item.Statistics.CommentCount,
			}
		}
		page.Items = append(page.Items, v)
	}

	return page, nil
}

var _ ResultCache = (*RedisResultCache)(nil)
