// Package youtube implements repository.VideoSearchProvider against the YouTube Data API
// as exposed by RapidAPI. Provider payloads are normalised into model types here and
// never leave the package.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hszk-dev/mediafeed/internal/domain/model"
	"github.com/hszk-dev/mediafeed/internal/domain/repository"
	"github.com/hszk-dev/mediafeed/internal/infrastructure/metrics"
)

const (
	watchURLPrefix = "https://www.youtube.com/watch?v="
	embedURLPrefix = "https://www.youtube.com/embed/"

	errorBodyLimit = 512
)

// ClientConfig holds configuration for the provider client.
type ClientConfig struct {
	APIKey           string
	Host             string        // RapidAPI host, sent as X-RapidAPI-Host
	BaseURL          string        // defaults to https://<Host>
	Timeout          time.Duration // per request
	DefaultThumbnail string
}

// Client implements repository.VideoSearchProvider.
type Client struct {
	httpClient       *http.Client
	baseURL          string
	apiKey           string
	host             string
	defaultThumbnail string
}

// NewClient creates a provider client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://" + cfg.Host
	}
	return &Client{
		httpClient:       &http.Client{Timeout: cfg.Timeout},
		baseURL:          strings.TrimRight(baseURL, "/"),
		apiKey:           cfg.APIKey,
		host:             cfg.Host,
		defaultThumbnail: cfg.DefaultThumbnail,
	}
}

// Search returns one page of videos matching term.
func (c *Client) Search(ctx context.Context, term string, maxResults int, pageToken string) (*model.VideoPage, error) {
	params := url.Values{}
	params.Set("q", term)
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(maxResults))
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	var resp searchResponse
	if err := c.get(ctx, metrics.ProviderOpSearch, "/search", params, &resp); err != nil {
		return nil, err
	}

	page := &model.VideoPage{
		Items:         make([]model.VideoRecord, 0, len(resp.Items)),
		NextPageToken: resp.NextPageToken,
	}
	for _, item := range resp.Items {
		// channels and playlists can appear despite type=video
		if item.ID.VideoID == "" {
			continue
		}
		page.Items = append(page.Items, model.VideoRecord{
			ID:           item.ID.VideoID,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			ThumbnailURL: c.pickThumbnail(item.Snippet.Thumbnails.Medium, item.Snippet.Thumbnails.Default),
			PublishedAt:  parseTime(item.Snippet.PublishedAt),
			Source:       model.SourceExternal,
			VideoURL:     watchURLPrefix + item.ID.VideoID,
			ChannelID:    item.Snippet.ChannelID,
			ChannelTitle: item.Snippet.ChannelTitle,
		})
	}

	return page, nil
}

// VideoDetails looks up a single video including statistics and duration.
func (c *Client) VideoDetails(ctx context.Context, id string) ([]model.VideoRecord, error) {
	params := url.Values{}
	params.Set("part", "snippet,contentDetails,statistics")
	params.Set("id", id)

	var resp videosResponse
	if err := c.get(ctx, metrics.ProviderOpVideos, "/videos", params, &resp); err != nil {
		return nil, err
	}

	records := make([]model.VideoRecord, 0, len(resp.Items))
	for _, item := range resp.Items {
		t := item.Snippet.Thumbnails
		records = append(records, model.VideoRecord{
			ID:           item.ID,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			ThumbnailURL: c.pickThumbnail(t.Maxres, t.High, t.Medium, t.Default),
			PublishedAt:  parseTime(item.Snippet.PublishedAt),
			Source:       model.SourceExternal,
			VideoURL:     embedURLPrefix + item.ID,
			ChannelID:    item.Snippet.ChannelID,
			ChannelTitle: item.Snippet.ChannelTitle,
			CategoryID:   item.Snippet.CategoryID,
			Duration:     item.ContentDetails.Duration,
			Tags:         item.Snippet.Tags,
			Statistics: &model.VideoStatistics{
				ViewCount:    parseCount(item.Statistics.ViewCount),
				LikeCount:    parseCount(item.Statistics.LikeCount),
				CommentCount: parseCount(item.Statistics.CommentCount),
			},
		})
	}

	return records, nil
}

// ChannelDetails looks up a channel by ID.
func (c *Client) ChannelDetails(ctx context.Context, id string) (*model.Channel, error) {
	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("id", id)

	var resp channelsResponse
	if err := c.get(ctx, metrics.ProviderOpChannels, "/channels", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, repository.ErrChannelNotFound
	}

	item := resp.Items[0]
	t := item.Snippet.Thumbnails
	return &model.Channel{
		ID:              item.ID,
		Title:           item.Snippet.Title,
		Description:     item.Snippet.Description,
		ThumbnailURL:    c.pickThumbnail(t.Medium, t.High, t.Default),
		SubscriberCount: parseCount(item.Statistics.SubscriberCount),
		VideoCount:      parseCount(item.Statistics.VideoCount),
	}, nil
}

// get performs one GET request and decodes the JSON body into out.
// Every failure is reported as a *repository.ProviderError.
func (c *Client) get(ctx context.Context, op, path string, params url.Values, out any) (err error) {
	start := time.Now()
	defer func() {
		status := metrics.ProviderStatusSuccess
		if err != nil {
			status = metrics.ProviderStatusError
		}
		metrics.ProviderRequestsTotal.WithLabelValues(op, status).Inc()
		metrics.ProviderRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return &repository.ProviderError{Op: op, Err: err}
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &repository.ProviderError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return &repository.ProviderError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(body))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &repository.ProviderError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// pickThumbnail returns the first non-empty candidate URL, or the configured default.
func (c *Client) pickThumbnail(candidates ...*thumbnail) string {
	for _, t := range candidates {
		if t != nil && t.URL != "" {
			return t.URL
		}
	}
	return c.defaultThumbnail
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

var _ repository.VideoSearchProvider = (*Client)(nil)
