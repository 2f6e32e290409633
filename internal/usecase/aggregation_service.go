package usecase

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/hszk-dev/mediafeed/internal/domain/model"
	"github.com/hszk-dev/mediafeed/internal/domain/repository"
	"github.com/hszk-dev/mediafeed/internal/infrastructure/cache"
	"github.com/hszk-dev/mediafeed/internal/infrastructure/metrics"
)

var (
	// ErrInvalidCategory is returned when a category is not on the allow-list.
	ErrInvalidCategory = errors.New("invalid category")

	// ErrInvalidQuery is returned when a search term is blank.
	ErrInvalidQuery = errors.New("search term is required and cannot be empty")

	// ErrInvalidSource is returned when a lookup names a source other than external or internal.
	ErrInvalidSource = model.ErrInvalidSource

	// ErrSourcesUnavailable is returned when every source of an aggregation failed.
	// The returned error also wraps each source's cause.
	ErrSourcesUnavailable = errors.New("all video sources are unavailable")
)

const (
	cacheScopeCategory = "category"
	cacheScopeSearch   = "search"
)

// OutcomeStatus explains how a source contributed to an aggregation.
type OutcomeStatus string

const (
	OutcomeOK     OutcomeStatus = "ok"
	OutcomeEmpty  OutcomeStatus = "empty"
	OutcomeFailed OutcomeStatus = "failed"
)

// SourceOutcome records what happened to one source during an aggregation.
// Err is set only when Status is OutcomeFailed.
type SourceOutcome struct {
	Status    OutcomeStatus
	Err       error
	FromCache bool
}

// AggregatedResult is the merged, source-tagged response of ByCategory and Search.
// Items holds ExternalItems followed by InternalItems.
type AggregatedResult struct {
	// Query is the resolved category or the trimmed search term.
	Query         string
	Items         []model.VideoRecord
	ExternalItems []model.VideoRecord
	InternalItems []model.VideoRecord
	NextPageToken string
	ExternalCount int
	InternalCount int
	External      SourceOutcome
	Internal      SourceOutcome
}

// AggregationService merges provider and stored results.
type AggregationService interface {
	// ByCategory lists one provider page for category plus every stored record in it.
	// An empty category selects the configured default.
	ByCategory(ctx context.Context, category, pageToken string) (*AggregatedResult, error)

	// Search queries both sources concurrently, splitting maxResults between them.
	Search(ctx context.Context, term string, maxResults int) (*AggregatedResult, error)

	// ByID looks up a single record in the named source.
	ByID(ctx context.Context, id, source string) (*model.VideoRecord, error)

	// Channel looks up a provider channel.
	Channel(ctx context.Context, id string) (*model.Channel, error)

	// Categories returns the allow-list in configured order.
	Categories() []string
}

// AggregationConfig holds configuration for AggregationService.
type AggregationConfig struct {
	Categories       []string
	DefaultCategory  string
	CategoryPageSize int

	// ListingTTL applies to provider category and search pages.
	ListingTTL time.Duration
	// DetailTTL applies to single-video provider lookups.
	DetailTTL time.Duration

	DefaultSearchResults int
	MaxSearchResults     int
}

// DefaultAggregationConfig returns the default configuration.
func DefaultAggregationConfig() AggregationConfig {
	return AggregationConfig{
		Categories:           []string{"training", "New", "Home", "programming", "music", "sports", "news", "Atlanta"},
		DefaultCategory:      "New",
		CategoryPageSize:     5,
		ListingTTL:           300 * time.Second,
		DetailTTL:            3600 * time.Second,
		DefaultSearchResults: 10,
		MaxSearchResults:     100,
	}
}

type aggregationService struct {
	provider repository.VideoSearchProvider
	store    MetadataStore
	cache    cache.ResultCache
	sfGroup  singleflight.Group

	cfg AggregationConfig
}

// NewAggregationService creates a new AggregationService.
func NewAggregationService(
	provider repository.VideoSearchProvider,
	store MetadataStore,
	resultCache cache.ResultCache,
	cfg AggregationConfig,
) AggregationService {
	return &aggregationService{
		provider: provider,
		store:    store,
		cache:    resultCache,
		cfg:      cfg,
	}
}

// sourceResult is what one fan-out branch hands to the join.
type sourceResult struct {
	items         []model.VideoRecord
	nextPageToken string
	outcome       SourceOutcome
}

func succeeded(items []model.VideoRecord, fromCache bool) sourceResult {
	status := OutcomeOK
	if len(items) == 0 {
		status = OutcomeEmpty
	}
	return sourceResult{items: items, outcome: SourceOutcome{Status: status, FromCache: fromCache}}
}

func failed(err error) sourceResult {
	return sourceResult{outcome: SourceOutcome{Status: OutcomeFailed, Err: err}}
}

func (s *aggregationService) ByCategory(ctx context.Context, category, pageToken string) (*AggregatedResult, error) {
	if category == "" {
		category = s.cfg.DefaultCategory
	}
	if !slices.Contains(s.cfg.Categories, category) {
		return nil, ErrInvalidCategory
	}

	var external, internal sourceResult
	var g errgroup.Group
	g.Go(func() error {
		external = s.providerPage(ctx, cacheScopeCategory, category, s.cfg.CategoryPageSize, pageToken)
		return nil
	})
	g.Go(func() error {
		records, err := s.store.FindByCategory(ctx, category)
		if err != nil {
			internal = failed(err)
			return nil
		}
		internal = succeeded(records, false)
		return nil
	})
	_ = g.Wait()

	return s.join(metrics.AggregationCategory, category, external, internal)
}

func (s *aggregationService) Search(ctx context.Context, term string, maxResults int) (*AggregatedResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrInvalidQuery
	}

	budget := s.perSourceBudget(maxResults)

	var external, internal sourceResult
	var g errgroup.Group
	g.Go(func() error {
		external = s.providerPage(ctx, cacheScopeSearch, term, budget, "")
		external.items = truncate(dedupe(external.items), budget)
		return nil
	})
	g.Go(func() error {
		records, err := s.store.Search(ctx, term, budget)
		if err != nil {
			internal = failed(err)
			return nil
		}
		internal = succeeded(truncate(dedupe(records), budget), false)
		return nil
	})
	_ = g.Wait()

	return s.join(metrics.AggregationSearch, term, external, internal)
}

// perSourceBudget normalises maxResults and returns ceil(n/2), never below 1.
func (s *aggregationService) perSourceBudget(maxResults int) int {
	n := maxResults
	if n <= 0 {
		n = s.cfg.DefaultSearchResults
	}
	if s.cfg.MaxSearchResults > 0 && n > s.cfg.MaxSearchResults {
		n = s.cfg.MaxSearchResults
	}
	return max((n+1)/2, 1)
}

// providerPage serves a provider search page through the listing cache.
func (s *aggregationService) providerPage(ctx context.Context, scope, term string, maxResults int, pageToken string) sourceResult {
	key := cache.QueryKey(scope, term, maxResults, pageToken)

	if page := s.cacheGet(ctx, key); page != nil {
		result := succeeded(page.Items, true)
		result.nextPageToken = page.NextPageToken
		return result
	}

	page, err := s.provider.Search(ctx, term, maxResults, pageToken)
	if err != nil {
		return failed(err)
	}

	s.cacheSet(ctx, key, page, s.cfg.ListingTTL)

	result := succeeded(page.Items, false)
	result.nextPageToken = page.NextPageToken
	return result
}

// join concatenates external then internal records.
// A failed source contributes nothing; only a failure of both is returned as an error.
func (s *aggregationService) join(operation, query string, external, internal sourceResult) (*AggregatedResult, error) {
	if external.outcome.Status == OutcomeFailed && internal.outcome.Status == OutcomeFailed {
		s.recordDegraded(operation, model.SourceExternal, external.outcome.Err)
		s.recordDegraded(operation, model.SourceInternal, internal.outcome.Err)
		return nil, errors.Join(ErrSourcesUnavailable, external.outcome.Err, internal.outcome.Err)
	}
	if external.outcome.Status == OutcomeFailed {
		s.recordDegraded(operation, model.SourceExternal, external.outcome.Err)
	}
	if internal.outcome.Status == OutcomeFailed {
		s.recordDegraded(operation, model.SourceInternal, internal.outcome.Err)
	}

	externalItems := dedupe(external.items)
	internalItems := dedupe(internal.items)

	items := make([]model.VideoRecord, 0, len(externalItems)+len(internalItems))
	items = append(items, externalItems...)
	items = append(items, internalItems...)

	return &AggregatedResult{
		Query:         query,
		Items:         items,
		ExternalItems: externalItems,
		InternalItems: internalItems,
		NextPageToken: external.nextPageToken,
		ExternalCount: len(externalItems),
		InternalCount: len(internalItems),
		External:      external.outcome,
		Internal:      internal.outcome,
	}, nil
}

func (s *aggregationService) recordDegraded(operation string, source model.Source, err error) {
	slog.Warn("video source degraded to empty result",
		"operation", operation,
		"source", source,
		"error", err,
	)
	metrics.SourceDegradedTotal.WithLabelValues(source.String(), operation).Inc()
}

func (s *aggregationService) ByID(ctx context.Context, id, source string) (*model.VideoRecord, error) {
	src, err := model.ParseSource(source)
	if err != nil {
		return nil, ErrInvalidSource
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, model.ErrInvalidID
	}

	if src == model.SourceInternal {
		return s.store.FindByID(ctx, id)
	}
	return s.externalDetail(ctx, id)
}

// externalDetail implements cache-aside for provider detail lookups.
// Concurrent misses for the same ID share one provider call.
func (s *aggregationService) externalDetail(ctx context.Context, id string) (*model.VideoRecord, error) {
	key := cache.DetailKey(model.SourceExternal.String(), id)

	if page := s.cacheGet(ctx, key); page != nil && len(page.Items) > 0 {
		record := page.Items[0]
		return &record, nil
	}

	// The shared lookup outlives any single caller; an aborted request only stops waiting.
	flightCtx := context.WithoutCancel(ctx)
	ch := s.sfGroup.DoChan(key, func() (any, error) {
		records, err := s.provider.VideoDetails(flightCtx, id)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, repository.ErrVideoNotFound
		}

		s.cacheSet(flightCtx, key, &model.VideoPage{Items: records[:1]}, s.cfg.DetailTTL)
		return records[0], nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}

	if res.Shared {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
	} else {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
	}

	if res.Err != nil {
		return nil, res.Err
	}

	record := res.Val.(model.VideoRecord)
	return &record, nil
}

func (s *aggregationService) Channel(ctx context.Context, id string) (*model.Channel, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, model.ErrInvalidID
	}
	return s.provider.ChannelDetails(ctx, id)
}

func (s *aggregationService) Categories() []string {
	return slices.Clone(s.cfg.Categories)
}

// cacheGet treats cache errors as misses.
func (s *aggregationService) cacheGet(ctx context.Context, key string) *model.VideoPage {
	page, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("cache get failed, falling back to provider",
			"key", key,
			"error", err,
		)
		return nil
	}
	return page
}

func (s *aggregationService) cacheSet(ctx context.Context, key string, page *model.VideoPage, ttl time.Duration) {
	if err := s.cache.Set(ctx, key, page, ttl); err != nil {
		slog.Warn("failed to cache provider result",
			"key", key,
			"error", err,
		)
	}
}

// dedupe drops repeated IDs within one source, keeping the first occurrence.
func dedupe(items []model.VideoRecord) []model.VideoRecord {
	seen := make(map[string]struct{}, len(items))
	out := make([]model.VideoRecord, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	return out
}

func truncate(items []model.VideoRecord, n int) []model.VideoRecord {
	if len(items) > n {
		return items[:n]
	}
	return items
}
