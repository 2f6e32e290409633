package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hszk-dev/mediafeed/internal/domain/model"
	"github.com/hszk-dev/mediafeed/internal/domain/repository"
)

// mockMediaRepository provides a configurable mock for MediaRepository.
type mockMediaRepository struct {
	createFn         func(ctx context.Context, media *model.StoredMedia) error
	getByIDFn        func(ctx context.Context, id int64) (*model.StoredMedia, error)
	listByCategoryFn func(ctx context.Context, category string) ([]*model.StoredMedia, error)
	searchFn         func(ctx context.Context, term string, limit int) ([]*model.StoredMedia, error)
}

func (m *mockMediaRepository) Create(ctx context.Context, media *model.StoredMedia) error {
	if m.createFn != nil {
		return m.createFn(ctx, media)
	}
	return nil
}

func (m *mockMediaRepository) GetByID(ctx context.Context, id int64) (*model.StoredMedia, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, repository.ErrVideoNotFound
}

func (m *mockMediaRepository) ListByCategory(ctx context.Context, category string) ([]*model.StoredMedia, error) {
	if m.listByCategoryFn != nil {
		return m.listByCategoryFn(ctx, category)
	}
	return []*model.StoredMedia{}, nil
}

func (m *mockMediaRepository) Search(ctx context.Context, term string, limit int) ([]*model.StoredMedia, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, term, limit)
	}
	return []*model.StoredMedia{}, nil
}

// mockObjectStorage provides a configurable mock for ObjectStorage.
type mockObjectStorage struct {
	generatePresignedUploadURLFn   func(ctx context.Context, key string, expiry time.Duration) (string, error)
	generatePresignedDownloadURLFn func(ctx context.Context, key string, expiry time.Duration) (string, error)
	existsFn                       func(ctx context.Context, key string) (bool, error)
}

func (m *mockObjectStorage) GeneratePresignedUploadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if m.generatePresignedUploadURLFn != nil {
		return m.generatePresignedUploadURLFn(ctx, key, expiry)
	}
	return "http://example.com/upload", nil
}

func (m *mockObjectStorage) GeneratePresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if m.generatePresignedDownloadURLFn != nil {
		return m.generatePresignedDownloadURLFn(ctx, key, expiry)
	}
	return "http://example.com/download", nil
}

func (m *mockObjectStorage) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return true, nil
}

// mockMessageQueue provides a configurable mock for MessageQueue.
type mockMessageQueue struct {
	publishFn func(ctx context.Context, event repository.MediaUploadedEvent) error
	consumeFn func(ctx context.Context, handler func(event repository.MediaUploadedEvent) error) error
	closeFn   func() error
}

func (m *mockMessageQueue) PublishMediaUploaded(ctx context.Context, event repository.MediaUploadedEvent) error {
	if m.publishFn != nil {
		return m.publishFn(ctx, event)
	}
	return nil
}

func (m *mockMessageQueue) ConsumeMediaUploaded(ctx context.Context, handler func(event repository.MediaUploadedEvent) error) error {
	if m.consumeFn != nil {
		return m.consumeFn(ctx, handler)
	}
	return nil
}

func (m *mockMessageQueue) Close() error {
	if m.closeFn != nil {
		return m.closeFn()
	}
	return nil
}

// mockProvider provides a configurable mock for VideoSearchProvider.
// Call counters let tests assert how often the upstream was reached.
type mockProvider struct {
	searchFn         func(ctx context.Context, term string, maxResults int, pageToken string) (*model.VideoPage, error)
	videoDetailsFn   func(ctx context.Context, id string) ([]model.VideoRecord, error)
	channelDetailsFn func(ctx context.Context, id string) (*model.Channel, error)

	searchCalls  atomic.Int32
	detailsCalls atomic.Int32
	channelCalls atomic.Int32
}

func (m *mockProvider) Search(ctx context.Context, term string, maxResults int, pageToken string) (*model.VideoPage, error) {
	m.searchCalls.Add(1)
	if m.searchFn != nil {
		return m.searchFn(ctx, term, maxResults, pageToken)
	}
	return &model.VideoPage{}, nil
}

func (m *mockProvider) VideoDetails(ctx context.Context, id string) ([]model.VideoRecord, error) {
	m.detailsCalls.Add(1)
	if m.videoDetailsFn != nil {
		return m.videoDetailsFn(ctx, id)
	}
	return nil, nil
}

func (m *mockProvider) ChannelDetails(ctx context.Context, id string) (*model.Channel, error) {
	m.channelCalls.Add(1)
	if m.channelDetailsFn != nil {
		return m.channelDetailsFn(ctx, id)
	}
	return nil, repository.ErrChannelNotFound
}

// mockMetadataStore provides a configurable mock for MetadataStore.
type mockMetadataStore struct {
	findByCategoryFn func(ctx context.Context, category string) ([]model.VideoRecord, error)
	searchFn         func(ctx context.Context, term string, limit int) ([]model.VideoRecord, error)
	findByIDFn       func(ctx context.Context, id string) (*model.VideoRecord, error)

	categoryCalls atomic.Int32
	searchCalls   atomic.Int32
	findCalls     atomic.Int32
}

func (m *mockMetadataStore) FindByCategory(ctx context.Context, category string) ([]model.VideoRecord, error) {
	m.categoryCalls.Add(1)
	if m.findByCategoryFn != nil {
		return m.findByCategoryFn(ctx, category)
	}
	return []model.VideoRecord{}, nil
}

func (m *mockMetadataStore) Search(ctx context.Context, term string, limit int) ([]model.VideoRecord, error) {
	m.searchCalls.Add(1)
	if m.searchFn != nil {
		return m.searchFn(ctx, term, limit)
	}
	return []model.VideoRecord{}, nil
}

func (m *mockMetadataStore) FindByID(ctx context.Context, id string) (*model.VideoRecord, error) {
	m.findCalls.Add(1)
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, repository.ErrVideoNotFound
}

// mockResultCache is a map-backed ResultCache that ignores TTLs.
type mockResultCache struct {
	mu    sync.RWMutex
	data  map[string]*model.VideoPage
	ttls  map[string]time.Duration
	getFn func(ctx context.Context, key string) (*model.VideoPage, error)
	setFn func(ctx context.Context, key string, page *model.VideoPage, ttl time.Duration) error
}

func newMockResultCache() *mockResultCache {
	return &mockResultCache{
		data: make(map[string]*model.VideoPage),
		ttls: make(map[string]time.Duration),
	}
}

func (m *mockResultCache) Get(ctx context.Context, key string) (*model.VideoPage, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key], nil
}

func (m *mockResultCache) Set(ctx context.Context, key string, page *model.VideoPage, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, page, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = page
	m.ttls[key] = ttl
	return nil
}

func (m *mockResultCache) ttl(key string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ttls[key]
}

// externalRecords builds provider records with IDs prefix+"a", prefix+"b" and so on.
func externalRecords(prefix string, n int) []model.VideoRecord {
	records := make([]model.VideoRecord, n)
	for i := range records {
		records[i] = model.VideoRecord{
			ID:     prefix + string(rune('a'+i)),
			Title:  "External " + prefix,
			Source: model.SourceExternal,
		}
	}
	return records
}

// internalRecords builds stored records with IDs db_1..db_n.
func internalRecords(n int) []model.VideoRecord {
	records := make([]model.VideoRecord, n)
	for i := range records {
		records[i] = model.VideoRecord{
			ID:     model.InternalID(int64(i + 1)),
			Title:  "Stored",
			Source: model.SourceInternal,
		}
	}
	return records
}
