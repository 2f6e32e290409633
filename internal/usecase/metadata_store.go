package usecase

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/hszk-dev/mediafeed/internal/domain/model"
	"github.com/hszk-dev/mediafeed/internal/domain/repository"
)

// MetadataStore is the read contract the aggregation core needs from stored media.
// Rows come back already mapped to VideoRecord with db_-prefixed IDs.
type MetadataStore interface {
	// FindByCategory returns every record in category, newest first.
	FindByCategory(ctx context.Context, category string) ([]model.VideoRecord, error)

	// Search returns at most limit records matching term, most recently updated first.
	Search(ctx context.Context, term string, limit int) ([]model.VideoRecord, error)

	// FindByID accepts "db_<n>" or "<n>".
	// Returns model.ErrInvalidID for malformed IDs and repository.ErrVideoNotFound for missing rows.
	FindByID(ctx context.Context, id string) (*model.VideoRecord, error)
}

// MetadataStoreConfig holds configuration for MetadataStore.
type MetadataStoreConfig struct {
	DefaultThumbnail string
	// PlaybackURLExpiry bounds presigned GET URLs for rows that store a bucket key.
	PlaybackURLExpiry time.Duration
}

// DefaultMetadataStoreConfig returns the default configuration.
func DefaultMetadataStoreConfig() MetadataStoreConfig {
	return MetadataStoreConfig{
		DefaultThumbnail:  "https://youtubeapi-frontend-statics3.s3.us-east-1.amazonaws.com/assets/default-thumbnail.png",
		PlaybackURLExpiry: time.Hour,
	}
}

type metadataStore struct {
	repo    repository.MediaRepository
	storage repository.ObjectStorage

	defaultThumbnail  string
	playbackURLExpiry time.Duration
}

// NewMetadataStore creates a MetadataStore over the media repository.
// storage may be nil, in which case file URLs are returned exactly as stored.
func NewMetadataStore(
	repo repository.MediaRepository,
	storage repository.ObjectStorage,
	cfg MetadataStoreConfig,
) MetadataStore {
	return &metadataStore{
		repo:              repo,
		storage:           storage,
		defaultThumbnail:  cfg.DefaultThumbnail,
		playbackURLExpiry: cfg.PlaybackURLExpiry,
	}
}

func (s *metadataStore) FindByCategory(ctx context.Context, category string) ([]model.VideoRecord, error) {
	rows, err := s.repo.ListByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	return s.toRecords(ctx, rows), nil
}

func (s *metadataStore) Search(ctx context.Context, term string, limit int) ([]model.VideoRecord, error) {
	rows, err := s.repo.Search(ctx, term, limit)
	if err != nil {
		return nil, err
	}
	return s.toRecords(ctx, rows), nil
}

func (s *metadataStore) FindByID(ctx context.Context, id string) (*model.VideoRecord, error) {
	rowID, err := model.ParseInternalID(id)
	if err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, rowID)
	if err != nil {
		return nil, err
	}

	record := s.toRecord(ctx, row)
	return &record, nil
}

func (s *metadataStore) toRecords(ctx context.Context, rows []*model.StoredMedia) []model.VideoRecord {
	records := make([]model.VideoRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, s.toRecord(ctx, row))
	}
	return records
}

func (s *metadataStore) toRecord(ctx context.Context, row *model.StoredMedia) model.VideoRecord {
	record := row.ToVideoRecord(s.defaultThumbnail)
	record.VideoURL = s.playbackURL(ctx, row.FileURL)
	return record
}

// playbackURL presigns bucket keys and passes absolute URLs through.
// Signing failures fall back to the stored value.
func (s *metadataStore) playbackURL(ctx context.Context, fileURL string) string {
	if s.storage == nil || fileURL == "" || isAbsoluteURL(fileURL) {
		return fileURL
	}

	signed, err := s.storage.GeneratePresignedDownloadURL(ctx, fileURL, s.playbackURLExpiry)
	if err != nil {
		slog.Warn("failed to presign stored media URL",
			"object_key", fileURL,
			"error", err,
		)
		return fileURL
	}
	return signed
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs()
}
