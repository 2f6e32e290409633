package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hszk-dev/mediafeed/internal/domain/model"
	"github.com/hszk-dev/mediafeed/internal/domain/repository"
	"github.com/hszk-dev/mediafeed/internal/infrastructure/metrics"
)

// IngestService records completed uploads as media rows.
type IngestService interface {
	// ProcessEvent handles an upload-completed event from the message queue.
	// Returns nil on success or on a permanent failure (invalid event, duplicate row).
	// Returns an error for transient failures that should trigger a retry.
	ProcessEvent(ctx context.Context, event repository.MediaUploadedEvent) error
}

type ingestService struct {
	repo    repository.MediaRepository
	storage repository.ObjectStorage
}

// NewIngestService creates a new IngestService instance.
func NewIngestService(repo repository.MediaRepository, storage repository.ObjectStorage) IngestService {
	return &ingestService{
		repo:    repo,
		storage: storage,
	}
}

func (s *ingestService) ProcessEvent(ctx context.Context, event repository.MediaUploadedEvent) error {
	media, err := model.NewStoredMedia(event.FileName, event.ObjectKey, event.FileType, event.Size)
	if err != nil {
		slog.Error("discarding invalid upload event",
			"event_id", event.EventID,
			"object_key", event.ObjectKey,
			"error", err,
		)
		metrics.IngestEventsTotal.WithLabelValues(metrics.IngestDropped).Inc()
		return nil
	}

	// The client reports completion itself, so confirm the bytes actually landed.
	exists, err := s.storage.Exists(ctx, event.ObjectKey)
	if err != nil {
		return fmt.Errorf("check uploaded object: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", repository.ErrObjectNotFound, event.ObjectKey)
	}

	media.Title = event.Title
	media.Description = event.Description
	media.Tags = event.Tags
	media.ThumbnailURL = event.ThumbnailURL
	media.Category = event.Category
	media.Duration = event.Duration
	media.Resolution = event.Resolution
	media.Format = event.Format
	media.Monetization = event.Monetization
	media.RightsClaims = event.RightsClaims
	media.Comments = event.Comments
	media.Transcript = event.Transcript
	media.GeoCoordinates = event.GeoCoordinates
	if !event.UploadedAt.IsZero() {
		media.CreatedAt = event.UploadedAt
		media.UpdatedAt = event.UploadedAt
	}

	if err := s.repo.Create(ctx, media); err != nil {
		if errors.Is(err, repository.ErrDuplicateMedia) {
			// Redelivery of an event that was already stored.
			slog.Info("upload already recorded",
				"event_id", event.EventID,
				"object_key", event.ObjectKey,
			)
			return nil
		}
		return fmt.Errorf("create media: %w", err)
	}

	metrics.IngestEventsTotal.WithLabelValues(metrics.IngestStored).Inc()
	slog.Info("upload recorded",
		"event_id", event.EventID,
		"media_id", model.InternalID(media.ID),
		"object_key", event.ObjectKey,
		"retry_count", event.RetryCount,
	)
	return nil
}
