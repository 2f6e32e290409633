package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MediaUploadedEvent announces that a file landed in the bucket and its metadata
// should be recorded.
type MediaUploadedEvent struct {
	EventID        uuid.UUID `json:"event_id"`
	ObjectKey      string    `json:"object_key"`
	FileName       string    `json:"file_name"`
	FileType       string    `json:"file_type"`
	Size           int64     `json:"size"`
	Title          string    `json:"title,omitempty"`
	Description    string    `json:"description,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
	ThumbnailURL   string    `json:"thumbnail_url,omitempty"`
	Category       string    `json:"category,omitempty"`
	Duration       string    `json:"duration,omitempty"`
	Resolution     string    `json:"resolution,omitempty"`
	Format         string    `json:"format,omitempty"`
	Monetization   string    `json:"monetization,omitempty"`
	RightsClaims   string    `json:"rights_claims,omitempty"`
	Comments       string    `json:"comments,omitempty"`
	Transcript     string    `json:"transcript,omitempty"`
	GeoCoordinates string    `json:"geo_coordinates,omitempty"`
	UploadedAt     time.Time `json:"uploaded_at"`
	RetryCount     int       `json:"retry_count"`
}

// MessageQueue defines the interface for message queue operations.
// Implementations should be provided by the infrastructure layer (e.g., RabbitMQ).
type MessageQueue interface {
	// PublishMediaUploaded sends an upload-completed event to the queue.
	// Used by the API server once the client reports a finished upload.
	PublishMediaUploaded(ctx context.Context, event MediaUploadedEvent) error

	// ConsumeMediaUploaded starts consuming upload-completed events.
	// The handler function is called for each received event.
	// Used by the ingester service.
	ConsumeMediaUploaded(ctx context.Context, handler func(event MediaUploadedEvent) error) error

	// Close gracefully closes the connection to the message queue.
	Close() error
}
