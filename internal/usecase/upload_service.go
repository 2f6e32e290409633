package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hszk-dev/mediafeed/internal/domain/model"
	"github.com/hszk-dev/mediafeed/internal/domain/repository"
)

var (
	// ErrUnsupportedFileType is returned for content types other than video, audio, image, PDF or plain text.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrFileTooLarge is returned when a reported upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")

	// ErrInvalidObjectKey is returned when a completed upload names a key outside the upload prefix.
	ErrInvalidObjectKey = errors.New("object key must be an issued upload key")
)

const uploadKeyPrefix = "uploads/"

var unsafeFileNameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// CreateUploadURLInput contains the parameters for requesting an upload URL.
type CreateUploadURLInput struct {
	FileName string
	FileType string
}

// CreateUploadURLOutput contains the presigned URL the client PUTs the file to.
type CreateUploadURLOutput struct {
	ObjectKey string
	UploadURL string
	ExpiresAt time.Time
}

// CompleteUploadInput describes a file the client finished uploading.
type CompleteUploadInput struct {
	ObjectKey      string
	FileName       string
	FileType       string
	Size           int64
	Title          string
	Description    string
	Tags           []string
	ThumbnailURL   string
	Category       string
	Duration       string
	Resolution     string
	Format         string
	Monetization   string
	RightsClaims   string
	Comments       string
	Transcript     string
	GeoCoordinates string
}

// UploadService hands out upload URLs and announces completed uploads.
// It never stores rows itself; the ingester does that from the queued event.
type UploadService interface {
	// CreateUploadURL returns a presigned PUT URL under a fresh object key.
	CreateUploadURL(ctx context.Context, input CreateUploadURLInput) (*CreateUploadURLOutput, error)

	// CompleteUpload validates the metadata and publishes a MediaUploadedEvent.
	CompleteUpload(ctx context.Context, input CompleteUploadInput) (*repository.MediaUploadedEvent, error)
}

// UploadServiceConfig holds configuration for UploadService.
type UploadServiceConfig struct {
	UploadURLExpiry time.Duration
	MaxUploadSize   int64
	// Categories restricts the category of new uploads. Empty allows any value.
	Categories []string
}

// DefaultUploadServiceConfig returns the default configuration.
func DefaultUploadServiceConfig() UploadServiceConfig {
	return UploadServiceConfig{
		UploadURLExpiry: 10 * time.Minute,
		MaxUploadSize:   500 << 20,
	}
}

type uploadService struct {
	storage repository.ObjectStorage
	queue   repository.MessageQueue

	uploadURLExpiry time.Duration
	maxUploadSize   int64
	categories      []string
	now             func() time.Time
}

// NewUploadService creates a new UploadService instance.
func NewUploadService(
	storage repository.ObjectStorage,
	queue repository.MessageQueue,
	cfg UploadServiceConfig,
) UploadService {
	return &uploadService{
		storage:         storage,
		queue:           queue,
		uploadURLExpiry: cfg.UploadURLExpiry,
		maxUploadSize:   cfg.MaxUploadSize,
		categories:      cfg.Categories,
		now:             time.Now,
	}
}

func (s *uploadService) CreateUploadURL(ctx context.Context, input CreateUploadURLInput) (*CreateUploadURLOutput, error) {
	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, model.ErrEmptyFileName
	}
	if err := validateFileType(input.FileType); err != nil {
		return nil, err
	}

	key := generateUploadKey(uuid.New(), fileName)

	uploadURL, err := s.storage.GeneratePresignedUploadURL(ctx, key, s.uploadURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("generate presigned upload URL: %w", err)
	}

	return &CreateUploadURLOutput{
		ObjectKey: key,
		UploadURL: uploadURL,
		ExpiresAt: s.now().Add(s.uploadURLExpiry),
	}, nil
}

func (s *uploadService) CompleteUpload(ctx context.Context, input CompleteUploadInput) (*repository.MediaUploadedEvent, error) {
	if !strings.HasPrefix(input.ObjectKey, uploadKeyPrefix) || len(input.ObjectKey) == len(uploadKeyPrefix) {
		return nil, ErrInvalidObjectKey
	}
	if _, err := model.NewStoredMedia(input.FileName, input.ObjectKey, input.FileType, input.Size); err != nil {
		return nil, err
	}
	if err := validateFileType(input.FileType); err != nil {
		return nil, err
	}
	if s.maxUploadSize > 0 && input.Size > s.maxUploadSize {
		return nil, ErrFileTooLarge
	}
	if input.Category != "" && len(s.categories) > 0 && !slices.Contains(s.categories, input.Category) {
		return nil, ErrInvalidCategory
	}

	event := repository.MediaUploadedEvent{
		EventID:        uuid.New(),
		ObjectKey:      input.ObjectKey,
		FileName:       strings.TrimSpace(input.FileName),
		FileType:       input.FileType,
		Size:           input.Size,
		Title:          strings.TrimSpace(input.Title),
		Description:    input.Description,
		Tags:           input.Tags,
		ThumbnailURL:   input.ThumbnailURL,
		Category:       input.Category,
		Duration:       input.Duration,
		Resolution:     input.Resolution,
		Format:         input.Format,
		Monetization:   input.Monetization,
		RightsClaims:   input.RightsClaims,
		Comments:       input.Comments,
		Transcript:     input.Transcript,
		GeoCoordinates: input.GeoCoordinates,
		UploadedAt:     s.now(),
	}

	if err := s.queue.PublishMediaUploaded(ctx, event); err != nil {
		return nil, fmt.Errorf("publish upload event: %w", err)
	}

	return &event, nil
}

// validateFileType accepts any video, audio or image type plus PDF and plain text.
func validateFileType(fileType string) error {
	fileType = strings.ToLower(strings.TrimSpace(fileType))
	if fileType == "" {
		return model.ErrEmptyFileType
	}
	switch {
	case strings.HasPrefix(fileType, "video/"),
		strings.HasPrefix(fileType, "audio/"),
		strings.HasPrefix(fileType, "image/"),
		fileType == "application/pdf",
		fileType == "text/plain":
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFileType, fileType)
	}
}

// generateUploadKey creates the storage key for a new upload.
// Format: uploads/{uuid}_{sanitised file name}
func generateUploadKey(id uuid.UUID, fileName string) string {
	return uploadKeyPrefix + id.String() + "_" + sanitizeFileName(fileName)
}

func sanitizeFileName(name string) string {
	return strings.ToLower(unsafeFileNameChars.ReplaceAllString(name, "_"))
}
