package model

import (
	"errors"
	"strings"
	"time"
)

const (
	untitled          = "Untitled"
	maxFileNameLength = 255
)

var (
	ErrEmptyFileName    = errors.New("file name cannot be empty")
	ErrFileNameTooLong  = errors.New("file name exceeds maximum length of 255 characters")
	ErrEmptyFileURL     = errors.New("file URL cannot be empty")
	ErrEmptyFileType    = errors.New("file type cannot be empty")
	ErrInvalidMediaSize = errors.New("size must be greater than zero")
)

// StoredMedia is a persisted media_files row written once an upload completes.
type StoredMedia struct {
	ID       int64
	FileName string
	FileURL  string
	FileType string
	Size     int64

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

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewStoredMedia creates a StoredMedia with the required fields validated.
func NewStoredMedia(fileName, fileURL, fileType string, size int64) (*StoredMedia, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, ErrEmptyFileName
	}
	if len(fileName) > maxFileNameLength {
		return nil, ErrFileNameTooLong
	}
	if strings.TrimSpace(fileURL) == "" {
		return nil, ErrEmptyFileURL
	}
	if strings.TrimSpace(fileType) == "" {
		return nil, ErrEmptyFileType
	}
	if size <= 0 {
		return nil, ErrInvalidMediaSize
	}

	now := time.Now()
	return &StoredMedia{
		FileName:  fileName,
		FileURL:   fileURL,
		FileType:  fileType,
		Size:      size,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ToVideoRecord maps the row to the unified record shape.
// defaultThumbnail is used when the row has no thumbnail of its own.
func (m *StoredMedia) ToVideoRecord(defaultThumbnail string) VideoRecord {
	title := m.Title
	if title == "" {
		title = untitled
	}
	thumbnail := m.ThumbnailURL
	if thumbnail == "" {
		thumbnail = defaultThumbnail
	}

	return VideoRecord{
		ID:           InternalID(m.ID),
		Title:        title,
		Description:  m.Description,
		ThumbnailURL: thumbnail,
		PublishedAt:  m.CreatedAt,
		Source:       SourceInternal,
		VideoURL:     m.FileURL,
		FileName:     m.FileName,
		FileType:     m.FileType,
		Size:         m.Size,
		Format:       m.Format,
		Duration:     m.Duration,
		Resolution:   m.Resolution,
		Tags:         m.Tags,
		Category:     m.Category,
	}
}

// ParseTags splits a comma-separated tag column, dropping blanks.
func ParseTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// JoinTags is the inverse of ParseTags.
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}
