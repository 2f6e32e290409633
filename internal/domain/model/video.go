package model

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Source identifies where a video record came from.
type Source string

const (
	SourceExternal Source = "external"
	SourceInternal Source = "internal"
)

// InternalIDPrefix namespaces stored media IDs so they never collide with provider IDs.
const InternalIDPrefix = "db_"

var (
	ErrInvalidSource = errors.New("source must be external or internal")
	ErrInvalidID     = errors.New("invalid video ID")
)

func (s Source) IsValid() bool {
	switch s {
	case SourceExternal, SourceInternal:
		return true
	default:
		return false
	}
}

func (s Source) String() string {
	return string(s)
}

// ParseSource converts a query parameter into a Source.
// Matching is exact; any other value returns ErrInvalidSource.
func ParseSource(s string) (Source, error) {
	src := Source(s)
	if !src.IsValid() {
		return "", ErrInvalidSource
	}
	return src, nil
}

// VideoStatistics holds provider engagement counters.
type VideoStatistics struct {
	ViewCount    int64
	LikeCount    int64
	CommentCount int64
}

// VideoRecord is the unified item returned by every aggregation operation.
// Provider-only and internal-only fields are left zero when they do not apply.
type VideoRecord struct {
	ID           string
	Title        string
	Description  string
	ThumbnailURL string
	PublishedAt  time.Time
	Source       Source
	VideoURL     string

	// Provider-only fields.
	ChannelID    string
	ChannelTitle string
	CategoryID   string
	Statistics   *VideoStatistics

	// Stored-media fields. Provider detail lookups also fill Duration and Tags.
	FileName   string
	FileType   string
	Size       int64
	Format     string
	Duration   string
	Resolution string
	Tags       []string
	Category   string
}

// VideoPage is one slice of results plus the cursor for the next external slice.
// An empty NextPageToken means no further pages exist.
type VideoPage struct {
	Items         []VideoRecord
	NextPageToken string
}

// Channel describes a provider channel.
type Channel struct {
	ID              string
	Title           string
	Description     string
	ThumbnailURL    string
	SubscriberCount int64
	VideoCount      int64
}

// InternalID formats a stored row identifier as a caller-facing video ID.
func InternalID(rowID int64) string {
	return InternalIDPrefix + strconv.FormatInt(rowID, 10)
}

// ParseInternalID strips the optional "db_" prefix and returns the row identifier.
// "db_42" and "42" are equivalent.
func ParseInternalID(id string) (int64, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(id), InternalIDPrefix)
	if raw == "" || strings.ContainsFunc(raw, func(r rune) bool { return r < '0' || r > '9' }) {
		return 0, ErrInvalidID
	}
	rowID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || rowID <= 0 {
		return 0, ErrInvalidID
	}
	return rowID, nil
}
