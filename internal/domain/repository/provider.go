package repository

import (
	"context"
	"fmt"

	"github.com/hszk-dev/mediafeed/internal/domain/model"
)

// VideoSearchProvider defines the client contract for the external video-search API.
// Implementations normalize provider payloads into model types before returning.
type VideoSearchProvider interface {
	// Search returns one page of videos matching term.
	// No results is not an error: the page is returned with no items.
	// An empty pageToken requests the first page.
	Search(ctx context.Context, term string, maxResults int, pageToken string) (*model.VideoPage, error)

	// VideoDetails looks up a single video by provider ID.
	// Returns an empty slice if the provider knows no such video.
	VideoDetails(ctx context.Context, id string) ([]model.VideoRecord, error)

	// ChannelDetails looks up a channel by provider ID.
	// Returns ErrChannelNotFound if the provider knows no such channel.
	ChannelDetails(ctx context.Context, id string) (*model.Channel, error)
}

// ProviderError reports a failed upstream call: transport failure, non-2xx status,
// or a payload that could not be decoded.
type ProviderError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
