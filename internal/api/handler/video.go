package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hszk-dev/mediafeed/internal/domain/model"
	"github.com/hszk-dev/mediafeed/internal/domain/repository"
	"github.com/hszk-dev/mediafeed/internal/usecase"
)

// Response types

type StatisticsResponse struct {
	ViewCount    int64 `json:"view_count"`
	LikeCount    int64 `json:"like_count"`
	CommentCount int64 `json:"comment_count"`
}

type VideoResponse struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Description  string              `json:"description,omitempty"`
	ThumbnailURL string              `json:"thumbnail_url,omitempty"`
	PublishedAt  string              `json:"published_at,omitempty"`
	Source       string              `json:"source"`
	VideoURL     string              `json:"video_url,omitempty"`
	ChannelID    string              `json:"channel_id,omitempty"`
	ChannelTitle string              `json:"channel_title,omitempty"`
	CategoryID   string              `json:"category_id,omitempty"`
	Statistics   *StatisticsResponse `json:"statistics,omitempty"`
	FileName     string              `json:"file_name,omitempty"`
	FileType     string              `json:"file_type,omitempty"`
	Size         int64               `json:"size,omitempty"`
	Format       string              `json:"format,omitempty"`
	Duration     string              `json:"duration,omitempty"`
	Resolution   string              `json:"resolution,omitempty"`
	Tags         []string            `json:"tags,omitempty"`
	Category     string              `json:"category,omitempty"`
}

type SourceStatusResponse struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	FromCache bool   `json:"from_cache,omitempty"`
}

type AggregatedResponse struct {
	Videos         []VideoResponse      `json:"videos"`
	ExternalVideos []VideoResponse      `json:"external_videos"`
	InternalVideos []VideoResponse      `json:"internal_videos"`
	NextPageToken  string               `json:"next_page_token,omitempty"`
	TotalCount     int                  `json:"total_count"`
	ExternalCount  int                  `json:"external_count"`
	InternalCount  int                  `json:"internal_count"`
	External       SourceStatusResponse `json:"external"`
	Internal       SourceStatusResponse `json:"internal"`
}

type CategoryListResponse struct {
	Category string `json:"category"`
	AggregatedResponse
}

type SearchResponse struct {
	SearchTerm string `json:"search_term"`
	AggregatedResponse
}

type ChannelResponse struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
	SubscriberCount int64  `json:"subscriber_count"`
	VideoCount      int64  `json:"video_count"`
}

type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// VideoHandler handles video-related HTTP requests.
type VideoHandler struct {
	svc usecase.AggregationService
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(svc usecase.AggregationService) *VideoHandler {
	return &VideoHandler{svc: svc}
}

// ListByCategory handles GET /v1/videos
func (h *VideoHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	result, err := h.svc.ByCategory(r.Context(), query.Get("category"), query.Get("pageToken"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, CategoryListResponse{
		Category:           result.Query,
		AggregatedResponse: toAggregatedResponse(result),
	})
}

// Search handles GET /v1/videos/search
func (h *VideoHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	maxResults := 0
	if raw := query.Get("maxResults"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			Error(w, http.StatusBadRequest, "invalid_max_results", "maxResults must be an integer")
			return
		}
		maxResults = n
	}

	result, err := h.svc.Search(r.Context(), query.Get("q"), maxResults)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, SearchResponse{
		SearchTerm:         result.Query,
		AggregatedResponse: toAggregatedResponse(result),
	})
}

// Get handles GET /v1/videos/{id}
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	video, err := h.svc.ByID(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("source"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, toVideoResponse(*video))
}

// Channel handles GET /v1/channels/{id}
func (h *VideoHandler) Channel(w http.ResponseWriter, r *http.Request) {
	channel, err := h.svc.Channel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, ChannelResponse{
		ID:              channel.ID,
		Title:           channel.Title,
		Description:     channel.Description,
		ThumbnailURL:    channel.ThumbnailURL,
		SubscriberCount: channel.SubscriberCount,
		VideoCount:      channel.VideoCount,
	})
}

// Categories handles GET /v1/categories
func (h *VideoHandler) Categories(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, CategoriesResponse{Categories: h.svc.Categories()})
}

func (h *VideoHandler) handleServiceError(w http.ResponseWriter, err error) {
	var providerErr *repository.ProviderError

	switch {
	case errors.Is(err, usecase.ErrInvalidCategory):
		Error(w, http.StatusBadRequest, "invalid_category", "Category is not supported")
	case errors.Is(err, usecase.ErrInvalidQuery):
		Error(w, http.StatusBadRequest, "invalid_query", "Search term is required")
	case errors.Is(err, usecase.ErrInvalidSource):
		Error(w, http.StatusBadRequest, "invalid_source", "Source must be external or internal")
	case errors.Is(err, model.ErrInvalidID):
		Error(w, http.StatusBadRequest, "invalid_id", "ID is missing or malformed")
	case errors.Is(err, repository.ErrVideoNotFound):
		Error(w, http.StatusNotFound, "video_not_found", "Video not found")
	case errors.Is(err, repository.ErrChannelNotFound):
		Error(w, http.StatusNotFound, "channel_not_found", "Channel not found")
	// Checked before ProviderError: a joined error wraps the provider cause too.
	case errors.Is(err, usecase.ErrSourcesUnavailable):
		Error(w, http.StatusServiceUnavailable, "sources_unavailable", "No video source is currently available")
	case errors.As(err, &providerErr):
		Error(w, http.StatusBadGateway, "provider_error", "Video provider request failed")
	default:
		Error(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

func toAggregatedResponse(result *usecase.AggregatedResult) AggregatedResponse {
	return AggregatedResponse{
		Videos:         toVideoResponses(result.Items),
		ExternalVideos: toVideoResponses(result.ExternalItems),
		InternalVideos: toVideoResponses(result.InternalItems),
		NextPageToken:  result.NextPageToken,
		TotalCount:     len(result.Items),
		ExternalCount:  result.ExternalCount,
		InternalCount:  result.InternalCount,
		External:       toSourceStatus(result.External),
		Internal:       toSourceStatus(result.Internal),
	}
}

func toSourceStatus(o usecase.SourceOutcome) SourceStatusResponse {
	resp := SourceStatusResponse{
		Status:    string(o.Status),
		FromCache: o.FromCache,
	}
	// Causes stay in the logs; clients only learn that the source failed.
	if o.Status == usecase.OutcomeFailed {
		resp.Error = "unavailable"
	}
	return resp
}

func toVideoResponses(records []model.VideoRecord) []VideoResponse {
	out := make([]VideoResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toVideoResponse(r))
	}
	return out
}

func toVideoResponse(v model.VideoRecord) VideoResponse {
	resp := VideoResponse{
		ID:           v.ID,
		Title:        v.Title,
		Description:  v.Description,
		ThumbnailURL: v.ThumbnailURL,
		Source:       v.Source.String(),
		VideoURL:     v.VideoURL,
		ChannelID:    v.ChannelID,
		ChannelTitle: v.ChannelTitle,
		CategoryID:   v.CategoryID,
		FileName:     v.FileName,
		FileType:     v.FileType,
		Size:         v.Size,
		Format:       v.Format,
		Duration:     v.Duration,
		Resolution:   v.Resolution,
		Tags:         v.Tags,
		Category:     v.Category,
	}
	if !v.PublishedAt.IsZero() {
		resp.PublishedAt = v.PublishedAt.Format(time.RFC3339)
	}
	if v.Statistics != nil {
		resp.Statistics = &StatisticsResponse{
			ViewCount:    v.Statistics.ViewCount,
			LikeCount:    v.Statistics.LikeCount,
			CommentCount: v.Statistics.CommentCount,
		}
	}
	return resp
}
