package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hszk-dev/mediafeed/internal/domain/model"
	"github.com/hszk-dev/mediafeed/internal/usecase"
)

// Request/Response types

type UploadURLResponse struct {
	ObjectKey string `json:"object_key"`
	UploadURL string `json:"upload_url"`
	ExpiresAt string `json:"expires_at"`
}

type CompleteUploadRequest struct {
	ObjectKey      string   `json:"object_key"`
	FileName       string   `json:"file_name"`
	FileType       string   `json:"file_type"`
	Size           int64    `json:"size"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Tags           []string `json:"tags"`
	ThumbnailURL   string   `json:"thumbnail_url"`
	Category       string   `json:"category"`
	Duration       string   `json:"duration"`
	Resolution     string   `json:"resolution"`
	Format         string   `json:"format"`
	Monetization   string   `json:"monetization"`
	RightsClaims   string   `json:"rights_claims"`
	Comments       string   `json:"comments"`
	Transcript     string   `json:"transcript"`
	GeoCoordinates string   `json:"geo_coordinates"`
}

type CompleteUploadResponse struct {
	EventID    string `json:"event_id"`
	ObjectKey  string `json:"object_key"`
	Status     string `json:"status"`
	UploadedAt string `json:"uploaded_at"`
}

// MediaHandler handles upload-related HTTP requests.
type MediaHandler struct {
	svc usecase.UploadService
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(svc usecase.UploadService) *MediaHandler {
	return &MediaHandler{svc: svc}
}

// UploadURL handles GET /v1/media/upload-url
func (h *MediaHandler) UploadURL(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	output, err := h.svc.CreateUploadURL(r.Context(), usecase.CreateUploadURLInput{
		FileName: query.Get("fileName"),
		FileType: query.Get("fileType"),
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, UploadURLResponse{
		ObjectKey: output.ObjectKey,
		UploadURL: output.UploadURL,
		ExpiresAt: output.ExpiresAt.Format(time.RFC3339),
	})
}

// Complete handles POST /v1/media
func (h *MediaHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req CompleteUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	event, err := h.svc.CompleteUpload(r.Context(), usecase.CompleteUploadInput{
		ObjectKey:      req.ObjectKey,
		FileName:       req.FileName,
		FileType:       req.FileType,
		Size:           req.Size,
		Title:          req.Title,
		Description:    req.Description,
		Tags:           req.Tags,
		ThumbnailURL:   req.ThumbnailURL,
		Category:       req.Category,
		Duration:       req.Duration,
		Resolution:     req.Resolution,
		Format:         req.Format,
		Monetization:   req.Monetization,
		RightsClaims:   req.RightsClaims,
		Comments:       req.Comments,
		Transcript:     req.Transcript,
		GeoCoordinates: req.GeoCoordinates,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	// The row is written asynchronously by the ingester.
	JSON(w, http.StatusAccepted, CompleteUploadResponse{
		EventID:    event.EventID.String(),
		ObjectKey:  event.ObjectKey,
		Status:     "queued",
		UploadedAt: event.UploadedAt.Format(time.RFC3339),
	})
}

func (h *MediaHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrEmptyFileName):
		Error(w, http.StatusBadRequest, "invalid_file_name", "File name is required")
	case errors.Is(err, model.ErrFileNameTooLong):
		Error(w, http.StatusBadRequest, "invalid_file_name", "File name exceeds maximum length")
	case errors.Is(err, model.ErrEmptyFileType):
		Error(w, http.StatusBadRequest, "invalid_file_type", "File type is required")
	case errors.Is(err, usecase.ErrUnsupportedFileType):
		Error(w, http.StatusBadRequest, "invalid_file_type", "Only video, audio, image, PDF and text files are accepted")
	case errors.Is(err, model.ErrEmptyFileURL), errors.Is(err, usecase.ErrInvalidObjectKey):
		Error(w, http.StatusBadRequest, "invalid_object_key", "Object key must be one issued by the upload URL endpoint")
	case errors.Is(err, model.ErrInvalidMediaSize):
		Error(w, http.StatusBadRequest, "invalid_size", "Size must be greater than zero")
	case errors.Is(err, usecase.ErrFileTooLarge):
		Error(w, http.StatusRequestEntityTooLarge, "file_too_large", "File exceeds the maximum upload size")
	case errors.Is(err, usecase.ErrInvalidCategory):
		Error(w, http.StatusBadRequest, "invalid_category", "Category is not supported")
	default:
		Error(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
