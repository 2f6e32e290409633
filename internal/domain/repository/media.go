package repository

import (
	"context"

	"github.com/hszk-dev/mediafeed/internal/domain/model"
)

// MediaRepository defines the persistence operations over stored media rows.
// Implementations should be provided by the infrastructure layer (e.g., PostgreSQL).
type MediaRepository interface {
	// Create persists a new media row and assigns its ID.
	// Returns ErrDuplicateMedia if a row with the same file URL exists.
	Create(ctx context.Context, media *model.StoredMedia) error

	// GetByID retrieves a media row by its numeric identifier.
	// Returns nil and ErrVideoNotFound if the row does not exist.
	GetByID(ctx context.Context, id int64) (*model.StoredMedia, error)

	// ListByCategory returns every row in the category, newest first.
	// Returns an empty slice if the category has no rows.
	ListByCategory(ctx context.Context, category string) ([]*model.StoredMedia, error)

	// Search returns at most limit rows whose file name, title, description,
	// category or comments contain term, case-insensitively.
	// Rows are ordered by updated_at then created_at, newest first.
	Search(ctx context.Context, term string, limit int) ([]*model.StoredMedia, error)
}
