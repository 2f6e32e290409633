package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hszk-dev/mediafeed/internal/domain/model"
	"github.com/hszk-dev/mediafeed/internal/domain/repository"
	"github.com/hszk-dev/mediafeed/internal/infrastructure/metrics"
)

// DBTX is an interface that abstracts pgxpool.Pool and pgx.Tx for testability.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const mediaColumns = `id, file_name, file_url, file_type, size, title, description, tags,
		thumbnail_url, category, duration, resolution, format, monetization, rights_claims,
		comments, video_transcript, geo_coordinates, created_at, updated_at`

// MediaRepository implements repository.MediaRepository over the media_files table.
type MediaRepository struct {
	db DBTX
}

// NewMediaRepository creates a new MediaRepository instance.
func NewMediaRepository(db DBTX) *MediaRepository {
	return &MediaRepository{db: db}
}

// Create inserts the row and fills in the database-assigned ID and timestamps.
func (r *MediaRepository) Create(ctx context.Context, media *model.StoredMedia) error {
	const query = `
		INSERT INTO media_files (file_name, file_url, file_type, size, title, description, tags,
			thumbnail_url, category, duration, resolution, format, monetization, rights_claims,
			comments, video_transcript, geo_coordinates, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at, updated_at
	`

	metrics.DBQueriesTotal.WithLabelValues(metrics.DBQueryInsert, metrics.TableMediaFiles).Inc()

	err := r.db.QueryRow(ctx, query,
		media.FileName,
		media.FileURL,
		media.FileType,
		media.Size,
		nullString(media.Title),
		nullString(media.Description),
		nullString(model.JoinTags(media.Tags)),
		nullString(media.ThumbnailURL),
		nullString(media.Category),
		nullString(media.Duration),
		nullString(media.Resolution),
		nullString(media.Format),
		nullString(media.Monetization),
		nullString(media.RightsClaims),
		nullString(media.Comments),
		nullString(media.Transcript),
		nullString(media.GeoCoordinates),
		media.CreatedAt,
		media.UpdatedAt,
	).Scan(&media.ID, &media.CreatedAt, &media.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrDuplicateMedia
		}
		return fmt.Errorf("failed to create media: %w", err)
	}

	return nil
}

// GetByID retrieves a media row by its numeric identifier.
func (r *MediaRepository) GetByID(ctx context.Context, id int64) (*model.StoredMedia, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_files WHERE id = $1`

	metrics.DBQueriesTotal.WithLabelValues(metrics.DBQuerySelect, metrics.TableMediaFiles).Inc()

	media, err := scanMedia(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get media by ID: %w", err)
	}

	return media, nil
}

// ListByCategory returns the category's rows, newest first.
func (r *MediaRepository) ListByCategory(ctx context.Context, category string) ([]*model.StoredMedia, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_files WHERE category = $1 ORDER BY created_at DESC`

	metrics.DBQueriesTotal.WithLabelValues(metrics.DBQuerySelect, metrics.TableMediaFiles).Inc()

	rows, err := r.db.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to query media by category: %w", err)
	}
	return collectMedia(rows)
}

// Search matches term as a substring of the text columns, case-insensitively.
// LIKE wildcards in term are matched literally.
func (r *MediaRepository) Search(ctx context.Context, term string, limit int) ([]*model.StoredMedia, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_files
		WHERE file_name ILIKE $1
			OR title ILIKE $1
			OR description ILIKE $1
			OR category ILIKE $1
			OR comments ILIKE $1
		ORDER BY updated_at DESC, created_at DESC
		LIMIT $2`

	metrics.DBQueriesTotal.WithLabelValues(metrics.DBQuerySelect, metrics.TableMediaFiles).Inc()

	rows, err := r.db.Query(ctx, query, "%"+escapeLike(term)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search media: %w", err)
	}
	return collectMedia(rows)
}

func collectMedia(rows pgx.Rows) ([]*model.StoredMedia, error) {
	defer rows.Close()

	media := []*model.StoredMedia{}
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		media = append(media, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating media: %w", err)
	}

	return media, nil
}

// scanMedia scans one row; pgx.Rows satisfies pgx.Row so both paths share it.
func scanMedia(row pgx.Row) (*model.StoredMedia, error) {
	var (
		m        model.StoredMedia
		size     *int64
		nullable [13]*string
	)

	err := row.Scan(
		&m.ID,
		&m.FileName,
		&m.FileURL,
		&m.FileType,
		&size,
		&nullable[0],
		&nullable[1],
		&nullable[2],
		&nullable[3],
		&nullable[4],
		&nullable[5],
		&nullable[6],
		&nullable[7],
		&nullable[8],
		&nullable[9],
		&nullable[10],
		&nullable[11],
		&nullable[12],
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if size != nil {
		m.Size = *size
	}
	m.Title = deref(nullable[0])
	m.Description = deref(nullable[1])
	m.Tags = model.ParseTags(deref(nullable[2]))
	m.ThumbnailURL = deref(nullable[3])
	m.Category = deref(nullable[4])
	m.Duration = deref(nullable[5])
	m.Resolution = deref(nullable[6])
	m.Format = deref(nullable[7])
	m.Monetization = deref(nullable[8])
	m.RightsClaims = deref(nullable[9])
	m.Comments = deref(nullable[10])
	m.Transcript = deref(nullable[11])
	m.GeoCoordinates = deref(nullable[12])

	return &m, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE metacharacters using the default backslash escape.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// nullString returns nil for empty strings, otherwise returns a pointer to the string.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Compile-time verification that MediaRepository implements repository.MediaRepository.
var _ repository.MediaRepository = (*MediaRepository)(nil)
