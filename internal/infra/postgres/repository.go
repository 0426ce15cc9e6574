package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/anb-showcase/processing-service/internal/domain/entity"
	"github.com/anb-showcase/processing-service/internal/domain/port"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VideoRepository struct {
	pool *pgxpool.Pool
}

func NewVideoRepository(pool *pgxpool.Pool) *VideoRepository {
	return &VideoRepository{pool: pool}
}

func (r *VideoRepository) Create(ctx context.Context, video *entity.Video) error {
	query := `
		INSERT INTO videos (
			id, owner_id, title, original_key, processed_key,
			status, is_published, error_message,
			created_at, updated_at, processed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	_, err := r.pool.Exec(ctx, query,
		video.ID, video.OwnerID, video.Title, video.OriginalKey, video.ProcessedKey,
		string(video.Status), video.IsPublished, video.ErrorMessage,
		video.CreatedAt, video.UpdatedAt, video.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

// Update is a plain single-row write with no optimistic versioning:
// concurrent delivery attempts for the same video race last-writer-wins on
// the status column.
func (r *VideoRepository) Update(ctx context.Context, video *entity.Video) error {
	query := `
		UPDATE videos SET
			status=$2, is_published=$3, processed_key=$4,
			error_message=$5, updated_at=$6, processed_at=$7
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		video.ID, string(video.Status), video.IsPublished, video.ProcessedKey,
		video.ErrorMessage, video.UpdatedAt, video.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	return nil
}

func (r *VideoRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Video, error) {
	query := `
		SELECT id, owner_id, title, original_key, processed_key,
			status, is_published, error_message,
			created_at, updated_at, processed_at
		FROM videos WHERE id=$1`

	video := &entity.Video{}
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&video.ID, &video.OwnerID, &video.Title, &video.OriginalKey, &video.ProcessedKey,
		&status, &video.IsPublished, &video.ErrorMessage,
		&video.CreatedAt, &video.UpdatedAt, &video.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, port.ErrVideoNotFound
		}
		return nil, fmt.Errorf("find video by id: %w", err)
	}
	video.Status = entity.VideoStatus(status)
	return video, nil
}
