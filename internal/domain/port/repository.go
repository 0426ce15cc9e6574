package port

import (
	"context"
	"errors"

	"github.com/anb-showcase/processing-service/internal/domain/entity"
	"github.com/google/uuid"
)

// ErrVideoNotFound is returned by FindByID when no row matches the id.
var ErrVideoNotFound = errors.New("video not found")

type VideoRepository interface {
	Create(ctx context.Context, video *entity.Video) error
	Update(ctx context.Context, video *entity.Video) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Video, error)
}
