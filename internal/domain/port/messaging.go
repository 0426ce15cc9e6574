package port

import (
	"context"

	"github.com/anb-showcase/processing-service/internal/domain/entity"
	"github.com/google/uuid"
)

// Enqueuer hands a video id to a delivery substrate for background
// processing. Both the broker task client and the polling queue client
// implement it, so the submission gateway does not know which one it rides.
type Enqueuer interface {
	EnqueueProcessing(ctx context.Context, videoID uuid.UUID, metadata map[string]string) error
}

// StatusPublisher fans lifecycle transitions out to interested consumers.
// Publishing is best-effort: the pipeline never fails because an event could
// not be delivered.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, event entity.StatusEvent) error
}

type FailureNotifier interface {
	NotifyFailure(ctx context.Context, ownerID, videoID, reason string) error
}
