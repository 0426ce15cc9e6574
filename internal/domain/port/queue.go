package port

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// QueueMessage is one delivery attempt received from the polling queue. The
// receipt handle addresses this attempt, not the logical message: deleting or
// extending visibility acts on the specific delivery.
type QueueMessage struct {
	MessageID     string
	Body          []byte
	ReceiptHandle string
	ReceiveCount  int
}

// QueueDepth is a point-in-time snapshot of the queue's approximate counters.
type QueueDepth struct {
	Available int
	InFlight  int
	Delayed   int
}

// PollingQueue is the receive-and-hide message substrate. A received message
// stays invisible to other consumers until its visibility timeout expires or
// it is deleted; redelivery past the queue's max receive count moves it to
// the paired dead-letter queue.
type PollingQueue interface {
	Send(ctx context.Context, videoID uuid.UUID, metadata map[string]string) (string, error)
	Receive(ctx context.Context, maxMessages int, wait time.Duration) ([]QueueMessage, error)
	Delete(ctx context.Context, receiptHandle string) (bool, error)
	ExtendVisibility(ctx context.Context, receiptHandle string, timeout time.Duration) (bool, error)
	Depth(ctx context.Context) (QueueDepth, error)
	DLQDepth(ctx context.Context) (int, error)
	MaxReceiveCount() int
}
