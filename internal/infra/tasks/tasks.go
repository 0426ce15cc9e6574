// Package tasks is the broker-backed delivery coordinator: video processing
// rides asynq tasks with library-managed bounded retries and backoff. Retries
// are transparent to the executor, which always starts a fresh attempt.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anb-showcase/processing-service/internal/domain/entity"
	"github.com/anb-showcase/processing-service/internal/domain/port"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeProcessVideo = "video:process"

type Config struct {
	Queue      string
	MaxRetries int
	RetryDelay time.Duration
}

// Client enqueues processing tasks; it is the broker-side port.Enqueuer.
type Client struct {
	client *asynq.Client
	cfg    Config
}

func NewClient(redisOpt asynq.RedisClientOpt, cfg Config) *Client {
	return &Client{client: asynq.NewClient(redisOpt), cfg: cfg}
}

func (c *Client) EnqueueProcessing(ctx context.Context, videoID uuid.UUID, metadata map[string]string) error {
	payload, err := json.Marshal(entity.ProcessingMessage{VideoID: videoID, Metadata: metadata})
	if err != nil {
		return fmt.Errorf("marshal task payload: %w", err)
	}

	task := asynq.NewTask(TypeProcessVideo, payload)
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.cfg.Queue),
		asynq.MaxRetry(c.cfg.MaxRetries),
	)
	if err != nil {
		return fmt.Errorf("enqueue processing task for video %s: %w", videoID, err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Handler adapts the executor's structured result onto asynq's retry
// language: failures become returned errors so the broker retries with
// backoff and archives after the final attempt; a missing job row skips
// retrying entirely.
type Handler struct {
	executor port.Executor
	logger   *zap.Logger
}

func NewHandler(executor port.Executor, logger *zap.Logger) *Handler {
	return &Handler{executor: executor, logger: logger}
}

func (h *Handler) HandleProcessVideo(ctx context.Context, t *asynq.Task) error {
	var msg entity.ProcessingMessage
	if err := json.Unmarshal(t.Payload(), &msg); err != nil {
		h.logger.Error("malformed task payload", zap.Error(err), zap.ByteString("payload", t.Payload()))
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	res := h.executor.Execute(ctx, msg.VideoID)
	switch res.Outcome {
	case port.ExecSuccess:
		return nil
	case port.ExecNotFound:
		h.logger.Warn("video not found, not retrying", zap.String("video_id", msg.VideoID.String()))
		return fmt.Errorf("video %s not found: %w", msg.VideoID, asynq.SkipRetry)
	default:
		return fmt.Errorf("processing video %s failed: %s", msg.VideoID, res.Message)
	}
}

// NewServer builds the asynq worker with a fixed retry delay matching the
// submission side's bounded-attempt policy.
func NewServer(redisOpt asynq.RedisClientOpt, cfg Config, concurrency int, logger *zap.Logger) *asynq.Server {
	return asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{cfg.Queue: 1},
		RetryDelayFunc: func(n int, e error, t *asynq.Task) time.Duration {
			return cfg.RetryDelay
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Warn("task attempt failed", zap.String("type", task.Type()), zap.Error(err))
		}),
	})
}
