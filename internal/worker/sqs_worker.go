// Package worker is the polling delivery coordinator: a single sequential
// loop long-polling the queue, invoking the shared executor, and deleting
// messages only on success. Horizontal scale-out is more instances of the
// same loop; the queue's visibility timeout is the only mutual exclusion.
package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/anb-showcase/processing-service/internal/domain/entity"
	"github.com/anb-showcase/processing-service/internal/domain/port"
	"github.com/anb-showcase/processing-service/internal/infra/metrics"
	"go.uber.org/zap"
)

const receiveErrorBackoff = 5 * time.Second

type Config struct {
	MaxMessages int
	WaitTime    time.Duration
}

type SQSWorker struct {
	queue    port.PollingQueue
	executor port.Executor
	notifier port.FailureNotifier
	logger   *zap.Logger
	cfg      Config

	processed int
}

func NewSQSWorker(
	queue port.PollingQueue,
	executor port.Executor,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg Config,
) *SQSWorker {
	return &SQSWorker{
		queue:    queue,
		executor: executor,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
	}
}

// Run polls until ctx is cancelled. Shutdown happens only between poll
// cycles and between messages of a batch, never mid-execution: an in-flight
// transform always runs to completion.
func (w *SQSWorker) Run(ctx context.Context) error {
	w.logQueueStatus(ctx)

	consecutiveEmptyPolls := 0

	for {
		if ctx.Err() != nil {
			break
		}

		msgs, err := w.queue.Receive(ctx, w.cfg.MaxMessages, w.cfg.WaitTime)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			w.logger.Error("receive failed", zap.Error(err))
			select {
			case <-time.After(receiveErrorBackoff):
			case <-ctx.Done():
			}
			continue
		}

		if len(msgs) == 0 {
			consecutiveEmptyPolls++
			if consecutiveEmptyPolls%3 == 0 {
				w.logger.Debug("no messages",
					zap.Int("empty_polls", consecutiveEmptyPolls),
					zap.Int("total_processed", w.processed),
				)
				w.logQueueStatus(ctx)
			}
			continue
		}
		consecutiveEmptyPolls = 0

		for _, m := range msgs {
			if ctx.Err() != nil {
				w.logger.Info("shutdown requested, stopping message processing")
				break
			}
			if w.processMessage(ctx, m) {
				w.processed++
			}
		}
	}

	w.logger.Info("worker shutting down gracefully", zap.Int("total_processed", w.processed))
	return nil
}

// processMessage handles one delivery. Delete on success; delete malformed
// bodies immediately so a poison message never blocks the queue; leave
// everything else undeleted so visibility-timeout expiry redelivers it until
// the platform dead-letters it.
func (w *SQSWorker) processMessage(ctx context.Context, m port.QueueMessage) bool {
	var msg entity.ProcessingMessage
	if err := json.Unmarshal(m.Body, &msg); err != nil {
		w.logger.Error("invalid message format, deleting",
			zap.Error(err),
			zap.String("message_id", m.MessageID),
		)
		metrics.PoisonMessagesTotal.Inc()
		if _, err := w.queue.Delete(ctx, m.ReceiptHandle); err != nil {
			w.logger.Error("failed to delete malformed message", zap.Error(err))
		}
		return false
	}

	log := w.logger.With(
		zap.String("video_id", msg.VideoID.String()),
		zap.String("message_id", m.MessageID),
		zap.Int("receive_count", m.ReceiveCount),
	)
	log.Info("processing message")

	res := w.executor.Execute(ctx, msg.VideoID)
	if res.Outcome == port.ExecSuccess {
		if _, err := w.queue.Delete(ctx, m.ReceiptHandle); err != nil {
			log.Error("processed but failed to delete message, expect redelivery", zap.Error(err))
		}
		log.Info("successfully processed video")
		return true
	}

	log.Error("processing failed, leaving message for redelivery", zap.String("reason", res.Message))

	// The delivery that exhausts the receive count is the one the platform
	// moves to the DLQ next; tell the owner now, best-effort.
	if w.notifier != nil && m.ReceiveCount >= w.queue.MaxReceiveCount() {
		if owner, ok := msg.Metadata["owner_id"]; ok {
			if err := w.notifier.NotifyFailure(ctx, owner, msg.VideoID.String(), res.Message); err != nil {
				log.Error("failure notification not sent", zap.Error(err))
			}
		}
	}
	return false
}

// logQueueStatus records queue and DLQ depth for operational visibility.
func (w *SQSWorker) logQueueStatus(ctx context.Context) {
	depth, err := w.queue.Depth(ctx)
	if err != nil {
		w.logger.Warn("could not get queue status", zap.Error(err))
		return
	}
	metrics.QueueDepth.WithLabelValues("available").Set(float64(depth.Available))
	metrics.QueueDepth.WithLabelValues("in_flight").Set(float64(depth.InFlight))
	metrics.QueueDepth.WithLabelValues("delayed").Set(float64(depth.Delayed))

	fields := []zap.Field{
		zap.Int("available", depth.Available),
		zap.Int("in_flight", depth.InFlight),
		zap.Int("delayed", depth.Delayed),
	}
	if dlq, err := w.queue.DLQDepth(ctx); err == nil {
		metrics.QueueDepth.WithLabelValues("dlq").Set(float64(dlq))
		fields = append(fields, zap.Int("dlq", dlq))
		if dlq > 0 {
			w.logger.Warn("dead-letter queue has messages that need attention", zap.Int("dlq", dlq))
		}
	}
	w.logger.Info("queue status", fields...)
}
