package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anb-showcase/processing-service/internal/domain/entity"
	amqp "github.com/rabbitmq/amqp091-go"
)

const statusRoutingKey = "video.status"

// StatusPublisher fans lifecycle transitions out on a topic exchange so the
// web tier and ops tooling can observe pipeline progress.
type StatusPublisher struct {
	channel  *amqp.Channel
	exchange string
}

func NewStatusPublisher(conn *amqp.Connection, exchange, statusQueue string) (*StatusPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open publisher channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(statusQueue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", statusQueue, err)
	}
	if err := ch.QueueBind(statusQueue, statusRoutingKey, exchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind status queue: %w", err)
	}

	return &StatusPublisher{channel: ch, exchange: exchange}, nil
}

func (p *StatusPublisher) PublishStatus(ctx context.Context, event entity.StatusEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}

	return p.channel.PublishWithContext(ctx,
		p.exchange,
		statusRoutingKey,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
		},
	)
}

func (p *StatusPublisher) Close() error {
	return p.channel.Close()
}
