package sqs

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/anb-showcase/processing-service/internal/domain/entity"
	"github.com/anb-showcase/processing-service/internal/domain/port"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Queue is the polling delivery substrate: a main queue with visibility
// timeout semantics and a paired dead-letter queue the platform moves
// messages into after maxReceiveCount failed deliveries.
type Queue struct {
	client          *awssqs.Client
	queueURL        string
	dlqURL          string
	maxReceiveCount int
	logger          *zap.Logger
}

type Config struct {
	QueueURL        string
	DLQURL          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	MaxReceiveCount int
}

func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Queue, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	// Custom endpoint means LocalStack-style dev/test with static creds;
	// otherwise the ambient credential chain (IAM role) applies.
	if cfg.Endpoint != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := awssqs.NewFromConfig(awsCfg, func(o *awssqs.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	logger.Info("sqs queue client initialized",
		zap.String("queue_url", cfg.QueueURL),
		zap.String("dlq_url", cfg.DLQURL),
	)

	return &Queue{
		client:          client,
		queueURL:        cfg.QueueURL,
		dlqURL:          cfg.DLQURL,
		maxReceiveCount: cfg.MaxReceiveCount,
		logger:          logger,
	}, nil
}

func (q *Queue) MaxReceiveCount() int { return q.maxReceiveCount }

func (q *Queue) Send(ctx context.Context, videoID uuid.UUID, metadata map[string]string) (string, error) {
	body, err := json.Marshal(entity.ProcessingMessage{VideoID: videoID, Metadata: metadata})
	if err != nil {
		return "", fmt.Errorf("marshal processing message: %w", err)
	}

	out, err := q.client.SendMessage(ctx, &awssqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"VideoId": {
				DataType:    aws.String("String"),
				StringValue: aws.String(videoID.String()),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("send message for video %s: %w", videoID, err)
	}
	return aws.ToString(out.MessageId), nil
}

func (q *Queue) Receive(ctx context.Context, maxMessages int, wait time.Duration) ([]port.QueueMessage, error) {
	out, err := q.client.ReceiveMessage(ctx, &awssqs.ReceiveMessageInput{
		QueueUrl:              aws.String(q.queueURL),
		MaxNumberOfMessages:   int32(maxMessages),
		WaitTimeSeconds:       int32(wait / time.Second),
		MessageAttributeNames: []string{"All"},
		AttributeNames:        []types.QueueAttributeName{types.QueueAttributeNameAll},
	})
	if err != nil {
		return nil, fmt.Errorf("receive messages: %w", err)
	}

	msgs := make([]port.QueueMessage, 0, len(out.Messages))
	for _, m := range out.Messages {
		receiveCount := 1
		if raw, ok := m.Attributes["ApproximateReceiveCount"]; ok {
			if n, err := strconv.Atoi(raw); err == nil {
				receiveCount = n
			}
		}
		msgs = append(msgs, port.QueueMessage{
			MessageID:     aws.ToString(m.MessageId),
			Body:          []byte(aws.ToString(m.Body)),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
			ReceiveCount:  receiveCount,
		})
	}
	return msgs, nil
}

func (q *Queue) Delete(ctx context.Context, receiptHandle string) (bool, error) {
	_, err := q.client.DeleteMessage(ctx, &awssqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		q.logger.Error("failed to delete message", zap.Error(err))
		return false, err
	}
	return true, nil
}

func (q *Queue) ExtendVisibility(ctx context.Context, receiptHandle string, timeout time.Duration) (bool, error) {
	_, err := q.client.ChangeMessageVisibility(ctx, &awssqs.ChangeMessageVisibilityInput{
		QueueUrl:          aws.String(q.queueURL),
		ReceiptHandle:     aws.String(receiptHandle),
		VisibilityTimeout: int32(timeout / time.Second),
	})
	if err != nil {
		q.logger.Error("failed to change visibility timeout", zap.Error(err))
		return false, err
	}
	return true, nil
}

func (q *Queue) Depth(ctx context.Context) (port.QueueDepth, error) {
	out, err := q.client.GetQueueAttributes(ctx, &awssqs.GetQueueAttributesInput{
		QueueUrl: aws.String(q.queueURL),
		AttributeNames: []types.QueueAttributeName{
			types.QueueAttributeNameApproximateNumberOfMessages,
			types.QueueAttributeNameApproximateNumberOfMessagesNotVisible,
			types.QueueAttributeNameApproximateNumberOfMessagesDelayed,
		},
	})
	if err != nil {
		return port.QueueDepth{}, fmt.Errorf("get queue attributes: %w", err)
	}
	return port.QueueDepth{
		Available: atoiAttr(out.Attributes, "ApproximateNumberOfMessages"),
		InFlight:  atoiAttr(out.Attributes, "ApproximateNumberOfMessagesNotVisible"),
		Delayed:   atoiAttr(out.Attributes, "ApproximateNumberOfMessagesDelayed"),
	}, nil
}

func (q *Queue) DLQDepth(ctx context.Context) (int, error) {
	out, err := q.client.GetQueueAttributes(ctx, &awssqs.GetQueueAttributesInput{
		QueueUrl: aws.String(q.dlqURL),
		AttributeNames: []types.QueueAttributeName{
			types.QueueAttributeNameApproximateNumberOfMessages,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("get dlq attributes: %w", err)
	}
	return atoiAttr(out.Attributes, "ApproximateNumberOfMessages"), nil
}

func atoiAttr(attrs map[string]string, key string) int {
	n, _ := strconv.Atoi(attrs[key])
	return n
}

// EnqueueProcessing implements port.Enqueuer over the polling queue.
func (q *Queue) EnqueueProcessing(ctx context.Context, videoID uuid.UUID, metadata map[string]string) error {
	_, err := q.Send(ctx, videoID, metadata)
	return err
}
