package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/localstack"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcrabbitmq "github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"github.com/anb-showcase/processing-service/internal/domain/entity"
	"github.com/anb-showcase/processing-service/internal/infra/ffmpeg"
	"github.com/anb-showcase/processing-service/internal/infra/objectstore"
	"github.com/anb-showcase/processing-service/internal/infra/postgres"
	"github.com/anb-showcase/processing-service/internal/infra/rabbitmq"
	sqsqueue "github.com/anb-showcase/processing-service/internal/infra/sqs"
	"github.com/anb-showcase/processing-service/internal/usecase"
	"github.com/anb-showcase/processing-service/internal/worker"
	"github.com/anb-showcase/processing-service/pkg/logger"
)

type pipelineEnv struct {
	pool     *pgxpool.Pool
	store    *objectstore.S3
	queue    *sqsqueue.Queue
	rawSQS   *awssqs.Client
	queueURL string
	dlqURL   string
	statuses *rabbitmq.StatusPublisher
}

func setupPipeline(t *testing.T, ctx context.Context) *pipelineEnv {
	t.Helper()

	// PostgreSQL
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("anb"),
		tcpostgres.WithUsername("anb_user"),
		tcpostgres.WithPassword("anb_pass"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { pgContainer.Terminate(context.Background()) })

	pgConnStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, postgres.RunMigrations(pgConnStr, "../../migrations"))

	pool, err := pgxpool.New(ctx, pgConnStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	// MinIO
	minioContainer, err := tcminio.Run(ctx,
		"minio/minio:latest",
		tcminio.WithUsername("minioadmin"),
		tcminio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { minioContainer.Terminate(context.Background()) })

	minioEndpoint, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err)

	store, err := objectstore.NewS3(objectstore.S3Config{
		Endpoint:  minioEndpoint,
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		UseSSL:    false,
		Bucket:    "anb-videos",
	})
	require.NoError(t, err)
	require.NoError(t, store.EnsureBucket(ctx))

	// LocalStack SQS with a main queue dead-lettering into a DLQ
	lsContainer, err := localstack.Run(ctx, "localstack/localstack:3.4")
	require.NoError(t, err)
	t.Cleanup(func() { lsContainer.Terminate(context.Background()) })

	lsHost, err := lsContainer.Host(ctx)
	require.NoError(t, err)
	lsPort, err := lsContainer.MappedPort(ctx, "4566/tcp")
	require.NoError(t, err)
	sqsEndpoint := fmt.Sprintf("http://%s:%s", lsHost, lsPort.Port())

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")),
	)
	require.NoError(t, err)
	rawSQS := awssqs.NewFromConfig(awsCfg, func(o *awssqs.Options) {
		o.BaseEndpoint = aws.String(sqsEndpoint)
	})

	dlqOut, err := rawSQS.CreateQueue(ctx, &awssqs.CreateQueueInput{
		QueueName: aws.String("video-processing-dlq"),
	})
	require.NoError(t, err)

	dlqAttrs, err := rawSQS.GetQueueAttributes(ctx, &awssqs.GetQueueAttributesInput{
		QueueUrl:       dlqOut.QueueUrl,
		AttributeNames: []sqstypes.QueueAttributeName{sqstypes.QueueAttributeNameQueueArn},
	})
	require.NoError(t, err)

	mainOut, err := rawSQS.CreateQueue(ctx, &awssqs.CreateQueueInput{
		QueueName: aws.String("video-processing"),
		Attributes: map[string]string{
			"VisibilityTimeout": "30",
			"RedrivePolicy": fmt.Sprintf(`{"deadLetterTargetArn":"%s","maxReceiveCount":"3"}`,
				dlqAttrs.Attributes["QueueArn"]),
		},
	})
	require.NoError(t, err)

	log, _ := logger.New("debug")
	queue, err := sqsqueue.New(ctx, sqsqueue.Config{
		QueueURL:        aws.ToString(mainOut.QueueUrl),
		DLQURL:          aws.ToString(dlqOut.QueueUrl),
		Region:          "us-east-1",
		Endpoint:        sqsEndpoint,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		MaxReceiveCount: 3,
	}, log)
	require.NoError(t, err)

	// RabbitMQ for status events
	rmqContainer, err := tcrabbitmq.Run(ctx, "rabbitmq:3.12-management-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { rmqContainer.Terminate(context.Background()) })

	rmqURL, err := rmqContainer.AmqpURL(ctx)
	require.NoError(t, err)
	rmqConn, err := amqp.Dial(rmqURL)
	require.NoError(t, err)
	t.Cleanup(func() { rmqConn.Close() })

	statusPub, err := rabbitmq.NewStatusPublisher(rmqConn, "anb.video", "video.status")
	require.NoError(t, err)

	return &pipelineEnv{
		pool:     pool,
		store:    store,
		queue:    queue,
		rawSQS:   rawSQS,
		queueURL: aws.ToString(mainOut.QueueUrl),
		dlqURL:   aws.ToString(dlqOut.QueueUrl),
		statuses: statusPub,
	}
}

func TestSubmitAndProcessEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testVideoPath := filepath.Join("..", "testdata", "test.mp4")
	if _, err := os.Stat(testVideoPath); os.IsNotExist(err) {
		t.Skip("test video not found at tests/testdata/test.mp4 - generate it with: " +
			"ffmpeg -f lavfi -i testsrc=duration=45:size=640x480:rate=30 -pix_fmt yuv420p tests/testdata/test.mp4")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	env := setupPipeline(t, ctx)
	log, _ := logger.New("debug")

	repo := postgres.NewVideoRepository(env.pool)
	transcoder := ffmpeg.NewTranscoder(ffmpeg.TranscoderConfig{
		TrimSeconds:   30,
		TargetHeight:  720,
		WatermarkText: "ANB Rising Stars",
	}, log)

	submit := usecase.NewSubmitVideoUseCase(repo, env.store, env.queue, log, usecase.SubmitVideoConfig{
		MaxUploadBytes: 100 << 20,
	})
	executor := usecase.NewProcessVideoUseCase(repo, env.store, transcoder, env.statuses, log, t.TempDir())

	// Submit the 45s clip; submission must return before any processing.
	videoBytes, err := os.ReadFile(testVideoPath)
	require.NoError(t, err)

	submitStart := time.Now()
	res, err := submit.Submit(ctx, "tester@anb.local", "45 second tryout", videoBytes)
	require.NoError(t, err)
	require.NoError(t, res.EnqueueErr)
	assert.Less(t, time.Since(submitStart), 30*time.Second, "submission latency must not include transcoding")

	row, err := repo.FindByID(ctx, res.VideoID)
	require.NoError(t, err)
	assert.Equal(t, entity.VideoStatusPending, row.Status)

	// Drive the polling coordinator until the job leaves the queue.
	w := worker.NewSQSWorker(env.queue, executor, nil, log, worker.Config{MaxMessages: 1, WaitTime: 2 * time.Second})
	workerCtx, workerCancel := context.WithCancel(ctx)
	defer workerCancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(workerCtx)
	}()

	require.Eventually(t, func() bool {
		v, err := repo.FindByID(ctx, res.VideoID)
		if err != nil {
			return false
		}
		return v.Status == entity.VideoStatusProcessed
	}, 3*time.Minute, 2*time.Second, "video never reached processed state")

	workerCancel()
	<-done

	// Row assertions
	processed, err := repo.FindByID(ctx, res.VideoID)
	require.NoError(t, err)
	assert.Equal(t, entity.VideoStatusProcessed, processed.Status)
	assert.True(t, processed.IsPublished)

	// Content assertions: 45s in, ~30s out at 720p
	exists, err := env.store.Exists(ctx, processed.ProcessedKey)
	require.NoError(t, err)
	require.True(t, exists, "processed object must exist in the store")

	outPath := filepath.Join(t.TempDir(), "result.mp4")
	require.NoError(t, env.store.DownloadTo(ctx, processed.ProcessedKey, outPath))

	info, err := transcoder.Probe(ctx, outPath)
	require.NoError(t, err)
	assert.Equal(t, 720, info.Height)
	assert.InDelta(t, 30.0, info.DurationSeconds, 1.0)

	// The successfully processed message is gone from the queue.
	depth, err := env.queue.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, depth.Available+depth.InFlight)
}

func TestMalformedMessageIsDroppedOnce(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	env := setupPipeline(t, ctx)
	log, _ := logger.New("debug")

	repo := postgres.NewVideoRepository(env.pool)
	transcoder := ffmpeg.NewTranscoder(ffmpeg.TranscoderConfig{
		TrimSeconds:   30,
		TargetHeight:  720,
		WatermarkText: "ANB Rising Stars",
	}, log)
	executor := usecase.NewProcessVideoUseCase(repo, env.store, transcoder, env.statuses, log, t.TempDir())

	// Poison message straight onto the queue.
	_, err := env.rawSQS.SendMessage(ctx, &awssqs.SendMessageInput{
		QueueUrl:    aws.String(env.queueURL),
		MessageBody: aws.String(`{invalid json`),
	})
	require.NoError(t, err)

	w := worker.NewSQSWorker(env.queue, executor, nil, log, worker.Config{MaxMessages: 1, WaitTime: 2 * time.Second})
	workerCtx, workerCancel := context.WithCancel(ctx)
	defer workerCancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(workerCtx)
	}()

	// The worker deletes the malformed message instead of letting it cycle
	// through redeliveries forever.
	require.Eventually(t, func() bool {
		depth, err := env.queue.Depth(ctx)
		if err != nil {
			return false
		}
		return depth.Available == 0 && depth.InFlight == 0
	}, time.Minute, 2*time.Second, "poison message still on the queue")

	workerCancel()
	<-done

	dlq, err := env.queue.DLQDepth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, dlq, "worker deletes poison messages itself, the DLQ stays empty")
}
