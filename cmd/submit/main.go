// Operational submit tool: pushes a local video file through the submission
// gateway, delivering the processing job over SQS or the asynq broker.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/anb-showcase/processing-service/internal/domain/port"
	"github.com/anb-showcase/processing-service/internal/infra/config"
	"github.com/anb-showcase/processing-service/internal/infra/objectstore"
	"github.com/anb-showcase/processing-service/internal/infra/postgres"
	sqsqueue "github.com/anb-showcase/processing-service/internal/infra/sqs"
	"github.com/anb-showcase/processing-service/internal/infra/tasks"
	"github.com/anb-showcase/processing-service/internal/usecase"
	"github.com/anb-showcase/processing-service/pkg/logger"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	var (
		filePath = flag.String("file", "", "path to the video file to submit")
		ownerID  = flag.String("owner", "", "owner id (used as the notification address)")
		title    = flag.String("title", "", "video title")
		via      = flag.String("via", "sqs", "delivery substrate: sqs or broker")
	)
	flag.Parse()

	if *filePath == "" || *ownerID == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	store, err := objectstore.New(cfg.StorageBackend, cfg.AppBaseDir, objectstore.S3Config{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		UseSSL:    cfg.S3UseSSL,
		Bucket:    cfg.S3Bucket,
	})
	fatalOnErr(err, "create object store")
	if s3, ok := store.(*objectstore.S3); ok {
		fatalOnErr(s3.EnsureBucket(ctx), "ensure bucket")
	}

	var enqueuer port.Enqueuer
	switch *via {
	case "sqs":
		queue, err := sqsqueue.New(ctx, sqsqueue.Config{
			QueueURL:        cfg.SQSQueueURL,
			DLQURL:          cfg.SQSDLQURL,
			Region:          cfg.AWSRegion,
			Endpoint:        cfg.SQSEndpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			MaxReceiveCount: cfg.SQSMaxReceiveCount,
		}, log)
		fatalOnErr(err, "create sqs queue client")
		enqueuer = queue
	case "broker":
		client := tasks.NewClient(
			asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword},
			tasks.Config{
				Queue:      cfg.TaskQueue,
				MaxRetries: cfg.MaxRetries,
				RetryDelay: time.Duration(cfg.RetryDelaySec) * time.Second,
			},
		)
		defer client.Close()
		enqueuer = client
	default:
		fatalOnErr(fmt.Errorf("unknown delivery substrate %q", *via), "parse flags")
	}

	data, err := os.ReadFile(*filePath)
	fatalOnErr(err, "read video file")

	submit := usecase.NewSubmitVideoUseCase(
		postgres.NewVideoRepository(pool), store, enqueuer, log,
		usecase.SubmitVideoConfig{
			MaxUploadBytes: cfg.MaxUploadBytes,
			UploadBaseDir:  cfg.UploadBaseDir,
		},
	)

	res, err := submit.Submit(ctx, *ownerID, *title, data)
	fatalOnErr(err, "submit video")

	if res.EnqueueErr != nil {
		log.Warn("video stored but enqueue failed, a re-enqueue is needed",
			zap.String("video_id", res.VideoID.String()), zap.Error(res.EnqueueErr))
	}
	fmt.Println(res.VideoID.String())
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
