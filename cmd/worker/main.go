// The polling worker: long-polls the video processing queue and runs the
// shared executor for each delivery.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anb-showcase/processing-service/internal/domain/port"
	"github.com/anb-showcase/processing-service/internal/infra/config"
	"github.com/anb-showcase/processing-service/internal/infra/email"
	"github.com/anb-showcase/processing-service/internal/infra/ffmpeg"
	"github.com/anb-showcase/processing-service/internal/infra/metrics"
	"github.com/anb-showcase/processing-service/internal/infra/objectstore"
	"github.com/anb-showcase/processing-service/internal/infra/postgres"
	"github.com/anb-showcase/processing-service/internal/infra/rabbitmq"
	sqsqueue "github.com/anb-showcase/processing-service/internal/infra/sqs"
	"github.com/anb-showcase/processing-service/internal/infra/tracing"
	"github.com/anb-showcase/processing-service/internal/usecase"
	"github.com/anb-showcase/processing-service/internal/worker"
	"github.com/anb-showcase/processing-service/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting anb-processing-service polling worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if the collector is unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.OTLPEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	if err := postgres.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	// Object store
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

	// Status events (best-effort: run without the publisher if RabbitMQ is down)
	var statusPub port.StatusPublisher
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Warn("rabbitmq unavailable, status events disabled", zap.Error(err))
	} else {
		defer rmqConn.Close()
		pub, err := rabbitmq.NewStatusPublisher(rmqConn, cfg.RabbitMQExchange, cfg.RabbitMQStatusQueue)
		fatalOnErr(err, "create status publisher")
		defer pub.Close()
		statusPub = pub
	}

	// Infra adapters
	repo := postgres.NewVideoRepository(pool)
	transcoder := ffmpeg.NewTranscoder(ffmpeg.TranscoderConfig{
		TrimSeconds:   cfg.TrimSeconds,
		TargetHeight:  cfg.TargetHeight,
		WatermarkText: cfg.WatermarkText,
	}, log)
	notifier := email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)

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

	executor := usecase.NewProcessVideoUseCase(repo, store, transcoder, statusPub, log, cfg.TempDir)

	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)

	w := worker.NewSQSWorker(queue, executor, notifier, log, worker.Config{
		MaxMessages: cfg.SQSMaxMessages,
		WaitTime:    time.Duration(cfg.SQSWaitSeconds) * time.Second,
	})

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("polling worker started",
		zap.String("queue_url", cfg.SQSQueueURL),
		zap.String("dlq_url", cfg.SQSDLQURL),
		zap.String("region", cfg.AWSRegion),
	)

	if err := w.Run(ctx); err != nil {
		log.Error("worker error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	log.Info("anb-processing-service polling worker stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
