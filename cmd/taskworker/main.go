// The broker worker: consumes video processing tasks from the asynq broker,
// which owns retry scheduling and dead-letter bookkeeping.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anb-showcase/processing-service/internal/domain/port"
	"github.com/anb-showcase/processing-service/internal/infra/config"
	"github.com/anb-showcase/processing-service/internal/infra/ffmpeg"
	"github.com/anb-showcase/processing-service/internal/infra/metrics"
	"github.com/anb-showcase/processing-service/internal/infra/objectstore"
	"github.com/anb-showcase/processing-service/internal/infra/postgres"
	"github.com/anb-showcase/processing-service/internal/infra/rabbitmq"
	"github.com/anb-showcase/processing-service/internal/infra/tasks"
	"github.com/anb-showcase/processing-service/internal/infra/tracing"
	"github.com/anb-showcase/processing-service/internal/usecase"
	"github.com/anb-showcase/processing-service/pkg/logger"
	"github.com/hibiken/asynq"
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

	log.Info("starting anb-processing-service task worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := tracing.InitTracer(ctx, cfg.OTLPEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	if err := postgres.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

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

	repo := postgres.NewVideoRepository(pool)
	transcoder := ffmpeg.NewTranscoder(ffmpeg.TranscoderConfig{
		TrimSeconds:   cfg.TrimSeconds,
		TargetHeight:  cfg.TargetHeight,
		WatermarkText: cfg.WatermarkText,
	}, log)

	executor := usecase.NewProcessVideoUseCase(repo, store, transcoder, statusPub, log, cfg.TempDir)

	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)

	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	taskCfg := tasks.Config{
		Queue:      cfg.TaskQueue,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: time.Duration(cfg.RetryDelaySec) * time.Second,
	}

	srv := tasks.NewServer(redisOpt, taskCfg, cfg.Concurrency, log)
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeProcessVideo, tasks.NewHandler(executor, log).HandleProcessVideo)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		srv.Shutdown()
		cancel()
	}()

	log.Info("task worker started",
		zap.String("queue", cfg.TaskQueue),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Int("concurrency", cfg.Concurrency),
	)

	if err := srv.Run(mux); err != nil {
		log.Error("task worker error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	log.Info("anb-processing-service task worker stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
