package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/anb-showcase/processing-service/internal/domain/entity"
	"github.com/anb-showcase/processing-service/internal/domain/port"
	"github.com/anb-showcase/processing-service/internal/infra/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// pathResolver is the capability the local store exposes so files can be
// transformed in place instead of round-tripping through scratch copies.
type pathResolver interface {
	ResolvePath(key string) (string, error)
	WritablePath(key string) (string, error)
}

// ProcessVideoUseCase is the processing executor shared by both delivery
// coordinators. Execute is safe to re-invoke for the same id: delivery is
// at-least-once and retries always start over from the row lookup.
type ProcessVideoUseCase struct {
	repo       port.VideoRepository
	store      port.ObjectStore
	transcoder port.Transcoder
	publisher  port.StatusPublisher
	logger     *zap.Logger
	tempDir    string
}

func NewProcessVideoUseCase(
	repo port.VideoRepository,
	store port.ObjectStore,
	transcoder port.Transcoder,
	publisher port.StatusPublisher,
	logger *zap.Logger,
	tempDir string,
) *ProcessVideoUseCase {
	return &ProcessVideoUseCase{
		repo:       repo,
		store:      store,
		transcoder: transcoder,
		publisher:  publisher,
		logger:     logger,
		tempDir:    tempDir,
	}
}

// Execute runs the store -> transform -> store round trip for one video and
// reports a structured result. Processing errors never escape as Go errors:
// the delivery coordinator decides retry vs. dead-lettering from the result.
func (uc *ProcessVideoUseCase) Execute(ctx context.Context, videoID uuid.UUID) port.ExecResult {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ProcessVideoUseCase.Execute")
	defer span.End()
	span.SetAttributes(attribute.String("video.id", videoID.String()))

	totalTimer := time.Now()
	log := uc.logger.With(zap.String("video_id", videoID.String()))

	video, err := uc.repo.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, port.ErrVideoNotFound) {
			log.Warn("video not found, nothing to process")
			metrics.VideosProcessedTotal.WithLabelValues("not_found").Inc()
			return port.ExecResult{VideoID: videoID, Outcome: port.ExecNotFound, Message: "video not found"}
		}
		log.Error("failed to load video record", zap.Error(err))
		metrics.VideosProcessedTotal.WithLabelValues("failed").Inc()
		return port.ExecResult{VideoID: videoID, Outcome: port.ExecFailed, Message: err.Error()}
	}

	// Persisted before any work so observers see progress and a crash from
	// here on shows up as stuck-in-processing rather than silently pending.
	video.MarkProcessing()
	if err := uc.repo.Update(ctx, video); err != nil {
		return uc.fail(ctx, video, log, fmt.Sprintf("update status to processing: %v", err))
	}
	uc.publishStatus(ctx, video, log)

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if msg, failed := uc.runPipeline(ctx, video, log); failed {
		return uc.fail(ctx, video, log, msg)
	}

	video.MarkProcessed()
	if err := uc.repo.Update(ctx, video); err != nil {
		return uc.fail(ctx, video, log, fmt.Sprintf("update status to processed: %v", err))
	}
	uc.publishStatus(ctx, video, log)

	metrics.VideosProcessedTotal.WithLabelValues("success").Inc()
	metrics.ProcessingDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	log.Info("video processed and published", zap.String("processed_key", video.ProcessedKey))
	return port.ExecResult{VideoID: videoID, Outcome: port.ExecSuccess, Message: "processed"}
}

// runPipeline performs steps 3-5: resolve input bytes, transform, store the
// result. Scratch files live in a per-video workdir removed unconditionally.
func (uc *ProcessVideoUseCase) runPipeline(ctx context.Context, video *entity.Video, log *zap.Logger) (string, bool) {
	tracer := otel.Tracer("usecase")

	workDir := filepath.Join(uc.tempDir, video.ID.String())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Sprintf("create workdir: %v", err), true
	}
	defer os.RemoveAll(workDir)

	inputPath, outputPath, msg, failed := uc.resolvePaths(ctx, video, workDir, log)
	if failed {
		return msg, true
	}

	txStart := time.Now()
	txCtx, txSpan := tracer.Start(ctx, "transform_video")
	err := uc.transcoder.Transform(txCtx, inputPath, outputPath)
	txSpan.End()
	if err != nil {
		log.Error("transform failed", zap.Error(err))
		return fmt.Sprintf("transform: %v", err), true
	}
	metrics.ProcessingDuration.WithLabelValues("transform").Observe(time.Since(txStart).Seconds())

	if uc.store.Remote() {
		upStart := time.Now()
		upCtx, upSpan := tracer.Start(ctx, "upload_processed")
		err := uc.store.UploadFile(upCtx, outputPath, video.ProcessedKey)
		upSpan.End()
		if err != nil {
			log.Error("processed upload failed", zap.Error(err))
			return fmt.Sprintf("upload processed file: %v", err), true
		}
		metrics.ProcessingDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())
	}

	return "", false
}

// resolvePaths materializes the input and picks the output location. Remote
// stores round-trip through scratch files in workDir; the local store
// resolves paths in place, re-basing when the recorded path does not exist
// under the current filesystem root.
func (uc *ProcessVideoUseCase) resolvePaths(ctx context.Context, video *entity.Video, workDir string, log *zap.Logger) (inputPath, outputPath, msg string, failed bool) {
	tracer := otel.Tracer("usecase")

	if pr, ok := uc.store.(pathResolver); ok && !uc.store.Remote() {
		in, err := pr.ResolvePath(video.OriginalKey)
		if err != nil {
			log.Error("original file not found", zap.Error(err), zap.String("key", video.OriginalKey))
			return "", "", fmt.Sprintf("resolve original file: %v", err), true
		}
		out, err := pr.WritablePath(video.ProcessedKey)
		if err != nil {
			return "", "", fmt.Sprintf("prepare output path: %v", err), true
		}
		return in, out, "", false
	}

	dlStart := time.Now()
	dlCtx, dlSpan := tracer.Start(ctx, "download_original")
	inputPath = filepath.Join(workDir, "input.mp4")
	err := uc.store.DownloadTo(dlCtx, video.OriginalKey, inputPath)
	dlSpan.End()
	if err != nil {
		log.Error("original download failed", zap.Error(err), zap.String("key", video.OriginalKey))
		return "", "", fmt.Sprintf("download original: %v", err), true
	}
	metrics.ProcessingDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	return inputPath, filepath.Join(workDir, "output.mp4"), "", false
}

// fail marks the row failed best-effort: a secondary failure here is logged
// and swallowed, the structured failure still goes back to the coordinator.
func (uc *ProcessVideoUseCase) fail(ctx context.Context, video *entity.Video, log *zap.Logger, reason string) port.ExecResult {
	video.MarkFailed(reason)
	if err := uc.repo.Update(ctx, video); err != nil {
		log.Error("failed to mark video as failed", zap.Error(err))
	}
	uc.publishStatus(ctx, video, log)

	metrics.VideosProcessedTotal.WithLabelValues("failed").Inc()
	return port.ExecResult{VideoID: video.ID, Outcome: port.ExecFailed, Message: reason}
}

func (uc *ProcessVideoUseCase) publishStatus(ctx context.Context, video *entity.Video, log *zap.Logger) {
	if uc.publisher == nil {
		return
	}
	event := entity.StatusEvent{
		VideoID:      video.ID,
		OwnerID:      video.OwnerID,
		Status:       video.Status,
		ProcessedKey: video.ProcessedKey,
		ErrorMessage: video.ErrorMessage,
	}
	if err := uc.publisher.PublishStatus(ctx, event); err != nil {
		log.Error("failed to publish status event", zap.Error(err))
	}
}
