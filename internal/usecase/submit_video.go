package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/anb-showcase/processing-service/internal/domain/entity"
	"github.com/anb-showcase/processing-service/internal/domain/port"
	"github.com/anb-showcase/processing-service/internal/infra/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyPayload    = errors.New("empty upload payload")
	ErrPayloadTooLarge = errors.New("upload payload too large")
)

// SubmitResult carries the accepted job id plus the enqueue error, if any.
// A failed enqueue does not fail the submission: the row stays pending and
// the error is surfaced here so callers and tests can observe it.
type SubmitResult struct {
	VideoID    uuid.UUID
	EnqueueErr error
}

// SubmitVideoUseCase is the synchronous half of the pipeline: it accepts the
// upload, reserves both storage keys, persists the pending row, stores the
// original bytes and hands the job to a delivery substrate without waiting
// for processing.
type SubmitVideoUseCase struct {
	repo     port.VideoRepository
	store    port.ObjectStore
	enqueuer port.Enqueuer
	logger   *zap.Logger
	cfg      SubmitVideoConfig
}

type SubmitVideoConfig struct {
	MaxUploadBytes int64
	UploadBaseDir  string
}

func NewSubmitVideoUseCase(
	repo port.VideoRepository,
	store port.ObjectStore,
	enqueuer port.Enqueuer,
	logger *zap.Logger,
	cfg SubmitVideoConfig,
) *SubmitVideoUseCase {
	return &SubmitVideoUseCase{
		repo:     repo,
		store:    store,
		enqueuer: enqueuer,
		logger:   logger,
		cfg:      cfg,
	}
}

func (uc *SubmitVideoUseCase) Submit(ctx context.Context, ownerID, title string, fileBytes []byte) (*SubmitResult, error) {
	if len(fileBytes) == 0 {
		return nil, ErrEmptyPayload
	}
	if int64(len(fileBytes)) > uc.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(fileBytes), uc.cfg.MaxUploadBytes)
	}

	// The id is generated here, not by the store, so both keys can be
	// reserved before the row commits.
	videoID := uuid.New()
	originalKey, processedKey := uc.storageKeys(videoID)

	video := entity.NewVideo(videoID, ownerID, title, originalKey, processedKey)

	log := uc.logger.With(zap.String("video_id", videoID.String()), zap.String("owner_id", ownerID))

	if err := uc.repo.Create(ctx, video); err != nil {
		return nil, fmt.Errorf("create video record: %w", err)
	}

	if _, err := uc.store.Upload(ctx, fileBytes, originalKey); err != nil {
		return nil, fmt.Errorf("store original upload: %w", err)
	}

	result := &SubmitResult{VideoID: videoID}

	// Fire and forget: an enqueue failure leaves the row pending with no
	// retry path from here, an accepted limitation of the submission side.
	if err := uc.enqueuer.EnqueueProcessing(ctx, videoID, map[string]string{
		"owner_id": ownerID,
		"title":    title,
	}); err != nil {
		metrics.EnqueueFailuresTotal.Inc()
		log.Error("failed to enqueue processing request, video stays pending", zap.Error(err))
		result.EnqueueErr = err
		return result, nil
	}

	log.Info("video submitted for processing", zap.Int("size_bytes", len(fileBytes)))
	return result, nil
}

// storageKeys derives both keys from the id: object keys under fixed prefixes
// for a remote store, absolute paths under the upload dir for the local one.
func (uc *SubmitVideoUseCase) storageKeys(videoID uuid.UUID) (originalKey, processedKey string) {
	name := videoID.String() + ".mp4"
	if uc.store.Remote() {
		return "uploads/" + name, "processed/" + name
	}
	return filepath.Join(uc.cfg.UploadBaseDir, "originals", name),
		filepath.Join(uc.cfg.UploadBaseDir, "processed", name)
}
