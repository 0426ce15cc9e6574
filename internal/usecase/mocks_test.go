package usecase

import (
	"context"

	"github.com/anb-showcase/processing-service/internal/domain/entity"
	"github.com/anb-showcase/processing-service/internal/domain/port"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) Create(ctx context.Context, video *entity.Video) error {
	args := m.Called(ctx, video)
	return args.Error(0)
}

func (m *RepoMock) Update(ctx context.Context, video *entity.Video) error {
	args := m.Called(ctx, video)
	return args.Error(0)
}

func (m *RepoMock) FindByID(ctx context.Context, id uuid.UUID) (*entity.Video, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*entity.Video), args.Error(1)
	}
	return nil, args.Error(1)
}

// StoreMock is a remote object store; local-backend paths are covered with a
// real objectstore.Local over a temp dir.
type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) Remote() bool { return true }

func (m *StoreMock) Upload(ctx context.Context, data []byte, key string) (string, error) {
	args := m.Called(ctx, data, key)
	return args.String(0), args.Error(1)
}

func (m *StoreMock) UploadFile(ctx context.Context, path, key string) error {
	args := m.Called(ctx, path, key)
	return args.Error(0)
}

func (m *StoreMock) Download(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if v := args.Get(0); v != nil {
		return v.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) DownloadTo(ctx context.Context, key, destPath string) error {
	args := m.Called(ctx, key, destPath)
	return args.Error(0)
}

func (m *StoreMock) Delete(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *StoreMock) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *StoreMock) URL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

type TranscoderMock struct {
	mock.Mock
}

func (m *TranscoderMock) Transform(ctx context.Context, inputPath, outputPath string) error {
	args := m.Called(ctx, inputPath, outputPath)
	return args.Error(0)
}

func (m *TranscoderMock) Probe(ctx context.Context, path string) (*port.MediaInfo, error) {
	args := m.Called(ctx, path)
	if v := args.Get(0); v != nil {
		return v.(*port.MediaInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

type EnqueuerMock struct {
	mock.Mock
}

func (m *EnqueuerMock) EnqueueProcessing(ctx context.Context, videoID uuid.UUID, metadata map[string]string) error {
	args := m.Called(ctx, videoID, metadata)
	return args.Error(0)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) PublishStatus(ctx context.Context, event entity.StatusEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
