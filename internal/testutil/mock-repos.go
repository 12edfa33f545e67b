package testutil

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"civitai-archiver/internal/core/domain"
	ports "civitai-archiver/internal/core/ports/output"
)

// MockModelRepo is a mock of ModelRepository.
type MockModelRepo struct {
	mock.Mock
}

func (m *MockModelRepo) Upsert(ctx context.Context, model *domain.Model) error {
	args := m.Called(ctx, model)
	return args.Error(0)
}

func (m *MockModelRepo) GetByID(ctx context.Context, id int64) (*domain.Model, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Model), args.Error(1)
}

func (m *MockModelRepo) List(ctx context.Context, filter ports.ModelListFilter) ([]*domain.Model, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*domain.Model), args.Get(1).(int64), args.Error(2)
}

func (m *MockModelRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockModelRepo) CountVersions(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockModelRepo) CountByType(ctx context.Context) ([]ports.TypeCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.TypeCount), args.Error(1)
}

// MockImageRepo is a mock of ImageRepository.
type MockImageRepo struct {
	mock.Mock
}

func (m *MockImageRepo) Upsert(ctx context.Context, image *domain.Image) error {
	args := m.Called(ctx, image)
	return args.Error(0)
}

func (m *MockImageRepo) GetByID(ctx context.Context, id int64) (*domain.Image, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Image), args.Error(1)
}

func (m *MockImageRepo) List(ctx context.Context, filter ports.ImageListFilter) ([]*domain.Image, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*domain.Image), args.Get(1).(int64), args.Error(2)
}

func (m *MockImageRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockScrapeRunRepo is a mock of ScrapeRunRepository.
type MockScrapeRunRepo struct {
	mock.Mock
}

func (m *MockScrapeRunRepo) Create(ctx context.Context, run *domain.ScrapeRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockScrapeRunRepo) Update(ctx context.Context, run *domain.ScrapeRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockScrapeRunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ScrapeRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScrapeRun), args.Error(1)
}

func (m *MockScrapeRunRepo) Latest(ctx context.Context, assetType domain.AssetType) (*domain.ScrapeRun, error) {
	args := m.Called(ctx, assetType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScrapeRun), args.Error(1)
}

// MockAssetCollector is a mock of AssetCollector.
type MockAssetCollector struct {
	mock.Mock
}

func (m *MockAssetCollector) CollectAssets(ctx context.Context, assetType domain.AssetType, startURL string, handler ports.AssetHandler) (ports.CollectStats, error) {
	args := m.Called(ctx, assetType, startURL, handler)
	return args.Get(0).(ports.CollectStats), args.Error(1)
}

// MockMetadataSource is a mock of MetadataSource.
type MockMetadataSource struct {
	mock.Mock
}

func (m *MockMetadataSource) GetModel(ctx context.Context, id int64) (*domain.Model, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Model), args.Error(1)
}

func (m *MockMetadataSource) GetModelVersion(ctx context.Context, id int64) (*domain.ModelVersion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ModelVersion), args.Error(1)
}

func (m *MockMetadataSource) GetModelVersionByHash(ctx context.Context, hash string) (*domain.ModelVersion, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ModelVersion), args.Error(1)
}

func (m *MockMetadataSource) DownloadAsset(ctx context.Context, assetURL, outputPath string) error {
	args := m.Called(ctx, assetURL, outputPath)
	return args.Error(0)
}

// MockAssetHandler is a mock of AssetHandler.
type MockAssetHandler struct {
	mock.Mock
}

func (m *MockAssetHandler) HandleEntry(ctx context.Context, entry json.RawMessage) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
