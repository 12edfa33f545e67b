package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"civitai-archiver/internal/core/domain"
	ports "civitai-archiver/internal/core/ports/output"
	"civitai-archiver/internal/testutil"
)

func TestStatsService_Collect(t *testing.T) {
	models := new(testutil.MockModelRepo)
	images := new(testutil.MockImageRepo)
	runs := new(testutil.MockScrapeRunRepo)
	svc := NewStatsService(models, images, runs)

	models.On("Count", mock.Anything).Return(int64(120), nil)
	models.On("CountVersions", mock.Anything).Return(int64(300), nil)
	images.On("Count", mock.Anything).Return(int64(900), nil)
	models.On("CountByType", mock.Anything).Return([]ports.TypeCount{
		{Type: "Checkpoint", Models: 40, Versions: 100},
		{Type: "LORA", Models: 80, Versions: 200},
	}, nil)
	runs.On("Latest", mock.Anything, domain.AssetModels).
		Return(&domain.ScrapeRun{ID: uuid.New(), Status: domain.RunStatusCompleted}, nil)

	stats, err := svc.Collect(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(120), stats.Models)
	assert.Equal(t, int64(300), stats.Versions)
	assert.Equal(t, int64(900), stats.Images)
	assert.Len(t, stats.ByType, 2)
	assert.NotNil(t, stats.LatestRun)
}

func TestStatsService_Collect_NoRunsYet(t *testing.T) {
	models := new(testutil.MockModelRepo)
	images := new(testutil.MockImageRepo)
	runs := new(testutil.MockScrapeRunRepo)
	svc := NewStatsService(models, images, runs)

	models.On("Count", mock.Anything).Return(int64(0), nil)
	models.On("CountVersions", mock.Anything).Return(int64(0), nil)
	images.On("Count", mock.Anything).Return(int64(0), nil)
	models.On("CountByType", mock.Anything).Return([]ports.TypeCount{}, nil)
	runs.On("Latest", mock.Anything, domain.AssetModels).Return(nil, domain.ErrRunNotFound)

	stats, err := svc.Collect(context.Background())

	require.NoError(t, err)
	assert.Nil(t, stats.LatestRun)
}
