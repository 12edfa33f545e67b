package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"civitai-archiver/internal/core/domain"
	ports "civitai-archiver/internal/core/ports/output"
	"civitai-archiver/internal/testutil"
)

func TestCatalogService_ListModels_DefaultsLimit(t *testing.T) {
	models := new(testutil.MockModelRepo)
	svc := NewCatalogService(models, new(testutil.MockImageRepo))

	models.On("List", mock.Anything, mock.MatchedBy(func(f ports.ModelListFilter) bool {
		return f.Limit == 20 && f.Offset == 0
	})).Return([]*domain.Model{}, int64(0), nil)

	_, _, err := svc.ListModels(context.Background(), ports.ModelListFilter{Limit: 0, Offset: -5})
	require.NoError(t, err)
	models.AssertExpectations(t)
}

func TestCatalogService_ListModels_CapsLimit(t *testing.T) {
	models := new(testutil.MockModelRepo)
	svc := NewCatalogService(models, new(testutil.MockImageRepo))

	models.On("List", mock.Anything, mock.MatchedBy(func(f ports.ModelListFilter) bool {
		return f.Limit == 100
	})).Return([]*domain.Model{}, int64(0), nil)

	_, _, err := svc.ListModels(context.Background(), ports.ModelListFilter{Limit: 5000})
	require.NoError(t, err)
	models.AssertExpectations(t)
}

func TestCatalogService_ListModels_DropsUnknownSortColumn(t *testing.T) {
	models := new(testutil.MockModelRepo)
	svc := NewCatalogService(models, new(testutil.MockImageRepo))

	models.On("List", mock.Anything, mock.MatchedBy(func(f ports.ModelListFilter) bool {
		return f.SortBy == ""
	})).Return([]*domain.Model{}, int64(0), nil)

	_, _, err := svc.ListModels(context.Background(), ports.ModelListFilter{SortBy: "creator; DROP TABLE model"})
	require.NoError(t, err)
	models.AssertExpectations(t)
}

func TestCatalogService_GetModel_NotFound(t *testing.T) {
	models := new(testutil.MockModelRepo)
	svc := NewCatalogService(models, new(testutil.MockImageRepo))

	models.On("GetByID", mock.Anything, int64(404)).Return(nil, domain.ErrModelNotFound)

	_, err := svc.GetModel(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrModelNotFound)
}

func TestCatalogService_ListImages_DefaultsLimit(t *testing.T) {
	images := new(testutil.MockImageRepo)
	svc := NewCatalogService(new(testutil.MockModelRepo), images)

	images.On("List", mock.Anything, mock.MatchedBy(func(f ports.ImageListFilter) bool {
		return f.Limit == 20
	})).Return([]*domain.Image{}, int64(0), nil)

	_, _, err := svc.ListImages(context.Background(), ports.ImageListFilter{})
	require.NoError(t, err)
	images.AssertExpectations(t)
}
