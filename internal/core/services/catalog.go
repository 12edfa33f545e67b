package services

import (
	"context"

	"civitai-archiver/internal/core/domain"
	ports "civitai-archiver/internal/core/ports/output"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// modelSortColumns allow-lists sortable columns before they reach SQL.
var modelSortColumns = map[string]bool{
	"id":         true,
	"name":       true,
	"type":       true,
	"updated_at": true,
}

// CatalogService is the read side of the archive, backing the HTTP API.
type CatalogService struct {
	models ports.ModelRepository
	images ports.ImageRepository
}

func NewCatalogService(models ports.ModelRepository, images ports.ImageRepository) *CatalogService {
	return &CatalogService{models: models, images: images}
}

func (s *CatalogService) GetModel(ctx context.Context, id int64) (*domain.Model, error) {
	return s.models.GetByID(ctx, id)
}

func (s *CatalogService) ListModels(ctx context.Context, filter ports.ModelListFilter) ([]*domain.Model, int64, error) {
	filter.Limit = clampLimit(filter.Limit)
	if !modelSortColumns[filter.SortBy] {
		filter.SortBy = ""
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.models.List(ctx, filter)
}

func (s *CatalogService) GetImage(ctx context.Context, id int64) (*domain.Image, error) {
	return s.images.GetByID(ctx, id)
}

func (s *CatalogService) ListImages(ctx context.Context, filter ports.ImageListFilter) ([]*domain.Image, int64, error) {
	filter.Limit = clampLimit(filter.Limit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.images.List(ctx, filter)
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultPageLimit
	case limit > maxPageLimit:
		return maxPageLimit
	default:
		return limit
	}
}
