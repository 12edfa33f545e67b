package services

import (
	"context"
	"errors"

	"civitai-archiver/internal/core/domain"
	ports "civitai-archiver/internal/core/ports/output"
)

// CatalogStats is an aggregate view of the archive.
type CatalogStats struct {
	Models    int64             `json:"models"`
	Versions  int64             `json:"versions"`
	Images    int64             `json:"images"`
	ByType    []ports.TypeCount `json:"by_type"`
	LatestRun *domain.ScrapeRun `json:"latest_run,omitempty"`
}

// StatsService aggregates archive counters across repositories.
type StatsService struct {
	models ports.ModelRepository
	images ports.ImageRepository
	runs   ports.ScrapeRunRepository
}

func NewStatsService(models ports.ModelRepository, images ports.ImageRepository, runs ports.ScrapeRunRepository) *StatsService {
	return &StatsService{models: models, images: images, runs: runs}
}

func (s *StatsService) Collect(ctx context.Context) (*CatalogStats, error) {
	stats := &CatalogStats{}

	var err error
	if stats.Models, err = s.models.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Versions, err = s.models.CountVersions(ctx); err != nil {
		return nil, err
	}
	if stats.Images, err = s.images.Count(ctx); err != nil {
		return nil, err
	}
	if stats.ByType, err = s.models.CountByType(ctx); err != nil {
		return nil, err
	}

	run, err := s.runs.Latest(ctx, domain.AssetModels)
	switch {
	case err == nil:
		stats.LatestRun = run
	case errors.Is(err, domain.ErrRunNotFound):
		// Nothing scraped yet.
	default:
		return nil, err
	}

	return stats, nil
}
