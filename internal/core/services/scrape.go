package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"civitai-archiver/internal/core/domain"
	ports "civitai-archiver/internal/core/ports/output"
)

// ScrapeService drives a full pass over a listing endpoint and records it
// as a scrape run. Transport failures abort the pass and mark the run
// failed; the cursor of the failed page is kept for resumption.
type ScrapeService struct {
	collector ports.AssetCollector
	runs      ports.ScrapeRunRepository
}

func NewScrapeService(collector ports.AssetCollector, runs ports.ScrapeRunRepository) *ScrapeService {
	return &ScrapeService{collector: collector, runs: runs}
}

func (s *ScrapeService) Run(ctx context.Context, assetType domain.AssetType, startURL string, handler ports.AssetHandler) (*domain.ScrapeRun, error) {
	if !assetType.Valid() {
		return nil, domain.ErrInvalidAssetType
	}

	run := &domain.ScrapeRun{
		ID:         uuid.New(),
		AssetType:  assetType,
		StartedAt:  time.Now(),
		Status:     domain.RunStatusRunning,
		LastCursor: startURL,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"run_id":     run.ID,
		"asset_type": assetType,
	}).Info("scrape run started")

	stats, err := s.collector.CollectAssets(ctx, assetType, startURL, handler)

	now := time.Now()
	run.FinishedAt = &now
	run.PagesFetched = stats.Pages
	run.EntriesIngested = stats.Entries
	run.EntriesSkipped = stats.Skipped
	if stats.LastCursor != "" {
		run.LastCursor = stats.LastCursor
	}

	if err != nil {
		run.Status = domain.RunStatusFailed
		run.Error = err.Error()
	} else {
		run.Status = domain.RunStatusCompleted
	}

	if uerr := s.runs.Update(ctx, run); uerr != nil {
		log.WithError(uerr).WithField("run_id", run.ID).Warn("scrape run record not updated")
	}

	log.WithFields(log.Fields{
		"run_id":  run.ID,
		"status":  run.Status,
		"pages":   run.PagesFetched,
		"entries": run.EntriesIngested,
		"skipped": run.EntriesSkipped,
	}).Info("scrape run finished")

	return run, err
}

// Resume restarts scraping from the cursor of the most recent failed run.
// Without such a run it starts from the beginning.
func (s *ScrapeService) Resume(ctx context.Context, assetType domain.AssetType, handler ports.AssetHandler) (*domain.ScrapeRun, error) {
	startURL := ""
	latest, err := s.runs.Latest(ctx, assetType)
	switch {
	case err == nil:
		if latest.Status == domain.RunStatusFailed && latest.LastCursor != "" {
			startURL = latest.LastCursor
			log.WithFields(log.Fields{
				"run_id": latest.ID,
				"cursor": startURL,
			}).Info("resuming from failed run")
		}
	case errors.Is(err, domain.ErrRunNotFound):
		// First run for this asset type.
	default:
		return nil, err
	}

	return s.Run(ctx, assetType, startURL, handler)
}
