package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"civitai-archiver/internal/adapters/secondary/civitai"
	"civitai-archiver/internal/adapters/secondary/postgres"
	"civitai-archiver/internal/core/domain"
	ports "civitai-archiver/internal/core/ports/output"
	"civitai-archiver/internal/core/services"
)

var scrapeResume bool

var scrapeCmd = &cobra.Command{
	Use:   "scrape [models|images]",
	Short: "Walk a listing endpoint and ingest every entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		assetType := domain.AssetType(args[0])
		if !assetType.Valid() {
			return domain.ErrInvalidAssetType
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		client := civitai.NewClient(cfg.Civitai, cfg.Scrape, cfg.Paths.ResponseDir)

		var handler ports.AssetHandler
		switch assetType {
		case domain.AssetModels:
			handler = services.NewModelIngestor(postgres.NewModelRepository(pool))
		case domain.AssetImages:
			handler = services.NewImageIngestor(postgres.NewImageRepository(pool), client, cfg.Paths.ImageDir)
		}

		svc := services.NewScrapeService(client, postgres.NewScrapeRunRepository(pool))

		var run *domain.ScrapeRun
		if scrapeResume {
			run, err = svc.Resume(ctx, assetType, handler)
		} else {
			run, err = svc.Run(ctx, assetType, "", handler)
		}
		if run != nil {
			log.WithFields(log.Fields{
				"run_id":  run.ID,
				"status":  run.Status,
				"pages":   run.PagesFetched,
				"entries": run.EntriesIngested,
				"skipped": run.EntriesSkipped,
			}).Info("scrape finished")
		}
		if err != nil {
			return fmt.Errorf("scrape %s: %w", assetType, err)
		}
		return nil
	},
}

func init() {
	scrapeCmd.Flags().BoolVar(&scrapeResume, "resume", false, "resume from the cursor of the last failed run")
	rootCmd.AddCommand(scrapeCmd)
}
