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

var importDir string

var importCmd = &cobra.Command{
	Use:   "import [models|images]",
	Short: "Replay saved response snapshots into the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		assetType := domain.AssetType(args[0])
		if !assetType.Valid() {
			return domain.ErrInvalidAssetType
		}

		dir := importDir
		if dir == "" {
			dir = cfg.Paths.ResponseDir
		}
		if dir == "" {
			return fmt.Errorf("no snapshot directory configured")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		var handler ports.AssetHandler
		switch assetType {
		case domain.AssetModels:
			handler = services.NewModelIngestor(postgres.NewModelRepository(pool))
		case domain.AssetImages:
			// Imports never download; only metadata is replayed.
			client := civitai.NewClient(cfg.Civitai, cfg.Scrape, "")
			handler = services.NewImageIngestor(postgres.NewImageRepository(pool), client, "")
		}

		stats, err := services.NewImportService(dir).ImportSnapshots(ctx, assetType, handler)
		log.WithFields(log.Fields{
			"files":   stats.Files,
			"entries": stats.Entries,
			"skipped": stats.Skipped,
		}).Info("import finished")
		if err != nil {
			return fmt.Errorf("import %s: %w", assetType, err)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importDir, "dir", "", "snapshot directory (defaults to RESPONSE_DIR)")
	rootCmd.AddCommand(importCmd)
}
