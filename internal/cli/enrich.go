package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"civitai-archiver/internal/adapters/secondary/civitai"
	"civitai-archiver/internal/core/services"
)

var enrichCheckFilename bool

var enrichCmd = &cobra.Command{
	Use:   "enrich <path>",
	Short: "Match local model files to upstream metadata by content hash",
	Long: `Enrich hashes each local model file, resolves it upstream by hash and
writes metadata sidecars and a cover image next to it. A file or a
directory may be given; directories are walked recursively.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client := civitai.NewClient(cfg.Civitai, cfg.Scrape, "")
		svc := services.NewEnrichService(client, enrichCheckFilename)

		info, err := os.Stat(args[0])
		if err != nil {
			return err
		}

		var results []services.EnrichResult
		if info.IsDir() {
			results, err = svc.EnrichFolder(ctx, args[0])
		} else {
			var res *services.EnrichResult
			res, err = svc.EnrichFile(ctx, args[0])
			if res != nil {
				results = append(results, *res)
			}
		}
		if err != nil {
			return fmt.Errorf("enrich %s: %w", args[0], err)
		}

		enriched, skipped := 0, 0
		for _, r := range results {
			if r.Skipped {
				skipped++
			} else {
				enriched++
			}
		}
		log.WithFields(log.Fields{
			"enriched": enriched,
			"skipped":  skipped,
		}).Info("enrichment finished")
		return nil
	},
}

func init() {
	enrichCmd.Flags().BoolVar(&enrichCheckFilename, "check-filename", false, "warn when the matched version does not list the local file name")
	rootCmd.AddCommand(enrichCmd)
}
