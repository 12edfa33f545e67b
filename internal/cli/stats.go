package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"civitai-archiver/internal/adapters/secondary/postgres"
	"civitai-archiver/internal/core/services"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print archive counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		svc := services.NewStatsService(
			postgres.NewModelRepository(pool),
			postgres.NewImageRepository(pool),
			postgres.NewScrapeRunRepository(pool),
		)
		stats, err := svc.Collect(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "models:   %d\n", stats.Models)
		fmt.Fprintf(out, "versions: %d\n", stats.Versions)
		fmt.Fprintf(out, "images:   %d\n", stats.Images)
		for _, tc := range stats.ByType {
			fmt.Fprintf(out, "  %-20s %6d models %6d versions\n", tc.Type, tc.Models, tc.Versions)
		}
		if stats.LatestRun != nil {
			r := stats.LatestRun
			fmt.Fprintf(out, "last run: %s %s pages=%d entries=%d skipped=%d\n",
				r.ID, r.Status, r.PagesFetched, r.EntriesIngested, r.EntriesSkipped)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
