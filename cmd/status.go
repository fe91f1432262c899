package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"feed-enricher/bootstrap"
	"feed-enricher/dlq"
	"feed-enricher/orchestrator"
)

const statusConcurrency = 4

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show processed item counts and last run per source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, catalog, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			log, shutdown := bootstrap.InitTelemetry(ctx, cfg, os.Stderr)
			defer shutdown()

			store, closeStore, err := bootstrap.BuildStateStore(ctx, cfg.State, nil, log)
			if err != nil {
				return fmt.Errorf("opening state store: %w", err)
			}
			defer closeStore()

			statuses := orchestrator.CollectStatus(ctx, catalog.Sources(), store, catalog, statusConcurrency)

			p := newPrinter(cmd.OutOrStdout(), useColors())
			p.statusTable(statuses)

			if cfg.DLQ.Enabled {
				journal := dlq.NewFileDLQManager(dlq.FileDLQConfig{BasePath: cfg.DLQ.Dir, Retention: cfg.DLQ.Retention}, log)
				stats, err := journal.GetStats()
				if err != nil {
					p.warning(fmt.Sprintf("failure journal unavailable: %v", err))
					return nil
				}
				p.journalStats(stats)
			}
			return nil
		},
	}
}
