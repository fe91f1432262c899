package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"feed-enricher/bootstrap"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline periodically and expose the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, catalog, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			log, shutdown := bootstrap.InitTelemetry(ctx, cfg, os.Stdout)
			defer shutdown()

			deps, cleanup, err := bootstrap.BuildDependencies(ctx, cfg, catalog, log, bootstrap.BuildOptions{})
			if err != nil {
				return fmt.Errorf("building pipeline: %w", err)
			}
			defer cleanup()

			return bootstrap.Serve(ctx, deps)
		},
	}
}
