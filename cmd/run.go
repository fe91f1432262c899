package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"feed-enricher/bootstrap"
	"feed-enricher/config"
	"feed-enricher/domain"
	"feed-enricher/service"
)

type runOptions struct {
	all          bool
	sourceIDs    []string
	limit        int
	force        bool
	dryRun       bool
	noGeneration bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process new items from the configured sources once",
		Long: `Run fetches each selected source in order, skips items that were already
published, enriches the rest and publishes them. State is checkpointed after
every item, so an interrupted run resumes where it stopped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.all, "all", false, "process every configured source")
	flags.StringSliceVarP(&opts.sourceIDs, "source", "s", nil, "source id to process (repeatable)")
	flags.IntVarP(&opts.limit, "limit", "n", 0, "maximum new items per source (0 means no limit)")
	flags.BoolVar(&opts.force, "force", false, "reprocess items that were already published")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "log records instead of publishing and leave state untouched")
	flags.BoolVar(&opts.noGeneration, "no-generation", false, "skip the generation service and use fallbacks only")
	cmd.MarkFlagsMutuallyExclusive("all", "source")

	return cmd
}

func runOnce(cmd *cobra.Command, opts *runOptions) error {
	if !opts.all && len(opts.sourceIDs) == 0 {
		return errors.New("specify --all or at least one --source")
	}
	if opts.limit < 0 {
		return fmt.Errorf("--limit must not be negative, got %d", opts.limit)
	}

	cfg, catalog, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.noGeneration {
		cfg.Generation.Enabled = false
	}

	sources, err := selectSources(catalog, opts.all, opts.sourceIDs)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, shutdown := bootstrap.InitTelemetry(ctx, cfg, os.Stderr)
	defer shutdown()

	deps, cleanup, err := bootstrap.BuildDependencies(ctx, cfg, catalog, log, bootstrap.BuildOptions{DryRun: opts.dryRun})
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}
	defer cleanup()

	summary, runErr := deps.Scheduler.Run(ctx, sources, service.RunOptions{
		Limit:  opts.limit,
		Force:  opts.force,
		DryRun: opts.dryRun,
	})

	p := newPrinter(cmd.OutOrStdout(), useColors())
	if summary != nil {
		p.runSummary(summary)
	}

	if errors.Is(runErr, context.Canceled) {
		p.warning("run interrupted; processed items are checkpointed")
	}
	return runErr
}

// selectSources resolves the --all / --source selection against the catalog, preserving catalog order.
func selectSources(catalog *config.SourceCatalog, all bool, ids []string) ([]domain.Source, error) {
	if all {
		return catalog.Sources(), nil
	}

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, err := catalog.Find(id); err != nil {
			return nil, err
		}
		wanted[id] = struct{}{}
	}

	selected := make([]domain.Source, 0, len(wanted))
	for _, source := range catalog.Sources() {
		if _, ok := wanted[source.ID]; ok {
			selected = append(selected, source)
		}
	}
	return selected, nil
}
