// Package cmd contains the feed-enricher CLI commands.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"feed-enricher/config"
)

var (
	cfgFile string
	v       = viper.New()
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "feed-enricher",
	Short: "Feed content enrichment pipeline",
	Long: `feed-enricher polls configured feeds, extracts article text and images,
rewrites and annotates each new item with a generation service, falls back
to deterministic rules when generation fails, and publishes draft records.

Example usage:
  feed-enricher run --all               # process every configured source once
  feed-enricher run --source city -n 5  # at most five new items from one source
  feed-enricher serve                   # periodic runs plus an HTTP trigger
  feed-enricher status                  # processed counts per source`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version reported by the CLI and the logger.
func SetVersion(ver string) {
	version = ver
	rootCmd.Version = ver
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (YAML)")
	flags.String("sources", "", "sources file (default from config: sources.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("state-backend", "", "dedup state backend: file, redis or sqlite")
	flags.Bool("no-color", false, "disable colored output")

	_ = v.BindPFlag("sources_file", flags.Lookup("sources"))
	_ = v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("state.backend", flags.Lookup("state-backend"))
	_ = v.BindPFlag("no_color", flags.Lookup("no-color"))

	v.SetEnvPrefix("FEED_ENRICHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	rootCmd.AddCommand(newRunCmd(), newServeCmd(), newStatusCmd())
}

// loadConfig reads file and environment configuration, applies flag and
// FEED_ENRICHER_* overrides, then loads the sources file.
func loadConfig() (*config.Config, *config.SourceCatalog, error) {
	path := cfgFile
	if path == "" {
		path = v.GetString("config")
	}

	cfg, err := config.LoadConfigFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	applyOverrides(cfg, v)
	if version != "dev" {
		cfg.OTel.ServiceVersion = version
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("validating config: %w", err)
	}

	catalog, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading sources: %w", err)
	}
	return cfg, catalog, nil
}

func applyOverrides(cfg *config.Config, v *viper.Viper) {
	if v.IsSet("sources_file") {
		cfg.SourcesFile = v.GetString("sources_file")
	}
	if v.IsSet("logging.level") {
		cfg.Logging.Level = strings.ToLower(v.GetString("logging.level"))
	}
	if v.IsSet("state.backend") {
		cfg.State.Backend = strings.ToLower(v.GetString("state.backend"))
	}
	if v.IsSet("generation.enabled") {
		cfg.Generation.Enabled = v.GetBool("generation.enabled")
	}
	if v.IsSet("sink.backend") {
		cfg.Sink.Backend = strings.ToLower(v.GetString("sink.backend"))
	}
}

func useColors() bool {
	if v.GetBool("no_color") {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}
