// Package cli implements the pagegen command line.
package cli

import (
	"os"

	"github.com/Sternrassler/pagegen/pkg/config"
	"github.com/Sternrassler/pagegen/pkg/logging"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// options holds the persistent flags.
type options struct {
	cfgPath string
	isDebug bool
}

// NewRootCmd builds the pagegen command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "pagegen",
		Short:         "Batch page generation with quotas and variety",
		Long:          `pagegen turns a batch of work units into generated pages through a text generation backend, enforcing total and per-category quotas and avoiding repeated themes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgPath, "config", "", "config file (built-in defaults when empty)")
	rootCmd.PersistentFlags().BoolVar(&opts.isDebug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newCategoriesCmd(opts),
		newSummaryCmd(opts),
	)
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}

// load reads .env and the config file, then sets up logging.
func (o *options) load() (*config.Config, zerolog.Logger, error) {
	_ = godotenv.Load()

	cfg := config.Default()
	if o.cfgPath != "" {
		loaded, err := config.Load(o.cfgPath)
		if err != nil {
			return nil, zerolog.Nop(), err
		}
		cfg = loaded
	}

	lc := cfg.LoggingConfig()
	if o.isDebug {
		lc.Level = logging.LevelDebug
	}
	logger := logging.Setup(lc)

	return cfg, logger, nil
}
