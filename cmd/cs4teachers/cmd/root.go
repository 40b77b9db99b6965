package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cs4t "github.com/uccser/cs4teachers"
)

var (
	logLevel  string
	logFormat string
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "cs4teachers",
		Short: "CS4Teachers events site",
		Long: `cs4teachers serves the public events pages and the admin interface
for a CS4Teachers site. Configuration is read from the environment and an
optional .env file in the working directory.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, console)")

	serve := newServeCommand()
	root.RunE = serve.RunE
	root.AddCommand(serve, newSeedCommand(), newHashPasswordCommand(), newVersionCommand())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads SiteConfig from the environment and applies global flags.
func loadConfig() (cs4t.SiteConfig, error) {
	cfg, err := cs4t.LoadConfig()
	if err != nil {
		return cfg, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}
