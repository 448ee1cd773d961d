package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/classy-org/data-dives/cmd/datadives/commands"
	"github.com/classy-org/data-dives/internal/config"
	"github.com/classy-org/data-dives/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		configFile string
		noColor    bool
		debug      bool
	)

	// Create config placeholder
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "datadives",
		Short: "Secrets tooling for the fundraising report pipeline",
		Long: `datadives pulls secrets from the credstash credential store, layers
local .env overrides on top, and renders dotenv files or launches report
scripts with the resolved secrets in their environment.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize logger with parsed flags
			logger := logging.New(debug, noColor)

			cfg.Path = configFile
			cfg.Logger = logger
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "datadives.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewRenderCommand(cfg),
		commands.NewGetCommand(cfg),
		commands.NewExecCommand(cfg),
		commands.NewPutCommand(cfg),
		commands.NewShredCommand(cfg),
	)

	return rootCmd.Execute()
}
