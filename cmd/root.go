package cmd

import (
	"fmt"

	"github.com/carsond2001/map-scanner/internal/config"
	"github.com/carsond2001/map-scanner/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mapscanner",
		Short: "Archive the maps and signs around an observer",
		Long: `Mapscanner watches a world for item frames holding maps and for signs.

New discoveries are archived to SQLite and optionally posted to a Discord webhook.
The archives can be browsed over HTTP or exported to Parquet.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "mapscanner.yml", "Path to the YAML config file")

	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newExportCmd())

	return cmd
}

// setup loads the configuration and installs the global logger
func setup() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return cfg, nil
}
