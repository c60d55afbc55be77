package cmd

import (
	"path/filepath"

	"github.com/carsond2001/map-scanner/internal/export"
	"github.com/carsond2001/map-scanner/internal/logging"
	"github.com/carsond2001/map-scanner/internal/storage"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export both archives to Parquet",
		Example: `  # Write maps.parquet and signs.parquet next to the archives
  mapscanner export

  # Write them somewhere else
  mapscanner export --out /tmp/archive-export`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logging.Shutdown() }()

			if outDir == "" {
				outDir = filepath.Join(cfg.OutputDir(), "export")
			}

			maps, err := storage.OpenMapArchive(cfg.MapsPath(), cfg.Storage)
			if err != nil {
				return err
			}
			defer maps.Close()
			signs, err := storage.OpenSignArchive(cfg.SignsPath(), cfg.Storage)
			if err != nil {
				return err
			}
			defer signs.Close()

			summary, err := export.Archives(cmd.Context(), maps, signs, outDir)
			if err != nil {
				return err
			}

			cmd.Printf("Exported %d maps and %d signs to %s\n", summary.Maps, summary.Signs, outDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory to write the Parquet files to")

	return cmd
}
