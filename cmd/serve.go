package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/carsond2001/map-scanner/internal/handlers"
	"github.com/carsond2001/map-scanner/internal/logging"
	"github.com/carsond2001/map-scanner/internal/storage"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a read-only web API over the archives",
		Long: `Starts an HTTP server that lists archived maps and signs.

Routes:
  GET /api/maps            maps, most recently seen first (?limit=)
  GET /api/maps/{id}       one map as JSON
  GET /api/maps/{id}.png   the rendered map image
  GET /api/signs           signs (?server=, ?limit=)
  GET /api/stats           row counts
  GET /healthcheck`,
		Example: `  # Start server on default port 8888
  mapscanner serve

  # Start server on custom port
  mapscanner serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logging.Shutdown() }()

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

			handler := handlers.New(maps, signs)

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Archive browser available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")

	return cmd
}
