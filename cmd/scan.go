package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carsond2001/map-scanner/internal/config"
	"github.com/carsond2001/map-scanner/internal/dispatch"
	"github.com/carsond2001/map-scanner/internal/logging"
	"github.com/carsond2001/map-scanner/internal/scanner"
	"github.com/carsond2001/map-scanner/internal/webhook"
	"github.com/carsond2001/map-scanner/internal/world"
	"github.com/spf13/cobra"
)

func newScanCmd() *cobra.Command {
	var (
		worldFile    string
		ticks        int
		drainTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a world for maps and signs",
		Long: `Drives the map and sign scanners against a world file at tick_rate signals per second.

Send SIGHUP to reload the config and world files. On exit, queued batches
are given --drain-timeout to finish before the archives are closed.`,
		Example: `  # Scan with the default config
  mapscanner scan

  # Run 200 ticks against a specific world, then exit
  mapscanner scan --world spawn.yml --ticks 200`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logging.Shutdown() }()

			if worldFile == "" {
				worldFile = cfg.WorldFile
			}
			snapshot, err := world.LoadSnapshot(worldFile)
			if err != nil {
				return err
			}

			live := config.NewLive(configPath, cfg)
			sender := webhook.NewSender(cfg.Webhook.Timeout)
			sender.Username = cfg.Webhook.Username

			mapQueue := dispatch.New("maps")
			signQueue := dispatch.New("signs")
			maps := scanner.NewMapScanner(snapshot, live, mapQueue, sender)
			signs := scanner.NewSignScanner(snapshot, live, signQueue, sender)
			applyEnabled(cfg, maps, signs)

			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)

			ticker := time.NewTicker(cfg.TickInterval())
			defer ticker.Stop()

			slog.Info("Scanning", "world", worldFile, "tick_rate", cfg.TickRate, "output", cfg.OutputDir())

			count := 0
		loop:
			for {
				select {
				case <-cmd.Context().Done():
					slog.Info("Stopping scanners...")
					break loop
				case <-hup:
					reloaded, err := live.Reload()
					if err != nil {
						slog.Error("Config reload failed; keeping previous config", "err", err)
					} else {
						slog.Info("Config reloaded", "path", configPath)
					}
					if fresh, err := world.LoadSnapshot(worldFile); err != nil {
						slog.Error("World reload failed", "err", err)
					} else {
						snapshot.Replace(fresh)
					}
					applyEnabled(reloaded, maps, signs)
					ticker.Reset(reloaded.TickInterval())
				case <-ticker.C:
					maps.Tick()
					signs.Tick()
					count++
					if ticks > 0 && count >= ticks {
						break loop
					}
				}
			}

			drainErr := drain(drainTimeout, mapQueue, signQueue)
			if maps.Active() {
				maps.Deactivate()
			}
			if signs.Active() {
				signs.Deactivate()
			}
			return drainErr
		},
	}

	cmd.Flags().StringVarP(&worldFile, "world", "w", "", "World file to scan (defaults to world_file from the config)")
	cmd.Flags().IntVar(&ticks, "ticks", 0, "Stop after this many ticks (0 runs until interrupted)")
	cmd.Flags().DurationVar(&drainTimeout, "drain-timeout", 30*time.Second, "How long to wait for queued batches on exit")

	return cmd
}

type toggler interface {
	Active() bool
	Activate()
	Deactivate()
}

// applyEnabled brings each scanner in line with its enabled flag.
// Scanners already in the right state are left alone, so a reload does
// not clear their caches.
func applyEnabled(cfg *config.Config, maps, signs toggler) {
	for _, s := range []struct {
		scanner toggler
		enabled bool
	}{
		{maps, cfg.Maps.Enabled},
		{signs, cfg.Signs.Enabled},
	} {
		switch {
		case s.enabled && !s.scanner.Active():
			s.scanner.Activate()
		case !s.enabled && s.scanner.Active():
			s.scanner.Deactivate()
		}
	}
}

// drain waits for every queue to finish its work, sharing one deadline
func drain(timeout time.Duration, queues ...*dispatch.Dispatcher) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	for _, q := range queues {
		if err := q.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("shutdown incomplete: %w", err)
	}
	return nil
}
