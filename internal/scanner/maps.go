package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/carsond2001/map-scanner/internal/config"
	"github.com/carsond2001/map-scanner/internal/dedup"
	"github.com/carsond2001/map-scanner/internal/dispatch"
	"github.com/carsond2001/map-scanner/internal/mapcolor"
	"github.com/carsond2001/map-scanner/internal/models"
	"github.com/carsond2001/map-scanner/internal/storage"
	"github.com/carsond2001/map-scanner/internal/world"
	"github.com/google/uuid"
)

// MapFileName is the attachment name of every posted map image
const MapFileName = "map.png"

// MapScanner archives and posts the maps hanging in item frames
type MapScanner struct {
	world    world.World
	live     *config.Live
	queue    *dispatch.Dispatcher
	notifier Notifier
	logger   *slog.Logger

	cache   *dedup.Cache
	cadence Cadence
	archive *storage.MapArchive
	active  bool
}

// NewMapScanner creates an inactive map scanner
func NewMapScanner(w world.World, live *config.Live, queue *dispatch.Dispatcher, notifier Notifier) *MapScanner {
	return &MapScanner{
		world:    w,
		live:     live,
		queue:    queue,
		notifier: notifier,
		logger:   slog.Default().With("subsystem", "maps"),
		cache:    dedup.New(),
	}
}

// Activate opens the archive and starts scanning on subsequent ticks.
// If the archive cannot be opened, maps are still scanned and posted.
func (s *MapScanner) Activate() {
	cfg := s.live.Get()

	if cfg.Maps.RescanOnEnable {
		s.cache.Clear()
	}

	path := cfg.MapsPath()
	if s.archive == nil || s.archive.Closed() || s.archive.Path() != path {
		if s.archive != nil {
			_ = s.archive.Close()
		}
		archive, err := storage.OpenMapArchive(path, cfg.Storage)
		if err != nil {
			s.logger.Warn("Failed to open map archive; maps will NOT be saved", "path", path, "error", err)
			s.archive = nil
		} else {
			s.archive = archive
			s.logger.Info("Map archive ready", "path", path)
		}
	}

	warnWebhook(s.logger, cfg.Maps.WebhookURL, "maps")

	s.active = true
	s.logger.Info("Map scanner enabled")
}

// Deactivate stops scanning and closes the archive.
// Queued batches still run; their writes fail with storage.ErrClosed.
func (s *MapScanner) Deactivate() {
	s.active = false
	if s.archive != nil {
		if err := s.archive.Close(); err != nil {
			s.logger.Warn("Failed to close map archive", "error", err)
		}
		s.archive = nil
	}
	s.logger.Info("Map scanner disabled")
}

// Active reports whether the scanner is between Activate and Deactivate
func (s *MapScanner) Active() bool {
	return s.active
}

// Tick handles one driving signal. Every scan_interval_ticks signals it
// scans and queues any new maps.
func (s *MapScanner) Tick() {
	if !s.active {
		return
	}
	cfg := s.live.Get()
	if !s.cadence.Due(cfg.Maps.ScanIntervalTicks) {
		return
	}

	items := s.Scan()
	if len(items) == 0 {
		return
	}
	s.submit(strings.TrimSpace(cfg.Maps.WebhookURL), items)
}

// Scan collects up to max_per_scan maps within radius that have not been
// seen since the cache was last cleared
func (s *MapScanner) Scan() []models.MapItem {
	cfg := s.live.Get()

	center, ok := s.world.PlayerPosition()
	if !ok {
		return nil
	}
	r := float64(cfg.Maps.Radius)
	radiusSq := r * r
	dimension := s.world.Dimension()

	var items []models.MapItem
	for _, e := range s.world.EntitiesIntersecting(world.BoxAround(center, r)) {
		if e.Pos.DistanceSq(center) > radiusSq {
			continue
		}
		item, ok := ExtractMap(e, dimension)
		if !ok {
			continue
		}
		if item.MapID != models.UnknownMapID && !s.cache.Add(item.MapID) {
			continue
		}

		items = append(items, item)
		if len(items) >= cfg.Maps.MaxPerScan {
			break
		}
	}
	return items
}

func (s *MapScanner) submit(url string, items []models.MapItem) {
	batchID := uuid.NewString()
	logger := s.logger.With("batch", batchID)

	if url == "" {
		logger.Info("Found new maps; not sending, webhook URL is blank", "count", len(items))
	} else {
		logger.Info("Found new maps; sending in background", "count", len(items))
	}

	archive := s.archive
	err := s.queue.Submit(func(ctx context.Context) {
		s.process(ctx, logger, archive, url, items)
	})
	if err != nil {
		logger.Error("Failed to queue map batch", "error", err)
	}
}

// process runs on the dispatcher. Each map is archived, then posted.
func (s *MapScanner) process(ctx context.Context, logger *slog.Logger, archive *storage.MapArchive, url string, items []models.MapItem) {
	stored, sent := 0, 0

	for _, item := range items {
		guard(logger, item.MapID, func() {
			png, err := mapcolor.EncodePNG(item.Colors)
			if err != nil {
				logger.Error("Failed to render map", "key", item.MapID, "error", err)
				return
			}

			if archive != nil && item.MapID != models.UnknownMapID {
				err := archive.UpsertMap(ctx, models.MapRecord{
					MapID:     item.MapID,
					Dimension: item.Dimension,
					Pos:       item.Pos,
					PNG:       png,
					Colors:    item.Colors,
				})
				if err != nil {
					logger.Error("Failed to store map", "key", item.MapID, "error", err)
				} else {
					stored++
				}
			}

			if url != "" {
				caption := fmt.Sprintf("Map %s at %s", item.MapID, item.Pos)
				if err := s.notifier.SendPNG(ctx, url, png, MapFileName, caption); err != nil {
					logger.Error("Failed to send map", "key", item.MapID, "error", err)
					return
				}
				sent++
			}
		})
	}

	logger.Info("Map batch processed", "items", len(items), "stored", stored, "sent", sent)
}
