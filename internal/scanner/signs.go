package scanner

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/carsond2001/map-scanner/internal/config"
	"github.com/carsond2001/map-scanner/internal/dedup"
	"github.com/carsond2001/map-scanner/internal/dispatch"
	"github.com/carsond2001/map-scanner/internal/models"
	"github.com/carsond2001/map-scanner/internal/storage"
	"github.com/carsond2001/map-scanner/internal/world"
	"github.com/google/uuid"
)

// SignScanner archives and posts the text of nearby signs
type SignScanner struct {
	world    world.World
	live     *config.Live
	queue    *dispatch.Dispatcher
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time

	cache   *dedup.Cache
	cadence Cadence
	archive *storage.SignArchive
	active  bool
}

// NewSignScanner creates an inactive sign scanner
func NewSignScanner(w world.World, live *config.Live, queue *dispatch.Dispatcher, notifier Notifier) *SignScanner {
	return &SignScanner{
		world:    w,
		live:     live,
		queue:    queue,
		notifier: notifier,
		logger:   slog.Default().With("subsystem", "signs"),
		now:      time.Now,
		cache:    dedup.New(),
	}
}

// Activate opens the archive, reusing the current handle when it is still
// open on the configured path
func (s *SignScanner) Activate() {
	cfg := s.live.Get()

	if cfg.Signs.RescanOnEnable {
		s.cache.Clear()
	}

	path := cfg.SignsPath()
	if s.archive == nil || s.archive.Closed() || s.archive.Path() != path {
		if s.archive != nil {
			_ = s.archive.Close()
		}
		archive, err := storage.OpenSignArchive(path, cfg.Storage)
		if err != nil {
			s.logger.Warn("Failed to open sign archive; signs will NOT be saved", "path", path, "error", err)
			s.archive = nil
		} else {
			s.archive = archive
			s.logger.Info("Sign archive ready", "path", path)
		}
	}

	warnWebhook(s.logger, cfg.Signs.WebhookURL, "signs")

	s.active = true
	s.logger.Info("Sign scanner enabled")
}

// Deactivate stops scanning and closes the archive
func (s *SignScanner) Deactivate() {
	s.active = false
	if s.archive != nil {
		if err := s.archive.Close(); err != nil {
			s.logger.Warn("Failed to close sign archive", "error", err)
		}
		s.archive = nil
	}
	s.logger.Info("Sign scanner disabled")
}

// Active reports whether the scanner is between Activate and Deactivate
func (s *SignScanner) Active() bool {
	return s.active
}

// Tick handles one driving signal
func (s *SignScanner) Tick() {
	if !s.active {
		return
	}
	cfg := s.live.Get()
	if !s.cadence.Due(cfg.Signs.ScanIntervalTicks) {
		return
	}

	items := s.Scan()
	if len(items) == 0 {
		return
	}
	s.submit(strings.TrimSpace(cfg.Signs.WebhookURL), items)
}

// Scan walks the block columns within radius of the observer and collects
// up to max_per_scan signs whose position and text have not been seen
func (s *SignScanner) Scan() []models.SignItem {
	cfg := s.live.Get()

	pos, ok := s.world.PlayerPosition()
	if !ok {
		return nil
	}
	center := pos.BlockPos()
	r := cfg.Signs.Radius
	radiusSq := r * r
	yMin, yMax := center.Y-cfg.Signs.VerticalRange, center.Y+cfg.Signs.VerticalRange

	dimension := s.world.Dimension()
	server := s.world.Server()
	if server == "" {
		server = SingleplayerServer
	}

	var items []models.SignItem
	for dx := -r; dx <= r; dx++ {
		for dz := -r; dz <= r; dz++ {
			if dx*dx+dz*dz > radiusSq {
				continue
			}
			for y := yMin; y <= yMax; y++ {
				bp := world.BlockPos{X: center.X + dx, Y: y, Z: center.Z + dz}
				item, ok := ExtractSign(s.world, bp, cfg.Signs.IncludeBack)
				if !ok {
					continue
				}
				if !s.cache.Add(item.ContentKey) {
					continue
				}

				item.Dimension = dimension
				item.Server = server
				item.FirstSeen = s.now()
				items = append(items, item)
				if len(items) >= cfg.Signs.MaxPerScan {
					return items
				}
			}
		}
	}
	return items
}

func (s *SignScanner) submit(url string, items []models.SignItem) {
	batchID := uuid.NewString()
	logger := s.logger.With("batch", batchID)

	if url == "" {
		logger.Info("Found new signs; archiving locally, webhook URL is blank", "count", len(items))
	} else {
		logger.Info("Found new signs; archiving and sending in background", "count", len(items))
	}

	archive := s.archive
	err := s.queue.Submit(func(ctx context.Context) {
		s.process(ctx, logger, archive, url, items)
	})
	if err != nil {
		logger.Error("Failed to queue sign batch", "error", err)
	}
}

// process runs on the dispatcher. Each sign is archived, then posted;
// a failure in either step does not skip the other.
func (s *SignScanner) process(ctx context.Context, logger *slog.Logger, archive *storage.SignArchive, url string, items []models.SignItem) {
	stored, sent := 0, 0

	for _, item := range items {
		guard(logger, item.ContentKey, func() {
			if archive != nil {
				_, err := archive.UpsertSign(ctx, models.SignRecord{
					FirstSeen:  item.FirstSeen,
					Dimension:  item.Dimension,
					Server:     item.Server,
					Pos:        item.Pos,
					Front:      item.Front,
					Back:       item.Back,
					ContentKey: item.ContentKey,
				})
				if err != nil {
					logger.Error("Failed to store sign", "key", item.ContentKey, "error", err)
				} else {
					stored++
				}
			}

			if url != "" {
				if err := s.notifier.SendMessage(ctx, url, item.Message); err != nil {
					logger.Error("Failed to send sign", "key", item.ContentKey, "error", err)
					return
				}
				sent++
			}
		})
	}

	logger.Info("Sign batch processed", "items", len(items), "stored", stored, "sent", sent)
}
