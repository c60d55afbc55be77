// Package scanner finds maps and signs near the observer and hands new
// ones to a background pipeline that archives and announces them.
//
// Each scanner is driven by Tick from a single goroutine. Tick only reads
// the world and queues work; all storage and network I/O happens on the
// scanner's dispatcher. The dedup cache and the archive handle are owned
// by the driving goroutine, so Activate, Deactivate, Tick and Scan must
// not be called concurrently.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/carsond2001/map-scanner/internal/webhook"
)

// SingleplayerServer tags sightings made outside a multiplayer session
const SingleplayerServer = "singleplayer"

// Notifier delivers discoveries to an external endpoint
type Notifier interface {
	SendPNG(ctx context.Context, url string, png []byte, fileName, caption string) error
	SendMessage(ctx context.Context, url, content string) error
}

// Cadence counts driving signals and reports which of them should scan
type Cadence struct {
	ticks uint64
}

// Due advances the counter and reports whether this signal is a scan tick
func (c *Cadence) Due(interval int) bool {
	c.ticks++
	if interval < 1 {
		interval = 1
	}
	return c.ticks%uint64(interval) == 0
}

// Ticks returns the number of signals seen so far
func (c *Cadence) Ticks() uint64 {
	return c.ticks
}

// warnWebhook logs the activation warnings for a destination URL
func warnWebhook(logger *slog.Logger, url, what string) {
	url = strings.TrimSpace(url)
	switch {
	case url == "":
		logger.Warn(fmt.Sprintf("Webhook URL is empty; %s will be scanned but NOT sent", what))
	case !webhook.LooksLikeDiscordWebhook(url):
		logger.Warn("Webhook URL doesn't look like a Discord webhook; sending may fail", "url", url)
	}
}

// guard runs fn, logging a panic instead of letting it escape
func guard(logger *slog.Logger, key string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Item processing panicked",
				"key", key,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}
