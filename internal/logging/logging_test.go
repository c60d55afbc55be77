package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carsond2001/map-scanner/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestNewLoggerConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.DefaultConfig().Logging
	cfg.Format = "json"
	cfg.Level = "warn"

	logger, err := NewLogger(cfg, &buf)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.Info("dropped")
	logger.Warn("kept", "subsystem", "maps")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("Expected JSON output: %v", err)
	}
	if rec["msg"] != "kept" || rec["subsystem"] != "maps" {
		t.Errorf("Unexpected record %v", rec)
	}
}

func TestNewLoggerWithFile(t *testing.T) {
	defer func() { _ = Shutdown() }()

	var buf bytes.Buffer
	cfg := config.DefaultConfig().Logging
	cfg.Dir = filepath.Join(t.TempDir(), "logs")
	cfg.File = true

	logger, err := NewLogger(cfg, &buf)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.With("batch", "b1").Info("Batch processed", "stored", 2)

	if err := Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cfg.Dir, FileName))
	if err != nil {
		t.Fatalf("Expected log file: %v", err)
	}
	for name, out := range map[string]string{"console": buf.String(), "file": string(data)} {
		if !strings.Contains(out, "Batch processed") || !strings.Contains(out, "batch=b1") {
			t.Errorf("Expected %s output to carry the record, got %q", name, out)
		}
	}
}
