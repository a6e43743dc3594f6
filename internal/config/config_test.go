package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.DataDir != "~/.widgetbus" {
		t.Errorf("unexpected data dir: %q", cfg.DataDir)
	}
	if cfg.Snapshot.File != "snapshot.json" || cfg.Snapshot.DebounceMs != 250 {
		t.Errorf("unexpected snapshot defaults: %+v", cfg.Snapshot)
	}
	if cfg.Source.URL == "" {
		t.Error("expected a default source URL")
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if cfg.Snapshot.DebounceMs != 250 {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := DefaultConfig()
	cfg.Snapshot.DebounceMs = 500
	cfg.Source.URL = "ws://example:9000/jobs"
	if err := Save(&cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Snapshot.DebounceMs != 500 || loaded.Source.URL != "ws://example:9000/jobs" {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestSnapshotPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/var/lib/widgetbus"
	if got := cfg.SnapshotPath(); got != "/var/lib/widgetbus/snapshot.json" {
		t.Errorf("unexpected relative resolution: %q", got)
	}

	cfg.Snapshot.File = "/tmp/custom.json"
	if got := cfg.SnapshotPath(); got != "/tmp/custom.json" {
		t.Errorf("absolute file must win: %q", got)
	}
}

func TestDebounceDurations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Snapshot.DebounceMs = 100
	cfg.Snapshot.MaxWaitMs = 400
	if cfg.DebounceWait() != 100*time.Millisecond || cfg.DebounceMaxWait() != 400*time.Millisecond {
		t.Errorf("unexpected durations: %v / %v", cfg.DebounceWait(), cfg.DebounceMaxWait())
	}
}

func TestLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"junk":  slog.LevelInfo,
	}
	for in, want := range cases {
		cfg := DefaultConfig()
		cfg.Log.Level = in
		if got := cfg.LogLevel(); got != want {
			t.Errorf("LogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
