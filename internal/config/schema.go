// Package config defines the widgetbus configuration schema: a JSON file at
// ~/.widgetbus/config.json with defaults for every field.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SnapshotConfig controls the debounced persistence of channel values.
type SnapshotConfig struct {
	File       string `json:"file"`       // snapshot file, relative to DataDir unless absolute
	DebounceMs int    `json:"debounceMs"` // quiet period before a save
	MaxWaitMs  int    `json:"maxWaitMs"`  // upper bound a steady stream can defer a save
}

// SourceConfig points at the job-update stream used by `widgetbus serve`.
type SourceConfig struct {
	URL string `json:"url"` // WebSocket endpoint emitting job-update frames
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string `json:"level"` // debug, info, warn, error
}

// Config is the root configuration.
type Config struct {
	DataDir  string         `json:"dataDir"`
	Snapshot SnapshotConfig `json:"snapshot"`
	Source   SourceConfig   `json:"source"`
	Log      LogConfig      `json:"log"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		DataDir: "~/.widgetbus",
		Snapshot: SnapshotConfig{
			File:       "snapshot.json",
			DebounceMs: 250,
			MaxWaitMs:  2000,
		},
		Source: SourceConfig{
			URL: "ws://localhost:8765/jobs",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".widgetbus/config.json"
	}
	return filepath.Join(home, ".widgetbus", "config.json")
}

// DataDirPath returns DataDir with a leading ~ expanded.
func (c *Config) DataDirPath() string {
	dir := c.DataDir
	if strings.HasPrefix(dir, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
		}
	}
	return dir
}

// SnapshotPath resolves the snapshot file location.
func (c *Config) SnapshotPath() string {
	if filepath.IsAbs(c.Snapshot.File) {
		return c.Snapshot.File
	}
	return filepath.Join(c.DataDirPath(), c.Snapshot.File)
}

// DebounceWait returns the snapshot quiet period.
func (c *Config) DebounceWait() time.Duration {
	return time.Duration(c.Snapshot.DebounceMs) * time.Millisecond
}

// DebounceMaxWait returns the snapshot max-wait bound.
func (c *Config) DebounceMaxWait() time.Duration {
	return time.Duration(c.Snapshot.MaxWaitMs) * time.Millisecond
}

// LogLevel parses the configured level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
