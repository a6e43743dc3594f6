package container

import (
	"path/filepath"
	"testing"

	"github.com/widgetbus/widgetbus/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	return &cfg
}

func TestNew_WiresServices(t *testing.T) {
	c, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Store() == nil || c.Writer() == nil || c.Bridges() == nil {
		t.Fatal("expected every service resolved")
	}
}

func TestClose_WritesFinalSnapshot(t *testing.T) {
	cfg := testConfig(t)
	c, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	c.Store().RegisterProducer("cpu", "p1", map[string]any{"label": "CPU", "value": 1.0})
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	sink := cfg.SnapshotPath()
	if filepath.Dir(sink) != cfg.DataDirPath() {
		t.Fatalf("snapshot outside data dir: %s", sink)
	}
	data, err := c.Writer().Restore()
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if _, ok := data["cpu"]; !ok {
		t.Errorf("expected cpu persisted, got %v", data)
	}
}
