// Package snapshot persists the registry's channel values.
//
// Publishes trigger a debounced write: repeated triggers within the quiet
// window collapse into a single save of whatever the registry holds at flush
// time, with a max-wait bound so a steady publish stream still hits disk.
package snapshot

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/romdo/go-debounce"

	"github.com/widgetbus/widgetbus/internal/store"
)

// Sink is the durable storage contract: one full snapshot in, one out.
type Sink interface {
	Save(data map[string]any) error
	Load() (map[string]any, error)
}

// FileSink stores the snapshot as one indented JSON file.
type FileSink struct {
	path string
}

// NewFileSink creates a FileSink at path, creating parent directories.
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileSink{path: path}, nil
}

// Path returns the snapshot file location.
func (f *FileSink) Path() string { return f.path }

// Save writes the snapshot, replacing any previous one.
func (f *FileSink) Save(data map[string]any) error {
	buf, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	buf = append(buf, '\n')
	if err := os.WriteFile(f.path, buf, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", f.path, err)
	}
	return nil
}

// Load reads the snapshot. A missing file is not an error: it returns nil.
func (f *FileSink) Load() (map[string]any, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot %s: %w", f.path, err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", f.path, err)
	}
	return out, nil
}

const defaultWait = 250 * time.Millisecond

// Writer owns the debounced persistence side-effect for one registry.
type Writer struct {
	st      *store.Store
	sink    Sink
	trigger func()
	cancel  func()
	writes  atomic.Int64
}

// NewWriter couples st to sink. wait is the quiet period; maxWait bounds how
// long a steady trigger stream can defer the save. Zero values take the
// package defaults.
func NewWriter(st *store.Store, sink Sink, wait, maxWait time.Duration) *Writer {
	if wait <= 0 {
		wait = defaultWait
	}
	if maxWait < wait {
		maxWait = 4 * wait
	}
	w := &Writer{st: st, sink: sink}
	w.trigger, w.cancel = debounce.NewWithMaxWait(wait, maxWait, w.flush)
	return w
}

// Trigger schedules a debounced save.
func (w *Writer) Trigger() { w.trigger() }

// Flush saves immediately, bypassing the debounce window.
func (w *Writer) Flush() error {
	if err := w.sink.Save(w.st.AllData()); err != nil {
		return err
	}
	w.writes.Add(1)
	return nil
}

// Restore loads the last snapshot from the sink; nil when none exists.
func (w *Writer) Restore() (map[string]any, error) {
	return w.sink.Load()
}

// Writes reports how many saves have completed.
func (w *Writer) Writes() int64 { return w.writes.Load() }

// Close cancels any pending debounced save and writes a final snapshot.
func (w *Writer) Close() error {
	w.cancel()
	return w.Flush()
}

func (w *Writer) flush() {
	if err := w.Flush(); err != nil {
		slog.Error("snapshot: save failed", "err", err)
	}
}
