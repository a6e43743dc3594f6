// Package container wires core widgetbus services using go.uber.org/dig.
package container

import (
	"fmt"

	"go.uber.org/dig"

	"github.com/widgetbus/widgetbus/internal/bridge"
	"github.com/widgetbus/widgetbus/internal/config"
	"github.com/widgetbus/widgetbus/internal/snapshot"
	"github.com/widgetbus/widgetbus/internal/store"
)

// Container holds the resolved core service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	store   *store.Store
	writer  *snapshot.Writer
	bridges *bridge.Manager
}

func (c *Container) Store() *store.Store      { return c.store }
func (c *Container) Writer() *snapshot.Writer { return c.writer }
func (c *Container) Bridges() *bridge.Manager { return c.bridges }

// New builds and wires all core services from cfg.
func New(cfg *config.Config) (*Container, error) {
	d := dig.New()

	if err := d.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}
	if err := d.Provide(newStore); err != nil {
		return nil, err
	}
	if err := d.Provide(newSink); err != nil {
		return nil, err
	}
	if err := d.Provide(newWriter); err != nil {
		return nil, err
	}
	if err := d.Provide(newBridgeManager); err != nil {
		return nil, err
	}

	var result *Container
	err := d.Invoke(func(
		st *store.Store,
		w *snapshot.Writer,
		bm *bridge.Manager,
	) {
		result = &Container{
			store:   st,
			writer:  w,
			bridges: bm,
		}
	})
	return result, err
}

// Close disconnects every bridge and flushes the final snapshot.
func (c *Container) Close() error {
	c.bridges.DisconnectAll()
	if err := c.writer.Close(); err != nil {
		return fmt.Errorf("close snapshot writer: %w", err)
	}
	return nil
}

func newStore() *store.Store {
	return store.New()
}

func newSink(cfg *config.Config) (snapshot.Sink, error) {
	return snapshot.NewFileSink(cfg.SnapshotPath())
}

func newWriter(cfg *config.Config, st *store.Store, sink snapshot.Sink) *snapshot.Writer {
	return snapshot.NewWriter(st, sink, cfg.DebounceWait(), cfg.DebounceMaxWait())
}

func newBridgeManager() *bridge.Manager {
	return bridge.NewManager()
}
