package bridge

import (
	"log/slog"
	"sort"
	"sync"
)

// ManagerStatus summarizes a manager's tracked bridges.
type ManagerStatus struct {
	Active    int // bridges tracked
	Connected int // bridges currently connected
}

// Manager tracks active bridges by name for bulk status and teardown, e.g.
// one dashboard with many job-backed widgets.
type Manager struct {
	mu      sync.Mutex
	bridges map[string]*Bridge
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{bridges: make(map[string]*Bridge)}
}

// Register stores b under name. Reusing a name replaces the previous entry;
// the old bridge is left running for its owner to disconnect.
func (m *Manager) Register(name string, b *Bridge) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bridges[name]; ok {
		slog.Warn("bridge: manager name reused", "name", name)
	}
	m.bridges[name] = b
}

// Get returns the bridge stored under name.
func (m *Manager) Get(name string) (*Bridge, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bridges[name]
	return b, ok
}

// All returns every tracked bridge, ordered by name.
func (m *Manager) All() []*Bridge {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.bridges))
	for name := range m.bridges {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Bridge, len(names))
	for i, name := range names {
		out[i] = m.bridges[name]
	}
	return out
}

// Unregister disconnects the named bridge and forgets it. Unknown names are
// a no-op.
func (m *Manager) Unregister(name string) {
	m.mu.Lock()
	b, ok := m.bridges[name]
	delete(m.bridges, name)
	m.mu.Unlock()

	if ok {
		b.Disconnect()
	}
}

// DisconnectAll disconnects and removes every tracked bridge.
func (m *Manager) DisconnectAll() {
	m.mu.Lock()
	bridges := make([]*Bridge, 0, len(m.bridges))
	for _, b := range m.bridges {
		bridges = append(bridges, b)
	}
	m.bridges = make(map[string]*Bridge)
	m.mu.Unlock()

	for _, b := range bridges {
		b.Disconnect()
	}
}

// Status counts tracked and connected bridges.
func (m *Manager) Status() ManagerStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := ManagerStatus{Active: len(m.bridges)}
	for _, b := range m.bridges {
		if b.Status().Connected {
			st.Connected++
		}
	}
	return st
}
