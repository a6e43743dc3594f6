package job

import (
	"sort"
	"sync"
)

// Feed is an in-memory Source: callers emit updates, subscribers receive
// them synchronously in subscription order. It backs the demo pipeline and
// tests, and the socket source uses it for fan-out.
type Feed struct {
	mu   sync.Mutex
	subs map[string]map[int]func(Update)
	next int
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[string]map[int]func(Update))}
}

// Subscribe attaches fn to updates for jobID.
func (f *Feed) Subscribe(jobID string, fn func(Update)) (func(), error) {
	f.mu.Lock()
	if f.subs[jobID] == nil {
		f.subs[jobID] = make(map[int]func(Update))
	}
	f.next++
	id := f.next
	f.subs[jobID][id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs[jobID], id)
		if len(f.subs[jobID]) == 0 {
			delete(f.subs, jobID)
		}
	}, nil
}

// Emit delivers u to every subscriber of u.ID, synchronously.
func (f *Feed) Emit(u Update) {
	f.mu.Lock()
	fns := make([]func(Update), 0, len(f.subs[u.ID]))
	ids := make([]int, 0, len(f.subs[u.ID]))
	for id := range f.subs[u.ID] {
		ids = append(ids, id)
	}
	// Map order is random; deliver in subscription order.
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, f.subs[u.ID][id])
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(u)
	}
}
