// Package store implements the channel registry: a single in-process
// authority mapping channel ids to a current value plus the producer and
// consumer registrations attached to it.
//
// The registry is an explicit object: construct one with New and pass it
// around; tests can run as many isolated registries as they like. One mutex
// guards all registry state. Subscriber callbacks run after the lock is
// released, on a snapshot of the subscriber list taken inside the critical
// section, so callbacks may re-enter the registry; a callback racing a
// concurrent publish may observe the newer value.
package store

import (
	"log/slog"
	"sort"
	"sync"
)

// Role marks which side of a channel a registration sits on.
type Role int

const (
	RoleProducer Role = iota
	RoleConsumer
	RoleBoth
)

func (r Role) String() string {
	switch r {
	case RoleProducer:
		return "producer"
	case RoleConsumer:
		return "consumer"
	case RoleBoth:
		return "both"
	}
	return "unknown"
}

// ChannelInfo is a diagnostic snapshot of one channel.
type ChannelInfo struct {
	ChannelID string `json:"channelId"`
	Producers int    `json:"producers"`
	Consumers int    `json:"consumers"`
	HasValue  bool   `json:"hasValue"`
}

// registration is the side-table entry mapping an id to its channel and role.
type registration struct {
	channelID string
	role      Role
}

type subscription struct {
	id int
	fn func(any)
}

type entry struct {
	value     any
	hasValue  bool
	producers map[string]struct{}
	consumers map[string]struct{}
	subs      []subscription
}

// Store is the channel registry.
type Store struct {
	mu       sync.Mutex
	channels map[string]*entry
	ids      map[string]registration
	nextSub  int
}

// New creates an empty registry.
func New() *Store {
	return &Store{
		channels: make(map[string]*entry),
		ids:      make(map[string]registration),
	}
}

// RegisterProducer adds producerID to channelID's producer set, creating the
// channel if absent. A non-nil initial value seeds the channel only when it
// holds no value yet. The returned handle writes without validation; the
// validated path lives in the widget package.
func (s *Store) RegisterProducer(channelID, producerID string, initial any) *Producer {
	s.mu.Lock()
	e := s.ensureLocked(channelID)
	if initial != nil && !e.hasValue {
		e.value, e.hasValue = initial, true
	}
	e.producers[producerID] = struct{}{}
	s.trackLocked(producerID, channelID, RoleProducer)
	s.mu.Unlock()

	return &Producer{s: s, channelID: channelID, id: producerID}
}

// RegisterConsumer adds consumerID to channelID's consumer set, creating the
// channel if absent. Registration never seeds a value.
func (s *Store) RegisterConsumer(channelID, consumerID string) *Consumer {
	s.mu.Lock()
	e := s.ensureLocked(channelID)
	e.consumers[consumerID] = struct{}{}
	s.trackLocked(consumerID, channelID, RoleConsumer)
	s.mu.Unlock()

	return &Consumer{s: s, channelID: channelID, id: consumerID}
}

// Register adds id to both role sets of channelID under a single
// registration, seeding with initial like RegisterProducer.
func (s *Store) Register(channelID, id string, initial any) *Duplex {
	s.mu.Lock()
	e := s.ensureLocked(channelID)
	if initial != nil && !e.hasValue {
		e.value, e.hasValue = initial, true
	}
	e.producers[id] = struct{}{}
	e.consumers[id] = struct{}{}
	s.trackLocked(id, channelID, RoleBoth)
	s.mu.Unlock()

	return &Duplex{
		Producer: Producer{s: s, channelID: channelID, id: id},
		Consumer: Consumer{s: s, channelID: channelID, id: id},
	}
}

// Unregister removes id from whichever role sets it belongs to. When a
// channel loses its last producer and consumer its entry is deleted and the
// held value is discarded. Unknown ids are a no-op.
func (s *Store) Unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.ids[id]
	if !ok {
		return
	}
	delete(s.ids, id)

	e, ok := s.channels[reg.channelID]
	if !ok {
		return
	}
	delete(e.producers, id)
	delete(e.consumers, id)
	if len(e.producers) == 0 && len(e.consumers) == 0 {
		delete(s.channels, reg.channelID)
	}
}

// TypeInfo returns a per-channel diagnostic snapshot, sorted by channel id.
func (s *Store) TypeInfo() []ChannelInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ChannelInfo, 0, len(s.channels))
	for id, e := range s.channels {
		out = append(out, ChannelInfo{
			ChannelID: id,
			Producers: len(e.producers),
			Consumers: len(e.consumers),
			HasValue:  e.hasValue,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChannelID < out[j].ChannelID })
	return out
}

// AllData returns the current value of every channel that holds one.
func (s *Store) AllData() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]any, len(s.channels))
	for id, e := range s.channels {
		if e.hasValue {
			out[id] = e.value
		}
	}
	return out
}

// AllProducers returns every channel's producer ids, sorted.
func (s *Store) AllProducers() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]string, len(s.channels))
	for id, e := range s.channels {
		out[id] = sortedKeys(e.producers)
	}
	return out
}

// AllConsumers returns every channel's consumer ids, sorted.
func (s *Store) AllConsumers() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]string, len(s.channels))
	for id, e := range s.channels {
		out[id] = sortedKeys(e.consumers)
	}
	return out
}

// ClearData drops every channel's value without touching registrations.
// Subscribers are notified with nil so they stop rendering stale data.
func (s *Store) ClearData() {
	s.mu.Lock()
	var notify []func(any)
	for _, e := range s.channels {
		if !e.hasValue {
			continue
		}
		e.value, e.hasValue = nil, false
		for _, sub := range e.subs {
			notify = append(notify, sub.fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range notify {
		fn(nil)
	}
}

// Reset drops all channels and registrations.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels = make(map[string]*entry)
	s.ids = make(map[string]registration)
}

// ─── internal ──────────────────────────────────────────────────────────────

func (s *Store) ensureLocked(channelID string) *entry {
	e, ok := s.channels[channelID]
	if !ok {
		e = &entry{
			producers: make(map[string]struct{}),
			consumers: make(map[string]struct{}),
		}
		s.channels[channelID] = e
	}
	return e
}

// trackLocked records the id → (channel, role) side-table entry. Reusing an
// id on a different channel overwrites the old entry; the old channel keeps
// the id in its role sets until the channel itself dies, so the reuse is
// loudly logged.
func (s *Store) trackLocked(id, channelID string, role Role) {
	if prev, ok := s.ids[id]; ok && prev.channelID != channelID {
		slog.Warn("store: registration id reused across channels",
			"id", id, "previous", prev.channelID, "channel", channelID)
	}
	s.ids[id] = registration{channelID: channelID, role: role}
}

// publish stores v and notifies subscribers in subscription order.
func (s *Store) publish(channelID string, v any) {
	s.mu.Lock()
	e, ok := s.channels[channelID]
	if !ok {
		s.mu.Unlock()
		slog.Warn("store: publish to unknown channel", "channel", channelID)
		return
	}
	e.value, e.hasValue = v, true
	subs := snapshotSubs(e)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}

// clear drops channelID's value and notifies subscribers with nil.
func (s *Store) clear(channelID string) {
	s.mu.Lock()
	e, ok := s.channels[channelID]
	if !ok {
		s.mu.Unlock()
		return
	}
	e.value, e.hasValue = nil, false
	subs := snapshotSubs(e)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(nil)
	}
}

// get reads the current value of channelID.
func (s *Store) get(channelID string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.channels[channelID]
	if !ok || !e.hasValue {
		return nil, false
	}
	return e.value, true
}

// subscribe attaches fn to channelID and invokes it synchronously with the
// current value (nil when none) before returning the cancel func.
func (s *Store) subscribe(channelID string, fn func(any)) func() {
	s.mu.Lock()
	e, ok := s.channels[channelID]
	if !ok {
		e = s.ensureLocked(channelID)
	}
	s.nextSub++
	subID := s.nextSub
	e.subs = append(e.subs, subscription{id: subID, fn: fn})
	var current any
	if e.hasValue {
		current = e.value
	}
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		e, ok := s.channels[channelID]
		if !ok {
			return
		}
		for i, sub := range e.subs {
			if sub.id == subID {
				e.subs = append(e.subs[:i], e.subs[i+1:]...)
				break
			}
		}
	}
}

func snapshotSubs(e *entry) []func(any) {
	out := make([]func(any), len(e.subs))
	for i, sub := range e.subs {
		out[i] = sub.fn
	}
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
