// Package widget provides the sanctioned read/write surface for channel
// data: handles bound to one channel and its contract, where every value in
// and out passes validation.
//
// Publishes are all-or-nothing: a value that fails its contract never
// touches the registry. Consumers never see invalid values: a value failing
// re-validation on the way out is logged and delivered as nil, so nil means
// "no valid data yet" rather than "explicitly cleared".
package widget

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/widgetbus/widgetbus/internal/contract"
	"github.com/widgetbus/widgetbus/internal/snapshot"
	"github.com/widgetbus/widgetbus/internal/store"
)

// Option configures handle construction.
type Option func(*options)

type options struct {
	writer  *snapshot.Writer
	initial any
}

// WithWriter attaches a snapshot writer; every successful publish and clear
// triggers a debounced save.
func WithWriter(w *snapshot.Writer) Option {
	return func(o *options) { o.writer = w }
}

// WithInitial seeds the channel with a validated initial value. Seeding only
// applies when the channel holds no value yet.
func WithInitial(v any) Option {
	return func(o *options) { o.initial = v }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// orGenerated falls back to a generated registration id. Ids should be
// caller-chosen and unique per (channel, purpose); the fallback keeps
// ad-hoc handles from colliding.
func orGenerated(id, prefix string) string {
	if id != "" {
		return id
	}
	return prefix + "-" + uuid.NewString()[:8]
}

// PublisherStats is a diagnostic snapshot of one publisher handle.
type PublisherStats struct {
	ChannelID   string
	PublisherID string
	WidgetType  contract.WidgetType
	Publishes   int64
	LastPublish time.Time
}

// Publisher is a validated write handle bound to one channel.
type Publisher struct {
	c      *contract.Contract
	h      *store.Producer
	writer *snapshot.Writer

	mu          sync.Mutex
	publishes   int64
	lastPublish time.Time
}

// NewPublisher registers publisherID as a producer of channelID carrying
// widget type t.
func NewPublisher(st *store.Store, channelID, publisherID string, t contract.WidgetType, opts ...Option) (*Publisher, error) {
	c, ok := contract.For(t)
	if !ok {
		return nil, fmt.Errorf("unknown widget type %q", t)
	}
	o := buildOptions(opts)

	var initial any
	if o.initial != nil {
		v, err := c.Validate(o.initial)
		if err != nil {
			return nil, fmt.Errorf("initial value: %w", err)
		}
		initial = v
	}

	return &Publisher{
		c:      c,
		h:      st.RegisterProducer(channelID, orGenerated(publisherID, "pub"), initial),
		writer: o.writer,
	}, nil
}

// Publish validates v and, on success, stores it and notifies subscribers.
// On failure the registry is untouched and the error names the violated
// fields.
func (p *Publisher) Publish(v any) error {
	typed, err := p.c.Validate(v)
	if err != nil {
		return err
	}
	p.h.Publish(typed)

	p.mu.Lock()
	p.publishes++
	p.lastPublish = time.Now()
	p.mu.Unlock()

	if p.writer != nil {
		p.writer.Trigger()
	}
	return nil
}

// Update reads the current value (nil when none), applies fn, and publishes
// the result through the same validation gate as Publish.
func (p *Publisher) Update(fn func(cur any) any) error {
	cur, _ := p.h.Get()
	return p.Publish(fn(cur))
}

// Clear drops the channel's value; the next snapshot save omits it.
func (p *Publisher) Clear() {
	p.h.Clear()
	if p.writer != nil {
		p.writer.Trigger()
	}
}

// SafeParse validates v without publishing, for pre-flight checks.
func (p *Publisher) SafeParse(v any) (any, error) {
	return p.c.Validate(v)
}

// Stats returns publish diagnostics.
func (p *Publisher) Stats() PublisherStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PublisherStats{
		ChannelID:   p.h.ChannelID(),
		PublisherID: p.h.RegistrationID(),
		WidgetType:  p.c.Type,
		Publishes:   p.publishes,
		LastPublish: p.lastPublish,
	}
}

// Close unregisters the publisher from the registry.
func (p *Publisher) Close() { p.h.Close() }

// ConsumerStats is a diagnostic snapshot of one consumer handle.
type ConsumerStats struct {
	ChannelID     string
	ConsumerID    string
	WidgetType    contract.WidgetType
	Subscriptions int64
}

// Consumer is a validated read handle bound to one channel.
type Consumer struct {
	c *contract.Contract
	h *store.Consumer

	mu   sync.Mutex
	subs int64
}

// NewConsumer registers consumerID as a consumer of channelID carrying
// widget type t.
func NewConsumer(st *store.Store, channelID, consumerID string, t contract.WidgetType) (*Consumer, error) {
	c, ok := contract.For(t)
	if !ok {
		return nil, fmt.Errorf("unknown widget type %q", t)
	}
	return &Consumer{c: c, h: st.RegisterConsumer(channelID, orGenerated(consumerID, "con"))}, nil
}

// Subscribe attaches cb to the channel. cb is invoked synchronously with the
// current value before Subscribe returns and once per subsequent publish. A
// value failing validation is never delivered: the failure is logged and cb
// receives nil for that notification.
func (c *Consumer) Subscribe(cb func(v any)) func() {
	c.mu.Lock()
	c.subs++
	c.mu.Unlock()

	cancel := c.h.Subscribe(func(raw any) {
		cb(c.checked(raw))
	})

	var once sync.Once
	return func() {
		cancel()
		once.Do(func() {
			c.mu.Lock()
			c.subs--
			c.mu.Unlock()
		})
	}
}

// Get returns the channel's current value, re-validated; nil when the
// channel holds no value or the held value fails its contract.
func (c *Consumer) Get() any {
	raw, ok := c.h.Get()
	if !ok {
		return nil
	}
	return c.checked(raw)
}

// Stats returns subscription diagnostics.
func (c *Consumer) Stats() ConsumerStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ConsumerStats{
		ChannelID:     c.h.ChannelID(),
		ConsumerID:    c.h.RegistrationID(),
		WidgetType:    c.c.Type,
		Subscriptions: c.subs,
	}
}

// Close unregisters the consumer from the registry.
func (c *Consumer) Close() { c.h.Close() }

func (c *Consumer) checked(raw any) any {
	if raw == nil {
		return nil
	}
	typed, err := c.c.Validate(raw)
	if err != nil {
		slog.Warn("widget: dropping invalid channel value",
			"channel", c.h.ChannelID(), "consumer", c.h.RegistrationID(), "err", err)
		return nil
	}
	return typed
}

// Duplex couples a Publisher and a Consumer for the same channel under one
// registration id. Diagnostics are per side: d.Publisher.Stats(),
// d.Consumer.Stats().
type Duplex struct {
	*Publisher
	*Consumer
}

// NewDuplex registers id in both roles on channelID.
func NewDuplex(st *store.Store, channelID, id string, t contract.WidgetType, opts ...Option) (*Duplex, error) {
	c, ok := contract.For(t)
	if !ok {
		return nil, fmt.Errorf("unknown widget type %q", t)
	}
	o := buildOptions(opts)

	var initial any
	if o.initial != nil {
		v, err := c.Validate(o.initial)
		if err != nil {
			return nil, fmt.Errorf("initial value: %w", err)
		}
		initial = v
	}

	h := st.Register(channelID, orGenerated(id, "dup"), initial)
	return &Duplex{
		Publisher: &Publisher{c: c, h: &h.Producer, writer: o.writer},
		Consumer:  &Consumer{c: c, h: &h.Consumer},
	}, nil
}

// Close unregisters the shared id from both role sets.
func (d *Duplex) Close() { d.Publisher.Close() }
