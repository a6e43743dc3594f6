package store

// Producer is the raw write handle for one channel. It performs no
// validation; production code should publish through the widget package,
// which gates every write behind the channel's contract.
type Producer struct {
	s         *Store
	channelID string
	id        string
}

// ChannelID returns the bound channel id.
func (p *Producer) ChannelID() string { return p.channelID }

// RegistrationID returns the bound producer id.
func (p *Producer) RegistrationID() string { return p.id }

// Publish stores v as the channel's current value and notifies subscribers.
func (p *Producer) Publish(v any) { p.s.publish(p.channelID, v) }

// Update reads the current value (nil when none), applies fn, and publishes
// the result. fn runs outside the registry lock, so a concurrent publish may
// interleave between the read and the write.
func (p *Producer) Update(fn func(cur any) any) {
	cur, _ := p.s.get(p.channelID)
	p.s.publish(p.channelID, fn(cur))
}

// Clear drops the channel's value and notifies subscribers with nil.
func (p *Producer) Clear() { p.s.clear(p.channelID) }

// Get reads the channel's current value, for read-modify-write publishes.
func (p *Producer) Get() (any, bool) { return p.s.get(p.channelID) }

// Close unregisters the producer id.
func (p *Producer) Close() { p.s.Unregister(p.id) }

// Consumer is the raw read handle for one channel.
type Consumer struct {
	s         *Store
	channelID string
	id        string
}

// ChannelID returns the bound channel id.
func (c *Consumer) ChannelID() string { return c.channelID }

// RegistrationID returns the bound consumer id.
func (c *Consumer) RegistrationID() string { return c.id }

// Subscribe attaches fn to the channel. fn is invoked synchronously with the
// current value (nil when none) before Subscribe returns, then once per
// subsequent publish, in subscription order. The returned func cancels the
// subscription.
func (c *Consumer) Subscribe(fn func(any)) func() {
	return c.s.subscribe(c.channelID, fn)
}

// Get returns the channel's current value; ok is false when none is held.
func (c *Consumer) Get() (any, bool) { return c.s.get(c.channelID) }

// Close unregisters the consumer id.
func (c *Consumer) Close() { c.s.Unregister(c.id) }

// Duplex holds both roles of one channel under a single registration id.
type Duplex struct {
	Producer
	Consumer
}

// ChannelID returns the bound channel id.
func (d *Duplex) ChannelID() string { return d.Producer.channelID }

// RegistrationID returns the shared registration id.
func (d *Duplex) RegistrationID() string { return d.Producer.id }

// Close unregisters the shared id from both role sets.
func (d *Duplex) Close() { d.Producer.s.Unregister(d.Producer.id) }
