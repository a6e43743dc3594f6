// Package bridge translates an external job's asynchronous update stream
// into validated publishes on one or more channels.
//
// A bridge is resilient to bad updates: a transform or validation failure is
// recorded in its status and the bridge keeps listening. It is not reusable:
// once disconnected it delivers nothing and stays disconnected.
package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/widgetbus/widgetbus/internal/job"
	"github.com/widgetbus/widgetbus/internal/widget"
)

// Filter decides whether a job update is processed. A nil Filter processes
// every update.
type Filter func(job.Update) bool

// Transform converts a raw string-encoded job result into a channel payload.
// A nil Transform JSON-decodes the raw result.
type Transform func(raw string) (any, error)

// OnStatus returns a Filter passing only updates with one of the given
// statuses.
func OnStatus(statuses ...job.Status) Filter {
	return func(u job.Update) bool {
		for _, s := range statuses {
			if u.Status == s {
				return true
			}
		}
		return false
	}
}

// TransformError wraps a transform failure, including recovered panics.
type TransformError struct {
	JobID string
	Err   error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform result of job %s: %v", e.JobID, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// Options configures a single-channel bridge.
type Options struct {
	Filter    Filter
	Transform Transform
}

// Branch is one (publisher, filter, transform) target of a multi-channel
// bridge; each branch processes every update independently.
type Branch struct {
	Publisher *widget.Publisher
	Filter    Filter
	Transform Transform
}

// Status is a point-in-time bridge snapshot, safe to poll.
type Status struct {
	Connected  bool
	LastUpdate time.Time // zero when no update has been applied
	LastError  error
	Updates    int64
}

type branch struct {
	pub       *widget.Publisher
	filter    Filter
	transform Transform
}

// Bridge binds one job's update stream to its target channels.
type Bridge struct {
	jobID    string
	branches []branch

	mu         sync.Mutex
	connected  bool
	cancel     func()
	closed     bool
	lastUpdate time.Time
	lastErr    error
	updates    int64
}

// Connect subscribes to jobID's updates and routes them to pub. The bridge
// takes ownership of pub: Disconnect also closes its registration.
func Connect(src job.Source, jobID string, pub *widget.Publisher, opts Options) (*Bridge, error) {
	return ConnectMulti(src, jobID, []Branch{{
		Publisher: pub,
		Filter:    opts.Filter,
		Transform: opts.Transform,
	}})
}

// ConnectMulti fans one job's updates out to several channels. Each branch
// filters, transforms, and publishes independently; the aggregate status is
// connected while the underlying subscription is active, and LastError
// reflects the most recent error across branches.
func ConnectMulti(src job.Source, jobID string, branches []Branch) (*Bridge, error) {
	if len(branches) == 0 {
		return nil, errors.New("bridge: at least one branch required")
	}
	b := &Bridge{jobID: jobID}
	for _, br := range branches {
		if br.Publisher == nil {
			return nil, errors.New("bridge: branch without publisher")
		}
		t := br.Transform
		if t == nil {
			t = decodeJSON
		}
		b.branches = append(b.branches, branch{pub: br.Publisher, filter: br.Filter, transform: t})
	}

	cancel, err := src.Subscribe(jobID, b.onUpdate)
	if err != nil {
		return nil, fmt.Errorf("subscribe to job %s: %w", jobID, err)
	}

	b.mu.Lock()
	b.cancel = cancel
	b.connected = true
	b.mu.Unlock()

	slog.Info("bridge: connected", "job", jobID, "branches", len(b.branches))
	return b, nil
}

// JobID returns the bound job id.
func (b *Bridge) JobID() string { return b.jobID }

// Status returns the current bridge state.
func (b *Bridge) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Status{
		Connected:  b.connected,
		LastUpdate: b.lastUpdate,
		LastError:  b.lastErr,
		Updates:    b.updates,
	}
}

// Disconnect unsubscribes from the update stream and closes every branch
// publisher's registration. Idempotent.
func (b *Bridge) Disconnect() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.connected = false
	cancel := b.cancel
	b.cancel = nil
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for i := range b.branches {
		b.branches[i].pub.Close()
	}
	slog.Info("bridge: disconnected", "job", b.jobID)
}

// onUpdate runs the per-event pipeline: filter, require a result payload,
// transform, publish through the validated handle. One bad update never
// tears the bridge down.
func (b *Bridge) onUpdate(u job.Update) {
	b.mu.Lock()
	if !b.connected {
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()

	var (
		published bool
		eventErr  error
	)
	for i := range b.branches {
		br := &b.branches[i]
		if br.filter != nil && !br.filter(u) {
			continue
		}
		if u.Result == nil {
			continue
		}

		v, err := runTransform(br.transform, *u.Result)
		if err != nil {
			eventErr = &TransformError{JobID: b.jobID, Err: err}
			slog.Warn("bridge: transform failed",
				"job", b.jobID, "channel", br.pub.Stats().ChannelID, "err", err)
			continue
		}
		if err := br.pub.Publish(v); err != nil {
			eventErr = err
			slog.Warn("bridge: publish rejected",
				"job", b.jobID, "channel", br.pub.Stats().ChannelID, "err", err)
			continue
		}
		published = true
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if eventErr != nil {
		b.lastErr = eventErr
	}
	if published {
		b.lastUpdate = time.Now()
		b.updates++
		if eventErr == nil {
			b.lastErr = nil
		}
	}
}

// runTransform shields the bridge from panicking transforms.
func runTransform(t Transform, raw string) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t(raw)
}

// decodeJSON is the default transform: the raw result is already the
// channel's shape, string-encoded.
func decodeJSON(raw string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	return v, nil
}
