// Package job defines the transport-independent job-update model consumed by
// bridges, and the Source contract a transport must satisfy: subscribe by
// job id, receive zero or more ordered events, unsubscribe.
package job

import "time"

// Status tags one phase of a job's lifecycle.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Terminal reports whether the job stops emitting after this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Update is one event from a job's lifecycle. Result carries the
// string-encoded payload when the event has one.
type Update struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	Result    *string   `json:"result"`
	Error     *string   `json:"error,omitempty"`
	Progress  *float64  `json:"progress,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Source is a subscribable stream of job updates. The returned cancel func
// stops delivery; events arriving after cancellation are never seen.
type Source interface {
	Subscribe(jobID string, fn func(Update)) (cancel func(), err error)
}
