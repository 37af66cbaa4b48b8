// Package notify defines queue failure notifications and the sinks that deliver them.
package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// QueueFailurePayload captures the data emitted when a queue item becomes Failed.
type QueueFailurePayload struct {
	ItemID       string
	JobType      string
	ParentID     string
	FailureCount int
	// Fatal is true when the job failed without exhausting its retries.
	Fatal      bool
	Error      string
	ErrorClass string
	Severity   string
	OccurredAt time.Time
	Metadata   map[string]string
}

// Sink describes a destination capable of consuming queue failure notifications.
type Sink interface {
	SendQueueFailure(ctx context.Context, payload QueueFailurePayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload QueueFailurePayload) error

// SendQueueFailure implements the Sink interface.
func (f SinkFunc) SendQueueFailure(ctx context.Context, payload QueueFailurePayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}

// Summary renders a one-line description shared by sinks.
func (p QueueFailurePayload) Summary() string {
	id := p.ItemID
	if id == "" {
		id = "unknown"
	}
	jobType := p.JobType
	if jobType == "" {
		jobType = "unknown"
	}
	return "Queue item " + id + " (" + jobType + ") failed"
}
