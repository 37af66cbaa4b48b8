// Package failurenotifier fans queue failure events out to the configured alert sinks.
package failurenotifier

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/target/mmk-jobqueue/internal/observability/notify"
	"github.com/target/mmk-jobqueue/internal/observability/statsd"
)

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the failure notifier service.
type Options struct {
	Logger  *slog.Logger
	Sinks   []SinkRegistration
	Metrics statsd.Sink
	// Timeout bounds each sink delivery. Defaults to 10s.
	Timeout time.Duration
	// SkipJobTypes suppresses notifications for noisy job types.
	SkipJobTypes []string
}

// Service dispatches failure events to all registered sinks.
type Service struct {
	logger  *slog.Logger
	sinks   []SinkRegistration
	metrics statsd.Sink
	timeout time.Duration
	skip    map[string]struct{}
}

// NewService constructs a failure notifier.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		name := entry.Name
		if name == "" {
			name = "sink"
		}
		sinks = append(sinks, SinkRegistration{Name: name, Sink: entry.Sink})
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	skip := make(map[string]struct{}, len(opts.SkipJobTypes))
	for _, jt := range opts.SkipJobTypes {
		skip[jt] = struct{}{}
	}

	return &Service{
		logger:  logger.With("component", "failure_notifier"),
		sinks:   sinks,
		metrics: opts.Metrics,
		timeout: timeout,
		skip:    skip,
	}
}

// NotifyQueueFailure delivers the payload to every sink concurrently and
// waits for all deliveries. Sink errors are logged, never returned.
func (s *Service) NotifyQueueFailure(ctx context.Context, payload notify.QueueFailurePayload) {
	if s == nil || len(s.sinks) == 0 {
		return
	}
	if _, ok := s.skip[payload.JobType]; ok {
		s.logger.DebugContext(ctx, "skipping failure notification",
			"queue_item_id", payload.ItemID,
			"job_type", payload.JobType,
		)
		return
	}

	if payload.Severity == "" {
		payload.Severity = notify.SeverityCritical
	}
	if payload.OccurredAt.IsZero() {
		payload.OccurredAt = time.Now().UTC()
	}

	var wg sync.WaitGroup
	for _, entry := range s.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.deliver(ctx, entry, payload)
		}()
	}
	wg.Wait()
}

func (s *Service) deliver(ctx context.Context, entry SinkRegistration, payload notify.QueueFailurePayload) {
	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result := "success"
	if err := entry.Sink.SendQueueFailure(sendCtx, payload); err != nil {
		result = "error"
		s.logger.ErrorContext(ctx, "failure notifier delivery error",
			"sink", entry.Name,
			"queue_item_id", payload.ItemID,
			"job_type", payload.JobType,
			"error", err,
		)
	}
	if s.metrics != nil {
		s.metrics.Count("queue.failure_notification", 1, map[string]string{
			"sink":   entry.Name,
			"result": result,
		})
	}
}

// Enabled reports whether the notifier has any active sinks.
func (s *Service) Enabled() bool {
	return s != nil && len(s.sinks) > 0
}
