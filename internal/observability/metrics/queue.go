// Package metrics emits standardised queue metrics through a statsd.Sink.
package metrics

import (
	"maps"
	"time"

	obserrors "github.com/target/mmk-jobqueue/internal/observability/errors"
	"github.com/target/mmk-jobqueue/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Transition names for queue item lifecycle events.
const (
	TransitionClaimed   = "claimed"
	TransitionCompleted = "completed"
	TransitionChild     = "child_enqueued"
	TransitionRetry     = "retry_scheduled"
	TransitionFailed    = "failed"
	TransitionEnqueued  = "enqueued"
)

// QueueMetric captures one queue item lifecycle event.
type QueueMetric struct {
	JobType    string
	Transition string
	Result     string
	Duration   time.Duration
	Err        error
}

// EmitQueueTransition emits queue.transition and, when Duration is set, queue.duration.
func EmitQueueTransition(sink statsd.Sink, in QueueMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"job_type":   valueOr(in.JobType, "unknown"),
		"transition": in.Transition,
		"result":     valueOr(in.Result, ResultSuccess),
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("queue.transition", 1, tags)
	if in.Duration > 0 {
		sink.Timing("queue.duration", in.Duration, maps.Clone(tags))
	}
}

// EmitLiveWorkers reports the number of running workers.
func EmitLiveWorkers(sink statsd.Sink, live int) {
	if sink == nil {
		return
	}
	sink.Gauge("queue.workers.live", float64(live), nil)
}

// EmitWorkerRespawn counts a worker restarted by the supervisor.
func EmitWorkerRespawn(sink statsd.Sink) {
	if sink == nil {
		return
	}
	sink.Count("queue.workers.respawned", 1, nil)
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
