// Package queue is the durable, polling job queue engine. Items live in the
// queue table; a pool of workers claims them one at a time under a row lock,
// hands the payload to a Performer and records the outcome in the same
// transaction.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/target/mmk-jobqueue/internal/core"
	"github.com/target/mmk-jobqueue/internal/domain/model"
	"github.com/target/mmk-jobqueue/internal/observability/metrics"
)

var (
	// ErrStoreRequired is returned by New without a store.
	ErrStoreRequired = errors.New("queue store is required")
	// ErrPerformerRequired is returned by New without a performer.
	ErrPerformerRequired = errors.New("queue performer is required")
	// ErrAlreadyRunning is returned when Run is called on a running queue.
	ErrAlreadyRunning = errors.New("queue is already running")
)

// Queue owns the worker pool and the enqueue entry point.
type Queue struct {
	opts   Options
	store  core.QueueStore
	logger *slog.Logger
	retry  RetryPolicy
	rand   randSource

	running atomic.Bool
	live    atomic.Int32

	mu      sync.Mutex
	workers map[int]context.CancelFunc
}

// New validates opts, applies defaults and returns a stopped Queue.
func New(opts Options) (*Queue, error) {
	if opts.Store == nil {
		return nil, ErrStoreRequired
	}
	if opts.Performer == nil {
		return nil, ErrPerformerRequired
	}
	opts.applyDefaults()

	src := newRandSource(opts.Rand)
	retry := NewRetryPolicy(opts, nil)
	retry.rand = src

	return &Queue{
		opts:    opts,
		store:   opts.Store,
		logger:  opts.Logger.With("component", "queue"),
		retry:   retry,
		rand:    src,
		workers: make(map[int]context.CancelFunc),
	}, nil
}

// Enqueue inserts a root item. It is the only queue operation that surfaces errors to callers.
func (q *Queue) Enqueue(ctx context.Context, job *model.EnqueueJob) (*model.QueueItem, error) {
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("enqueue: %w", err)
	}
	item, err := q.store.Enqueue(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("enqueue: %w", err)
	}
	metrics.EmitQueueTransition(q.opts.Metrics, metrics.QueueMetric{
		JobType:    item.JobType(),
		Transition: metrics.TransitionEnqueued,
		Result:     metrics.ResultSuccess,
	})
	q.logger.DebugContext(ctx, "queue item enqueued",
		"queue_item_id", item.ID,
		"job_type", item.JobType(),
		"scheduled_at", item.ScheduledAt,
	)
	return item, nil
}

// LiveWorkers returns the number of worker loops currently running.
func (q *Queue) LiveWorkers() int {
	return int(q.live.Load())
}

// WorkerCount returns the configured pool size.
func (q *Queue) WorkerCount() int {
	return q.opts.WorkerCount
}

// Running reports whether Run is active.
func (q *Queue) Running() bool {
	return q.running.Load()
}
