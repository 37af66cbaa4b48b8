package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/mmk-jobqueue/internal/observability/metrics"
)

// Run seeds recurring jobs, starts WorkerCount loops and supervises them until
// ctx is cancelled. A loop that exits while the pool is running is replaced.
// Run returns once every loop has drained.
func (q *Queue) Run(ctx context.Context) error {
	if !q.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer q.running.Store(false)

	if err := q.ScheduleRecurring(ctx); err != nil {
		q.logger.ErrorContext(ctx, "failed to schedule recurring jobs", "error", err)
	}

	q.logger.InfoContext(ctx, "starting queue workers",
		"workers", q.opts.WorkerCount,
		"poll_min", q.opts.PollMin,
		"poll_max", q.opts.PollMax,
		"max_retry", q.opts.MaxRetry,
	)

	exits := make(chan int, q.opts.WorkerCount)
	running := 0
	nextID := 0
	spawn := func() {
		q.spawnWorker(ctx, nextID, exits)
		nextID++
		running++
	}
	for range q.opts.WorkerCount {
		spawn()
	}

	for running > 0 {
		id := <-exits
		running--
		if ctx.Err() != nil {
			continue
		}
		q.logger.ErrorContext(ctx, "worker shut down unexpectedly", "worker", id)
		metrics.EmitWorkerRespawn(q.opts.Metrics)
		spawn()
	}

	q.logger.InfoContext(context.WithoutCancel(ctx), "queue workers stopped")
	return nil
}

func (q *Queue) spawnWorker(parent context.Context, id int, exits chan<- int) {
	ctx, cancel := context.WithCancel(parent)
	q.mu.Lock()
	q.workers[id] = cancel
	q.mu.Unlock()

	metrics.EmitLiveWorkers(q.opts.Metrics, int(q.live.Add(1)))

	go func() {
		logger := q.logger.With("worker", id)
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorContext(ctx, "worker panicked", "panic", fmt.Sprint(r))
			}
			cancel()
			q.mu.Lock()
			delete(q.workers, id)
			q.mu.Unlock()
			metrics.EmitLiveWorkers(q.opts.Metrics, int(q.live.Add(-1)))
			exits <- id
		}()
		q.workerLoop(ctx, logger)
	}()
}

// workerLoop polls until ctx is cancelled. An in-flight DequeueOne runs on a
// context detached from cancellation so a claimed item is always settled.
func (q *Queue) workerLoop(ctx context.Context, logger *slog.Logger) {
	for ctx.Err() == nil {
		item, err := q.DequeueOne(context.WithoutCancel(ctx))
		switch {
		case err != nil:
			logger.ErrorContext(ctx, "queue iteration failed", "error", err)
		case item != nil:
			continue
		}
		if !q.idle(ctx) {
			return
		}
	}
}

// idle sleeps a random interval in [PollMin, PollMax) and reports false when
// ctx was cancelled first.
func (q *Queue) idle(ctx context.Context) bool {
	timer := time.NewTimer(between(q.rand, q.opts.PollMin, q.opts.PollMax))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// stopWorker cancels one running loop without stopping the pool.
func (q *Queue) stopWorker() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, cancel := range q.workers {
		cancel()
		return true
	}
	return false
}
