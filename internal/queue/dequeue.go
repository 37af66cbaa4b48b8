package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/target/mmk-jobqueue/internal/core"
	"github.com/target/mmk-jobqueue/internal/domain/model"
	obserrors "github.com/target/mmk-jobqueue/internal/observability/errors"
	"github.com/target/mmk-jobqueue/internal/observability/metrics"
	"github.com/target/mmk-jobqueue/internal/observability/notify"
)

// outcome records what happened to a claimed item so it can be reported after commit.
type outcome struct {
	item       *model.QueueItem
	jobType    string
	transition string
	jobErr     error
	duration   time.Duration
}

// DequeueOne claims the oldest eligible item, performs it and records the resulting
// transition in one transaction. It returns nil, nil when no item is eligible.
// Job failures are recorded on the item, not returned; only store errors are.
func (q *Queue) DequeueOne(ctx context.Context) (*model.QueueItem, error) {
	var out *outcome
	err := q.store.WithTx(ctx, func(ctx context.Context, tx core.QueueTx) error {
		item, err := tx.ClaimNext(ctx)
		if errors.Is(err, model.ErrNoQueueItems) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("claim next: %w", err)
		}

		out, err = q.process(ctx, item, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		metrics.EmitQueueTransition(q.opts.Metrics, metrics.QueueMetric{
			Transition: metrics.TransitionClaimed,
			Result:     metrics.ResultNoop,
		})
		return nil, nil
	}

	metrics.EmitQueueTransition(q.opts.Metrics, metrics.QueueMetric{
		JobType:    out.jobType,
		Transition: metrics.TransitionClaimed,
	})
	q.report(ctx, out)
	return out.item, nil
}

func (q *Queue) process(ctx context.Context, item *model.QueueItem, tx core.QueueTx) (*outcome, error) {
	jobType := item.JobType()
	start := time.Now()
	next, jobErr := q.perform(ctx, item, tx)
	duration := time.Since(start)

	var sp *savepointError
	if errors.As(jobErr, &sp) {
		return nil, sp
	}
	if jobErr == nil && next != nil {
		if err := next.Validate(); err != nil {
			next, jobErr = nil, &invalidFollowUpError{err: err}
		}
	}

	update := *item
	var transition string
	switch {
	case jobErr == nil && next == nil:
		transition = metrics.TransitionCompleted
		update.Status = model.QueueStatusSuccess
		update.Result = model.CompleteResult()
		update.ScheduledAt = nil

	case jobErr == nil:
		child, err := tx.Insert(ctx, next, &item.ID)
		if err != nil {
			return nil, fmt.Errorf("insert child of %s: %w", item.ID, err)
		}
		transition = metrics.TransitionChild
		update.Status = model.QueueStatusSuccess
		update.Result = model.ChildResult(child.ID)
		update.ChildID = &child.ID
		update.ScheduledAt = nil

	default:
		update.FailureCount++
		update.Result = model.ErrorResult(ErrorDetails(jobErr))
		update.ScheduledAt = nil
		update.Status = model.QueueStatusFailed
		transition = metrics.TransitionFailed
		if IsRetryable(jobErr) {
			if at, ok := q.retry.RescheduleFrom(tx.Now(), update.FailureCount); ok {
				update.Status = model.QueueStatusPending
				update.ScheduledAt = &at
				transition = metrics.TransitionRetry
			}
		}
	}

	saved, err := tx.Update(ctx, &update)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", item.ID, err)
	}
	return &outcome{
		item:       saved,
		jobType:    jobType,
		transition: transition,
		jobErr:     jobErr,
		duration:   duration,
	}, nil
}

func (q *Queue) report(ctx context.Context, out *outcome) {
	item := out.item
	result := metrics.ResultSuccess
	if out.jobErr != nil {
		result = metrics.ResultError
	}
	metrics.EmitQueueTransition(q.opts.Metrics, metrics.QueueMetric{
		JobType:    out.jobType,
		Transition: out.transition,
		Result:     result,
		Duration:   out.duration,
		Err:        out.jobErr,
	})

	attrs := []any{
		"queue_item_id", item.ID,
		"job_type", out.jobType,
		"failure_count", item.FailureCount,
		"transition", out.transition,
	}
	switch out.transition {
	case metrics.TransitionRetry:
		q.logger.WarnContext(ctx, "queue job failed, retry scheduled",
			append(attrs, "error", out.jobErr, "scheduled_at", item.ScheduledAt)...)
	case metrics.TransitionFailed:
		q.logger.ErrorContext(ctx, "queue job failed", append(attrs, "error", out.jobErr)...)
		q.notifyFailure(ctx, out)
	default:
		q.logger.DebugContext(ctx, "queue job succeeded", attrs...)
	}
}

func (q *Queue) notifyFailure(ctx context.Context, out *outcome) {
	if q.opts.Notifier == nil {
		return
	}
	item := out.item
	payload := notify.QueueFailurePayload{
		ItemID:       item.ID,
		JobType:      out.jobType,
		FailureCount: item.FailureCount,
		Fatal:        !IsRetryable(out.jobErr),
		Error:        out.jobErr.Error(),
		ErrorClass:   obserrors.Classify(out.jobErr),
		Severity:     notify.SeverityCritical,
		OccurredAt:   item.UpdatedAt,
	}
	if item.ParentID != nil {
		payload.ParentID = *item.ParentID
	}
	q.opts.Notifier.NotifyQueueFailure(ctx, payload)
}

// invalidFollowUpError is recorded when a job returns a follow-up that cannot be stored.
type invalidFollowUpError struct{ err error }

func (e *invalidFollowUpError) Error() string { return "invalid follow-up job: " + e.err.Error() }

func (e *invalidFollowUpError) Unwrap() error { return e.err }

func (e *invalidFollowUpError) Retryable() bool { return false }
