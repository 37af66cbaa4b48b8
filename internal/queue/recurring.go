package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/target/mmk-jobqueue/internal/core"
	"github.com/target/mmk-jobqueue/internal/domain/model"
)

// ScheduleRecurring makes sure every recurring job kind has a pending item.
// Each kind is checked and seeded in its own transaction; the jobs prune their
// own future duplicates, so concurrent seeding converges.
func (q *Queue) ScheduleRecurring(ctx context.Context) error {
	var errs []error
	for _, rj := range q.opts.Recurring {
		if err := q.seed(ctx, rj); err != nil {
			errs = append(errs, fmt.Errorf("schedule %s: %w", rj.Type, err))
		}
	}
	return errors.Join(errs...)
}

func (q *Queue) seed(ctx context.Context, rj model.RecurringJob) error {
	return q.store.WithTx(ctx, func(ctx context.Context, tx core.QueueTx) error {
		n, err := tx.CountPending(ctx, rj.Type)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		item, err := tx.Insert(ctx, &model.EnqueueJob{Job: rj.Job}, nil)
		if err != nil {
			return err
		}
		q.logger.InfoContext(ctx, "scheduled recurring job", "job_type", rj.Type, "queue_item_id", item.ID)
		return nil
	})
}
