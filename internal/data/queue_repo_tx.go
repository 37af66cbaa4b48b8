package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/target/mmk-jobqueue/internal/core"
	"github.com/target/mmk-jobqueue/internal/domain/model"
)

// queueTx implements core.QueueTx on a database/sql transaction.
type queueTx struct {
	tx   *sql.Tx
	repo *QueueRepo
}

var _ core.QueueTx = (*queueTx)(nil)

func (q *queueTx) SQL() *sql.Tx { return q.tx }

func (q *queueTx) Now() time.Time { return q.repo.timeProvider.Now().UTC() }

func (q *queueTx) ClaimNext(ctx context.Context) (*model.QueueItem, error) {
	query := `SELECT ` + queueColumns + `
		FROM queue
		WHERE status = $1
		  AND (scheduled_at IS NULL OR scheduled_at < $2)
		ORDER BY updated_at ASC, id ASC
		LIMIT 1` + q.repo.lockClause()

	row := q.tx.QueryRowContext(ctx, query, int(model.QueueStatusPending), q.Now())
	item, err := scanQueueItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNoQueueItems
	}
	if err != nil {
		return nil, fmt.Errorf("claim queue item: %w", err)
	}
	return item, nil
}

func (q *queueTx) Insert(ctx context.Context, job *model.EnqueueJob, parentID *string) (*model.QueueItem, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	now := q.Now()
	row := q.tx.QueryRowContext(ctx, `
		INSERT INTO queue (id, created_at, updated_at, scheduled_at, failure_count, status, job, parent_id)
		VALUES ($1, $2, $3, $4, 0, $5, $6, $7)
		RETURNING `+queueColumns,
		uuid.NewString(),
		now,
		now,
		nullableTime(job.ScheduledAt),
		int(model.QueueStatusPending),
		string(job.Job),
		nullableString(parentID),
	)
	item, err := scanQueueItem(row)
	if err != nil {
		return nil, fmt.Errorf("insert queue item: %w", err)
	}
	return item, nil
}

func (q *queueTx) Update(ctx context.Context, item *model.QueueItem) (*model.QueueItem, error) {
	if item == nil || item.ID == "" {
		return nil, ErrQueueItemIDRequired
	}
	result, err := encodeResult(item.Result)
	if err != nil {
		return nil, err
	}

	row := q.tx.QueryRowContext(ctx, `
		UPDATE queue
		SET status = $2,
		    result = $3,
		    scheduled_at = $4,
		    failure_count = $5,
		    child_id = $6,
		    updated_at = $7
		WHERE id = $1
		RETURNING `+queueColumns,
		item.ID,
		int(item.Status),
		result,
		nullableTime(item.ScheduledAt),
		item.FailureCount,
		nullableString(item.ChildID),
		q.Now(),
	)
	updated, err := scanQueueItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrQueueItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update queue item: %w", err)
	}
	return updated, nil
}

func (q *queueTx) CountPending(ctx context.Context, jobType string) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM queue WHERE status = $1 AND ` + q.repo.jobTypeExpr() + ` = $2`
	if err := q.tx.QueryRowContext(ctx, query, int(model.QueueStatusPending), jobType).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pending %s: %w", jobType, err)
	}
	return n, nil
}

func (q *queueTx) DeleteScheduledAfter(ctx context.Context, jobType string, after time.Time) (int, error) {
	query := `DELETE FROM queue
		WHERE status = $1
		  AND ` + q.repo.jobTypeExpr() + ` = $2
		  AND scheduled_at IS NOT NULL
		  AND scheduled_at > $3`
	res, err := q.tx.ExecContext(ctx, query, int(model.QueueStatusPending), jobType, after.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete scheduled %s: %w", jobType, err)
	}
	return rowsAffected(res)
}

func (q *queueTx) DeleteSucceededBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := q.tx.ExecContext(ctx,
		`DELETE FROM queue WHERE status = $1 AND updated_at < $2`,
		int(model.QueueStatusSuccess), cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("delete succeeded items: %w", err)
	}
	return rowsAffected(res)
}

func rowsAffected(res sql.Result) (int, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return int(n), nil
}
