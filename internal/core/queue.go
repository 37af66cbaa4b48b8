// Package core defines the ports between the queue engine, its jobs and the data layer.
package core

import (
	"context"
	"database/sql"
	"time"

	"github.com/target/mmk-jobqueue/internal/domain/model"
)

// QueueStore is the durable record store behind the queue.
// Implementations: data.QueueRepo on PostgreSQL and on SQLite.
type QueueStore interface {
	// Enqueue inserts a root item in its own transaction.
	Enqueue(ctx context.Context, job *model.EnqueueJob) (*model.QueueItem, error)
	// WithTx runs fn inside a single transaction; fn's error rolls it back.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx QueueTx) error) error
	GetByID(ctx context.Context, id string) (*model.QueueItem, error)
	List(ctx context.Context, opts model.ListQueueOptions) ([]*model.QueueItem, error)
	Delete(ctx context.Context, id string) error
}

// QueueTx exposes the queue operations available inside a claim transaction.
type QueueTx interface {
	// ClaimNext locks the oldest eligible pending item, skipping rows locked by other
	// transactions. It returns model.ErrNoQueueItems when nothing is eligible.
	ClaimNext(ctx context.Context) (*model.QueueItem, error)
	// Insert adds a pending item, optionally linked to the item that produced it.
	Insert(ctx context.Context, job *model.EnqueueJob, parentID *string) (*model.QueueItem, error)
	// Update persists status, result, scheduled_at, failure_count and child_id and stamps updated_at.
	Update(ctx context.Context, item *model.QueueItem) (*model.QueueItem, error)
	// CountPending counts pending items whose job has the given type tag.
	CountPending(ctx context.Context, jobType string) (int, error)
	// DeleteScheduledAfter removes pending items of jobType scheduled strictly after the given time.
	DeleteScheduledAfter(ctx context.Context, jobType string, after time.Time) (int, error)
	// DeleteSucceededBefore removes successful items last updated before cutoff.
	DeleteSucceededBefore(ctx context.Context, cutoff time.Time) (int, error)
	// SQL returns the underlying transaction so jobs can touch business records atomically.
	SQL() *sql.Tx
	// Now returns the store clock.
	Now() time.Time
}

// RecordRepository reads and maintains the business records jobs operate on.
// Every method runs on the caller's transaction.
type RecordRepository interface {
	Membership(ctx context.Context, tx *sql.Tx, id string) (*model.Membership, error)
	Account(ctx context.Context, tx *sql.Tx, id string) (*model.Account, error)
	DeleteExpiredSessions(ctx context.Context, tx *sql.Tx, now time.Time) (int, error)
	FirstPartyAggregators(ctx context.Context, tx *sql.Tx) ([]*model.Aggregator, error)
	TaskExists(ctx context.Context, tx *sql.Tx, aggregatorID, taskID string) (bool, error)
}
