package job

import (
	"context"

	"github.com/target/mmk-jobqueue/internal/core"
	"github.com/target/mmk-jobqueue/internal/domain/model"
)

// SessionCleanup deletes expired sessions and reschedules itself.
type SessionCleanup struct{}

func (*SessionCleanup) Type() string { return TypeSessionCleanup }

func (j *SessionCleanup) Perform(ctx context.Context, st *State, tx core.QueueTx) (*model.EnqueueJob, error) {
	now := tx.Now()
	dupes, err := tx.DeleteScheduledAfter(ctx, j.Type(), now)
	if err != nil {
		return nil, dbError("delete scheduled session cleanups", err)
	}
	n, err := st.Records.DeleteExpiredSessions(ctx, tx.SQL(), now)
	if err != nil {
		return nil, dbError("delete expired sessions", err)
	}
	st.Logger.DebugContext(ctx, "session cleanup", "deleted_sessions", n, "deleted_duplicates", dupes)
	return EnqueueAt(j, st.Schedules.SessionCleanup.Next(now))
}

// QueueCleanup deletes successful queue items past the retention window and reschedules itself.
type QueueCleanup struct{}

func (*QueueCleanup) Type() string { return TypeQueueCleanup }

func (j *QueueCleanup) Perform(ctx context.Context, st *State, tx core.QueueTx) (*model.EnqueueJob, error) {
	now := tx.Now()
	dupes, err := tx.DeleteScheduledAfter(ctx, j.Type(), now)
	if err != nil {
		return nil, dbError("delete scheduled queue cleanups", err)
	}
	n, err := tx.DeleteSucceededBefore(ctx, now.Add(-st.QueueRetention))
	if err != nil {
		return nil, dbError("delete succeeded queue items", err)
	}
	st.Logger.DebugContext(ctx, "queue cleanup", "deleted_items", n, "deleted_duplicates", dupes)
	return EnqueueAt(j, st.Schedules.QueueCleanup.Next(now))
}
