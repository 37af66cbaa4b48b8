package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/mmk-jobqueue/internal/core"
	"github.com/target/mmk-jobqueue/internal/domain/model"
	"github.com/target/mmk-jobqueue/internal/mocks"
)

func recurring(kinds ...string) []model.RecurringJob {
	out := make([]model.RecurringJob, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, model.RecurringJob{Type: k, Job: json.RawMessage(payload(k))})
	}
	return out
}

func countByType(t *testing.T, h *harness) map[string]int {
	t.Helper()
	items, err := h.store.Queue.List(context.Background(), model.ListQueueOptions{})
	require.NoError(t, err)
	out := map[string]int{}
	for _, item := range items {
		out[item.JobType()]++
	}
	return out
}

func TestScheduleRecurring_SeedsOncePerKind(t *testing.T) {
	h := newHarness(t, complete(), func(o *Options) {
		o.Recurring = recurring("SessionCleanup", "QueueCleanup", "TaskSync")
	})
	ctx := context.Background()

	require.NoError(t, h.queue.ScheduleRecurring(ctx))
	require.NoError(t, h.queue.ScheduleRecurring(ctx))

	assert.Equal(t, map[string]int{"SessionCleanup": 1, "QueueCleanup": 1, "TaskSync": 1}, countByType(t, h))

	items, err := h.store.Queue.List(ctx, model.ListQueueOptions{})
	require.NoError(t, err)
	for _, item := range items {
		assert.Nil(t, item.ScheduledAt, "seeded items are eligible immediately")
		assert.Nil(t, item.ParentID)
	}
}

func TestScheduleRecurring_ScheduledItemCounts(t *testing.T) {
	h := newHarness(t, complete(), func(o *Options) { o.Recurring = recurring("TaskSync") })
	ctx := context.Background()
	later := baseTime.Add(7 * 24 * time.Hour)
	_, err := h.queue.Enqueue(ctx, &model.EnqueueJob{Job: json.RawMessage(payload("TaskSync")), ScheduledAt: &later})
	require.NoError(t, err)

	require.NoError(t, h.queue.ScheduleRecurring(ctx))
	assert.Equal(t, 1, countByType(t, h)["TaskSync"])
}

func TestScheduleRecurring_TerminalItemsDoNotCount(t *testing.T) {
	h := newHarness(t, complete(), func(o *Options) { o.Recurring = recurring("SessionCleanup") })
	ctx := context.Background()
	h.enqueue(t, payload("SessionCleanup"))
	_, err := h.queue.DequeueOne(ctx)
	require.NoError(t, err)

	require.NoError(t, h.queue.ScheduleRecurring(ctx))
	assert.Equal(t, 2, countByType(t, h)["SessionCleanup"])
}

func TestScheduleRecurring_JoinsErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockQueueStore(ctrl)
	tx := mocks.NewMockQueueTx(ctrl)

	store.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context, core.QueueTx) error) error {
			return fn(ctx, tx)
		}).Times(2)
	tx.EXPECT().CountPending(gomock.Any(), "SessionCleanup").Return(0, errBoom)
	tx.EXPECT().CountPending(gomock.Any(), "QueueCleanup").Return(1, nil)

	q, err := New(Options{Store: store, Performer: complete(), Recurring: recurring("SessionCleanup", "QueueCleanup")})
	require.NoError(t, err)

	err = q.ScheduleRecurring(context.Background())
	require.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "schedule SessionCleanup")
}
