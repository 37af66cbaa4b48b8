package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/mmk-jobqueue/internal/core"
	"github.com/target/mmk-jobqueue/internal/domain/model"
	"github.com/target/mmk-jobqueue/internal/mocks"
	"github.com/target/mmk-jobqueue/internal/observability/notify"
)

func TestDequeueOne_EmptyQueue(t *testing.T) {
	h := newHarness(t, complete())

	item, err := h.queue.DequeueOne(context.Background())
	require.NoError(t, err)
	assert.Nil(t, item)
	assert.InDelta(t, 1, h.metrics.Sum("queue.transition", map[string]string{"transition": "claimed", "result": "noop"}), 0)
}

func TestDequeueOne_TerminalSuccess(t *testing.T) {
	h := newHarness(t, complete())
	queued := h.enqueue(t, payload("SessionCleanup"))
	h.clock.AddTime(time.Second)

	item, err := h.queue.DequeueOne(context.Background())
	require.NoError(t, err)
	require.NotNil(t, item)

	assert.Equal(t, queued.ID, item.ID)
	assert.Equal(t, model.QueueStatusSuccess, item.Status)
	assert.Equal(t, model.CompleteResult(), item.Result)
	assert.Nil(t, item.ScheduledAt)
	assert.Nil(t, item.ChildID)
	assert.Equal(t, 0, item.FailureCount)
	assert.True(t, item.UpdatedAt.Equal(h.clock.Now()))
	assert.InDelta(t, 1, h.metrics.Sum("queue.transition", map[string]string{"transition": "completed"}), 0)
	assert.InDelta(t, 1, h.metrics.Sum("queue.transition", map[string]string{
		"transition": "claimed",
		"result":     "success",
		"job_type":   "SessionCleanup",
	}), 0)
}

func TestDequeueOne_Chaining(t *testing.T) {
	next := &model.EnqueueJob{Job: json.RawMessage(payload("ResetPassword"))}
	h := newHarness(t, PerformerFunc(func(_ context.Context, raw json.RawMessage, _ core.QueueTx) (*model.EnqueueJob, error) {
		if string(raw) == payload("CreateUser") {
			return next, nil
		}
		return nil, nil
	}))
	parent := h.enqueue(t, payload("CreateUser"))

	item, err := h.queue.DequeueOne(context.Background())
	require.NoError(t, err)
	require.NotNil(t, item)

	assert.Equal(t, model.QueueStatusSuccess, item.Status)
	require.NotNil(t, item.Result)
	assert.Equal(t, model.QueueResultChild, item.Result.Type)
	require.NotNil(t, item.ChildID)
	assert.Equal(t, item.Result.ID, *item.ChildID)
	assert.Nil(t, item.ScheduledAt)

	child := h.get(t, *item.ChildID)
	assert.Equal(t, model.QueueStatusPending, child.Status)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, parent.ID, *child.ParentID)
	assert.Nil(t, child.ScheduledAt)
	assert.Equal(t, 0, child.FailureCount)
	assert.Equal(t, "ResetPassword", child.JobType())

	// The child is claimable right away.
	second, err := h.queue.DequeueOne(context.Background())
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, child.ID, second.ID)
}

func TestDequeueOne_ChildKeepsRequestedSchedule(t *testing.T) {
	later := baseTime.Add(time.Hour)
	h := newHarness(t, PerformerFunc(func(context.Context, json.RawMessage, core.QueueTx) (*model.EnqueueJob, error) {
		return &model.EnqueueJob{Job: json.RawMessage(payload("SessionCleanup")), ScheduledAt: &later}, nil
	}))
	h.enqueue(t, payload("SessionCleanup"))

	item, err := h.queue.DequeueOne(context.Background())
	require.NoError(t, err)
	child := h.get(t, *item.ChildID)
	require.NotNil(t, child.ScheduledAt)
	assert.True(t, child.ScheduledAt.Equal(later))
}

func TestDequeueOne_BoundedRetry(t *testing.T) {
	var notified []notify.QueueFailurePayload
	h := newHarness(t, failing(errTransient), func(o *Options) {
		o.Notifier = notifierFunc(func(_ context.Context, p notify.QueueFailurePayload) {
			notified = append(notified, p)
		})
	})
	queued := h.enqueue(t, payload("SendInvitationEmail"))
	ctx := context.Background()

	for n := 1; n <= DefaultMaxRetry; n++ {
		now := h.clock.Now()
		item, err := h.queue.DequeueOne(ctx)
		require.NoError(t, err)
		require.NotNil(t, item, "attempt %d", n)
		assert.Equal(t, queued.ID, item.ID)
		assert.Equal(t, n, item.FailureCount)
		assert.Equal(t, "HttpStatusNotSuccess", resultKind(t, item))

		if n == DefaultMaxRetry {
			assert.Equal(t, model.QueueStatusFailed, item.Status)
			assert.Nil(t, item.ScheduledAt)
			break
		}

		assert.Equal(t, model.QueueStatusPending, item.Status)
		require.NotNil(t, item.ScheduledAt)
		backoff := time.Second << (2 * (n - 1))
		assert.True(t, item.ScheduledAt.After(now.Add(backoff)), "attempt %d scheduled too early", n)
		assert.True(t, item.ScheduledAt.Before(now.Add(backoff+DefaultMaxJitter)), "attempt %d scheduled too late", n)

		// Not claimable until its time has come.
		none, err := h.queue.DequeueOne(ctx)
		require.NoError(t, err)
		assert.Nil(t, none)
		h.clock.SetTime(item.ScheduledAt.Add(time.Millisecond))
	}

	require.Len(t, notified, 1)
	assert.Equal(t, queued.ID, notified[0].ItemID)
	assert.False(t, notified[0].Fatal)
	assert.Equal(t, DefaultMaxRetry, notified[0].FailureCount)
	assert.InDelta(t, 4, h.metrics.Sum("queue.transition", map[string]string{"transition": "retry_scheduled"}), 0)
}

func TestDequeueOne_FatalShortCircuit(t *testing.T) {
	var notified []notify.QueueFailurePayload
	h := newHarness(t, failing(fmt.Errorf("load membership: %w", errFatal)), func(o *Options) {
		o.Notifier = notifierFunc(func(_ context.Context, p notify.QueueFailurePayload) {
			notified = append(notified, p)
		})
	})
	h.enqueue(t, payload("CreateUser"))

	item, err := h.queue.DequeueOne(context.Background())
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, model.QueueStatusFailed, item.Status)
	assert.Equal(t, 1, item.FailureCount)
	assert.Nil(t, item.ScheduledAt)
	assert.Equal(t, "MissingRecord", resultKind(t, item))

	require.Len(t, notified, 1)
	assert.True(t, notified[0].Fatal)
	assert.Equal(t, "CreateUser", notified[0].JobType)
}

func TestDequeueOne_NoReclaimOfTerminalRows(t *testing.T) {
	h := newHarness(t, failing(errFatal))
	failed := h.enqueue(t, payload("CreateUser"))
	_, err := h.queue.DequeueOne(context.Background())
	require.NoError(t, err)

	h.queue.opts.Performer = complete()
	succeeded := h.enqueue(t, payload("SessionCleanup"))
	_, err = h.queue.DequeueOne(context.Background())
	require.NoError(t, err)

	h.clock.AddTime(365 * 24 * time.Hour)
	for range 3 {
		item, err := h.queue.DequeueOne(context.Background())
		require.NoError(t, err)
		assert.Nil(t, item)
	}
	assert.Equal(t, model.QueueStatusFailed, h.get(t, failed.ID).Status)
	assert.Equal(t, model.QueueStatusSuccess, h.get(t, succeeded.ID).Status)
}

func TestDequeueOne_SchedulingRespected(t *testing.T) {
	h := newHarness(t, complete())
	at := baseTime.Add(10 * time.Minute)
	item, err := h.queue.Enqueue(context.Background(), &model.EnqueueJob{
		Job:         json.RawMessage(payload("TaskSync")),
		ScheduledAt: &at,
	})
	require.NoError(t, err)

	h.clock.SetTime(at.Add(-time.Second))
	got, err := h.queue.DequeueOne(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)

	h.clock.SetTime(at.Add(time.Second))
	got, err = h.queue.DequeueOne(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, item.ID, got.ID)
	assert.Nil(t, got.ScheduledAt)
}

func TestDequeueOne_AtMostOneClaim(t *testing.T) {
	var (
		mu    sync.Mutex
		seen  = map[int]int{}
		total = 25
	)
	h := newHarness(t, PerformerFunc(func(_ context.Context, raw json.RawMessage, _ core.QueueTx) (*model.EnqueueJob, error) {
		var p struct {
			N int `json:"n"`
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		mu.Lock()
		seen[p.N]++
		mu.Unlock()
		return nil, nil
	}))
	for i := range total {
		h.enqueue(t, fmt.Sprintf(`{"version":"V1","type":"SessionCleanup","n":%d}`, i))
	}

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				item, err := h.queue.DequeueOne(context.Background())
				if err != nil || item == nil {
					return
				}
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, total)
	for n, count := range seen {
		assert.Equal(t, 1, count, "item %d performed %d times", n, count)
	}
	items, err := h.store.Queue.List(context.Background(), model.ListQueueOptions{})
	require.NoError(t, err)
	for _, item := range items {
		assert.Equal(t, model.QueueStatusSuccess, item.Status)
	}
}

func TestDequeueOne_PanicIsFatal(t *testing.T) {
	h := newHarness(t, PerformerFunc(func(context.Context, json.RawMessage, core.QueueTx) (*model.EnqueueJob, error) {
		panic("nil map write")
	}))
	h.enqueue(t, payload("TaskSync"))

	item, err := h.queue.DequeueOne(context.Background())
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, model.QueueStatusFailed, item.Status)
	assert.Equal(t, 1, item.FailureCount)
	assert.Equal(t, "Panic", resultKind(t, item))
}

func TestDequeueOne_FailedJobWritesAreRolledBack(t *testing.T) {
	h := newHarness(t, PerformerFunc(func(ctx context.Context, _ json.RawMessage, tx core.QueueTx) (*model.EnqueueJob, error) {
		if _, err := tx.SQL().ExecContext(ctx,
			`INSERT INTO accounts (id, name, created_at) VALUES ($1, $2, $3)`,
			"acct-1", "partial", tx.Now(),
		); err != nil {
			return nil, err
		}
		return nil, errTransient
	}))
	h.enqueue(t, payload("CreateUser"))

	item, err := h.queue.DequeueOne(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, item.FailureCount)
	assert.Equal(t, model.QueueStatusPending, item.Status)

	var n int
	require.NoError(t, h.store.DB.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM accounts`).Scan(&n))
	assert.Zero(t, n)
}

func TestDequeueOne_SucceededJobWritesCommit(t *testing.T) {
	h := newHarness(t, PerformerFunc(func(ctx context.Context, _ json.RawMessage, tx core.QueueTx) (*model.EnqueueJob, error) {
		_, err := tx.SQL().ExecContext(ctx,
			`INSERT INTO accounts (id, name, created_at) VALUES ($1, $2, $3)`,
			"acct-1", "kept", tx.Now(),
		)
		return nil, err
	}))
	h.enqueue(t, payload("CreateUser"))

	_, err := h.queue.DequeueOne(context.Background())
	require.NoError(t, err)

	var name string
	require.NoError(t, h.store.DB.QueryRowContext(context.Background(), `SELECT name FROM accounts WHERE id = $1`, "acct-1").Scan(&name))
	assert.Equal(t, "kept", name)
}

func TestDequeueOne_JobTimeoutIsRetryable(t *testing.T) {
	h := newHarness(t, PerformerFunc(func(ctx context.Context, _ json.RawMessage, _ core.QueueTx) (*model.EnqueueJob, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), func(o *Options) { o.JobTimeout = 20 * time.Millisecond })
	h.enqueue(t, payload("TaskSync"))

	item, err := h.queue.DequeueOne(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.QueueStatusPending, item.Status)
	assert.Equal(t, 1, item.FailureCount)
	assert.NotNil(t, item.ScheduledAt)
	assert.Equal(t, "Timeout", resultKind(t, item))
	assert.InDelta(t, 1, h.metrics.Sum("queue.transition", map[string]string{"error_class": "timeout"}), 0)
}

func TestDequeueOne_InvalidFollowUpFails(t *testing.T) {
	h := newHarness(t, PerformerFunc(func(context.Context, json.RawMessage, core.QueueTx) (*model.EnqueueJob, error) {
		return &model.EnqueueJob{Job: json.RawMessage(`[1,2]`)}, nil
	}))
	h.enqueue(t, payload("CreateUser"))

	item, err := h.queue.DequeueOne(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.QueueStatusFailed, item.Status)
	assert.Nil(t, item.ChildID)
}

func TestDequeueOne_StoreErrorsSurface(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockQueueStore(ctrl)
	tx := mocks.NewMockQueueTx(ctrl)

	store.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context, core.QueueTx) error) error {
			return fn(ctx, tx)
		})
	tx.EXPECT().ClaimNext(gomock.Any()).Return(nil, errBoom)

	q, err := New(Options{Store: store, Performer: complete()})
	require.NoError(t, err)

	item, err := q.DequeueOne(context.Background())
	require.ErrorIs(t, err, errBoom)
	assert.Nil(t, item)
}

func TestDequeueOne_UpdateErrorRollsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockQueueStore(ctrl)
	tx := mocks.NewMockQueueTx(ctrl)
	claimed := &model.QueueItem{ID: "item-1", Status: model.QueueStatusPending, Job: json.RawMessage(payload("CreateUser"))}

	store.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context, core.QueueTx) error) error {
			return fn(ctx, tx)
		})
	tx.EXPECT().ClaimNext(gomock.Any()).Return(claimed, nil)
	tx.EXPECT().SQL().Return(nil)
	tx.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, item *model.QueueItem) (*model.QueueItem, error) {
			assert.Equal(t, model.QueueStatusSuccess, item.Status)
			assert.Equal(t, model.QueueStatusPending, claimed.Status, "claimed item must not be mutated")
			return nil, errBoom
		})

	q, err := New(Options{Store: store, Performer: complete()})
	require.NoError(t, err)

	_, err = q.DequeueOne(context.Background())
	require.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "update item-1")
}

type notifierFunc func(ctx context.Context, payload notify.QueueFailurePayload)

func (f notifierFunc) NotifyQueueFailure(ctx context.Context, payload notify.QueueFailurePayload) {
	f(ctx, payload)
}
