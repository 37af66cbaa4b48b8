package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/mmk-jobqueue/internal/domain/model"
	"github.com/target/mmk-jobqueue/internal/mocks"
)

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{Performer: complete()})
	require.ErrorIs(t, err, ErrStoreRequired)

	ctrl := gomock.NewController(t)
	_, err = New(Options{Store: mocks.NewMockQueueStore(ctrl)})
	require.ErrorIs(t, err, ErrPerformerRequired)
}

func TestNew_Defaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	q, err := New(Options{Store: mocks.NewMockQueueStore(ctrl), Performer: complete(), PollMin: 30 * time.Second, PollMax: time.Second})
	require.NoError(t, err)

	assert.Equal(t, DefaultWorkerCount, q.WorkerCount())
	assert.Equal(t, DefaultMaxRetry, q.opts.MaxRetry)
	assert.Equal(t, DefaultBackoffBase, q.opts.BackoffBase)
	assert.Equal(t, DefaultMaxJitter, q.opts.MaxJitter)
	assert.Equal(t, q.opts.PollMin, q.opts.PollMax)
	assert.Zero(t, q.opts.JobTimeout)
}

func TestEnqueue_RootItem(t *testing.T) {
	h := newHarness(t, complete())
	at := baseTime.Add(5 * time.Minute)

	item, err := h.queue.Enqueue(context.Background(), &model.EnqueueJob{
		Job:         json.RawMessage(payload("CreateUser")),
		ScheduledAt: &at,
	})
	require.NoError(t, err)
	assert.Equal(t, model.QueueStatusPending, item.Status)
	assert.Equal(t, 0, item.FailureCount)
	assert.Nil(t, item.ParentID)
	require.NotNil(t, item.ScheduledAt)
	assert.True(t, item.ScheduledAt.Equal(at))
	assert.InDelta(t, 1, h.metrics.Sum("queue.transition", map[string]string{"transition": "enqueued", "job_type": "CreateUser"}), 0)
}

func TestEnqueue_RejectsInvalidPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockQueueStore(ctrl)
	q, err := New(Options{Store: store, Performer: complete()})
	require.NoError(t, err)

	for _, raw := range []string{`"nope"`, `null`, `[]`} {
		item, err := q.Enqueue(context.Background(), &model.EnqueueJob{Job: json.RawMessage(raw)})
		require.Error(t, err, raw)
		assert.Nil(t, item, raw)
	}
}

func TestEnqueue_SurfacesStoreErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockQueueStore(ctrl)
	store.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil, errBoom)

	q, err := New(Options{Store: store, Performer: complete()})
	require.NoError(t, err)

	_, err = q.Enqueue(context.Background(), &model.EnqueueJob{Job: json.RawMessage(payload("TaskSync"))})
	require.ErrorIs(t, err, errBoom)
}
