package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/mmk-jobqueue/internal/domain/model"
	apperrors "github.com/target/mmk-jobqueue/internal/errors"
	"github.com/target/mmk-jobqueue/internal/mocks"
)

type fakeEngine struct {
	enqueued  []*model.EnqueueJob
	enqErr    error
	scheduled int
	live      int
}

func (f *fakeEngine) Enqueue(_ context.Context, j *model.EnqueueJob) (*model.QueueItem, error) {
	if f.enqErr != nil {
		return nil, f.enqErr
	}
	f.enqueued = append(f.enqueued, j)
	return &model.QueueItem{ID: "6a1f0c7e-3b7d-4d0c-9a51-0f6f3b1c2d3e", Job: j.Job}, nil
}

func (f *fakeEngine) ScheduleRecurring(context.Context) error { f.scheduled++; return nil }
func (f *fakeEngine) LiveWorkers() int                        { return f.live }
func (f *fakeEngine) WorkerCount() int                        { return 2 }
func (f *fakeEngine) Running() bool                           { return f.live > 0 }

const itemID = "0b8f3c9e-5d2a-4f61-8f0e-2c7a9d4e1b6f"

func newQueueService(t *testing.T) (*QueueService, *mocks.MockQueueStore, *fakeEngine) {
	t.Helper()
	store := mocks.NewMockQueueStore(gomock.NewController(t))
	engine := &fakeEngine{}
	svc, err := NewQueueService(QueueServiceOptions{Store: store, Engine: engine})
	require.NoError(t, err)
	return svc, store, engine
}

func TestNewQueueService_RequiresDependencies(t *testing.T) {
	_, err := NewQueueService(QueueServiceOptions{Engine: &fakeEngine{}})
	require.Error(t, err)
	_, err = NewQueueService(QueueServiceOptions{Store: mocks.NewMockQueueStore(gomock.NewController(t))})
	require.Error(t, err)
}

func TestQueueService_List(t *testing.T) {
	svc, store, _ := newQueueService(t)
	ctx := context.Background()

	store.EXPECT().List(ctx, model.ListQueueOptions{Limit: AdminListLimit}).Return([]*model.QueueItem{{ID: "a"}}, nil)
	items, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	failed := model.QueueStatusFailed
	store.EXPECT().List(ctx, model.ListQueueOptions{Status: &failed, Limit: AdminListLimit}).Return(nil, nil)
	_, err = svc.List(ctx, "Failed")
	require.NoError(t, err)
}

func TestQueueService_List_InvalidStatus(t *testing.T) {
	svc, _, _ := newQueueService(t)

	_, err := svc.List(context.Background(), "running")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "status", apperrors.GetField(err))
}

func TestQueueService_Get(t *testing.T) {
	svc, store, _ := newQueueService(t)
	ctx := context.Background()

	store.EXPECT().GetByID(ctx, itemID).Return(&model.QueueItem{ID: itemID}, nil)
	item, err := svc.Get(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, itemID, item.ID)

	store.EXPECT().GetByID(ctx, itemID).Return(nil, model.ErrQueueItemNotFound)
	_, err = svc.Get(ctx, itemID)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.Get(ctx, "not-a-uuid")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestQueueService_Delete(t *testing.T) {
	svc, store, _ := newQueueService(t)
	ctx := context.Background()

	store.EXPECT().Delete(ctx, itemID).Return(nil)
	require.NoError(t, svc.Delete(ctx, itemID))

	store.EXPECT().Delete(ctx, itemID).Return(model.ErrQueueItemNotFound)
	assert.True(t, apperrors.IsNotFound(svc.Delete(ctx, itemID)))

	assert.True(t, apperrors.IsNotFound(svc.Delete(ctx, "../etc")))

	store.EXPECT().Delete(ctx, itemID).Return(errors.New("disk full"))
	err := svc.Delete(ctx, itemID)
	require.Error(t, err)
	assert.False(t, apperrors.IsNotFound(err))
}

func TestQueueService_EnqueueInvitation(t *testing.T) {
	svc, _, engine := newQueueService(t)
	ctx := context.Background()

	item, err := svc.EnqueueInvitation(ctx, "mem-1")
	require.NoError(t, err)
	require.Len(t, engine.enqueued, 1)
	assert.JSONEq(t, `{"version":"V1","type":"CreateUser","membership_id":"mem-1"}`, string(item.Job))

	_, err = svc.EnqueueInvitation(ctx, " ")
	assert.True(t, apperrors.IsValidation(err))

	engine.enqErr = errors.New("store down")
	_, err = svc.EnqueueInvitation(ctx, "mem-2")
	require.Error(t, err)
}

func TestQueueService_ScheduleRecurringAndStatus(t *testing.T) {
	svc, _, engine := newQueueService(t)
	engine.live = 2

	require.NoError(t, svc.ScheduleRecurring(context.Background()))
	assert.Equal(t, 1, engine.scheduled)
	assert.Equal(t, PoolStatus{Running: true, LiveWorkers: 2, Workers: 2}, svc.Status())
}
