package failurenotifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/mmk-jobqueue/internal/observability/notify"
	"github.com/target/mmk-jobqueue/internal/observability/statsd"
)

func TestServiceNotifyQueueFailure(t *testing.T) {
	var (
		mu       sync.Mutex
		received []notify.QueueFailurePayload
	)
	capture := notify.SinkFunc(func(_ context.Context, payload notify.QueueFailurePayload) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, payload)
		return nil
	})

	var rec statsd.Recorder
	svc := NewService(Options{
		Metrics: &rec,
		Sinks: []SinkRegistration{
			{Name: "a", Sink: capture},
			{Name: "b", Sink: capture},
			{Name: "nil"},
		},
	})
	require.True(t, svc.Enabled())

	svc.NotifyQueueFailure(context.Background(), notify.QueueFailurePayload{ItemID: "123", JobType: "CreateUser"})

	require.Len(t, received, 2)
	assert.Equal(t, notify.SeverityCritical, received[0].Severity)
	assert.False(t, received[0].OccurredAt.IsZero())
	assert.InDelta(t, 2, rec.Sum("queue.failure_notification", map[string]string{"result": "success"}), 0)
}

func TestServiceDisabled(t *testing.T) {
	svc := NewService(Options{})
	assert.False(t, svc.Enabled())
	assert.NotPanics(t, func() {
		svc.NotifyQueueFailure(context.Background(), notify.QueueFailurePayload{})
	})

	var nilSvc *Service
	assert.False(t, nilSvc.Enabled())
}

func TestServiceLogsErrorsAndCounts(t *testing.T) {
	var rec statsd.Recorder
	svc := NewService(Options{
		Metrics: &rec,
		Sinks: []SinkRegistration{{
			Sink: notify.SinkFunc(func(context.Context, notify.QueueFailurePayload) error {
				return errors.New("boom")
			}),
		}},
	})

	svc.NotifyQueueFailure(context.Background(), notify.QueueFailurePayload{ItemID: "x"})
	assert.InDelta(t, 1, rec.Sum("queue.failure_notification", map[string]string{"sink": "sink", "result": "error"}), 0)
}

func TestServiceSkipsJobTypes(t *testing.T) {
	called := false
	svc := NewService(Options{
		SkipJobTypes: []string{"SessionCleanup"},
		Sinks: []SinkRegistration{{Name: "x", Sink: notify.SinkFunc(func(context.Context, notify.QueueFailurePayload) error {
			called = true
			return nil
		})}},
	})

	svc.NotifyQueueFailure(context.Background(), notify.QueueFailurePayload{JobType: "SessionCleanup"})
	assert.False(t, called)
}

func TestServiceAppliesTimeout(t *testing.T) {
	svc := NewService(Options{
		Timeout: 20 * time.Millisecond,
		Sinks: []SinkRegistration{{Name: "slow", Sink: notify.SinkFunc(func(ctx context.Context, _ notify.QueueFailurePayload) error {
			<-ctx.Done()
			return ctx.Err()
		})}},
	})

	done := make(chan struct{})
	go func() {
		svc.NotifyQueueFailure(context.Background(), notify.QueueFailurePayload{ItemID: "slow"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification did not honour the per-sink timeout")
	}
}
