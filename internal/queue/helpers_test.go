package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/target/mmk-jobqueue/internal/core"
	"github.com/target/mmk-jobqueue/internal/data"
	"github.com/target/mmk-jobqueue/internal/data/sqlitestore"
	"github.com/target/mmk-jobqueue/internal/domain/model"
	"github.com/target/mmk-jobqueue/internal/observability/statsd"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type harness struct {
	store   *sqlitestore.Store
	clock   *data.FixedTimeProvider
	queue   *Queue
	metrics *statsd.Recorder
}

func newHarness(t *testing.T, performer Performer, mutate ...func(*Options)) *harness {
	t.Helper()
	clock := data.NewFixedTimeProvider(baseTime)
	store, err := sqlitestore.Open(context.Background(), sqlitestore.Config{
		Path:         filepath.Join(t.TempDir(), "queue.db"),
		TimeProvider: clock,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	rec := &statsd.Recorder{}
	opts := Options{
		Store:     store.Queue,
		Performer: performer,
		Metrics:   rec,
		Rand:      rand.New(rand.NewPCG(1, 2)),
		PollMin:   5 * time.Millisecond,
		PollMax:   10 * time.Millisecond,
	}
	for _, m := range mutate {
		m(&opts)
	}
	q, err := New(opts)
	require.NoError(t, err)
	return &harness{store: store, clock: clock, queue: q, metrics: rec}
}

func (h *harness) enqueue(t *testing.T, payload string) *model.QueueItem {
	t.Helper()
	item, err := h.queue.Enqueue(context.Background(), &model.EnqueueJob{Job: json.RawMessage(payload)})
	require.NoError(t, err)
	return item
}

func (h *harness) get(t *testing.T, id string) *model.QueueItem {
	t.Helper()
	item, err := h.store.Queue.GetByID(context.Background(), id)
	require.NoError(t, err)
	return item
}

func payload(kind string) string {
	return fmt.Sprintf(`{"version":"V1","type":%q}`, kind)
}

// jobError mirrors the job package's classified errors.
type jobError struct {
	kind      string
	retryable bool
}

func (e *jobError) Error() string   { return e.kind + " failure" }
func (e *jobError) Retryable() bool { return e.retryable }
func (e *jobError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"kind": e.kind, "message": e.Error()})
}

var errTransient = &jobError{kind: "HttpStatusNotSuccess", retryable: true}

var errFatal = &jobError{kind: "MissingRecord", retryable: false}

func complete() Performer {
	return PerformerFunc(func(context.Context, json.RawMessage, core.QueueTx) (*model.EnqueueJob, error) {
		return nil, nil
	})
}

func failing(err error) Performer {
	return PerformerFunc(func(context.Context, json.RawMessage, core.QueueTx) (*model.EnqueueJob, error) {
		return nil, err
	})
}

func resultKind(t *testing.T, item *model.QueueItem) string {
	t.Helper()
	require.NotNil(t, item.Result)
	require.Equal(t, model.QueueResultError, item.Result.Type)
	var details struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(item.Result.Error, &details))
	return details.Kind
}

var errBoom = errors.New("boom")
