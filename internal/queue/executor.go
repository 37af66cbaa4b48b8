package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/target/mmk-jobqueue/internal/core"
	"github.com/target/mmk-jobqueue/internal/data/pgxutil"
	"github.com/target/mmk-jobqueue/internal/domain/model"
)

// Performer runs a job payload inside the claim transaction. A non-nil EnqueueJob
// is inserted as the item's child in the same transaction.
type Performer interface {
	Perform(ctx context.Context, payload json.RawMessage, tx core.QueueTx) (*model.EnqueueJob, error)
}

// PerformerFunc adapts a function to Performer.
type PerformerFunc func(ctx context.Context, payload json.RawMessage, tx core.QueueTx) (*model.EnqueueJob, error)

// Perform implements Performer.
func (f PerformerFunc) Perform(ctx context.Context, payload json.RawMessage, tx core.QueueTx) (*model.EnqueueJob, error) {
	return f(ctx, payload, tx)
}

// IsRetryable reports whether err should be retried. Errors exposing
// Retryable() decide for themselves; everything else is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

// PanicError is reported when a job panics. It is never retried.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("job panicked: %v", e.Value) }

// Retryable implements the retry classification.
func (e *PanicError) Retryable() bool { return false }

// Class implements observability/errors.Classifier.
func (e *PanicError) Class() string { return "panic" }

// MarshalJSON renders the stored error details.
func (e *PanicError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"kind": "Panic", "message": fmt.Sprint(e.Value)})
}

// TimeoutError is reported when a job overruns JobTimeout. It is retried.
type TimeoutError struct {
	Cause error
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("job timed out: %v", e.Cause) }

func (e *TimeoutError) Unwrap() error { return e.Cause }

// Retryable implements the retry classification.
func (e *TimeoutError) Retryable() bool { return true }

// Class implements observability/errors.Classifier.
func (e *TimeoutError) Class() string { return "timeout" }

// MarshalJSON renders the stored error details.
func (e *TimeoutError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"kind": "Timeout", "message": e.Error()})
}

// ErrorDetails encodes err for the Error result. Errors that implement
// json.Marshaler describe themselves; others are stored as {"kind":"Other"}.
func ErrorDetails(err error) json.RawMessage {
	var m json.Marshaler
	if errors.As(err, &m) {
		if raw, mErr := m.MarshalJSON(); mErr == nil && json.Valid(raw) {
			return raw
		}
	}
	raw, _ := json.Marshal(map[string]string{"kind": "Other", "message": err.Error()})
	return raw
}

const performSavepoint = "queue_perform"

// perform runs the payload under a savepoint so a failed job's partial writes are
// discarded while the claim transaction stays usable for recording the failure.
func (q *Queue) perform(ctx context.Context, item *model.QueueItem, tx core.QueueTx) (next *model.EnqueueJob, err error) {
	sqlTx := tx.SQL()
	if sqlTx != nil {
		if spErr := pgxutil.Savepoint(ctx, sqlTx, performSavepoint); spErr != nil {
			return nil, spErr
		}
	}

	jobCtx, cancel := ctx, context.CancelFunc(func() {})
	if q.opts.JobTimeout > 0 {
		jobCtx, cancel = context.WithTimeout(ctx, q.opts.JobTimeout)
	}
	defer cancel()

	next, err = q.invoke(jobCtx, item, tx)
	if err != nil && errors.Is(jobCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		err = &TimeoutError{Cause: err}
	}

	if sqlTx != nil {
		err = settleSavepoint(ctx, sqlTx, err)
	}
	return next, err
}

func (q *Queue) invoke(ctx context.Context, item *model.QueueItem, tx core.QueueTx) (next *model.EnqueueJob, err error) {
	defer func() {
		if r := recover(); r != nil {
			next = nil
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return q.opts.Performer.Perform(ctx, item.Job, tx)
}

func settleSavepoint(ctx context.Context, tx *sql.Tx, jobErr error) error {
	if jobErr == nil {
		if err := pgxutil.ReleaseSavepoint(ctx, tx, performSavepoint); err != nil {
			return &savepointError{err: err}
		}
		return nil
	}
	if err := pgxutil.RollbackToSavepoint(ctx, tx, performSavepoint); err != nil {
		return &savepointError{err: errors.Join(jobErr, err)}
	}
	return jobErr
}

// savepointError means the claim transaction itself is unusable; the whole
// iteration is rolled back instead of recording a job failure.
type savepointError struct{ err error }

func (e *savepointError) Error() string { return e.err.Error() }

func (e *savepointError) Unwrap() error { return e.err }
