package queue

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/target/mmk-jobqueue/internal/core"
	"github.com/target/mmk-jobqueue/internal/domain/model"
	"github.com/target/mmk-jobqueue/internal/observability/notify"
	"github.com/target/mmk-jobqueue/internal/observability/statsd"
)

// Defaults applied by New when the corresponding option is zero.
const (
	DefaultWorkerCount = 2
	DefaultMaxRetry    = 5
	DefaultPollMin     = 10 * time.Second
	DefaultPollMax     = 20 * time.Second
	DefaultBackoffBase = time.Second
	DefaultMaxJitter   = 15 * time.Second
)

// FailureNotifier receives an event whenever an item becomes Failed.
// *failurenotifier.Service implements it.
type FailureNotifier interface {
	NotifyQueueFailure(ctx context.Context, payload notify.QueueFailurePayload)
}

// Options configures a Queue.
type Options struct {
	Store     core.QueueStore
	Performer Performer
	Logger    *slog.Logger

	WorkerCount int
	MaxRetry    int
	PollMin     time.Duration
	PollMax     time.Duration
	BackoffBase time.Duration
	MaxJitter   time.Duration
	// JobTimeout bounds a single Perform call. Zero disables the deadline.
	JobTimeout time.Duration

	// Rand drives poll intervals and retry jitter. Defaults to the global source.
	Rand *rand.Rand

	Metrics  statsd.Sink
	Notifier FailureNotifier
	// Recurring lists the jobs ScheduleRecurring keeps seeded.
	Recurring []model.RecurringJob
}

func (o *Options) applyDefaults() {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.WorkerCount <= 0 {
		o.WorkerCount = DefaultWorkerCount
	}
	if o.MaxRetry <= 0 {
		o.MaxRetry = DefaultMaxRetry
	}
	if o.PollMin <= 0 {
		o.PollMin = DefaultPollMin
	}
	if o.PollMax <= 0 {
		o.PollMax = DefaultPollMax
	}
	if o.PollMax < o.PollMin {
		o.PollMax = o.PollMin
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = DefaultBackoffBase
	}
	if o.MaxJitter < 0 {
		o.MaxJitter = 0
	} else if o.MaxJitter == 0 {
		o.MaxJitter = DefaultMaxJitter
	}
	if o.JobTimeout < 0 {
		o.JobTimeout = 0
	}
}

// randSource is the subset of math/rand/v2 the queue needs.
type randSource interface {
	Int64N(n int64) int64
}

type globalRand struct{}

func (globalRand) Int64N(n int64) int64 { return rand.Int64N(n) }

// lockedRand serializes access to a caller-supplied *rand.Rand, which is not
// safe for concurrent use by the workers.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Int64N(n int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Int64N(n)
}

func newRandSource(r *rand.Rand) randSource {
	if r == nil {
		return globalRand{}
	}
	return &lockedRand{r: r}
}

// between returns a uniformly random duration in [lo, hi). It returns lo when hi <= lo.
func between(src randSource, lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(src.Int64N(int64(hi-lo)))
}
