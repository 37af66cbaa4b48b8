package job

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/target/mmk-jobqueue/internal/core"
	"github.com/target/mmk-jobqueue/internal/data/cryptoutil"
	"github.com/target/mmk-jobqueue/internal/domain/model"
	"github.com/target/mmk-jobqueue/internal/queue"
)

const (
	// DefaultInvitationTemplate is the Postmark template alias for invitations.
	DefaultInvitationTemplate = "user-invitation"
	// DefaultQueueRetention is how long successful queue items are kept.
	DefaultQueueRetention = 14 * 24 * time.Hour
	// DefaultTaskSyncConcurrency bounds concurrent aggregator calls during TaskSync.
	DefaultTaskSyncConcurrency = 4
)

// State holds the collaborators shared by every job.
// Remote clients may be nil when not configured; jobs needing them fail with a retryable error.
type State struct {
	Identity    core.IdentityProvider
	Mailer      core.Mailer
	Aggregators core.AggregatorClientFactory
	Encryptor   cryptoutil.Encryptor
	Records     core.RecordRepository
	Schedules   Schedules

	InvitationTemplate  string
	QueueRetention      time.Duration
	TaskSyncConcurrency int
	Logger              *slog.Logger
	// NewMessageID defaults to uuid.NewString.
	NewMessageID func() string
}

func (s State) withDefaults() State {
	if s.InvitationTemplate == "" {
		s.InvitationTemplate = DefaultInvitationTemplate
	}
	if s.QueueRetention <= 0 {
		s.QueueRetention = DefaultQueueRetention
	}
	if s.TaskSyncConcurrency <= 0 {
		s.TaskSyncConcurrency = DefaultTaskSyncConcurrency
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	if s.NewMessageID == nil {
		s.NewMessageID = uuid.NewString
	}
	s.Schedules = s.Schedules.withDefaults()
	return s
}

func notConfigured(what string) error {
	return &Error{Kind: KindClientOther, Message: what + " is not configured"}
}

// Dispatcher decodes queue payloads and performs the matching job.
type Dispatcher struct {
	state State
}

var _ queue.Performer = (*Dispatcher)(nil)

// NewDispatcher returns a Dispatcher over st.
func NewDispatcher(st State) (*Dispatcher, error) {
	if st.Records == nil {
		return nil, errors.New("record repository is required")
	}
	st = st.withDefaults()
	st.Logger = st.Logger.With("component", "jobs")
	return &Dispatcher{state: st}, nil
}

// Perform implements queue.Performer.
func (d *Dispatcher) Perform(ctx context.Context, payload json.RawMessage, tx core.QueueTx) (*model.EnqueueJob, error) {
	j, err := Decode(payload)
	if err != nil {
		return nil, err
	}
	return j.Perform(ctx, &d.state, tx)
}

// Schedules are the recurrence rules of the self-rescheduling jobs.
type Schedules struct {
	SessionCleanup cron.Schedule
	QueueCleanup   cron.Schedule
	TaskSync       cron.Schedule
}

// Default recurrence specs.
const (
	DefaultSessionCleanupSpec = "@every 60m"
	DefaultQueueCleanupSpec   = "@every 60m"
	DefaultTaskSyncSpec       = "@weekly"
)

// ParseSchedules parses standard cron specs (descriptors such as @every and @weekly allowed).
// Empty specs use the defaults.
func ParseSchedules(session, queueCleanup, taskSync string) (Schedules, error) {
	var (
		s    Schedules
		errs []error
	)
	parse := func(name, spec, def string) cron.Schedule {
		if spec == "" {
			spec = def
		}
		sched, err := cron.ParseStandard(spec)
		if err != nil {
			errs = append(errs, &Error{Kind: KindValidation, Message: name + " schedule", Err: err})
			return nil
		}
		return sched
	}
	s.SessionCleanup = parse(TypeSessionCleanup, session, DefaultSessionCleanupSpec)
	s.QueueCleanup = parse(TypeQueueCleanup, queueCleanup, DefaultQueueCleanupSpec)
	s.TaskSync = parse(TypeTaskSync, taskSync, DefaultTaskSyncSpec)
	return s, errors.Join(errs...)
}

// DefaultSchedules returns the default recurrence rules.
func DefaultSchedules() Schedules {
	s, err := ParseSchedules("", "", "")
	if err != nil {
		panic(err)
	}
	return s
}

func (s Schedules) withDefaults() Schedules {
	def := DefaultSchedules()
	if s.SessionCleanup == nil {
		s.SessionCleanup = def.SessionCleanup
	}
	if s.QueueCleanup == nil {
		s.QueueCleanup = def.QueueCleanup
	}
	if s.TaskSync == nil {
		s.TaskSync = def.TaskSync
	}
	return s
}
