// Package job is the catalog of V1 queue jobs and the dispatcher that runs them.
//
// Payloads are tagged twice: {"version":"V1","type":"CreateUser","membership_id":"..."}.
// The version tag lets a future payload format coexist with stored V1 items.
package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/target/mmk-jobqueue/internal/core"
	"github.com/target/mmk-jobqueue/internal/domain/model"
)

// Version is the payload version this package writes and reads.
const Version = "V1"

// Job type tags.
const (
	TypeCreateUser          = "CreateUser"
	TypeResetPassword       = "ResetPassword"
	TypeSendInvitationEmail = "SendInvitationEmail"
	TypeSessionCleanup      = "SessionCleanup"
	TypeQueueCleanup        = "QueueCleanup"
	TypeTaskSync            = "TaskSync"
)

// Job is one unit of work. Perform returns the follow-up job, if any.
type Job interface {
	Type() string
	Perform(ctx context.Context, st *State, tx core.QueueTx) (*model.EnqueueJob, error)
}

var registry = map[string]func() Job{
	TypeCreateUser:          func() Job { return &CreateUser{} },
	TypeResetPassword:       func() Job { return &ResetPassword{} },
	TypeSendInvitationEmail: func() Job { return &SendInvitationEmail{} },
	TypeSessionCleanup:      func() Job { return &SessionCleanup{} },
	TypeQueueCleanup:        func() Job { return &QueueCleanup{} },
	TypeTaskSync:            func() Job { return &TaskSync{} },
}

// Types returns every registered job type.
func Types() []string {
	return []string{
		TypeCreateUser, TypeResetPassword, TypeSendInvitationEmail,
		TypeSessionCleanup, TypeQueueCleanup, TypeTaskSync,
	}
}

type envelope struct {
	Version string `json:"version"`
	Type    string `json:"type"`
}

// Encode serializes j with its version and type tags.
func Encode(j Job) (json.RawMessage, error) {
	body, err := json.Marshal(j)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", j.Type(), err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: job must serialize to an object: %w", j.Type(), err)
	}
	fields["version"], _ = json.Marshal(Version)
	fields["type"], _ = json.Marshal(j.Type())
	return json.Marshal(fields)
}

// Decode parses a tagged payload into its job.
func Decode(payload json.RawMessage) (Job, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, &Error{Kind: KindDecode, Message: "decode job envelope", Err: err}
	}
	if env.Version != Version {
		return nil, &Error{Kind: KindDecode, Message: fmt.Sprintf("unsupported job version %q", env.Version)}
	}
	factory, ok := registry[env.Type]
	if !ok {
		return nil, &Error{Kind: KindDecode, Message: fmt.Sprintf("unknown job type %q", env.Type)}
	}
	j := factory()
	if err := json.Unmarshal(payload, j); err != nil {
		return nil, &Error{Kind: KindDecode, Message: "decode " + env.Type, Err: err}
	}
	return j, nil
}

// Enqueue builds an immediately eligible request for j.
func Enqueue(j Job) (*model.EnqueueJob, error) {
	payload, err := Encode(j)
	if err != nil {
		return nil, err
	}
	return &model.EnqueueJob{Job: payload}, nil
}

// EnqueueAt builds a request for j that becomes eligible after at.
func EnqueueAt(j Job, at time.Time) (*model.EnqueueJob, error) {
	req, err := Enqueue(j)
	if err != nil {
		return nil, err
	}
	at = at.UTC()
	req.ScheduledAt = &at
	return req, nil
}

// InvitationFlow returns the first job of the invitation chain for a membership:
// CreateUser, then ResetPassword, then SendInvitationEmail.
func InvitationFlow(membershipID string) (*model.EnqueueJob, error) {
	if membershipID == "" {
		return nil, validationError("membership id is required")
	}
	return Enqueue(&CreateUser{MembershipID: membershipID})
}

// RecurringJobs lists the self-rescheduling jobs that must always have a pending item.
func RecurringJobs() []model.RecurringJob {
	jobs := []Job{&SessionCleanup{}, &QueueCleanup{}, &TaskSync{}}
	out := make([]model.RecurringJob, 0, len(jobs))
	for _, j := range jobs {
		payload, err := Encode(j)
		if err != nil {
			panic(err)
		}
		out = append(out, model.RecurringJob{Type: j.Type(), Job: payload})
	}
	return out
}
