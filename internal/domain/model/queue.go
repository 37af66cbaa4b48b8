// Package model defines the core data types shared by the queue engine, the job catalog and the admin API.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// QueueStatus is the lifecycle state of a queue item. It is stored as an integer.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, the rest use value receivers
type QueueStatus int

const (
	// QueueStatusPending marks an item that is waiting to be claimed.
	QueueStatusPending QueueStatus = 0
	// QueueStatusSuccess marks an item whose job completed. Terminal.
	QueueStatusSuccess QueueStatus = 1
	// QueueStatusFailed marks an item that exhausted its retries or failed fatally. Terminal.
	QueueStatusFailed QueueStatus = 2
)

var (
	// ErrNoQueueItems is returned when no eligible item could be claimed.
	ErrNoQueueItems = errors.New("no queue items available")
	// ErrQueueItemNotFound is returned when a queue item lookup misses.
	ErrQueueItemNotFound = errors.New("queue item not found")
	// ErrInvalidQueueStatus is returned when parsing an unknown status name.
	ErrInvalidQueueStatus = errors.New("invalid queue status")
)

// String returns the lowercase status name.
func (s QueueStatus) String() string {
	switch s {
	case QueueStatusPending:
		return "pending"
	case QueueStatusSuccess:
		return "success"
	case QueueStatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Valid reports whether s is one of the known statuses.
func (s QueueStatus) Valid() bool {
	return s == QueueStatusPending || s == QueueStatusSuccess || s == QueueStatusFailed
}

// Terminal reports whether items in this status are never claimed again.
func (s QueueStatus) Terminal() bool {
	return s == QueueStatusSuccess || s == QueueStatusFailed
}

// ParseQueueStatus parses a case-insensitive status name.
func ParseQueueStatus(v string) (QueueStatus, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "pending":
		return QueueStatusPending, nil
	case "success":
		return QueueStatusSuccess, nil
	case "failed":
		return QueueStatusFailed, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidQueueStatus, v)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s QueueStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQueueStatus, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *QueueStatus) UnmarshalText(text []byte) error {
	v, err := ParseQueueStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// QueueResultType tags the outcome recorded on a queue item.
type QueueResultType string

const (
	// QueueResultComplete means the job finished without a follow-up.
	QueueResultComplete QueueResultType = "Complete"
	// QueueResultChild means the job finished and enqueued the item referenced by ID.
	QueueResultChild QueueResultType = "Child"
	// QueueResultError means the last attempt failed; Error holds the details.
	QueueResultError QueueResultType = "Error"
)

// QueueResult is the outcome of the most recent attempt.
type QueueResult struct {
	Type  QueueResultType `json:"type"`
	ID    string          `json:"id,omitempty"`
	Error json.RawMessage `json:"error,omitempty"`
}

// CompleteResult returns a Complete result.
func CompleteResult() *QueueResult {
	return &QueueResult{Type: QueueResultComplete}
}

// ChildResult returns a Child result pointing at childID.
func ChildResult(childID string) *QueueResult {
	return &QueueResult{Type: QueueResultChild, ID: childID}
}

// ErrorResult returns an Error result carrying details.
func ErrorResult(details json.RawMessage) *QueueResult {
	return &QueueResult{Type: QueueResultError, Error: details}
}

// QueueItem is a persistent unit of work.
type QueueItem struct {
	ID           string          `json:"id"                     db:"id"`
	CreatedAt    time.Time       `json:"created_at"             db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"             db:"updated_at"`
	ScheduledAt  *time.Time      `json:"scheduled_at,omitempty" db:"scheduled_at"`
	FailureCount int             `json:"failure_count"          db:"failure_count"`
	Status       QueueStatus     `json:"status"                 db:"status"`
	Job          json.RawMessage `json:"job"                    db:"job"`
	Result       *QueueResult    `json:"result,omitempty"       db:"result"`
	ParentID     *string         `json:"parent_id,omitempty"    db:"parent_id"`
	ChildID      *string         `json:"child_id,omitempty"     db:"child_id"`
}

// JobType returns the "type" tag of the job payload, or an empty string when the payload has none.
func (q *QueueItem) JobType() string {
	if q == nil || len(q.Job) == 0 {
		return ""
	}
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(q.Job, &tag); err != nil {
		return ""
	}
	return tag.Type
}

// EnqueueJob is a request to insert a new pending item.
type EnqueueJob struct {
	Job         json.RawMessage
	ScheduledAt *time.Time
}

// Validate checks that the job payload is a JSON object.
func (e *EnqueueJob) Validate() error {
	if e == nil || len(e.Job) == 0 {
		return errors.New("job payload is required")
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(e.Job, &obj); err != nil {
		return fmt.Errorf("job payload must be a JSON object: %w", err)
	}
	if obj == nil {
		return errors.New("job payload must be a JSON object, got null")
	}
	return nil
}

// ListQueueOptions filters admin listings.
type ListQueueOptions struct {
	Status *QueueStatus
	Limit  int
}

// RecurringJob is a self-rescheduling job that must always have one pending item.
type RecurringJob struct {
	Type string
	Job  json.RawMessage
}
