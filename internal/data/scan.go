package data

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/target/mmk-jobqueue/internal/domain/model"
)

// sqliteTimeLayouts are the text encodings modernc.org/sqlite may hand back for TIMESTAMP columns.
var sqliteTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// dbTime scans timestamps from either driver. pgx yields time.Time; sqlite may yield text.
type dbTime struct {
	Time  time.Time
	Valid bool
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = v.UTC(), true
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (t *dbTime) parse(s string) error {
	for _, layout := range sqliteTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time, t.Valid = parsed.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}

func (t dbTime) ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

type rowScanner interface {
	Scan(dest ...any) error
}

const queueColumns = `id, created_at, updated_at, scheduled_at, failure_count, status, job, result, parent_id, child_id`

type queueRowData struct {
	createdAt, updatedAt, scheduledAt dbTime
	job, result                       []byte
	parentID, childID                 sql.NullString
}

func scanQueueItem(scanner rowScanner) (*model.QueueItem, error) {
	item := &model.QueueItem{}
	var d queueRowData
	if err := scanner.Scan(
		&item.ID,
		&d.createdAt,
		&d.updatedAt,
		&d.scheduledAt,
		&item.FailureCount,
		&item.Status,
		&d.job,
		&d.result,
		&d.parentID,
		&d.childID,
	); err != nil {
		return nil, err
	}

	item.CreatedAt = d.createdAt.Time
	item.UpdatedAt = d.updatedAt.Time
	item.ScheduledAt = d.scheduledAt.ptr()
	item.Job = cloneJSON(d.job)
	item.ParentID = cloneNullableString(d.parentID)
	item.ChildID = cloneNullableString(d.childID)

	if len(d.result) > 0 {
		var res model.QueueResult
		if err := json.Unmarshal(d.result, &res); err != nil {
			return nil, fmt.Errorf("decode queue result: %w", err)
		}
		item.Result = &res
	}
	return item, nil
}

func cloneJSON(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{}`)
	}
	return append(json.RawMessage(nil), raw...)
}

func cloneNullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// nullableTime converts an optional time into a driver argument, normalized to UTC.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func encodeResult(r *model.QueueResult) (any, error) {
	if r == nil {
		return nil, nil
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode queue result: %w", err)
	}
	return string(raw), nil
}
