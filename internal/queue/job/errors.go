package job

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/target/mmk-jobqueue/internal/adapters/httpclient"
	"github.com/target/mmk-jobqueue/internal/domain/model"
)

// Kind classifies a job failure. The values are persisted in queue results.
type Kind string

const (
	KindDB            Kind = "Db"
	KindMissingRecord Kind = "MissingRecord"
	KindClientOther   Kind = "ClientOther"
	KindHTTPStatus    Kind = "HttpStatusNotSuccess"
	KindValidation    Kind = "Validation"
	KindDecode        Kind = "Decode"
)

var kindClasses = map[Kind]string{
	KindDB:            "job_db",
	KindMissingRecord: "job_missing_record",
	KindClientOther:   "job_client_other",
	KindHTTPStatus:    "job_http_status",
	KindValidation:    "job_validation",
	KindDecode:        "job_decode",
}

// Error is the failure a job reports to the queue.
type Error struct {
	Kind    Kind
	Message string

	// MissingRecord
	Record string
	ID     string

	// HttpStatusNotSuccess
	Method string
	URL    string
	Status int
	Body   string

	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindMissingRecord:
		return fmt.Sprintf("%s %s not found", e.Record, e.ID)
	case KindHTTPStatus:
		return fmt.Sprintf("%s %s returned %d %s", e.Method, e.URL, e.Status, http.StatusText(e.Status))
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Err.Error()
	case e.Message != "":
		return e.Message
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether another attempt could succeed.
// Db and ClientOther are transient, remote 5xx and 429 are retried, everything else is fatal.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindDB, KindClientOther:
		return true
	case KindHTTPStatus:
		return e.Status >= http.StatusInternalServerError || e.Status == http.StatusTooManyRequests
	default:
		return false
	}
}

// Class is the metrics tag for the failure.
func (e *Error) Class() string {
	if c, ok := kindClasses[e.Kind]; ok {
		return c
	}
	return "job_other"
}

type errorJSON struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Record  string `json:"record,omitempty"`
	ID      string `json:"id,omitempty"`
	Method  string `json:"method,omitempty"`
	URL     string `json:"url,omitempty"`
	Status  int    `json:"status,omitempty"`
	Body    string `json:"body,omitempty"`
}

// MarshalJSON renders the error as stored in the queue item result.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(errorJSON{
		Kind:    e.Kind,
		Message: e.Error(),
		Record:  e.Record,
		ID:      e.ID,
		Method:  e.Method,
		URL:     e.URL,
		Status:  e.Status,
		Body:    e.Body,
	})
}

func dbError(op string, err error) error {
	return &Error{Kind: KindDB, Message: op, Err: err}
}

// recordError maps a repository error for record/id onto MissingRecord or Db.
func recordError(record, id string, err error) error {
	if errors.Is(err, model.ErrRecordNotFound) {
		return &Error{Kind: KindMissingRecord, Record: record, ID: id, Err: err}
	}
	return dbError("load "+record, err)
}

// clientError maps a remote-call error onto HttpStatusNotSuccess or ClientOther.
func clientError(op string, err error) error {
	var se *httpclient.StatusError
	if errors.As(err, &se) {
		return &Error{
			Kind:   KindHTTPStatus,
			Method: se.Method,
			URL:    se.URL,
			Status: se.StatusCode,
			Body:   se.Body,
			Err:    err,
		}
	}
	return &Error{Kind: KindClientOther, Message: op, Err: err}
}

func validationError(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}
