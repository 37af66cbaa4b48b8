package job

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/mmk-jobqueue/internal/adapters/httpclient"
	"github.com/target/mmk-jobqueue/internal/domain/model"
	"github.com/target/mmk-jobqueue/internal/queue"
)

func TestError_Retryable(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want bool
	}{
		{"db", &Error{Kind: KindDB}, true},
		{"client other", &Error{Kind: KindClientOther}, true},
		{"missing record", &Error{Kind: KindMissingRecord}, false},
		{"validation", &Error{Kind: KindValidation}, false},
		{"decode", &Error{Kind: KindDecode}, false},
		{"http 500", &Error{Kind: KindHTTPStatus, Status: 500}, true},
		{"http 503", &Error{Kind: KindHTTPStatus, Status: 503}, true},
		{"http 429", &Error{Kind: KindHTTPStatus, Status: 429}, true},
		{"http 400", &Error{Kind: KindHTTPStatus, Status: 400}, false},
		{"http 404", &Error{Kind: KindHTTPStatus, Status: 404}, false},
		{"http 409", &Error{Kind: KindHTTPStatus, Status: 409}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Retryable())
			assert.Equal(t, tt.want, queue.IsRetryable(fmt.Errorf("wrapped: %w", tt.err)))
		})
	}
}

func TestError_Messages(t *testing.T) {
	assert.Equal(t, "membership m-1 not found",
		(&Error{Kind: KindMissingRecord, Record: "membership", ID: "m-1"}).Error())
	assert.Equal(t, "POST https://x/api returned 503 Service Unavailable",
		(&Error{Kind: KindHTTPStatus, Method: "POST", URL: "https://x/api", Status: 503}).Error())
	assert.Equal(t, "load membership: boom", dbError("load membership", errors.New("boom")).Error())
	assert.Equal(t, "Decode", (&Error{Kind: KindDecode}).Error())
}

func TestError_Class(t *testing.T) {
	assert.Equal(t, "job_http_status", (&Error{Kind: KindHTTPStatus}).Class())
	assert.Equal(t, "job_missing_record", (&Error{Kind: KindMissingRecord}).Class())
	assert.Equal(t, "job_other", (&Error{Kind: "Mystery"}).Class())
}

func TestError_Details(t *testing.T) {
	err := &Error{Kind: KindHTTPStatus, Method: "DELETE", URL: "https://agg/tasks/1", Status: 404, Body: "gone"}

	var got map[string]any
	require.NoError(t, json.Unmarshal(queue.ErrorDetails(err), &got))
	assert.Equal(t, "HttpStatusNotSuccess", got["kind"])
	assert.Equal(t, float64(404), got["status"])
	assert.Equal(t, "gone", got["body"])
	assert.Equal(t, "DELETE https://agg/tasks/1 returned 404 Not Found", got["message"])
	assert.NotContains(t, got, "record")
}

func TestRecordError(t *testing.T) {
	missing := recordError("account", "a-1", fmt.Errorf("account a-1: %w", model.ErrRecordNotFound))
	var je *Error
	require.ErrorAs(t, missing, &je)
	assert.Equal(t, KindMissingRecord, je.Kind)
	assert.Equal(t, "account", je.Record)
	assert.ErrorIs(t, missing, model.ErrRecordNotFound)

	other := recordError("account", "a-1", errors.New("conn reset"))
	require.ErrorAs(t, other, &je)
	assert.Equal(t, KindDB, je.Kind)
	assert.True(t, je.Retryable())
}

func TestClientError(t *testing.T) {
	status := fmt.Errorf("create user: %w", &httpclient.StatusError{
		Method: http.MethodPost, URL: "https://auth/api/v2/users", StatusCode: http.StatusConflict, Body: "exists",
	})
	var je *Error
	require.ErrorAs(t, clientError("create user", status), &je)
	assert.Equal(t, KindHTTPStatus, je.Kind)
	assert.Equal(t, http.StatusConflict, je.Status)
	assert.False(t, je.Retryable())

	require.ErrorAs(t, clientError("create user", errors.New("dial tcp: refused")), &je)
	assert.Equal(t, KindClientOther, je.Kind)
	assert.True(t, je.Retryable())
}
