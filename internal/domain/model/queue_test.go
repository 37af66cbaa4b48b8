package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueStatus_ParseAndString(t *testing.T) {
	tests := []struct {
		in      string
		want    QueueStatus
		wantErr bool
	}{
		{in: "pending", want: QueueStatusPending},
		{in: "Success", want: QueueStatusSuccess},
		{in: " FAILED ", want: QueueStatusFailed},
		{in: "running", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseQueueStatus(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidQueueStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "pending", QueueStatusPending.String())
	assert.Equal(t, "unknown(7)", QueueStatus(7).String())
}

func TestQueueStatus_Terminal(t *testing.T) {
	assert.False(t, QueueStatusPending.Terminal())
	assert.True(t, QueueStatusSuccess.Terminal())
	assert.True(t, QueueStatusFailed.Terminal())
}

func TestQueueItem_JSON(t *testing.T) {
	item := QueueItem{
		ID:     "0b9f2c4e-0000-4000-8000-000000000001",
		Status: QueueStatusFailed,
		Job:    json.RawMessage(`{"version":"V1","type":"QueueCleanup"}`),
		Result: ErrorResult(json.RawMessage(`{"kind":"Db","message":"boom"}`)),
	}

	raw, err := json.Marshal(item)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"status":"failed"`)
	assert.Contains(t, string(raw), `"result":{"type":"Error","error":{"kind":"Db","message":"boom"}}`)
	assert.NotContains(t, string(raw), "scheduled_at")
}

func TestQueueItem_JobType(t *testing.T) {
	item := &QueueItem{Job: json.RawMessage(`{"version":"V1","type":"CreateUser","membership_id":"m"}`)}
	assert.Equal(t, "CreateUser", item.JobType())

	assert.Empty(t, (&QueueItem{Job: json.RawMessage(`[1,2]`)}).JobType())
	assert.Empty(t, (*QueueItem)(nil).JobType())
}

func TestResults(t *testing.T) {
	raw, err := json.Marshal(CompleteResult())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Complete"}`, string(raw))

	raw, err = json.Marshal(ChildResult("abc"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Child","id":"abc"}`, string(raw))
}

func TestEnqueueJob_Validate(t *testing.T) {
	require.Error(t, (&EnqueueJob{}).Validate())
	require.Error(t, (&EnqueueJob{Job: json.RawMessage(`"str"`)}).Validate())
	require.Error(t, (&EnqueueJob{Job: json.RawMessage(`null`)}).Validate())
	require.NoError(t, (&EnqueueJob{Job: json.RawMessage(`{}`)}).Validate())
	require.NoError(t, (&EnqueueJob{Job: json.RawMessage(`{"version":"V1","type":"SessionCleanup"}`)}).Validate())
}
