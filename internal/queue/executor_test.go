package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(errBoom))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", errTransient)))
	assert.False(t, IsRetryable(fmt.Errorf("wrapped: %w", errFatal)))
	assert.False(t, IsRetryable(&PanicError{Value: "x"}))
	assert.True(t, IsRetryable(&TimeoutError{Cause: context.DeadlineExceeded}))
	assert.False(t, IsRetryable(&invalidFollowUpError{err: errBoom}))
}

func TestErrorDetails(t *testing.T) {
	assert.JSONEq(t, `{"kind":"Other","message":"boom"}`, string(ErrorDetails(errBoom)))
	assert.JSONEq(t,
		`{"kind":"MissingRecord","message":"MissingRecord failure"}`,
		string(ErrorDetails(fmt.Errorf("wrap: %w", errFatal))),
	)
	assert.JSONEq(t, `{"kind":"Panic","message":"kaboom"}`, string(ErrorDetails(&PanicError{Value: "kaboom"})))

	var details map[string]string
	assert.NoError(t, json.Unmarshal(ErrorDetails(&TimeoutError{Cause: context.DeadlineExceeded}), &details))
	assert.Equal(t, "Timeout", details["kind"])
}
