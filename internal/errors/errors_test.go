package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "queue item not found",
		(&AppError{Code: ErrCodeNotFound, Message: "queue item not found"}).Error())
	assert.Equal(t, "failed to process: underlying error",
		Wrap(errors.New("underlying error"), ErrCodeInternal, "failed to process").Error())
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(cause, ErrCodeBusy, "busy")
	assert.ErrorIs(t, err, cause)
	assert.True(t, err.Temporary())
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "nothing"))
}

func TestClassificationThroughWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", NotFoundf("queue item %s", "abc"))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))
	assert.Equal(t, ErrCodeNotFound, CodeOf(err))
	assert.Equal(t, "handler: queue item abc", err.Error())
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))

	assert.False(t, Wrap(errors.New("gone"), ErrCodeNotFound, "gone").Temporary())
}

func TestGetField(t *testing.T) {
	err := ValidationField("status", "invalid status")
	assert.Equal(t, "status", GetField(err))
	assert.True(t, IsValidation(err))
	assert.Empty(t, GetField(errors.New("plain")))
}
