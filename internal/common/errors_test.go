package common

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_MatchesSentinel(t *testing.T) {
	err := NewValidationError("amount", "must be at least 1")

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "amount: must be at least 1", err.Error())

	var ve *ValidationError
	wrapped := errors.Join(errors.New("ctx"), err)
	assert.True(t, errors.As(wrapped, &ve))
	assert.Equal(t, "amount", ve.Field)
}

func TestValidationError_NoField(t *testing.T) {
	err := NewValidationError("", "body is empty")
	assert.Equal(t, "body is empty", err.Error())
}

func TestUpstreamError_MatchesBoth(t *testing.T) {
	err := NewUpstreamError("create order", context.DeadlineExceeded)

	assert.True(t, errors.Is(err, ErrUpstream))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "create order: context deadline exceeded", err.Error())
}
