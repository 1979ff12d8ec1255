package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAndError(t *testing.T) {
	err := New(CodeNotFound, "policy not found")
	assert.Equal(t, "not_found: policy not found", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "load policy")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, err.Error(), "load policy")
}

func TestHasCode(t *testing.T) {
	err := New(CodeExpired, "policy is past its end date")

	assert.True(t, HasCode(err, CodeExpired))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeExpired))
	assert.False(t, HasCode(nil, CodeExpired))

	// Works through fmt wrapping as well.
	wrapped := fmt.Errorf("outer: %w", err)
	assert.True(t, HasCode(wrapped, CodeExpired))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeUnauthorized, CodeOf(New(CodeUnauthorized, "nope")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("uncoded")))

	// The outermost coded error wins.
	inner := New(CodeNotFound, "claim not found")
	outer := Wrap(inner, CodeInternal, "adjudicate")
	assert.Equal(t, CodeInternal, CodeOf(outer))
}
