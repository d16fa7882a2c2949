package dErrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode_DirectAndWrapped(t *testing.T) {
	err := New(CodeConflict, "already voted")
	assert.True(t, HasCode(err, CodeConflict))
	assert.False(t, HasCode(err, CodeNotFound))

	wrapped := Wrap(err, CodeInternal, "recording vote")
	assert.True(t, HasCode(wrapped, CodeInternal))
	assert.True(t, HasCode(wrapped, CodeConflict), "inner code remains discoverable")
}

func TestHasCode_ThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeForbidden, "not a verifier"))
	assert.True(t, HasCode(err, CodeForbidden))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	require.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestFieldIndex(t *testing.T) {
	err := NewField(CodeValidation, 3, "government id is required")
	assert.Equal(t, 3, FieldIndex(err))
	assert.Equal(t, 0, FieldIndex(New(CodeValidation, "no field")))
	assert.Equal(t, 0, FieldIndex(errors.New("plain")))
}
