package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"validation", New(Validation, "bad input"), Validation},
		{"not found", New(NotFound, "no such user %d", 42), NotFound},
		{"forbidden", New(Forbidden, "not an owner"), Forbidden},
		{"conflict", New(Conflict, "duplicate"), Conflict},
		{"untyped error", errors.New("boom"), Internal},
		{"wrapped deeper", fmt.Errorf("context: %w", New(NotFound, "gone")), NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
		})
	}
}

func TestIs(t *testing.T) {
	err := New(Conflict, "already responded")

	assert.True(t, Is(err, Conflict))
	assert.False(t, Is(err, NotFound))
	assert.False(t, Is(nil, Conflict))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(Internal, cause, "query users")

	assert.Equal(t, "query users: connection reset", err.Error())
	assert.Equal(t, "query users", err.Message())
	assert.ErrorIs(t, err, cause)
}

func TestNewFormatsMessage(t *testing.T) {
	err := New(NotFound, "role %q is unknown", "Admin")

	assert.Equal(t, `role "Admin" is unknown`, err.Error())
	assert.Equal(t, err.Error(), err.Message())
}
