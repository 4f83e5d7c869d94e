package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldError_Is(t *testing.T) {
	err := NewFieldError(ErrSeatOutOfRange, "row", "row must be between 1 and 30")

	assert.ErrorIs(t, err, ErrSeatOutOfRange)
	assert.NotErrorIs(t, err, ErrValidation)

	wrapped := fmt.Errorf("issue ticket: %w", err)
	assert.ErrorIs(t, wrapped, ErrSeatOutOfRange)
	assert.Equal(t, []string{"row must be between 1 and 30"}, Fields(wrapped)["row"])
}

func TestFieldError_WithPrefix(t *testing.T) {
	err := NewFieldError(ErrSeatOutOfRange, "row", "row must be between 1 and 30")
	err.Fields.Add("seat", "seat must be between A and F")
	err.Fields.Add("", "whole request")

	prefixed := err.WithPrefix("tickets[2]")

	require.Len(t, prefixed.Fields, 3)
	assert.Contains(t, prefixed.Fields, "tickets[2].row")
	assert.Contains(t, prefixed.Fields, "tickets[2].seat")
	assert.Contains(t, prefixed.Fields, "tickets[2]")
	assert.ErrorIs(t, prefixed, ErrSeatOutOfRange)
	// 原本的錯誤不受影響
	assert.Contains(t, err.Fields, "row")
}

func TestFieldError_Error(t *testing.T) {
	err := NewFieldError(ErrValidation, "tickets", "at least one ticket is required")
	assert.Equal(t, "validation failed (tickets: at least one ticket is required)", err.Error())
}

func TestFields_NoFieldError(t *testing.T) {
	assert.Nil(t, Fields(errors.New("boom")))
	assert.Nil(t, Fields(ErrOrderNotFound))
}
