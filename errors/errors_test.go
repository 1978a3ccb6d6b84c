/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("Page", "123")

	assert.Equal(t, `Page with key "123" not found`, err.Error())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsNotFound(err))
}

func TestAlreadyExistsError(t *testing.T) {
	err := NewAlreadyExistsError("Website", "ABC")

	assert.Equal(t, `Website with key "ABC" already exists`, err.Error())
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.True(t, IsAlreadyExists(err))
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{
			name:     "with field",
			field:    "url",
			message:  "must be absolute",
			expected: `validation failed for field "url": must be absolute`,
		},
		{
			name:     "without field",
			field:    "",
			message:  "missing required fields",
			expected: "validation failed: missing required fields",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message)

			assert.Equal(t, tt.expected, err.Error())
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestConditionFailedError(t *testing.T) {
	err := NewConditionFailedError("put", "attribute_not_exists(PK)")

	assert.Equal(t, "condition check failed for put operation: attribute_not_exists(PK)", err.Error())
	assert.True(t, IsConditionFailed(err))
}

func TestQueryExecutionError(t *testing.T) {
	t.Run("with diagnostics", func(t *testing.T) {
		err := NewQueryExecutionError(429, "request rate is large")

		assert.Equal(t, "query execution failed with status code 429: request rate is large", err.Error())
		assert.True(t, IsQueryExecution(err))
	})

	t.Run("without diagnostics", func(t *testing.T) {
		err := NewQueryExecutionError(500, "")

		assert.Equal(t, "query execution failed with status code 500", err.Error())
	})

	t.Run("status code survives wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("page 2: %w", NewQueryExecutionError(503, ""))

		code, ok := StatusCodeOf(wrapped)
		require.True(t, ok)
		assert.Equal(t, 503, code)
	})

	t.Run("no status code on other errors", func(t *testing.T) {
		_, ok := StatusCodeOf(errors.New("boom"))
		assert.False(t, ok)
	})
}

func TestInvalidIdentifierError(t *testing.T) {
	err := NewInvalidIdentifierError("not-a-uuid", "invalid UUID length: 10")

	assert.Equal(t, `invalid identifier "not-a-uuid": invalid UUID length: 10`, err.Error())
	assert.True(t, IsInvalidIdentifier(err))
	assert.False(t, IsValidationError(err))
}

func TestErrorWrapping(t *testing.T) {
	original := NewNotFoundError("Page", "123")
	wrapped := fmt.Errorf("database operation failed: %w", original)

	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.True(t, IsNotFound(wrapped))
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrAlreadyExists,
		ErrInvalidInput,
		ErrConditionFailed,
		ErrQueryExecution,
		ErrInvalidIdentifier,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j {
				assert.NotErrorIs(t, err1, err2, "sentinel errors should be distinct")
			}
		}
	}
}
