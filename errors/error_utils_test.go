package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "network timeout error",
			err:      NewNetworkTimeoutError("request timed out"),
			expected: true,
		},
		{
			name:     "network error",
			err:      NewNetworkError("network unreachable"),
			expected: true,
		},
		{
			name:     "service unavailable",
			err:      NewServiceUnavailableError("service down"),
			expected: true,
		},
		{
			name:     "connection refused",
			err:      NewNetworkConnectionRefusedError("connection refused"),
			expected: true,
		},
		{
			name:     "invalid response",
			err:      NewNetworkInvalidResponseError("garbage"),
			expected: false,
		},
		{
			name:     "tx not found",
			err:      NewTxNotFoundError("missing"),
			expected: false,
		},
		{
			name:     "context canceled",
			err:      context.Canceled,
			expected: false,
		},
		{
			name:     "wrapped network error",
			err:      fmt.Errorf("outer: %w", NewNetworkTimeoutError("inner")),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryableError(tt.err))
		})
	}
}

func TestIsNetworkError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"typed network error", NewNetworkError("down"), true},
		{"invalid response", NewNetworkInvalidResponseError("html"), true},
		{"dial string", fmt.Errorf("dial tcp 127.0.0.1:1: connect: connection refused"), true},
		{"storage error", NewStorageError("disk"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsNetworkError(tt.err))
		})
	}
}

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, IsNotFoundError(NewTxNotFoundError("x")))
	assert.True(t, IsNotFoundError(NewNotFoundError("x")))
	assert.True(t, IsNotFoundError(NewServiceError("outer", NewTxNotFoundError("x"))))
	assert.False(t, IsNotFoundError(NewServiceError("x")))
	assert.False(t, IsNotFoundError(nil))
}
