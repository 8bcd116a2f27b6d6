// Package errors provides the typed error values used across txflow, and helpers for categorizing them.
package errors

import (
	"errors"
	"strings"
)

// IsRetryableError determines if an error is transient and the operation should be retried.
// Context cancellation is never retryable, a typed network timeout is.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var tErr *Error
	if As(err, &tErr) {
		switch tErr.Code() {
		case ERR_NETWORK_TIMEOUT,
			ERR_NETWORK_ERROR,
			ERR_SERVICE_UNAVAILABLE,
			ERR_STORAGE_UNAVAILABLE,
			ERR_NETWORK_CONNECTION_REFUSED:
			return true
		}
	}

	return false
}

// IsNetworkError determines if an error is network-related.
// This includes timeouts, connection failures, and invalid responses.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var tErr *Error
	if As(err, &tErr) {
		switch tErr.Code() {
		case ERR_NETWORK_ERROR,
			ERR_NETWORK_TIMEOUT,
			ERR_NETWORK_CONNECTION_REFUSED,
			ERR_NETWORK_INVALID_RESPONSE:
			return true
		}
	}

	errStr := strings.ToLower(err.Error())
	networkStrings := []string{
		"connection refused",
		"connection reset",
		"dial tcp",
		"no such host",
		"i/o timeout",
		"broken pipe",
	}

	for _, s := range networkStrings {
		if strings.Contains(errStr, s) {
			return true
		}
	}

	return false
}

// IsNotFoundError reports whether err denotes a missing record, either generic or a missing transaction.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrTxNotFound)
}
