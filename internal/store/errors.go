// Package store is the HTTP client for the remote page store: a single
// endpoint multiplexing list/get/save/delete/verify actions behind a
// {status, message, data, id} JSON envelope.
package store

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ValidationError reports input rejected before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("store: invalid %s: %s", e.Field, e.Reason)
}

// AuthError reports a credential rejected by the store.
type AuthError struct {
	PageID string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("store: access to page %q denied", e.PageID)
}

// NotFoundError reports a page id unknown to the store.
type NotFoundError struct {
	PageID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("store: page %q not found", e.PageID)
}

// TransportError wraps a failure to complete the HTTP round trip.
type TransportError struct {
	Action string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("store: %s request failed: %v", e.Action, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the transport failure is worth retrying.
func (e *TransportError) IsRetryable() bool {
	var netErr net.Error
	if errors.As(e.Err, &netErr) && netErr.Timeout() {
		return true
	}
	s := strings.ToLower(e.Err.Error())
	for _, pattern := range []string{
		"connection refused",
		"connection reset",
		"no such host",
		"deadline exceeded",
	} {
		if strings.Contains(s, pattern) {
			return true
		}
	}
	return false
}

// ServerResponseError reports a reply the store delivered but the client
// could not accept: a non-2xx status, a malformed envelope, or an
// application-level error status.
type ServerResponseError struct {
	Action     string
	StatusCode int
	Message    string
}

func (e *ServerResponseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("store: %s failed (HTTP %d): %s", e.Action, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("store: %s failed (HTTP %d)", e.Action, e.StatusCode)
}

// IsRetryable returns true for 5xx and 429 responses.
func (e *ServerResponseError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// UserFriendlyMessage maps a store error to text fit for the editor UI.
func UserFriendlyMessage(err error) string {
	if err == nil {
		return ""
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Reason
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return "Wrong password."
	}

	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) {
		return "This page no longer exists."
	}

	var respErr *ServerResponseError
	if errors.As(err, &respErr) {
		if respErr.StatusCode >= 500 {
			return "Server error. Please try again later."
		}
		if respErr.Message != "" {
			return respErr.Message
		}
		return fmt.Sprintf("Request failed (HTTP %d).", respErr.StatusCode)
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return "Could not reach the server. Please check your connection."
	}

	return "Something went wrong. Please try again."
}
