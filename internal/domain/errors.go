package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrActiveIntentExists = errors.New("active order intent already exists")
	ErrStaleStatus        = errors.New("order intent status changed concurrently")
)

// ConfigError reports bad or missing gateway configuration. Raised at startup only.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// AuthError means no access token could be obtained within the retry budget.
type AuthError struct {
	Attempts int
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("failed to get access token after %d attempts: %v", e.Attempts, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

type DuplicateOrderError struct {
	AccountID int64
	PackageID string
}

func (e *DuplicateOrderError) Error() string {
	return fmt.Sprintf("account %d already has an active esim for package %s", e.AccountID, e.PackageID)
}

type StateError struct {
	IntentID int64
	Current  IntentStatus
	Want     IntentStatus
	// Reason is set when the status alone does not explain the refusal.
	Reason string
}

func (e *StateError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("order intent %d is %s: %s", e.IntentID, e.Current, e.Reason)
	}
	return fmt.Sprintf("order intent %d is %s, cannot process as %s", e.IntentID, e.Current, e.Want)
}

// UpstreamError is a non-success status or a structurally invalid payload from the partner API.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
	Reason     string
}

func (e *UpstreamError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s failed, status code: %d, response: %s", e.Op, e.StatusCode, e.Body)
}

type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// TransportError is a connection level failure; no HTTP status was received.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
