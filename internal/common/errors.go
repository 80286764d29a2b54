// Package common defines shared constants and sentinel errors used across
// tipjar layers. Callers should use errors.Is / errors.As to match them.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Request is malformed or incomplete; never partially processed.
	ErrValidation = errors.New("validation error")

	// Payment confirmation signature did not match.
	ErrVerificationFailed = errors.New("payment verification failed")

	// Gateway or store call failed or timed out; safe for the caller to retry.
	ErrUpstream = errors.New("upstream unavailable")

	// Auth errors (invalid or malformed principal token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// ValidationError describes which input field was rejected and why.
// It matches ErrValidation under errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// UpstreamError wraps a failed gateway or store call. It matches both
// ErrUpstream and the underlying cause.
type UpstreamError struct {
	Op  string
	Err error
}

func NewUpstreamError(op string, err error) *UpstreamError {
	return &UpstreamError{Op: op, Err: err}
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() []error { return []error{ErrUpstream, e.Err} }
