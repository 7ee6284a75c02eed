// Package common defines shared constants and sentinel errors used across
// the guest-desk client. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Session / authentication errors. Any of these terminates the session:
	// stored credentials are cleared and the user must log in again.
	ErrUnauthorized   = errors.New("unauthorized")
	ErrSessionExpired = errors.New("session expired")

	// Authorization error: the session is valid but the backend refused the
	// action. Surfaced to the user, never retried automatically.
	ErrForbidden = errors.New("forbidden")

	// Validation error: missing required field or a transition attempted
	// against a stale server-side state.
	ErrValidation = errors.New("validation error")

	// Transient transport error. Commands surface it once and are not
	// auto-retried; the sync channel reconnects on its own.
	ErrUnavailable = errors.New("server unavailable")

	ErrNotFound = errors.New("not found")
)
