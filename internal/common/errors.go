// Package common defines shared constants and sentinel errors used across
// the portal layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("access denied")

	// Validation errors. Wrapped with the offending field, e.g.
	// fmt.Errorf("%w: notes are required", ErrorValidation).
	ErrorValidation = errors.New("validation error")

	// Release workflow preconditions.
	ErrorPaymentRequired = errors.New("payment required")
	ErrorAlreadyReleased = errors.New("already released")
	ErrNoFileAvailable   = errors.New("no file available")
	ErrAlreadyMatched    = errors.New("payment event already matched")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Signed download link errors.
	ErrInvalidSignature = errors.New("invalid signature")
	ErrLinkExpired      = errors.New("link expired")

	// Optional integrations that were not configured.
	ErrNotConfigured = errors.New("not configured")
)
