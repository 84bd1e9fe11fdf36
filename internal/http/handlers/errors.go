// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// These symbolic constants are mapped to HTTP responses via the fail() helper
// in this package and give clients a stable, machine-readable error taxonomy
// alongside the human-readable messages.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeInvalidRequester = "invalid_requester"
	ErrCodeNoDestination    = "no_destination"
	ErrCodeInvalidStatus    = "invalid_status"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
