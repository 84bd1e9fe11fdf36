// Package services defines the business logic for service requests (SAT),
// technical investigations (AVT), users, and dashboard aggregates. This file
// centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import "errors"

var (
	// ErrRequestNotFound indicates that the requested SAT does not exist.
	ErrRequestNotFound = errors.New("request not found")

	// ErrInvestigationNotFound indicates that the requested AVT does not
	// exist, or that the request has no investigation yet.
	ErrInvestigationNotFound = errors.New("investigation not found")

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidRequester is returned when a request names a requester that
	// does not exist or does not hold the REPRESENTATIVE role.
	ErrInvalidRequester = errors.New("requester must be an existing representative")

	// ErrNoDestinationSet is returned when a redirect is attempted on a
	// request that was never routed to a lab.
	ErrNoDestinationSet = errors.New("request has no destination to redirect from")

	// ErrInvalidStatus is returned when a status change names a value outside
	// the known lifecycle set.
	ErrInvalidStatus = errors.New("invalid status value")

	// ErrInvalidInput is wrapped by field-level validation failures, e.g.
	// fmt.Errorf("%w: client is required", ErrInvalidInput).
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateUser is returned when a user create collides with an
	// existing code or email.
	ErrDuplicateUser = errors.New("user code or email already in use")

	// ErrInvalidCredentials is returned when a login attempt names an unknown
	// code or a wrong password. The two cases are deliberately not
	// distinguished.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
