// Package domain defines the persistence models and enumerations for
// service requests (SAT), technical investigations (AVT), users, and
// attachments. This file holds the enum types shared across the
// request/investigation lifecycle.
package domain

// RequestStatus enumerates the lifecycle states of a service request.
//
// The lifecycle is nominally PENDING → SENT_TO_WATER/SENT_TO_SOLVENT →
// FINALIZED, with UNDER_ANALYSIS reachable while a lab works a request.
// Transitions are not validated against a strict graph; see
// services.RequestStatusGuard for the tightening hook.
type RequestStatus string

const (
	RequestPending       RequestStatus = "PENDING"
	RequestSentToWater   RequestStatus = "SENT_TO_WATER"
	RequestSentToSolvent RequestStatus = "SENT_TO_SOLVENT"
	RequestUnderAnalysis RequestStatus = "UNDER_ANALYSIS"
	RequestFinalized     RequestStatus = "FINALIZED"
)

// Valid reports whether s is one of the known request statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestSentToWater, RequestSentToSolvent,
		RequestUnderAnalysis, RequestFinalized:
		return true
	}
	return false
}

// Lab identifies one of the two fixed processing destinations a request
// can be routed to.
type Lab string

const (
	LabWaterBase   Lab = "WATER_BASE"
	LabSolventBase Lab = "SOLVENT_BASE"
)

// Valid reports whether l is one of the two labs.
func (l Lab) Valid() bool {
	return l == LabWaterBase || l == LabSolventBase
}

// Opposite returns the other lab. Redirecting a request toggles its
// destination between the two values.
func (l Lab) Opposite() Lab {
	if l == LabWaterBase {
		return LabSolventBase
	}
	return LabWaterBase
}

// SentStatus returns the request status that corresponds to a request
// having been routed to this lab.
func (l Lab) SentStatus() RequestStatus {
	if l == LabWaterBase {
		return RequestSentToWater
	}
	return RequestSentToSolvent
}

// InvestigationStatus enumerates the linear lifecycle of an AVT:
// PENDING → IN_PROGRESS → COMPLETED. COMPLETED is terminal and is the
// only transition with an observable side effect (the finalization
// notification).
type InvestigationStatus string

const (
	InvestigationPending    InvestigationStatus = "PENDING"
	InvestigationInProgress InvestigationStatus = "IN_PROGRESS"
	InvestigationCompleted  InvestigationStatus = "COMPLETED"
)

// Valid reports whether s is one of the known investigation statuses.
func (s InvestigationStatus) Valid() bool {
	switch s {
	case InvestigationPending, InvestigationInProgress, InvestigationCompleted:
		return true
	}
	return false
}

// UserRole enumerates the access roles in the system. A request's
// requester must hold RoleRepresentative.
type UserRole string

const (
	RoleAdmin          UserRole = "ADMIN"
	RoleOrchestrator   UserRole = "ORCHESTRATOR"
	RoleLabWater       UserRole = "LAB_WATER"
	RoleLabSolvent     UserRole = "LAB_SOLVENT"
	RoleRepresentative UserRole = "REPRESENTATIVE"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleOrchestrator, RoleLabWater, RoleLabSolvent, RoleRepresentative:
		return true
	}
	return false
}
