// Package services – RequestService
//
// This file implements the RequestService, which manages the lifecycle of
// service requests (SAT): intake with sequential code assignment, partial
// updates, status changes, lab redirection, deletion, and paginated queries.
//
// Service-level errors (e.g., ErrRequestNotFound, ErrInvalidRequester) are
// returned for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/JoaoPizoli/SatMaza/internal/domain"
	"github.com/JoaoPizoli/SatMaza/internal/repo"
)

// RequestStatusGuard, when set, vets every status change before it is
// applied. The default (nil) accepts any transition, matching the upstream
// behavior of an unconditional overwrite. Installing a transition table here
// tightens the lifecycle without touching the service.
var RequestStatusGuard func(from, to domain.RequestStatus) error

// RequestRepo defines the repository contract required by RequestService.
type RequestRepo interface {
	// CreateRequest inserts a new request with the placeholder code.
	CreateRequest(ctx context.Context, db *gorm.DB, r *domain.Request) error

	// AssignRequestCode writes the final sequential code, idempotently.
	AssignRequestCode(ctx context.Context, db *gorm.DB, id string) (string, error)

	// GetRequest fetches a request with its default associations.
	GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.Request, error)

	// CountRequests returns the total matching the filter, for pagination.
	CountRequests(ctx context.Context, db *gorm.DB, f repo.RequestFilter) (int64, error)

	// ListRequestsPage returns a page of requests matching the filter.
	ListRequestsPage(ctx context.Context, db *gorm.DB, f repo.RequestFilter, offset, limit int) ([]domain.Request, error)

	// UpdateRequestFields applies a partial column update.
	UpdateRequestFields(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error

	// ReplaceRequestLots swaps the request's lot rows transactionally.
	ReplaceRequestLots(ctx context.Context, db *gorm.DB, requestID string, lots []domain.RequestLot) error

	// DeleteRequest hard-deletes a request and its owned rows.
	DeleteRequest(ctx context.Context, db *gorm.DB, id string) error

	// GetUser fetches a user, for requester validation.
	GetUser(ctx context.Context, db *gorm.DB, id int64) (*domain.User, error)
}

// RequestService provides the request-level use-cases. It enforces requester
// rules and coordinates the two-step code assignment on creation.
type RequestService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the request repository used by this service.
	Repo RequestRepo
	// Notifier dispatches redirect notices; may be nil (no notifications).
	Notifier Notifier

	// DefaultPageSize is applied when a query passes pageSize <= 0.
	DefaultPageSize int
	// MaxPageSize caps the page size a caller may request.
	MaxPageSize int
}

// NewRequestService constructs a RequestService with sane pagination defaults.
func NewRequestService(db *gorm.DB, r RequestRepo, n Notifier) *RequestService {
	return &RequestService{
		DB:              db,
		Repo:            r,
		Notifier:        n,
		DefaultPageSize: 20,
		MaxPageSize:     100,
	}
}

// LotInput is one (lot, expiry) pair on an intake or update payload.
type LotInput struct {
	Lot    string `json:"lot"`
	Expiry string `json:"expiry"`
}

// CreateRequestInput carries the intake form fields.
type CreateRequestInput struct {
	Client      string     `json:"client"`
	City        string     `json:"city"`
	Product     string     `json:"product"`
	Quantity    int        `json:"quantity"`
	Contact     string     `json:"contact"`
	Phone       string     `json:"phone"`
	Complaint   string     `json:"complaint"`
	RequesterID int64      `json:"requester_id"`
	Lots        []LotInput `json:"lots"`
}

func (in CreateRequestInput) validate() error {
	for _, f := range []struct{ name, val string }{
		{"client", in.Client},
		{"city", in.City},
		{"product", in.Product},
		{"contact", in.Contact},
		{"phone", in.Phone},
		{"complaint", in.Complaint},
	} {
		if strings.TrimSpace(f.val) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, f.name)
		}
	}
	if in.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	for _, l := range in.Lots {
		if strings.TrimSpace(l.Lot) == "" || strings.TrimSpace(l.Expiry) == "" {
			return fmt.Errorf("%w: lots require lot and expiry", ErrInvalidInput)
		}
	}
	return nil
}

// Create files a new request. The requester must exist and hold the
// REPRESENTATIVE role. The request is persisted with a placeholder code and
// immediately re-persisted with the final "SAT-NNNNNN" code derived from its
// assigned sequence number; the fully loaded record is returned.
func (s *RequestService) Create(ctx context.Context, in CreateRequestInput) (*domain.Request, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	u, err := s.Repo.GetUser(ctx, s.DB, in.RequesterID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidRequester
		}
		return nil, err
	}
	if u.Role != domain.RoleRepresentative {
		return nil, ErrInvalidRequester
	}

	req := &domain.Request{
		Client:      strings.TrimSpace(in.Client),
		City:        strings.TrimSpace(in.City),
		Product:     strings.TrimSpace(in.Product),
		Quantity:    in.Quantity,
		Contact:     strings.TrimSpace(in.Contact),
		Phone:       strings.TrimSpace(in.Phone),
		Complaint:   strings.TrimSpace(in.Complaint),
		RequesterID: in.RequesterID,
		Lots:        make([]domain.RequestLot, 0, len(in.Lots)),
	}
	for _, l := range in.Lots {
		req.Lots = append(req.Lots, domain.RequestLot{Lot: l.Lot, Expiry: l.Expiry})
	}

	if err := s.Repo.CreateRequest(ctx, s.DB, req); err != nil {
		return nil, err
	}
	if _, err := s.Repo.AssignRequestCode(ctx, s.DB, req.ID); err != nil {
		return nil, err
	}
	return s.get(ctx, req.ID)
}

// UpdateRequestInput carries a partial update; nil fields are left unchanged.
// A non-nil Lots slice replaces the request's lot set entirely (an empty
// slice clears it).
type UpdateRequestInput struct {
	Client    *string     `json:"client"`
	City      *string     `json:"city"`
	Product   *string     `json:"product"`
	Quantity  *int        `json:"quantity"`
	Contact   *string     `json:"contact"`
	Phone     *string     `json:"phone"`
	Complaint *string     `json:"complaint"`
	Lots      *[]LotInput `json:"lots"`
}

// Update applies a partial merge to an existing request and returns the
// refreshed record. The code, requester, status, and destination are not
// reachable from here; status and destination change through ChangeStatus
// and Redirect.
func (s *RequestService) Update(ctx context.Context, id string, in UpdateRequestInput) (*domain.Request, error) {
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Client != nil {
		fields["client"] = *in.Client
	}
	if in.City != nil {
		fields["city"] = *in.City
	}
	if in.Product != nil {
		fields["product"] = *in.Product
	}
	if in.Quantity != nil {
		if *in.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
		}
		fields["quantity"] = *in.Quantity
	}
	if in.Contact != nil {
		fields["contact"] = *in.Contact
	}
	if in.Phone != nil {
		fields["phone"] = *in.Phone
	}
	if in.Complaint != nil {
		fields["complaint"] = *in.Complaint
	}

	if len(fields) > 0 {
		if err := s.Repo.UpdateRequestFields(ctx, s.DB, id, fields); err != nil {
			return nil, err
		}
	}
	if in.Lots != nil {
		lots := make([]domain.RequestLot, 0, len(*in.Lots))
		for _, l := range *in.Lots {
			if strings.TrimSpace(l.Lot) == "" || strings.TrimSpace(l.Expiry) == "" {
				return nil, fmt.Errorf("%w: lots require lot and expiry", ErrInvalidInput)
			}
			lots = append(lots, domain.RequestLot{Lot: l.Lot, Expiry: l.Expiry})
		}
		if err := s.Repo.ReplaceRequestLots(ctx, s.DB, id, lots); err != nil {
			return nil, err
		}
	}
	return s.get(ctx, id)
}

// ChangeStatus overwrites the request's status. Any known status may be set
// from any other; RequestStatusGuard, when installed, may veto a transition.
// Setting a SENT_TO_* status also routes the request to the matching lab.
func (s *RequestService) ChangeStatus(ctx context.Context, id string, status domain.RequestStatus) (*domain.Request, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	req, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if RequestStatusGuard != nil {
		if err := RequestStatusGuard(req.Status, status); err != nil {
			return nil, err
		}
	}

	fields := map[string]any{"status": status}
	switch status {
	case domain.RequestSentToWater:
		fields["destination"] = domain.LabWaterBase
	case domain.RequestSentToSolvent:
		fields["destination"] = domain.LabSolventBase
	}
	if err := s.Repo.UpdateRequestFields(ctx, s.DB, id, fields); err != nil {
		return nil, err
	}
	return s.get(ctx, id)
}

// Redirect moves a routed request to the opposite lab and sets the matching
// SENT_TO_* status. The requester is notified asynchronously; a notification
// failure never surfaces here. A request that was never routed yields
// ErrNoDestinationSet.
func (s *RequestService) Redirect(ctx context.Context, id string) (*domain.Request, error) {
	req, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Destination == nil {
		return nil, ErrNoDestinationSet
	}
	previous := *req.Destination
	next := previous.Opposite()

	fields := map[string]any{
		"destination": next,
		"status":      next.SentStatus(),
	}
	if err := s.Repo.UpdateRequestFields(ctx, s.DB, id, fields); err != nil {
		return nil, err
	}

	updated, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Notifier != nil {
		s.Notifier.NotifyRedirectAsync(updated, previous)
	}
	return updated, nil
}

// Delete hard-deletes a request; lots, attachments, and any investigation go
// with it. This is an administrative operation.
func (s *RequestService) Delete(ctx context.Context, id string) error {
	if err := s.Repo.DeleteRequest(ctx, s.DB, id); err != nil {
		if isNotFound(err) {
			return ErrRequestNotFound
		}
		return err
	}
	return nil
}

// Get returns a single request with its associations, or ErrRequestNotFound.
func (s *RequestService) Get(ctx context.Context, id string) (*domain.Request, error) {
	return s.get(ctx, id)
}

// ListPage returns one page of requests matching the filter plus the total
// count. Page and pageSize are clamped to sane values.
func (s *RequestService) ListPage(ctx context.Context, f repo.RequestFilter, page, pageSize int) ([]domain.Request, int64, error) {
	page, pageSize = s.clampPage(page, pageSize)
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountRequests(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Request{}, 0, nil
	}
	items, err := s.Repo.ListRequestsPage(ctx, s.DB, f, offset, pageSize)
	return items, total, err
}

// ListByLabPage returns one page of requests routed to the given lab.
func (s *RequestService) ListByLabPage(ctx context.Context, lab domain.Lab, page, pageSize int) ([]domain.Request, int64, error) {
	if !lab.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown lab %q", ErrInvalidInput, lab)
	}
	return s.ListPage(ctx, repo.RequestFilter{Lab: &lab}, page, pageSize)
}

// ListByStatusPage returns one page of requests in the given status.
func (s *RequestService) ListByStatusPage(ctx context.Context, status domain.RequestStatus, page, pageSize int) ([]domain.Request, int64, error) {
	if !status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	return s.ListPage(ctx, repo.RequestFilter{Status: &status}, page, pageSize)
}

// ListByRequesterPage returns one page of requests filed by the given
// representative. A requester that does not exist or holds another role
// yields ErrInvalidRequester.
func (s *RequestService) ListByRequesterPage(ctx context.Context, requesterID int64, page, pageSize int) ([]domain.Request, int64, error) {
	u, err := s.Repo.GetUser(ctx, s.DB, requesterID)
	if err != nil {
		if isNotFound(err) {
			return nil, 0, ErrInvalidRequester
		}
		return nil, 0, err
	}
	if u.Role != domain.RoleRepresentative {
		return nil, 0, ErrInvalidRequester
	}
	return s.ListPage(ctx, repo.RequestFilter{RequesterID: &requesterID}, page, pageSize)
}

func (s *RequestService) get(ctx context.Context, id string) (*domain.Request, error) {
	req, err := s.Repo.GetRequest(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return req, nil
}

func (s *RequestService) clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.DefaultPageSize
	}
	if s.MaxPageSize > 0 && pageSize > s.MaxPageSize {
		pageSize = s.MaxPageSize
	}
	return page, pageSize
}

// isNotFound treats repo-level not found sentinels as "not found" in a
// driver-agnostic way.
func isNotFound(err error) bool {
	if errors.Is(err, repo.ErrNotFound) {
		return true
	}
	return errors.Is(err, gorm.ErrRecordNotFound)
}
