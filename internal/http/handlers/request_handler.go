// Request (SAT) HTTP handlers.
//
// This file exposes REST endpoints for request resources:
//   - POST   /requests                 (intake)
//   - GET    /requests                 (list, paginated, filterable)
//   - GET    /requests/{id}            (fetch with associations)
//   - PATCH  /requests/{id}            (partial update)
//   - PUT    /requests/{id}/status     (lifecycle status change)
//   - POST   /requests/{id}/redirect   (move to the opposite lab)
//   - DELETE /requests/{id}            (administrative delete)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/JoaoPizoli/SatMaza/internal/domain"
	"github.com/JoaoPizoli/SatMaza/internal/repo"
	"github.com/JoaoPizoli/SatMaza/internal/services"
	"github.com/JoaoPizoli/SatMaza/internal/utils"
)

//
// Service contracts (context-aware)
//

// RequestService defines the request lifecycle operations consumed by HTTP
// handlers. Implementations must be safe for concurrent use and honor the
// provided context.
type RequestService interface {
	Create(ctx context.Context, in services.CreateRequestInput) (*domain.Request, error)
	Update(ctx context.Context, id string, in services.UpdateRequestInput) (*domain.Request, error)
	ChangeStatus(ctx context.Context, id string, status domain.RequestStatus) (*domain.Request, error)
	Redirect(ctx context.Context, id string) (*domain.Request, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Request, error)
	ListPage(ctx context.Context, f repo.RequestFilter, page, pageSize int) ([]domain.Request, int64, error)
}

// InvestigationService defines the investigation operations consumed by HTTP
// handlers.
type InvestigationService interface {
	CreateOrUpdate(ctx context.Context, requestID string, in services.InvestigationInput, technicianID int64) (*domain.Investigation, error)
	Update(ctx context.Context, id string, in services.UpdateInvestigationInput) (*domain.Investigation, error)
	ChangeStatus(ctx context.Context, id string, status domain.InvestigationStatus) (*domain.Investigation, error)
	Get(ctx context.Context, id string) (*domain.Investigation, error)
	GetByRequest(ctx context.Context, requestID string) (*domain.Investigation, error)
}

// UserService defines the account operations consumed by HTTP handlers.
type UserService interface {
	Create(ctx context.Context, in services.CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, id int64, in services.UpdateUserInput) (*domain.User, error)
	CompleteRegistration(ctx context.Context, id int64, name, email string, password *string) (*domain.User, error)
	Authenticate(ctx context.Context, code, password string) (*domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	ListRepresentatives(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, id int64) error
}

// DashboardService defines the aggregate queries consumed by HTTP handlers.
type DashboardService interface {
	Overview(ctx context.Context, f repo.DashboardFilter) (*services.Overview, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for requests, investigations, users,
// and the dashboard. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
type Handlers struct {
	reqSvc  RequestService
	invSvc  InvestigationService
	userSvc UserService
	dashSvc DashboardService
}

// New constructs a Handlers instance bound to the given services.
func New(reqSvc RequestService, invSvc InvestigationService, userSvc UserService, dashSvc DashboardService) *Handlers {
	return &Handlers{reqSvc: reqSvc, invSvc: invSvc, userSvc: userSvc, dashSvc: dashSvc}
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListRequestsResponse wraps a page of requests and pagination information.
type ListRequestsResponse struct {
	Requests   []domain.Request `json:"requests"`
	Pagination Pagination       `json:"pagination"`
}

// ChangeRequestStatusRequest is the JSON payload for a status change.
type ChangeRequestStatusRequest struct {
	Status domain.RequestStatus `json:"status" binding:"required"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// paginate builds the pagination envelope for one result page.
func paginate(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// pathUUID validates that the :id path segment is a UUID and returns it.
func pathUUID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id must be a UUID")
		return "", false
	}
	return id, true
}

//
// Handlers
//

// CreateRequest files a new SAT and returns it with its assigned code.
func (h *Handlers) CreateRequest(c *gin.Context) {
	var in services.CreateRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	req, err := h.reqSvc.Create(c.Request.Context(), in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, req)
}

// ListRequests returns a page of requests. Optional query filters:
// lab (WATER_BASE|SOLVENT_BASE), status, requester_id.
func (h *Handlers) ListRequests(c *gin.Context) {
	page, pageSize := clampPagination(c)

	var f repo.RequestFilter
	if v := c.Query("lab"); v != "" {
		lab := domain.Lab(v)
		if !lab.Valid() {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown lab")
			return
		}
		f.Lab = &lab
	}
	if v := c.Query("status"); v != "" {
		status := domain.RequestStatus(v)
		if !status.Valid() {
			fail(c, http.StatusBadRequest, ErrCodeInvalidStatus, "unknown status")
			return
		}
		f.Status = &status
	}
	if v := c.Query("requester_id"); v != "" {
		id := int64(utils.AtoiDefault(v, 0))
		if id <= 0 {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "requester_id must be a positive integer")
			return
		}
		f.RequesterID = &id
	}

	items, total, err := h.reqSvc.ListPage(c.Request.Context(), f, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListRequestsResponse{
		Requests:   items,
		Pagination: paginate(page, pageSize, total),
	})
}

// GetRequest returns one request with its lots, attachments, requester, and
// investigation.
func (h *Handlers) GetRequest(c *gin.Context) {
	id, valid := pathUUID(c)
	if !valid {
		return
	}
	req, err := h.reqSvc.Get(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, req)
}

// UpdateRequest applies a partial merge to a request.
func (h *Handlers) UpdateRequest(c *gin.Context) {
	id, valid := pathUUID(c)
	if !valid {
		return
	}
	var in services.UpdateRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	req, err := h.reqSvc.Update(c.Request.Context(), id, in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, req)
}

// ChangeRequestStatus overwrites the request's lifecycle status.
func (h *Handlers) ChangeRequestStatus(c *gin.Context) {
	id, valid := pathUUID(c)
	if !valid {
		return
	}
	var body ChangeRequestStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status required")
		return
	}
	req, err := h.reqSvc.ChangeStatus(c.Request.Context(), id, body.Status)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, req)
}

// RedirectRequest moves a routed request to the opposite lab. The response
// carries the updated request; the requester notice goes out asynchronously.
func (h *Handlers) RedirectRequest(c *gin.Context) {
	id, valid := pathUUID(c)
	if !valid {
		return
	}
	req, err := h.reqSvc.Redirect(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, req)
}

// DeleteRequest removes a request and everything it owns.
func (h *Handlers) DeleteRequest(c *gin.Context) {
	id, valid := pathUUID(c)
	if !valid {
		return
	}
	if err := h.reqSvc.Delete(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
