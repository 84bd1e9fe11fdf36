// Investigation (AVT) HTTP handlers.
//
// This file exposes REST endpoints for investigation resources:
//   - PUT    /requests/{id}/investigation   (submit findings; upsert)
//   - GET    /requests/{id}/investigation   (fetch by owning request)
//   - GET    /investigations/{id}           (fetch by id)
//   - PATCH  /investigations/{id}           (partial update)
//   - PUT    /investigations/{id}/status    (lifecycle status change)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JoaoPizoli/SatMaza/internal/domain"
	"github.com/JoaoPizoli/SatMaza/internal/services"
)

// SubmitInvestigationRequest is the JSON payload for a findings submission.
// The first submission for a request creates the investigation; later ones
// merge into it.
type SubmitInvestigationRequest struct {
	services.InvestigationInput
	TechnicianID int64 `json:"technician_id" binding:"required"`
}

// ChangeInvestigationStatusRequest is the JSON payload for a status change.
type ChangeInvestigationStatusRequest struct {
	Status domain.InvestigationStatus `json:"status" binding:"required"`
}

// SubmitInvestigation records findings for the request in the path. Responds
// 200 with the persisted investigation whether it was created or merged.
func (h *Handlers) SubmitInvestigation(c *gin.Context) {
	requestID, valid := pathUUID(c)
	if !valid {
		return
	}
	var body SubmitInvestigationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	inv, err := h.invSvc.CreateOrUpdate(c.Request.Context(), requestID, body.InvestigationInput, body.TechnicianID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, inv)
}

// GetRequestInvestigation returns the investigation owned by the request in
// the path.
func (h *Handlers) GetRequestInvestigation(c *gin.Context) {
	requestID, valid := pathUUID(c)
	if !valid {
		return
	}
	inv, err := h.invSvc.GetByRequest(c.Request.Context(), requestID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, inv)
}

// GetInvestigation returns one investigation by id.
func (h *Handlers) GetInvestigation(c *gin.Context) {
	id, valid := pathUUID(c)
	if !valid {
		return
	}
	inv, err := h.invSvc.Get(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, inv)
}

// UpdateInvestigation applies a partial merge to an investigation.
func (h *Handlers) UpdateInvestigation(c *gin.Context) {
	id, valid := pathUUID(c)
	if !valid {
		return
	}
	var in services.UpdateInvestigationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	inv, err := h.invSvc.Update(c.Request.Context(), id, in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, inv)
}

// ChangeInvestigationStatus overwrites the investigation's status. Setting
// COMPLETED triggers the finalization notification asynchronously.
func (h *Handlers) ChangeInvestigationStatus(c *gin.Context) {
	id, valid := pathUUID(c)
	if !valid {
		return
	}
	var body ChangeInvestigationStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status required")
		return
	}
	inv, err := h.invSvc.ChangeStatus(c.Request.Context(), id, body.Status)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, inv)
}
