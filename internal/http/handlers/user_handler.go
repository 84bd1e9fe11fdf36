// User HTTP handlers.
//
// This file exposes REST endpoints for accounts:
//   - POST   /users                       (create)
//   - GET    /users/{id}                  (fetch)
//   - PATCH  /users/{id}                  (partial update)
//   - DELETE /users/{id}                  (delete)
//   - POST   /users/{id}/registration     (complete first-login registration)
//   - GET    /users/representatives       (list representatives)
//   - POST   /auth/login                  (code/password check)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JoaoPizoli/SatMaza/internal/services"
	"github.com/JoaoPizoli/SatMaza/internal/utils"
)

// CompleteRegistrationRequest is the JSON payload finishing a provisioned
// account's first login.
type CompleteRegistrationRequest struct {
	Name     string  `json:"name" binding:"required"`
	Email    string  `json:"email" binding:"required"`
	Password *string `json:"password"`
}

// LoginRequest is the JSON payload for a credential check.
type LoginRequest struct {
	Code     string `json:"code" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// pathUserID validates that the :id path segment is a positive integer.
func pathUserID(c *gin.Context) (int64, bool) {
	id := int64(utils.AtoiDefault(c.Param("id"), 0))
	if id <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// CreateUser registers a new account.
func (h *Handlers) CreateUser(c *gin.Context) {
	var in services.CreateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	u, err := h.userSvc.Create(c.Request.Context(), in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// GetUser returns one account by id.
func (h *Handlers) GetUser(c *gin.Context) {
	id, valid := pathUserID(c)
	if !valid {
		return
	}
	u, err := h.userSvc.Get(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// UpdateUser applies a partial merge to an account.
func (h *Handlers) UpdateUser(c *gin.Context) {
	id, valid := pathUserID(c)
	if !valid {
		return
	}
	var in services.UpdateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	u, err := h.userSvc.Update(c.Request.Context(), id, in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// DeleteUser removes an account.
func (h *Handlers) DeleteUser(c *gin.Context) {
	id, valid := pathUserID(c)
	if !valid {
		return
	}
	if err := h.userSvc.Delete(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// CompleteRegistration finishes a provisioned account's first login.
func (h *Handlers) CompleteRegistration(c *gin.Context) {
	id, valid := pathUserID(c)
	if !valid {
		return
	}
	var body CompleteRegistrationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name and email required")
		return
	}
	u, err := h.userSvc.CompleteRegistration(c.Request.Context(), id, body.Name, body.Email, body.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// ListRepresentatives returns all REPRESENTATIVE accounts.
func (h *Handlers) ListRepresentatives(c *gin.Context) {
	users, err := h.userSvc.ListRepresentatives(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, users)
}

// Login verifies a code/password pair and returns the account profile.
// Session handling lives in the frontend; this endpoint only authenticates.
func (h *Handlers) Login(c *gin.Context) {
	var body LoginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "code and password required")
		return
	}
	u, err := h.userSvc.Authenticate(c.Request.Context(), body.Code, body.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}
