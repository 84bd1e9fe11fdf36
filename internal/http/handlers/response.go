// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints:
// a structured error envelope, consistent JSON serialization, and the mapping
// from service-level sentinel errors to HTTP results.
//
// Conventions:
//   - All error responses return an ErrorResponse with a stable `code`.
//   - fail() centralizes error logging and formatting; 5xx responses are
//     logged with request context.
//   - ok() and noContent() keep success responses uniform across handlers.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JoaoPizoli/SatMaza/internal/http/middleware"
	"github.com/JoaoPizoli/SatMaza/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code"`
	// Human-readable message (safe to show to users)
	Message string `json:"message"`
}

// fail aborts the request with a structured error and logs server-side errors.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail(). External packages (e.g., router
// setup) call it to return consistent error envelopes.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr translates service-level sentinel errors into their HTTP result.
// Unrecognized errors become 500s.
func failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrRequestNotFound),
		errors.Is(err, services.ErrInvestigationNotFound),
		errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidRequester):
		fail(c, http.StatusUnprocessableEntity, ErrCodeInvalidRequester, err.Error())
	case errors.Is(err, services.ErrNoDestinationSet):
		fail(c, http.StatusConflict, ErrCodeNoDestination, err.Error())
	case errors.Is(err, services.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, ErrCodeInvalidStatus, err.Error())
	case errors.Is(err, services.ErrInvalidInput):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrDuplicateUser):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
