// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as correlation IDs, logging, panic recovery, metrics, compression, CORS,
// security headers, and rate limiting.
//
// Design goals:
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/JoaoPizoli/SatMaza/internal/config"
	"github.com/JoaoPizoli/SatMaza/internal/domain"
	"github.com/JoaoPizoli/SatMaza/internal/http/handlers"
	"github.com/JoaoPizoli/SatMaza/internal/http/middleware"
	"github.com/JoaoPizoli/SatMaza/internal/repo"
	"github.com/JoaoPizoli/SatMaza/internal/services"
)

// requestRepoShim adapts the repository free functions to the
// services.RequestRepo interface expected by the RequestService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type requestRepoShim struct{}

func (requestRepoShim) CreateRequest(ctx context.Context, db *gorm.DB, r *domain.Request) error {
	return repo.CreateRequest(ctx, db, r)
}

func (requestRepoShim) AssignRequestCode(ctx context.Context, db *gorm.DB, id string) (string, error) {
	return repo.AssignRequestCode(ctx, db, id)
}

func (requestRepoShim) GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.Request, error) {
	return repo.GetRequest(ctx, db, id)
}

func (requestRepoShim) CountRequests(ctx context.Context, db *gorm.DB, f repo.RequestFilter) (int64, error) {
	return repo.CountRequests(ctx, db, f)
}

func (requestRepoShim) ListRequestsPage(ctx context.Context, db *gorm.DB, f repo.RequestFilter, offset, limit int) ([]domain.Request, error) {
	return repo.ListRequestsPage(ctx, db, f, offset, limit)
}

func (requestRepoShim) UpdateRequestFields(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	return repo.UpdateRequestFields(ctx, db, id, fields)
}

func (requestRepoShim) ReplaceRequestLots(ctx context.Context, db *gorm.DB, requestID string, lots []domain.RequestLot) error {
	return repo.ReplaceRequestLots(ctx, db, requestID, lots)
}

func (requestRepoShim) DeleteRequest(ctx context.Context, db *gorm.DB, id string) error {
	return repo.DeleteRequest(ctx, db, id)
}

func (requestRepoShim) GetUser(ctx context.Context, db *gorm.DB, id int64) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

// investigationRepoShim adapts the repository free functions to the
// services.InvestigationRepo interface.
type investigationRepoShim struct{}

func (investigationRepoShim) UpsertInvestigation(ctx context.Context, db *gorm.DB, requestID string, inv *domain.Investigation) (*domain.Investigation, error) {
	return repo.UpsertInvestigation(ctx, db, requestID, inv)
}

func (investigationRepoShim) GetInvestigation(ctx context.Context, db *gorm.DB, id string) (*domain.Investigation, error) {
	return repo.GetInvestigation(ctx, db, id)
}

func (investigationRepoShim) GetInvestigationByRequest(ctx context.Context, db *gorm.DB, requestID string) (*domain.Investigation, error) {
	return repo.GetInvestigationByRequest(ctx, db, requestID)
}

func (investigationRepoShim) UpdateInvestigationFields(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	return repo.UpdateInvestigationFields(ctx, db, id, fields)
}

func (investigationRepoShim) GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.Request, error) {
	return repo.GetRequest(ctx, db, id)
}

// userRepoShim adapts the repository free functions to the services.UserRepo
// interface.
type userRepoShim struct{}

func (userRepoShim) CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return repo.CreateUser(ctx, db, u)
}

func (userRepoShim) GetUser(ctx context.Context, db *gorm.DB, id int64) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

func (userRepoShim) GetUserByCode(ctx context.Context, db *gorm.DB, code string) (*domain.User, error) {
	return repo.GetUserByCode(ctx, db, code)
}

func (userRepoShim) ListUsersByRole(ctx context.Context, db *gorm.DB, role domain.UserRole) ([]domain.User, error) {
	return repo.ListUsersByRole(ctx, db, role)
}

func (userRepoShim) UpdateUserFields(ctx context.Context, db *gorm.DB, id int64, fields map[string]any) error {
	return repo.UpdateUserFields(ctx, db, id, fields)
}

func (userRepoShim) DeleteUser(ctx context.Context, db *gorm.DB, id int64) error {
	return repo.DeleteUser(ctx, db, id)
}

// dashboardRepoShim adapts the aggregate queries to the
// services.DashboardRepo interface.
type dashboardRepoShim struct{}

func (dashboardRepoShim) CountRequestsByLab(ctx context.Context, db *gorm.DB, f repo.DashboardFilter) ([]repo.GroupCount, error) {
	return repo.CountRequestsByLab(ctx, db, f)
}

func (dashboardRepoShim) CountRequestsByStatus(ctx context.Context, db *gorm.DB, f repo.DashboardFilter) ([]repo.GroupCount, error) {
	return repo.CountRequestsByStatus(ctx, db, f)
}

func (dashboardRepoShim) CountRequestsByRequester(ctx context.Context, db *gorm.DB, f repo.DashboardFilter) ([]repo.RequesterCount, error) {
	return repo.CountRequestsByRequester(ctx, db, f)
}

func (dashboardRepoShim) TopProducts(ctx context.Context, db *gorm.DB, f repo.DashboardFilter, n int) ([]repo.GroupCount, error) {
	return repo.TopProducts(ctx, db, f, n)
}

// NewUserService builds a UserService bound to the concrete repository.
// The startup admin reconciliation in main uses it before routes exist.
func NewUserService(db *gorm.DB) *services.UserService {
	return services.NewUserService(db, userRepoShim{})
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. notifier may be nil to disable notifications (tests).
//
// Middleware order matters:
//  1. RequestID: generate/propagate correlation id
//  2. Logger: structured request logs
//  3. Recovery: capture panics after logger
//  4. Body size limiter
//  5. Metrics and /metrics endpoint
//  6. Rate limiter (per user/IP)
//  7. Gzip compression
//  8. CORS and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, notifier services.Notifier, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 2) Structured request logging
	r.Use(middleware.Logger())

	// 3) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 4) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 5) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 6) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 7) Response compression
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db/notifier
	reqSvc := services.NewRequestService(db, requestRepoShim{}, notifier)
	invSvc := services.NewInvestigationService(db, investigationRepoShim{}, notifier)
	userSvc := NewUserService(db)
	dashSvc := services.NewDashboardService(db, dashboardRepoShim{})
	h := handlers.New(reqSvc, invSvc, userSvc, dashSvc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Requests (SAT)
		api.POST("/requests", h.CreateRequest)
		api.GET("/requests", h.ListRequests)
		api.GET("/requests/:id", h.GetRequest)
		api.PATCH("/requests/:id", h.UpdateRequest)
		api.PUT("/requests/:id/status", h.ChangeRequestStatus)
		api.POST("/requests/:id/redirect", h.RedirectRequest)
		api.DELETE("/requests/:id", h.DeleteRequest)

		// Investigations (AVT)
		api.PUT("/requests/:id/investigation", h.SubmitInvestigation)
		api.GET("/requests/:id/investigation", h.GetRequestInvestigation)
		api.GET("/investigations/:id", h.GetInvestigation)
		api.PATCH("/investigations/:id", h.UpdateInvestigation)
		api.PUT("/investigations/:id/status", h.ChangeInvestigationStatus)

		// Users
		api.POST("/users", h.CreateUser)
		api.GET("/users/representatives", h.ListRepresentatives)
		api.GET("/users/:id", h.GetUser)
		api.PATCH("/users/:id", h.UpdateUser)
		api.DELETE("/users/:id", h.DeleteUser)
		api.POST("/users/:id/registration", h.CompleteRegistration)
		api.POST("/auth/login", h.Login)

		// Dashboard
		api.GET("/dashboard", h.Dashboard)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
