// Package services – DashboardService
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/JoaoPizoli/SatMaza/internal/repo"
)

// DashboardRepo defines the aggregate queries required by DashboardService.
type DashboardRepo interface {
	CountRequestsByLab(ctx context.Context, db *gorm.DB, f repo.DashboardFilter) ([]repo.GroupCount, error)
	CountRequestsByStatus(ctx context.Context, db *gorm.DB, f repo.DashboardFilter) ([]repo.GroupCount, error)
	CountRequestsByRequester(ctx context.Context, db *gorm.DB, f repo.DashboardFilter) ([]repo.RequesterCount, error)
	TopProducts(ctx context.Context, db *gorm.DB, f repo.DashboardFilter, n int) ([]repo.GroupCount, error)
}

// DashboardService exposes the read-only aggregates behind the overview
// screen. All queries share the same optional filter (date range, requester,
// product substring).
type DashboardService struct {
	// DB is the GORM handle used for queries.
	DB *gorm.DB
	// Repo is the aggregate repository used by this service.
	Repo DashboardRepo
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(db *gorm.DB, r DashboardRepo) *DashboardService {
	return &DashboardService{DB: db, Repo: r}
}

// CountByLab returns request counts grouped by destination lab.
func (s *DashboardService) CountByLab(ctx context.Context, f repo.DashboardFilter) ([]repo.GroupCount, error) {
	return s.Repo.CountRequestsByLab(ctx, s.DB, f)
}

// CountByStatus returns request counts grouped by lifecycle status.
func (s *DashboardService) CountByStatus(ctx context.Context, f repo.DashboardFilter) ([]repo.GroupCount, error) {
	return s.Repo.CountRequestsByStatus(ctx, s.DB, f)
}

// CountByRequester returns request counts grouped by filing representative.
func (s *DashboardService) CountByRequester(ctx context.Context, f repo.DashboardFilter) ([]repo.RequesterCount, error) {
	return s.Repo.CountRequestsByRequester(ctx, s.DB, f)
}

// TopProducts returns the n most complained-about products.
func (s *DashboardService) TopProducts(ctx context.Context, f repo.DashboardFilter, n int) ([]repo.GroupCount, error) {
	return s.Repo.TopProducts(ctx, s.DB, f, n)
}

// Overview bundles all four aggregates for the overview endpoint.
type Overview struct {
	ByLab       []repo.GroupCount     `json:"by_lab"`
	ByStatus    []repo.GroupCount     `json:"by_status"`
	ByRequester []repo.RequesterCount `json:"by_requester"`
	TopProducts []repo.GroupCount     `json:"top_products"`
}

// Overview runs the four aggregate queries and bundles the results.
func (s *DashboardService) Overview(ctx context.Context, f repo.DashboardFilter) (*Overview, error) {
	byLab, err := s.Repo.CountRequestsByLab(ctx, s.DB, f)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.Repo.CountRequestsByStatus(ctx, s.DB, f)
	if err != nil {
		return nil, err
	}
	byRequester, err := s.Repo.CountRequestsByRequester(ctx, s.DB, f)
	if err != nil {
		return nil, err
	}
	top, err := s.Repo.TopProducts(ctx, s.DB, f, 5)
	if err != nil {
		return nil, err
	}
	return &Overview{
		ByLab:       byLab,
		ByStatus:    byStatus,
		ByRequester: byRequester,
		TopProducts: top,
	}, nil
}
