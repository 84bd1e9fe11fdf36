// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate queries behind the
// dashboard endpoints: request counts grouped by lab, status, and requester,
// and the most frequent products. Each function is context-aware and safe to
// call from services or handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/JoaoPizoli/SatMaza/internal/domain"
)

// DashboardFilter narrows dashboard aggregates. All fields are optional.
type DashboardFilter struct {
	From        *time.Time // inclusive lower bound on created_at
	To          *time.Time // inclusive upper bound on created_at
	RequesterID *int64
	Product     string // case-insensitive substring match
}

func (f DashboardFilter) apply(q *gorm.DB) *gorm.DB {
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}
	if f.RequesterID != nil {
		q = q.Where("requester_id = ?", *f.RequesterID)
	}
	if f.Product != "" {
		q = q.Where("product LIKE ?", "%"+f.Product+"%")
	}
	return q
}

// GroupCount is one aggregate row: a grouping key and the number of
// requests sharing it.
type GroupCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// CountRequestsByLab returns request counts grouped by destination lab.
// Requests not yet routed to a lab are excluded.
func CountRequestsByLab(ctx context.Context, db *gorm.DB, f DashboardFilter) ([]GroupCount, error) {
	var out []GroupCount
	err := f.apply(db.WithContext(ctx).Model(&domain.Request{})).
		Select("destination AS key, COUNT(*) AS count").
		Where("destination IS NOT NULL").
		Group("destination").
		Order("count DESC").
		Scan(&out).Error
	return out, err
}

// CountRequestsByStatus returns request counts grouped by lifecycle status.
func CountRequestsByStatus(ctx context.Context, db *gorm.DB, f DashboardFilter) ([]GroupCount, error) {
	var out []GroupCount
	err := f.apply(db.WithContext(ctx).Model(&domain.Request{})).
		Select("status AS key, COUNT(*) AS count").
		Group("status").
		Order("count DESC").
		Scan(&out).Error
	return out, err
}

// RequesterCount is one per-requester aggregate row, carrying the
// requester's code and name alongside the count.
type RequesterCount struct {
	RequesterID int64  `json:"requester_id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Count       int64  `json:"count"`
}

// CountRequestsByRequester returns request counts grouped by the filing
// representative, most active first.
func CountRequestsByRequester(ctx context.Context, db *gorm.DB, f DashboardFilter) ([]RequesterCount, error) {
	var out []RequesterCount
	err := f.apply(db.WithContext(ctx).Model(&domain.Request{})).
		Select("sat.requester_id AS requester_id, users.code AS code, users.name AS name, COUNT(*) AS count").
		Joins("JOIN users ON users.id = sat.requester_id").
		Group("sat.requester_id, users.code, users.name").
		Order("count DESC").
		Scan(&out).Error
	return out, err
}

// TopProducts returns the n products with the most requests, most frequent
// first.
func TopProducts(ctx context.Context, db *gorm.DB, f DashboardFilter, n int) ([]GroupCount, error) {
	if n < 1 {
		n = 5
	}
	var out []GroupCount
	err := f.apply(db.WithContext(ctx).Model(&domain.Request{})).
		Select("product AS key, COUNT(*) AS count").
		Group("product").
		Order("count DESC").
		Limit(n).
		Scan(&out).Error
	return out, err
}
