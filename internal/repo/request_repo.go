// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Request
// (SAT) model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a request is not found, functions return gorm.ErrRecordNotFound
//     (also exported in this package as ErrNotFound).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JoaoPizoli/SatMaza/internal/domain"
)

// RequestFilter narrows request list and count queries. Zero values mean
// "no filtering" for the corresponding field.
type RequestFilter struct {
	Lab         *domain.Lab
	RequesterID *int64
	Status      *domain.RequestStatus
}

func (f RequestFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Lab != nil {
		q = q.Where("destination = ?", *f.Lab)
	}
	if f.RequesterID != nil {
		q = q.Where("requester_id = ?", *f.RequesterID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	return q
}

// requestPreloads attaches the default association set loaded with every
// request: requester, lots, attachments, and the investigation with its
// report document.
func requestPreloads(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Requester").
		Preload("Lots").
		Preload("Attachments").
		Preload("Investigation").
		Preload("Investigation.Report")
}

// CreateRequest inserts a new Request row with a UUID primary key, UTC
// creation timestamp, the next sequence number, and the placeholder code.
// Owned lots receive their own UUIDs. The sequence is allocated as
// max(seq)+1 inside the insert transaction; the unique index on seq turns a
// concurrent allocation of the same number into a constraint error instead
// of a silent duplicate. The definitive code is assigned afterwards via
// AssignRequestCode.
func CreateRequest(ctx context.Context, db *gorm.DB, r *domain.Request) error {
	r.ID = uuid.NewString()
	r.Code = domain.CodePlaceholder
	r.CreatedAt = time.Now().UTC()
	if r.Status == "" {
		r.Status = domain.RequestPending
	}
	for i := range r.Lots {
		r.Lots[i].ID = uuid.NewString()
		r.Lots[i].RequestID = r.ID
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var max int64
		if err := tx.Model(&domain.Request{}).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&max).Error; err != nil {
			return err
		}
		r.Seq = max + 1
		return tx.Create(r).Error
	})
}

// AssignRequestCode replaces the placeholder code with the final
// "SAT-NNNNNN" code derived from the row's sequence number. The code is
// written at most once: a request whose code is already final is left
// untouched, which makes the operation idempotent.
func AssignRequestCode(ctx context.Context, db *gorm.DB, id string) (string, error) {
	var r domain.Request
	if err := db.WithContext(ctx).Select("id", "seq", "code").First(&r, "id = ?", id).Error; err != nil {
		return "", err
	}
	if r.Code != domain.CodePlaceholder {
		return r.Code, nil
	}
	code := domain.FormatRequestCode(r.Seq)
	err := db.WithContext(ctx).
		Model(&domain.Request{}).
		Where("id = ?", id).
		Update("code", code).Error
	if err != nil {
		return "", err
	}
	return code, nil
}

// GetRequest fetches a single request by ID with its default associations.
// If the record does not exist, it returns ErrNotFound.
func GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.Request, error) {
	var r domain.Request
	err := requestPreloads(db.WithContext(ctx)).First(&r, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CountRequests returns the number of requests matching the filter.
func CountRequests(ctx context.Context, db *gorm.DB, f RequestFilter) (int64, error) {
	var total int64
	err := f.apply(db.WithContext(ctx).Model(&domain.Request{})).Count(&total).Error
	return total, err
}

// ListRequestsPage returns a page of requests matching the filter, ordered
// by creation time descending. Use CountRequests to obtain the total for
// pagination metadata.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListRequestsPage(ctx context.Context, db *gorm.DB, f RequestFilter, offset, limit int) ([]domain.Request, error) {
	var out []domain.Request
	err := requestPreloads(f.apply(db.WithContext(ctx))).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateRequestFields applies a partial column update to a request.
// Callers verify existence beforehand; zero affected rows are not an error
// here because an update with unchanged values also reports zero.
func UpdateRequestFields(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	return db.WithContext(ctx).
		Model(&domain.Request{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// ReplaceRequestLots deletes the request's current lot rows and inserts the
// given replacements, all inside one transaction.
func ReplaceRequestLots(ctx context.Context, db *gorm.DB, requestID string, lots []domain.RequestLot) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("request_id = ?", requestID).Delete(&domain.RequestLot{}).Error; err != nil {
			return err
		}
		if len(lots) == 0 {
			return nil
		}
		for i := range lots {
			lots[i].ID = uuid.NewString()
			lots[i].RequestID = requestID
		}
		return tx.Create(&lots).Error
	})
}

// DeleteRequest hard-deletes a request. Lots and attachments go with it via
// the FK cascade; an existing investigation is removed explicitly first so
// the delete cannot be blocked by the unique back-reference.
// Returns ErrNotFound when the id does not exist.
func DeleteRequest(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("request_id = ?", id).Delete(&domain.Investigation{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Request{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
