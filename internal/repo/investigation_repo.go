// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Investigation (AVT) model.
//
// An investigation is tied 1:1 to its request through a unique foreign key.
// Repeated submissions for the same request are modeled as an upsert: find
// by owning request id, merge fields if present, insert otherwise.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JoaoPizoli/SatMaza/internal/domain"
)

// investigationPreloads attaches the associations loaded with every
// investigation: the report document and the responsible technician.
func investigationPreloads(q *gorm.DB) *gorm.DB {
	return q.Preload("Report").Preload("Technician")
}

// UpsertInvestigation persists inv for the given request as one conditional
// write: when an investigation already exists for requestID, its fields are
// merged into the existing row (retry-of-submission case); otherwise a new
// row is inserted with a fresh UUID. The persisted record is returned.
func UpsertInvestigation(ctx context.Context, db *gorm.DB, requestID string, inv *domain.Investigation) (*domain.Investigation, error) {
	var id string
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.Investigation
		err := tx.Select("id").First(&existing, "request_id = ?", requestID).Error
		switch {
		case err == nil:
			id = existing.ID
			return tx.Model(&domain.Investigation{}).
				Where("id = ?", id).
				Updates(investigationColumns(inv)).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			inv.ID = uuid.NewString()
			inv.RequestID = requestID
			inv.CreatedAt = time.Now().UTC()
			if inv.Status == "" {
				inv.Status = domain.InvestigationPending
			}
			id = inv.ID
			return tx.Create(inv).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return GetInvestigation(ctx, db, id)
}

// investigationColumns flattens the mutable fields of an investigation into
// an update map. Nil flag pointers are written through so a re-submission
// can clear a previously set flag.
func investigationColumns(inv *domain.Investigation) map[string]any {
	return map[string]any{
		"findings":         inv.Findings,
		"probable_cause":   inv.ProbableCause,
		"report_id":        inv.ReportID,
		"lot":              inv.Lot,
		"complaint_upheld": inv.ComplaintUpheld,
		"replacement":      inv.Replacement,
		"lot_recall":       inv.LotRecall,
		"solution":         inv.Solution,
		"date":             inv.Date,
		"technician_id":    inv.TechnicianID,
	}
}

// GetInvestigation fetches a single investigation by ID.
// If the record does not exist, it returns ErrNotFound.
func GetInvestigation(ctx context.Context, db *gorm.DB, id string) (*domain.Investigation, error) {
	var inv domain.Investigation
	err := investigationPreloads(db.WithContext(ctx)).First(&inv, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetInvestigationByRequest fetches the investigation owned by a request.
// If none exists, it returns ErrNotFound.
func GetInvestigationByRequest(ctx context.Context, db *gorm.DB, requestID string) (*domain.Investigation, error) {
	var inv domain.Investigation
	err := investigationPreloads(db.WithContext(ctx)).First(&inv, "request_id = ?", requestID).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// UpdateInvestigationFields applies a partial column update to an
// investigation. Callers verify existence beforehand.
func UpdateInvestigationFields(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	return db.WithContext(ctx).
		Model(&domain.Investigation{}).
		Where("id = ?", id).
		Updates(fields).Error
}
