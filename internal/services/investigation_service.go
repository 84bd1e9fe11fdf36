// Package services – InvestigationService
//
// This file implements the InvestigationService, which manages the technical
// findings record (AVT) attached to a request. A request has at most one
// investigation; repeated submissions are an upsert on the owning request.
// Completing an investigation triggers the finalization notification, once
// per COMPLETED transition.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/JoaoPizoli/SatMaza/internal/domain"
)

// InvestigationRepo defines the repository contract required by
// InvestigationService.
type InvestigationRepo interface {
	// UpsertInvestigation creates or merges the investigation owned by a
	// request, as a single conditional write.
	UpsertInvestigation(ctx context.Context, db *gorm.DB, requestID string, inv *domain.Investigation) (*domain.Investigation, error)

	// GetInvestigation fetches an investigation by id.
	GetInvestigation(ctx context.Context, db *gorm.DB, id string) (*domain.Investigation, error)

	// GetInvestigationByRequest fetches the investigation owned by a request.
	GetInvestigationByRequest(ctx context.Context, db *gorm.DB, requestID string) (*domain.Investigation, error)

	// UpdateInvestigationFields applies a partial column update.
	UpdateInvestigationFields(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error

	// GetRequest verifies the owning request exists on submission.
	GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.Request, error)
}

// InvestigationService provides the investigation-level use-cases.
type InvestigationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the investigation repository used by this service.
	Repo InvestigationRepo
	// Notifier dispatches finalization notices; may be nil (no notifications).
	Notifier Notifier
}

// NewInvestigationService constructs an InvestigationService.
func NewInvestigationService(db *gorm.DB, r InvestigationRepo, n Notifier) *InvestigationService {
	return &InvestigationService{DB: db, Repo: r, Notifier: n}
}

// InvestigationInput carries one findings submission. The three outcome
// flags are tri-state; a nil flag on a re-submission clears any previously
// recorded value.
type InvestigationInput struct {
	Findings        string    `json:"findings"`
	ProbableCause   string    `json:"probable_cause"`
	ReportID        *string   `json:"report_id"`
	Lot             string    `json:"lot"`
	ComplaintUpheld *bool     `json:"complaint_upheld"`
	Replacement     *bool     `json:"replacement"`
	LotRecall       *bool     `json:"lot_recall"`
	Solution        string    `json:"solution"`
	Date            time.Time `json:"date"`
}

// CreateOrUpdate records a findings submission for the request. The first
// submission creates the investigation in PENDING; later submissions merge
// into the existing row, keeping the one-per-request invariant. The owning
// request must exist.
func (s *InvestigationService) CreateOrUpdate(ctx context.Context, requestID string, in InvestigationInput, technicianID int64) (*domain.Investigation, error) {
	if _, err := s.Repo.GetRequest(ctx, s.DB, requestID); err != nil {
		if isNotFound(err) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	inv := &domain.Investigation{
		Findings:        in.Findings,
		ProbableCause:   in.ProbableCause,
		ReportID:        in.ReportID,
		Lot:             in.Lot,
		ComplaintUpheld: in.ComplaintUpheld,
		Replacement:     in.Replacement,
		LotRecall:       in.LotRecall,
		Solution:        in.Solution,
		Date:            in.Date,
		TechnicianID:    technicianID,
	}
	return s.Repo.UpsertInvestigation(ctx, s.DB, requestID, inv)
}

// UpdateInvestigationInput carries a partial update; nil fields are left
// unchanged. Unlike a CreateOrUpdate re-submission, flags absent here keep
// their stored value.
type UpdateInvestigationInput struct {
	Findings        *string    `json:"findings"`
	ProbableCause   *string    `json:"probable_cause"`
	ReportID        *string    `json:"report_id"`
	Lot             *string    `json:"lot"`
	ComplaintUpheld *bool      `json:"complaint_upheld"`
	Replacement     *bool      `json:"replacement"`
	LotRecall       *bool      `json:"lot_recall"`
	Solution        *string    `json:"solution"`
	Date            *time.Time `json:"date"`
}

// Update applies a partial merge to an existing investigation and returns
// the refreshed record.
func (s *InvestigationService) Update(ctx context.Context, id string, in UpdateInvestigationInput) (*domain.Investigation, error) {
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Findings != nil {
		fields["findings"] = *in.Findings
	}
	if in.ProbableCause != nil {
		fields["probable_cause"] = *in.ProbableCause
	}
	if in.ReportID != nil {
		fields["report_id"] = *in.ReportID
	}
	if in.Lot != nil {
		fields["lot"] = *in.Lot
	}
	if in.ComplaintUpheld != nil {
		fields["complaint_upheld"] = *in.ComplaintUpheld
	}
	if in.Replacement != nil {
		fields["replacement"] = *in.Replacement
	}
	if in.LotRecall != nil {
		fields["lot_recall"] = *in.LotRecall
	}
	if in.Solution != nil {
		fields["solution"] = *in.Solution
	}
	if in.Date != nil {
		fields["date"] = *in.Date
	}

	if len(fields) > 0 {
		if err := s.Repo.UpdateInvestigationFields(ctx, s.DB, id, fields); err != nil {
			return nil, err
		}
	}
	return s.get(ctx, id)
}

// ChangeStatus overwrites the investigation's status. Every transition to
// COMPLETED spawns a finalization dispatch, including repeated ones; the
// dispatcher does no deduplication.
func (s *InvestigationService) ChangeStatus(ctx context.Context, id string, status domain.InvestigationStatus) (*domain.Investigation, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.Repo.UpdateInvestigationFields(ctx, s.DB, id, map[string]any{"status": status}); err != nil {
		return nil, err
	}
	inv, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if status == domain.InvestigationCompleted && s.Notifier != nil {
		s.Notifier.NotifyFinalizationAsync(inv.RequestID)
	}
	return inv, nil
}

// Get returns a single investigation, or ErrInvestigationNotFound.
func (s *InvestigationService) Get(ctx context.Context, id string) (*domain.Investigation, error) {
	return s.get(ctx, id)
}

// GetByRequest returns the investigation owned by a request, or
// ErrInvestigationNotFound when the request has none (or does not exist).
func (s *InvestigationService) GetByRequest(ctx context.Context, requestID string) (*domain.Investigation, error) {
	inv, err := s.Repo.GetInvestigationByRequest(ctx, s.DB, requestID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvestigationNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (s *InvestigationService) get(ctx context.Context, id string) (*domain.Investigation, error) {
	inv, err := s.Repo.GetInvestigation(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvestigationNotFound
		}
		return nil, err
	}
	return inv, nil
}
