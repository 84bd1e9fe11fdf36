package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/JoaoPizoli/SatMaza/internal/domain"
	"github.com/JoaoPizoli/SatMaza/internal/repo"
)

// ----- Fakes -----

type fakeRequestRepo struct {
	users    map[int64]*domain.User
	requests map[string]*domain.Request

	createErr  error
	assignErr  error
	updateErr  error
	deleteErr  error
	replaceErr error

	createdSeq    int64
	assignedID    string
	updatedID     string
	updatedFields map[string]any
	replacedID    string
	replacedLots  []domain.RequestLot
	deletedID     string

	countTotal int64
	countErr   error
	pageFilter repo.RequestFilter
	pageOffset int
	pageLimit  int
	pageItems  []domain.Request
	pageErr    error
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{
		users:    map[int64]*domain.User{},
		requests: map[string]*domain.Request{},
	}
}

func (r *fakeRequestRepo) CreateRequest(ctx context.Context, db *gorm.DB, req *domain.Request) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.createdSeq++
	req.ID = "req-created"
	req.Seq = r.createdSeq
	req.Code = domain.CodePlaceholder
	if req.Status == "" {
		req.Status = domain.RequestPending
	}
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

func (r *fakeRequestRepo) AssignRequestCode(ctx context.Context, db *gorm.DB, id string) (string, error) {
	if r.assignErr != nil {
		return "", r.assignErr
	}
	r.assignedID = id
	req, ok := r.requests[id]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	req.Code = domain.FormatRequestCode(req.Seq)
	return req.Code, nil
}

func (r *fakeRequestRepo) GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.Request, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *req
	return &cp, nil
}

func (r *fakeRequestRepo) CountRequests(ctx context.Context, db *gorm.DB, f repo.RequestFilter) (int64, error) {
	return r.countTotal, r.countErr
}

func (r *fakeRequestRepo) ListRequestsPage(ctx context.Context, db *gorm.DB, f repo.RequestFilter, offset, limit int) ([]domain.Request, error) {
	r.pageFilter, r.pageOffset, r.pageLimit = f, offset, limit
	return r.pageItems, r.pageErr
}

func (r *fakeRequestRepo) UpdateRequestFields(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updatedID, r.updatedFields = id, fields
	req, ok := r.requests[id]
	if !ok {
		return nil
	}
	if v, ok := fields["status"]; ok {
		req.Status = v.(domain.RequestStatus)
	}
	if v, ok := fields["destination"]; ok {
		lab := v.(domain.Lab)
		req.Destination = &lab
	}
	return nil
}

func (r *fakeRequestRepo) ReplaceRequestLots(ctx context.Context, db *gorm.DB, requestID string, lots []domain.RequestLot) error {
	if r.replaceErr != nil {
		return r.replaceErr
	}
	r.replacedID, r.replacedLots = requestID, lots
	return nil
}

func (r *fakeRequestRepo) DeleteRequest(ctx context.Context, db *gorm.DB, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deletedID = id
	return nil
}

func (r *fakeRequestRepo) GetUser(ctx context.Context, db *gorm.DB, id int64) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

type fakeNotifier struct {
	finalizations []string
	redirects     []struct {
		req      *domain.Request
		previous domain.Lab
	}
}

func (n *fakeNotifier) NotifyFinalizationAsync(requestID string) {
	n.finalizations = append(n.finalizations, requestID)
}

func (n *fakeNotifier) NotifyRedirectAsync(req *domain.Request, previous domain.Lab) {
	n.redirects = append(n.redirects, struct {
		req      *domain.Request
		previous domain.Lab
	}{req, previous})
}

func validCreateInput(requesterID int64) CreateRequestInput {
	return CreateRequestInput{
		Client:      "Tintas Alfa",
		City:        "Curitiba",
		Product:     "Esmalte Azul",
		Quantity:    12,
		Contact:     "Maria",
		Phone:       "41 99999-0000",
		Complaint:   "peeling after two days",
		RequesterID: requesterID,
		Lots:        []LotInput{{Lot: "L-100", Expiry: "2027-01-31"}},
	}
}

// ----- Tests -----

func TestRequestService_Create_AssignsSequentialCode(t *testing.T) {
	r := newFakeRequestRepo()
	r.users[7] = &domain.User{ID: 7, Role: domain.RoleRepresentative}
	s := NewRequestService(nil, r, nil)

	req, err := s.Create(context.Background(), validCreateInput(7))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if req.Code != "SAT-000001" {
		t.Fatalf("code = %q, want SAT-000001", req.Code)
	}
	if r.assignedID != req.ID {
		t.Fatalf("AssignRequestCode called with %q, want %q", r.assignedID, req.ID)
	}
	if req.Status != domain.RequestPending {
		t.Fatalf("status = %q, want PENDING", req.Status)
	}
}

func TestRequestService_Create_RejectsNonRepresentative(t *testing.T) {
	r := newFakeRequestRepo()
	r.users[7] = &domain.User{ID: 7, Role: domain.RoleLabWater}
	s := NewRequestService(nil, r, nil)

	if _, err := s.Create(context.Background(), validCreateInput(7)); !errors.Is(err, ErrInvalidRequester) {
		t.Fatalf("err = %v, want ErrInvalidRequester", err)
	}
}

func TestRequestService_Create_RejectsUnknownRequester(t *testing.T) {
	s := NewRequestService(nil, newFakeRequestRepo(), nil)

	if _, err := s.Create(context.Background(), validCreateInput(99)); !errors.Is(err, ErrInvalidRequester) {
		t.Fatalf("err = %v, want ErrInvalidRequester", err)
	}
}

func TestRequestService_Create_ValidatesInput(t *testing.T) {
	r := newFakeRequestRepo()
	r.users[7] = &domain.User{ID: 7, Role: domain.RoleRepresentative}
	s := NewRequestService(nil, r, nil)

	cases := []struct {
		name   string
		mutate func(*CreateRequestInput)
	}{
		{"empty client", func(in *CreateRequestInput) { in.Client = "  " }},
		{"empty product", func(in *CreateRequestInput) { in.Product = "" }},
		{"zero quantity", func(in *CreateRequestInput) { in.Quantity = 0 }},
		{"negative quantity", func(in *CreateRequestInput) { in.Quantity = -3 }},
		{"lot without expiry", func(in *CreateRequestInput) { in.Lots = []LotInput{{Lot: "L-1"}} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validCreateInput(7)
			tc.mutate(&in)
			if _, err := s.Create(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestRequestService_ChangeStatus_SetsDestinationForSent(t *testing.T) {
	r := newFakeRequestRepo()
	r.requests["x"] = &domain.Request{ID: "x", Status: domain.RequestPending}
	s := NewRequestService(nil, r, nil)

	req, err := s.ChangeStatus(context.Background(), "x", domain.RequestSentToSolvent)
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if req.Status != domain.RequestSentToSolvent {
		t.Fatalf("status = %q", req.Status)
	}
	if req.Destination == nil || *req.Destination != domain.LabSolventBase {
		t.Fatalf("destination = %v, want SOLVENT_BASE", req.Destination)
	}
}

func TestRequestService_ChangeStatus_InvalidValue(t *testing.T) {
	s := NewRequestService(nil, newFakeRequestRepo(), nil)

	if _, err := s.ChangeStatus(context.Background(), "x", "SHIPPED"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("err = %v, want ErrInvalidStatus", err)
	}
}

func TestRequestService_ChangeStatus_GuardVeto(t *testing.T) {
	r := newFakeRequestRepo()
	r.requests["x"] = &domain.Request{ID: "x", Status: domain.RequestFinalized}
	s := NewRequestService(nil, r, nil)

	veto := errors.New("finalized is terminal")
	RequestStatusGuard = func(from, to domain.RequestStatus) error {
		if from == domain.RequestFinalized {
			return veto
		}
		return nil
	}
	t.Cleanup(func() { RequestStatusGuard = nil })

	if _, err := s.ChangeStatus(context.Background(), "x", domain.RequestPending); !errors.Is(err, veto) {
		t.Fatalf("err = %v, want guard veto", err)
	}
	if r.updatedID != "" {
		t.Fatalf("update ran despite veto")
	}
}

func TestRequestService_Redirect_TogglesLabAndNotifies(t *testing.T) {
	water := domain.LabWaterBase
	r := newFakeRequestRepo()
	r.requests["x"] = &domain.Request{
		ID:          "x",
		Code:        "SAT-000004",
		Status:      domain.RequestSentToWater,
		Destination: &water,
	}
	n := &fakeNotifier{}
	s := NewRequestService(nil, r, n)

	req, err := s.Redirect(context.Background(), "x")
	if err != nil {
		t.Fatalf("Redirect: %v", err)
	}
	if req.Destination == nil || *req.Destination != domain.LabSolventBase {
		t.Fatalf("destination = %v, want SOLVENT_BASE", req.Destination)
	}
	if req.Status != domain.RequestSentToSolvent {
		t.Fatalf("status = %q, want SENT_TO_SOLVENT", req.Status)
	}
	if len(n.redirects) != 1 {
		t.Fatalf("redirect notifications = %d, want 1", len(n.redirects))
	}
	if n.redirects[0].previous != domain.LabWaterBase {
		t.Fatalf("previous lab = %q, want WATER_BASE", n.redirects[0].previous)
	}
}

func TestRequestService_Redirect_NoDestination(t *testing.T) {
	r := newFakeRequestRepo()
	r.requests["x"] = &domain.Request{ID: "x", Status: domain.RequestPending}
	n := &fakeNotifier{}
	s := NewRequestService(nil, r, n)

	if _, err := s.Redirect(context.Background(), "x"); !errors.Is(err, ErrNoDestinationSet) {
		t.Fatalf("err = %v, want ErrNoDestinationSet", err)
	}
	if len(n.redirects) != 0 {
		t.Fatalf("notification fired for unrouted request")
	}
	if r.updatedID != "" {
		t.Fatalf("update ran for unrouted request")
	}
}

func TestRequestService_Redirect_NoNotifyOnUpdateFailure(t *testing.T) {
	water := domain.LabWaterBase
	r := newFakeRequestRepo()
	r.requests["x"] = &domain.Request{ID: "x", Destination: &water}
	r.updateErr = errors.New("db down")
	n := &fakeNotifier{}
	s := NewRequestService(nil, r, n)

	if _, err := s.Redirect(context.Background(), "x"); err == nil {
		t.Fatalf("expected error")
	}
	if len(n.redirects) != 0 {
		t.Fatalf("notification fired despite failed update")
	}
}

func TestRequestService_Update_PartialMergeAndLots(t *testing.T) {
	r := newFakeRequestRepo()
	r.requests["x"] = &domain.Request{ID: "x", Client: "Old", Quantity: 1}
	s := NewRequestService(nil, r, nil)

	client := "New Client"
	lots := []LotInput{{Lot: "L-2", Expiry: "2026-12-01"}}
	if _, err := s.Update(context.Background(), "x", UpdateRequestInput{Client: &client, Lots: &lots}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if r.updatedFields["client"] != "New Client" {
		t.Fatalf("fields = %v", r.updatedFields)
	}
	if _, ok := r.updatedFields["quantity"]; ok {
		t.Fatalf("quantity updated without being set")
	}
	if r.replacedID != "x" || len(r.replacedLots) != 1 || r.replacedLots[0].Lot != "L-2" {
		t.Fatalf("lots not replaced: id=%q lots=%v", r.replacedID, r.replacedLots)
	}
}

func TestRequestService_Update_NotFound(t *testing.T) {
	s := NewRequestService(nil, newFakeRequestRepo(), nil)

	if _, err := s.Update(context.Background(), "missing", UpdateRequestInput{}); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("err = %v, want ErrRequestNotFound", err)
	}
}

func TestRequestService_Delete_NotFound(t *testing.T) {
	r := newFakeRequestRepo()
	r.deleteErr = gorm.ErrRecordNotFound
	s := NewRequestService(nil, r, nil)

	if err := s.Delete(context.Background(), "missing"); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("err = %v, want ErrRequestNotFound", err)
	}
}

func TestRequestService_ListPage_ClampsAndShortCircuits(t *testing.T) {
	r := newFakeRequestRepo()
	s := NewRequestService(nil, r, nil)

	items, total, err := s.ListPage(context.Background(), repo.RequestFilter{}, -1, 0)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Fatalf("total=%d items=%d, want 0/0", total, len(items))
	}
	if r.pageLimit != 0 {
		t.Fatalf("page query ran for zero total")
	}

	r.countTotal = 42
	r.pageItems = []domain.Request{{ID: "a"}}
	if _, _, err := s.ListPage(context.Background(), repo.RequestFilter{}, 3, 1000); err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if r.pageLimit != s.MaxPageSize {
		t.Fatalf("limit = %d, want clamped to %d", r.pageLimit, s.MaxPageSize)
	}
	if r.pageOffset != 2*s.MaxPageSize {
		t.Fatalf("offset = %d", r.pageOffset)
	}
}

func TestRequestService_ListByRequesterPage_RoleCheck(t *testing.T) {
	r := newFakeRequestRepo()
	r.users[5] = &domain.User{ID: 5, Role: domain.RoleOrchestrator}
	s := NewRequestService(nil, r, nil)

	if _, _, err := s.ListByRequesterPage(context.Background(), 5, 1, 10); !errors.Is(err, ErrInvalidRequester) {
		t.Fatalf("err = %v, want ErrInvalidRequester", err)
	}
	if _, _, err := s.ListByRequesterPage(context.Background(), 6, 1, 10); !errors.Is(err, ErrInvalidRequester) {
		t.Fatalf("err = %v, want ErrInvalidRequester for unknown user", err)
	}
}

func TestRequestService_ListByLabPage_InvalidLab(t *testing.T) {
	s := NewRequestService(nil, newFakeRequestRepo(), nil)

	if _, _, err := s.ListByLabPage(context.Background(), "OIL_BASE", 1, 10); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
