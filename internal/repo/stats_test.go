package repo

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/JoaoPizoli/SatMaza/internal/domain"
)

// seedDashboard inserts a small known dataset:
//
//	repA: 2 requests (water, Paint X) + 1 request (solvent, Paint Y)
//	repB: 1 request (water, Paint X)
func seedDashboard(t *testing.T, db *gorm.DB) (repA, repB int64) {
	t.Helper()
	ctx := context.Background()
	repA = seedRepresentative(t, db, "10000001")
	repB = seedRepresentative(t, db, "10000002")

	water := domain.LabWaterBase
	solvent := domain.LabSolventBase
	mk := func(requester int64, lab *domain.Lab, product string, status domain.RequestStatus) {
		r := newRequest(requester)
		r.Product = product
		r.Destination = lab
		r.Status = status
		if err := CreateRequest(ctx, db, r); err != nil {
			t.Fatalf("seed request: %v", err)
		}
		if _, err := AssignRequestCode(ctx, db, r.ID); err != nil {
			t.Fatalf("assign code: %v", err)
		}
	}
	mk(repA, &water, "Paint X", domain.RequestSentToWater)
	mk(repA, &water, "Paint X", domain.RequestFinalized)
	mk(repA, &solvent, "Paint Y", domain.RequestSentToSolvent)
	mk(repB, &water, "Paint X", domain.RequestSentToWater)
	return repA, repB
}

func TestCountRequestsByLab(t *testing.T) {
	db := newTestDB(t)
	seedDashboard(t, db)

	rows, err := CountRequestsByLab(context.Background(), db, DashboardFilter{})
	if err != nil {
		t.Fatalf("CountRequestsByLab: %v", err)
	}
	got := map[string]int64{}
	for _, r := range rows {
		got[r.Key] = r.Count
	}
	if got["WATER_BASE"] != 3 || got["SOLVENT_BASE"] != 1 {
		t.Fatalf("counts = %v", got)
	}
}

func TestCountRequestsByStatus(t *testing.T) {
	db := newTestDB(t)
	seedDashboard(t, db)

	rows, err := CountRequestsByStatus(context.Background(), db, DashboardFilter{})
	if err != nil {
		t.Fatalf("CountRequestsByStatus: %v", err)
	}
	got := map[string]int64{}
	for _, r := range rows {
		got[r.Key] = r.Count
	}
	if got["SENT_TO_WATER"] != 2 || got["FINALIZED"] != 1 || got["SENT_TO_SOLVENT"] != 1 {
		t.Fatalf("counts = %v", got)
	}
}

func TestCountRequestsByRequester(t *testing.T) {
	db := newTestDB(t)
	repA, repB := seedDashboard(t, db)

	rows, err := CountRequestsByRequester(context.Background(), db, DashboardFilter{})
	if err != nil {
		t.Fatalf("CountRequestsByRequester: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d; want 2", len(rows))
	}
	// Most active first.
	if rows[0].RequesterID != repA || rows[0].Count != 3 {
		t.Fatalf("top requester = %+v; want repA with 3", rows[0])
	}
	if rows[1].RequesterID != repB || rows[1].Count != 1 {
		t.Fatalf("second requester = %+v", rows[1])
	}
	if rows[0].Code == "" {
		t.Fatal("requester code not joined")
	}
}

func TestTopProducts(t *testing.T) {
	db := newTestDB(t)
	seedDashboard(t, db)

	rows, err := TopProducts(context.Background(), db, DashboardFilter{}, 1)
	if err != nil {
		t.Fatalf("TopProducts: %v", err)
	}
	if len(rows) != 1 || rows[0].Key != "Paint X" || rows[0].Count != 3 {
		t.Fatalf("top product = %+v; want Paint X x3", rows)
	}
}

func TestDashboardFilter_Applies(t *testing.T) {
	db := newTestDB(t)
	repA, _ := seedDashboard(t, db)
	ctx := context.Background()

	// Requester filter.
	rows, err := CountRequestsByLab(ctx, db, DashboardFilter{RequesterID: &repA})
	if err != nil {
		t.Fatalf("by requester: %v", err)
	}
	var total int64
	for _, r := range rows {
		total += r.Count
	}
	if total != 3 {
		t.Fatalf("requester-filtered total = %d; want 3", total)
	}

	// Product substring filter.
	prows, err := CountRequestsByStatus(ctx, db, DashboardFilter{Product: "Paint Y"})
	if err != nil {
		t.Fatalf("by product: %v", err)
	}
	if len(prows) != 1 || prows[0].Count != 1 {
		t.Fatalf("product-filtered = %+v", prows)
	}

	// Future date window excludes everything.
	from := time.Now().Add(24 * time.Hour)
	empty, err := TopProducts(ctx, db, DashboardFilter{From: &from}, 5)
	if err != nil {
		t.Fatalf("by date: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("date-filtered = %+v; want empty", empty)
	}
}
