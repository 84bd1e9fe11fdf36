package domain

import "testing"

func TestFormatRequestCode(t *testing.T) {
	cases := map[int64]string{
		1:       "SAT-000001",
		42:      "SAT-000042",
		999999:  "SAT-999999",
		1000000: "SAT-1000000", // sequence may outgrow the padding; never truncated
	}
	for seq, want := range cases {
		if got := FormatRequestCode(seq); got != want {
			t.Errorf("FormatRequestCode(%d) = %q; want %q", seq, got, want)
		}
	}
}

func boolPtr(b bool) *bool { return &b }

func TestOutcomeUpheld_AllCombinations(t *testing.T) {
	// The scenario selector is the OR of the three flags.
	cases := []struct {
		upheld, replacement, recall bool
		want                        bool
	}{
		{false, false, false, false},
		{true, false, false, true},
		{false, true, false, true},
		{false, false, true, true},
		{true, true, false, true},
		{true, false, true, true},
		{false, true, true, true},
		{true, true, true, true},
	}
	for _, tc := range cases {
		inv := Investigation{
			ComplaintUpheld: boolPtr(tc.upheld),
			Replacement:     boolPtr(tc.replacement),
			LotRecall:       boolPtr(tc.recall),
		}
		if got := inv.OutcomeUpheld(); got != tc.want {
			t.Errorf("OutcomeUpheld(%v,%v,%v) = %v; want %v",
				tc.upheld, tc.replacement, tc.recall, got, tc.want)
		}
	}
}

func TestOutcomeUpheld_NilFlagsCountAsFalse(t *testing.T) {
	inv := Investigation{}
	if inv.OutcomeUpheld() {
		t.Fatal("all-nil flags should not be upheld")
	}
	inv.Replacement = boolPtr(true)
	if !inv.OutcomeUpheld() {
		t.Fatal("one true flag among nils should be upheld")
	}
}

func TestLab_OppositeAndSentStatus(t *testing.T) {
	if LabWaterBase.Opposite() != LabSolventBase || LabSolventBase.Opposite() != LabWaterBase {
		t.Fatal("Opposite must toggle between the two labs")
	}
	if LabWaterBase.SentStatus() != RequestSentToWater {
		t.Fatalf("SentStatus(WATER_BASE) = %s", LabWaterBase.SentStatus())
	}
	if LabSolventBase.SentStatus() != RequestSentToSolvent {
		t.Fatalf("SentStatus(SOLVENT_BASE) = %s", LabSolventBase.SentStatus())
	}
}

func TestEnumValidity(t *testing.T) {
	for _, s := range []RequestStatus{RequestPending, RequestSentToWater, RequestSentToSolvent, RequestUnderAnalysis, RequestFinalized} {
		if !s.Valid() {
			t.Errorf("request status %q should be valid", s)
		}
	}
	if RequestStatus("DONE").Valid() {
		t.Error("unknown request status accepted")
	}
	for _, s := range []InvestigationStatus{InvestigationPending, InvestigationInProgress, InvestigationCompleted} {
		if !s.Valid() {
			t.Errorf("investigation status %q should be valid", s)
		}
	}
	if InvestigationStatus("CLOSED").Valid() {
		t.Error("unknown investigation status accepted")
	}
	for _, r := range []UserRole{RoleAdmin, RoleOrchestrator, RoleLabWater, RoleLabSolvent, RoleRepresentative} {
		if !r.Valid() {
			t.Errorf("role %q should be valid", r)
		}
	}
	if UserRole("GUEST").Valid() {
		t.Error("unknown role accepted")
	}
	if Lab("OIL_BASE").Valid() {
		t.Error("unknown lab accepted")
	}
}
