package standing

import (
	"strings"
	"testing"
)

func intPtr(n int) *int { return &n }

func record(admit Term, pdpt *Term, status string, scu *int) AdmissionRecord {
	return AdmissionRecord{
		StudentID:     2401001,
		FullName:      "Test Student",
		Program:       "Computer Science",
		ProgramStatus: status,
		AdmitTerm:     admit,
		PDPTIntake:    pdpt,
		TotalSCU:      scu,
	}
}

func TestDeductSCU(t *testing.T) {
	eval := Term{2023, 1, 1}
	cases := []struct {
		name string
		rec  AdmissionRecord
		want int
	}{
		{"active above threshold", record(Term{2023, 1, 1}, nil, StatusActive, intPtr(50)), 0},
		{"active below threshold same period", record(Term{2023, 1, 1}, nil, StatusActive, intPtr(30)), 8},
		{"active below threshold earlier period", record(Term{2022, 2, 1}, nil, StatusActive, intPtr(30)), 0},
		{"leave same period", record(Term{2023, 1, 1}, nil, StatusLeaveOfAbsence, intPtr(50)), 16},
		{"leave one period back", record(Term{2022, 2, 1}, nil, StatusLeaveOfAbsence, intPtr(50)), 8},
		{"leave two periods back", record(Term{2022, 1, 1}, nil, StatusLeaveOfAbsence, intPtr(50)), 0},
		{"no scu", record(Term{2023, 1, 1}, nil, StatusLeaveOfAbsence, nil), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeductSCU(tc.rec, eval); got != tc.want {
				t.Errorf("DeductSCU = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestClassifyAtBaseDeadline(t *testing.T) {
	// Admitted 2020.11 with no PDPT intake, 45 SCU, evaluated exactly at the
	// base deadline 2023.11.
	rec := record(Term{2020, 1, 1}, nil, StatusActive, intPtr(45))
	eval := Term{2023, 1, 1}

	out, ok := Classify(rec, eval)
	if !ok {
		t.Fatal("expected a rule to match")
	}
	if out.Rule != "base-ok" {
		t.Errorf("rule = %q, want base-ok", out.Rule)
	}
	if !strings.HasPrefix(out.Action, "Confirm with operation") {
		t.Errorf("action = %q", out.Action)
	}
	// No PDPT data: the manual-check suffix applies.
	if !strings.HasSuffix(out.Action, "(confirm with operation)") {
		t.Errorf("action = %q, want the confirm suffix", out.Action)
	}
	if out.DeductedSCU == nil || *out.DeductedSCU != 45 {
		t.Errorf("deducted SCU = %v, want 45", out.DeductedSCU)
	}
	if out.PDPTIntake != NoPDPT {
		t.Errorf("PDPT intake = %q, want %q", out.PDPTIntake, NoPDPT)
	}
}

func TestClassifyPDPTRulePrecedesNative(t *testing.T) {
	// The PDPT base deadline lands on the evaluation term while the native
	// one does not; the PDPT rule must win.
	pdpt := Term{2020, 1, 1}
	rec := record(Term{2020, 1, 2}, &pdpt, StatusActive, intPtr(50))
	eval := Term{2023, 1, 1}

	out, ok := Classify(rec, eval)
	if !ok {
		t.Fatal("expected a rule to match")
	}
	if out.Rule != "base-pdpt-ok" {
		t.Errorf("rule = %q, want base-pdpt-ok", out.Rule)
	}
	if out.Action != "Confirm with operation (PDPT)" {
		t.Errorf("action = %q", out.Action)
	}
	if strings.HasSuffix(out.Action, "(confirm with operation)") {
		t.Error("records with PDPT data must not carry the manual-check suffix")
	}
}

func TestClassifyLowSCUAtBase(t *testing.T) {
	rec := record(Term{2020, 1, 1}, nil, StatusActive, intPtr(30))
	out, ok := Classify(rec, Term{2023, 1, 1})
	if !ok {
		t.Fatal("expected a rule to match")
	}
	if out.Rule != "base-low" {
		t.Errorf("rule = %q, want base-low", out.Rule)
	}
	if !strings.HasPrefix(out.Action, "Recommend for resignation") {
		t.Errorf("action = %q", out.Action)
	}
}

func TestClassifyExtensions(t *testing.T) {
	rec := record(Term{2020, 1, 1}, nil, StatusActive, intPtr(50))

	cases := []struct {
		eval Term
		rule string
	}{
		{Term{2023, 2, 1}, "first-ext-ok"},
		{Term{2024, 1, 1}, "second-ext-ok"},
		{Term{2024, 2, 1}, "past-second"},
	}
	for _, tc := range cases {
		out, ok := Classify(rec, tc.eval)
		if !ok {
			t.Fatalf("eval %+v: expected a rule to match", tc.eval)
		}
		if out.Rule != tc.rule {
			t.Errorf("eval %+v: rule = %q, want %q", tc.eval, out.Rule, tc.rule)
		}
	}
}

func TestClassifyDeductionFlipsOutcome(t *testing.T) {
	// 45 SCU on leave of absence admitted at the evaluation period: the full
	// 16-point deduction drops the student under the threshold.
	rec := record(Term{2023, 1, 1}, nil, StatusLeaveOfAbsence, intPtr(45))
	// Base deadline for a 2023.11 admit is 2026.11.
	out, ok := Classify(rec, Term{2026, 1, 1})
	if !ok {
		t.Fatal("expected a rule to match")
	}
	if out.Rule != "base-ok" {
		t.Errorf("rule = %q, want base-ok (the deduction window closed long ago)", out.Rule)
	}

	// Evaluated in the admission period itself no deadline is hit, so no
	// rule matches even though the deduction applies.
	if _, ok := Classify(rec, Term{2023, 1, 1}); ok {
		t.Error("no deadline checkpoint is hit in the admission period")
	}
}

func TestClassifyNoSCU(t *testing.T) {
	rec := record(Term{2020, 1, 1}, nil, StatusActive, nil)

	out, ok := Classify(rec, Term{2023, 1, 1})
	if !ok {
		t.Fatal("expected a rule to match at the base deadline")
	}
	if out.Rule != "no-scu-base" {
		t.Errorf("rule = %q, want no-scu-base", out.Rule)
	}
	if out.DeductedSCU != nil {
		t.Error("deducted SCU must be nil when the record has none")
	}

	out, ok = Classify(rec, Term{2024, 2, 1})
	if !ok {
		t.Fatal("expected a rule to match past the base deadline")
	}
	if out.Rule != "no-scu-past-base" {
		t.Errorf("rule = %q, want no-scu-past-base", out.Rule)
	}
}

func TestClassifyBeforeAnyDeadline(t *testing.T) {
	rec := record(Term{2020, 1, 1}, nil, StatusActive, intPtr(50))
	if _, ok := Classify(rec, Term{2021, 1, 1}); ok {
		t.Error("no rule should match years before the base deadline")
	}
}

func TestClassifyBatchDropsUnmatched(t *testing.T) {
	records := []AdmissionRecord{
		record(Term{2020, 1, 1}, nil, StatusActive, intPtr(50)), // at base
		record(Term{2022, 1, 1}, nil, StatusActive, intPtr(50)), // mid-study
	}
	out := ClassifyBatch(records, Term{2023, 1, 1})
	if len(out) != 1 {
		t.Fatalf("classifications = %d, want 1", len(out))
	}
	if out[0].Rule != "base-ok" {
		t.Errorf("rule = %q, want base-ok", out[0].Rule)
	}
}
