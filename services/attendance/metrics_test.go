package attendance

import (
	"testing"

	"github.com/BrandonSalimTheHuman/SASC/utils"
)

func TestRound2(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{33.333333, 33.33},
		{66.666666, 66.67},
		{87.5, 87.5},
		{100, 100},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); got != tc.want {
			t.Errorf("Round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestDerivedTotalSessions(t *testing.T) {
	cases := []struct {
		sks, want int
	}{
		{2, 13},
		{4, 26},
		{6, 39},
		{3, 13}, // odd credit units floor to the lower bracket
		{0, 0},
	}
	for _, tc := range cases {
		if got := DerivedTotalSessions(tc.sks); got != tc.want {
			t.Errorf("DerivedTotalSessions(%d) = %d, want %d", tc.sks, got, tc.want)
		}
	}
}

func TestAttendancePct(t *testing.T) {
	got, err := AttendancePct(8, 10)
	if err != nil {
		t.Fatalf("AttendancePct: %v", err)
	}
	if got != 80 {
		t.Errorf("AttendancePct(8,10) = %v, want 80", got)
	}

	_, err = AttendancePct(0, 0)
	if err == nil {
		t.Fatal("expected division-by-zero error")
	}
	if kind, ok := utils.KindOf(err); !ok || kind != utils.KindDivisionByZero {
		t.Errorf("error kind = %v, want division_by_zero", kind)
	}
}

func TestProjectedPct(t *testing.T) {
	got, err := ProjectedPct(2, 26)
	if err != nil {
		t.Fatalf("ProjectedPct: %v", err)
	}
	if got != 92.31 {
		t.Errorf("ProjectedPct(2,26) = %v, want 92.31", got)
	}
	if _, err := ProjectedPct(1, 0); err == nil {
		t.Error("expected division-by-zero error")
	}
}

func TestGroupAttendancePct(t *testing.T) {
	records := []Record{
		{TotalAbsence: 2, SessionDone: 10, TotalSession: 26},
		{TotalAbsence: 3, SessionDone: 10, TotalSession: 26},
	}

	present, err := GroupAttendancePct(records, DivisorPresent)
	if err != nil {
		t.Fatalf("GroupAttendancePct(Present): %v", err)
	}
	if present != 75 { // 1 - 5/20
		t.Errorf("Present policy = %v, want 75", present)
	}

	projected, err := GroupAttendancePct(records, DivisorProjected)
	if err != nil {
		t.Fatalf("GroupAttendancePct(Projected): %v", err)
	}
	if projected != 90.38 { // 1 - 5/52
		t.Errorf("Projected policy = %v, want 90.38", projected)
	}

	if _, err := GroupAttendancePct(records, DivisorMax); err == nil {
		t.Error("Max is not a percentage policy and must be rejected")
	}
	if _, err := GroupAttendancePct(nil, DivisorPresent); err == nil {
		t.Error("empty group must fail with division by zero")
	}
}

func TestRowAttendancePct(t *testing.T) {
	r := Record{TotalAbsence: 2, SessionDone: 10, TotalSession: 26, CreditUnits: 4}

	got, err := RowAttendancePct(r, DivisorPresent)
	if err != nil {
		t.Fatalf("RowAttendancePct(Present): %v", err)
	}
	if got != 80 {
		t.Errorf("Present policy = %v, want 80", got)
	}

	// With no export total the projection falls back to the derived count.
	r.TotalSession = 0
	got, err = RowAttendancePct(r, DivisorProjected)
	if err != nil {
		t.Fatalf("RowAttendancePct(Projected): %v", err)
	}
	if got != 92.31 { // 1 - 2/26
		t.Errorf("Projected policy = %v, want 92.31", got)
	}
}

func TestExceedsMaxAbsence(t *testing.T) {
	if ExceedsMaxAbsence(Record{TotalAbsence: 7, MaxAbsence: 7}) {
		t.Error("absence equal to the maximum is still allowed")
	}
	if !ExceedsMaxAbsence(Record{TotalAbsence: 8, MaxAbsence: 7}) {
		t.Error("absence above the maximum must fail")
	}
}

func TestParseDivisor(t *testing.T) {
	for _, s := range []string{"Present", "Projected", "Max"} {
		if _, err := ParseDivisor(s); err != nil {
			t.Errorf("ParseDivisor(%q): %v", s, err)
		}
	}
	if _, err := ParseDivisor("present"); err == nil {
		t.Error("divisor names are case sensitive")
	}
}
