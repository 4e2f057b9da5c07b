package attendance

import (
	"strings"
	"testing"
)

func TestNormalizeFilters(t *testing.T) {
	input := &Table{
		Schema: AggregatedSchema,
		Records: []Record{
			{StudentID: 1, Major: "Computer Science", CourseName: "Algorithm Design", SessionDone: 10},
			{StudentID: 2, Major: "Computer Science", CourseName: "Academic Advisory", SessionDone: 10},
			{StudentID: 3, Major: "Non Degree Program", CourseName: "Algorithm Design", SessionDone: 10},
			{StudentID: 4, Major: "Fashion Design", CourseName: "Pattern Making", SessionDone: 10},
			{StudentID: 5, Major: "Fashion Management", CourseName: "Pattern Making", SessionDone: 10},
			{StudentID: 6, Major: "Computer Science", CourseName: "Algorithm Design", SessionDone: 0},
		},
	}

	out, err := Normalize(input, DefaultNormalizeOptions())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	// Advisory course, non-degree major and the zero-session row are gone.
	if len(out.Records) != 3 {
		t.Fatalf("records = %d, want 3", len(out.Records))
	}
	for _, r := range out.Records {
		if r.StudentID == 4 || r.StudentID == 5 {
			if r.Major != "Fashion" {
				t.Errorf("student %d major = %q, want Fashion", r.StudentID, r.Major)
			}
		}
	}
}

func TestNormalizeKeepsZeroSessionRowsForSessionLevel(t *testing.T) {
	input := &Table{
		Schema: SessionLevelSchema,
		Records: []Record{
			{StudentID: 1, Major: "Computer Science", CourseName: "Algorithm Design", SessionDone: 0, PresenceCode: "P"},
		},
	}
	out, err := Normalize(input, DefaultNormalizeOptions())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(out.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(out.Records))
	}
	r := out.Records[0]
	if r.Present == nil || !*r.Present {
		t.Error("presence code P should map to Present=true")
	}
	if r.PresenceCode != "" {
		t.Error("raw presence code should be cleared after mapping")
	}
}

func TestNormalizeRejectsUnknownPresenceCode(t *testing.T) {
	input := &Table{
		Schema: SessionLevelSchema,
		Records: []Record{
			{StudentID: 1, Major: "Computer Science", CourseName: "Algorithm Design", PresenceCode: "X"},
		},
	}
	_, err := Normalize(input, DefaultNormalizeOptions())
	if err == nil {
		t.Fatal("expected error for unknown presence code")
	}
	if !strings.Contains(err.Error(), "presence code") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	input := &Table{
		Schema: AggregatedSchema,
		Records: []Record{
			{StudentID: 1, Major: "Fashion Design", CourseName: "Pattern Making", SessionDone: 5},
		},
	}
	if _, err := Normalize(input, DefaultNormalizeOptions()); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if input.Records[0].Major != "Fashion Design" {
		t.Error("Normalize mutated its input")
	}
}

func TestRollup(t *testing.T) {
	present, absent := true, false
	input := &Table{
		Schema: SessionLevelSchema,
		Records: []Record{
			{StudentID: 1, CourseCode: "COMP6047", Component: "LEC", CreditUnits: 4, TotalSession: 26, MaxAbsence: 7, Present: &present},
			{StudentID: 1, CourseCode: "COMP6047", Component: "LEC", CreditUnits: 4, TotalSession: 26, MaxAbsence: 7, Present: &absent},
			{StudentID: 1, CourseCode: "COMP6047", Component: "LEC", CreditUnits: 4, TotalSession: 26, MaxAbsence: 7, Present: &present},
			{StudentID: 1, CourseCode: "COMP6047", Component: "LAB", CreditUnits: 4, TotalSession: 26, MaxAbsence: 7, Present: &absent},
		},
	}

	out := Rollup(input)
	if out.Schema != AggregatedSchema {
		t.Fatalf("schema = %q, want %q", out.Schema, AggregatedSchema)
	}
	if len(out.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(out.Records))
	}

	lec := out.Records[0]
	if lec.SessionDone != 3 || lec.TotalAbsence != 1 {
		t.Errorf("LEC rollup = done %d absence %d, want 3/1", lec.SessionDone, lec.TotalAbsence)
	}
	lab := out.Records[1]
	if lab.SessionDone != 1 || lab.TotalAbsence != 1 {
		t.Errorf("LAB rollup = done %d absence %d, want 1/1", lab.SessionDone, lab.TotalAbsence)
	}
	if lec.Present != nil {
		t.Error("rolled-up rows must not carry a presence flag")
	}
}

func TestRollupPassesAggregatedThrough(t *testing.T) {
	input := &Table{Schema: AggregatedSchema, Records: []Record{{StudentID: 1}}}
	if out := Rollup(input); out != input {
		t.Error("aggregated tables should pass through unchanged")
	}
}
