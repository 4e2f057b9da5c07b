package attendance

import "testing"

func TestSemesterFromFilename(t *testing.T) {
	cases := []struct {
		name     string
		filename string
		want     SemesterKey
	}{
		{"october maps to odd", "Attendance Export 17-10-2024.csv", SemesterKey{2024, Odd}},
		{"january belongs to previous odd", "Attendance Export 15-01-2025.csv", SemesterKey{2024, Odd}},
		{"march maps to even of previous year", "Attendance Export 03-03-2025.csv", SemesterKey{2024, Even}},
		{"july maps to compact of previous year", "Attendance Export 20-07-2025.csv", SemesterKey{2024, Compact}},
		{"september starts the new year", "export 01-09-2025.csv", SemesterKey{2025, Odd}},
		{"december stays odd", "export 31-12-2024.csv", SemesterKey{2024, Odd}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SemesterFromFilename(tc.filename)
			if err != nil {
				t.Fatalf("SemesterFromFilename(%q): %v", tc.filename, err)
			}
			if got != tc.want {
				t.Errorf("SemesterFromFilename(%q) = %v, want %v", tc.filename, got, tc.want)
			}
		})
	}
}

func TestSemesterFromFilenameInvalid(t *testing.T) {
	for _, filename := range []string{
		"no date here.csv",
		"export 17-13-2024.csv",
		"export 17-xx-2024.csv",
	} {
		if _, err := SemesterFromFilename(filename); err == nil {
			t.Errorf("SemesterFromFilename(%q): expected error", filename)
		}
	}
}

func TestSortSemesters(t *testing.T) {
	keys := []SemesterKey{
		{2025, Odd},
		{2024, Compact},
		{2024, Odd},
		{2024, Even},
	}
	SortSemesters(keys)

	want := []SemesterKey{
		{2024, Odd},
		{2024, Even},
		{2024, Compact},
		{2025, Odd},
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("position %d: got %v, want %v", i, keys[i], want[i])
		}
	}
}

func TestSemesterKeyBefore(t *testing.T) {
	cases := []struct {
		a, b SemesterKey
		want bool
	}{
		{SemesterKey{2024, Odd}, SemesterKey{2024, Even}, true},
		{SemesterKey{2024, Even}, SemesterKey{2024, Compact}, true},
		{SemesterKey{2024, Compact}, SemesterKey{2025, Odd}, true},
		{SemesterKey{2025, Odd}, SemesterKey{2024, Compact}, false},
		{SemesterKey{2024, Odd}, SemesterKey{2024, Odd}, false},
	}
	for _, tc := range cases {
		if got := tc.a.Before(tc.b); got != tc.want {
			t.Errorf("%v.Before(%v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestParseSemesterType(t *testing.T) {
	for raw, want := range map[string]SemesterType{
		"odd":     Odd,
		"Even":    Even,
		"COMPACT": Compact,
	} {
		got, err := ParseSemesterType(raw)
		if err != nil {
			t.Fatalf("ParseSemesterType(%q): %v", raw, err)
		}
		if got != want {
			t.Errorf("ParseSemesterType(%q) = %v, want %v", raw, got, want)
		}
	}
	if _, err := ParseSemesterType("summer"); err == nil {
		t.Error("ParseSemesterType(summer): expected error")
	}
}
