package services

import (
	"testing"

	"github.com/BrandonSalimTheHuman/SASC/models"
	"github.com/BrandonSalimTheHuman/SASC/services/attendance"
	"github.com/BrandonSalimTheHuman/SASC/utils"
)

// fakeTableStore serves pre-marshalled semester blobs without a database.
type fakeTableStore struct {
	tables []models.AttendanceTable
}

func (f *fakeTableStore) GetTable(key attendance.SemesterKey) (*models.AttendanceTable, error) {
	for i := range f.tables {
		if f.tables[i].Year == key.Year && f.tables[i].SemesterType == string(key.Semester) {
			return &f.tables[i], nil
		}
	}
	return nil, utils.NotFound("no data found for %s", key)
}

func (f *fakeTableStore) GetAllTables() ([]models.AttendanceTable, error) {
	return f.tables, nil
}

func storedSemester(t *testing.T, key attendance.SemesterKey, records []attendance.Record) models.AttendanceTable {
	t.Helper()
	table := &attendance.Table{Schema: attendance.AggregatedSchema, Records: records}
	blob, err := table.MarshalCSV()
	if err != nil {
		t.Fatalf("MarshalCSV: %v", err)
	}
	return models.AttendanceTable{
		Year:         key.Year,
		SemesterType: string(key.Semester),
		CSVData:      blob,
		RowCount:     len(records),
	}
}

func courseRow(nim int, name string, absence int) attendance.Record {
	return attendance.Record{
		StudentID: nim, StudentName: name, Major: "Computer Science",
		CourseCode: "COMP6047", CourseName: "Algorithm Design", Class: "LA01",
		Component: "LEC", CreditUnits: 4, TotalSession: 26, SessionDone: 26,
		TotalAbsence: absence, MaxAbsence: 7,
	}
}

func TestStudentSeriesNotEnrolledSpansFullHistory(t *testing.T) {
	odd2022 := attendance.SemesterKey{Year: 2022, Semester: attendance.Odd}
	even2022 := attendance.SemesterKey{Year: 2022, Semester: attendance.Even}
	odd2023 := attendance.SemesterKey{Year: 2023, Semester: attendance.Odd}
	even2023 := attendance.SemesterKey{Year: 2023, Semester: attendance.Even}

	// Dina is missing from Odd 2022 (before she enrolled) and from Odd 2023
	// (a gap mid-study). Another student keeps every semester non-empty.
	store := &fakeTableStore{tables: []models.AttendanceTable{
		storedSemester(t, odd2022, []attendance.Record{courseRow(202, "Eko", 0)}),
		storedSemester(t, even2022, []attendance.Record{courseRow(101, "Dina", 0), courseRow(202, "Eko", 0)}),
		storedSemester(t, odd2023, []attendance.Record{courseRow(202, "Eko", 0)}),
		storedSemester(t, even2023, []attendance.Record{courseRow(101, "Dina", 8), courseRow(202, "Eko", 0)}),
	}}
	cs := &ChartService{store: store}

	// A window of two semesters keeps only Odd 2023 and Even 2023.
	series, err := cs.StudentSeries(101, 80, attendance.DivisorPresent, 2)
	if err != nil {
		t.Fatalf("StudentSeries: %v", err)
	}
	if series.Name != "Dina" {
		t.Errorf("name = %q, want Dina", series.Name)
	}

	if len(series.Data) != 2 {
		t.Fatalf("data points = %d, want 2", len(series.Data))
	}
	if series.Data[0].Semester != "Odd 2023" || series.Data[1].Semester != "Even 2023" {
		t.Errorf("window = [%s, %s], want [Odd 2023, Even 2023]",
			series.Data[0].Semester, series.Data[1].Semester)
	}
	if series.Data[0].Count != 0 {
		t.Errorf("Odd 2023 count = %v, want 0", series.Data[0].Count)
	}
	// 18 of 26 sessions attended is below the 80 threshold.
	if series.Data[1].Count != 1 {
		t.Errorf("Even 2023 count = %v, want 1", series.Data[1].Count)
	}

	// Not-enrolled semesters are listed across the whole stored history,
	// including Odd 2022 even though the window trimmed it away.
	want := []string{"Odd 2022", "Odd 2023"}
	if len(series.NotEnrolled) != len(want) {
		t.Fatalf("not enrolled = %v, want %v", series.NotEnrolled, want)
	}
	for i, label := range want {
		if series.NotEnrolled[i] != label {
			t.Errorf("not enrolled[%d] = %q, want %q", i, series.NotEnrolled[i], label)
		}
	}
}

func TestStudentSeriesUnknownStudent(t *testing.T) {
	key := attendance.SemesterKey{Year: 2023, Semester: attendance.Odd}
	store := &fakeTableStore{tables: []models.AttendanceTable{
		storedSemester(t, key, []attendance.Record{courseRow(202, "Eko", 0)}),
	}}
	cs := &ChartService{store: store}

	_, err := cs.StudentSeries(999, 80, attendance.DivisorPresent, 0)
	if err == nil {
		t.Fatal("expected an error for a student absent from every semester")
	}
	if kind, ok := utils.KindOf(err); !ok || kind != utils.KindNotFound {
		t.Errorf("error kind = %v, want not_found: %v", kind, err)
	}
}
