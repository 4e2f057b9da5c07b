package attendance

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/BrandonSalimTheHuman/SASC/utils"

	"golang.org/x/text/encoding/charmap"
)

// StudentSummary is one row of the per-student aggregate table.
type StudentSummary struct {
	StudentID       int     `json:"nim"`
	StudentName     string  `json:"name"`
	Major           string  `json:"major"`
	EnrolledCourses int     `json:"enrolled_courses"`
	FailedCourses   int     `json:"failed_courses"`
	FailedPct       float64 `json:"failed_pct"`
}

// Aggregate runs the full pipeline on a normalized table: session-level rows
// are rolled up, every row is scored, linked failures are propagated, and the
// per-student summary is derived. Both outputs preserve first-appearance
// order so re-running on unchanged input is byte-identical.
func Aggregate(t *Table) ([]ScoredRecord, []StudentSummary, error) {
	rolled := Rollup(t)

	scored, err := Score(rolled.Records)
	if err != nil {
		return nil, nil, err
	}
	PropagateLinkedFailures(scored)

	return scored, SummarizeStudents(scored), nil
}

// SummarizeStudents builds the per-student table from eligibility-annotated
// rows. Enrolled counts distinct course codes; failed counts distinct course
// codes with any ineligible component. Students with zero failed courses are
// kept.
func SummarizeStudents(rows []ScoredRecord) []StudentSummary {
	type studentAgg struct {
		summary  StudentSummary
		enrolled map[string]struct{}
		failed   map[string]struct{}
	}

	order := make([]int, 0)
	byStudent := make(map[int]*studentAgg)

	for _, r := range rows {
		agg, ok := byStudent[r.StudentID]
		if !ok {
			agg = &studentAgg{
				summary: StudentSummary{
					StudentID:   r.StudentID,
					StudentName: r.StudentName,
					Major:       r.Major,
				},
				enrolled: make(map[string]struct{}),
				failed:   make(map[string]struct{}),
			}
			byStudent[r.StudentID] = agg
			order = append(order, r.StudentID)
		}
		agg.enrolled[r.CourseCode] = struct{}{}
		if !r.Eligible {
			agg.failed[r.CourseCode] = struct{}{}
		}
	}

	out := make([]StudentSummary, 0, len(order))
	for _, nim := range order {
		agg := byStudent[nim]
		s := agg.summary
		s.EnrolledCourses = len(agg.enrolled)
		s.FailedCourses = len(agg.failed)
		s.FailedPct = Round2(float64(s.FailedCourses) / float64(s.EnrolledCourses) * 100)
		out = append(out, s)
	}
	return out
}

// Column headers of the two stored aggregate tables. Kept stable so
// downstream spreadsheets keep working.
var studentCourseHeader = []string{
	"NIM", "NAME", "MAJOR", "COURSE CODE", "COURSE NAME", "CLASS", "COMPONENT",
	"TOTAL SEMESTER SESSIONS", "SESSIONS DONE", "TOTAL PRESENT",
	"ATTENDANCE %", "ATTENDANCE SEMESTER %", "PROJECTED ATTENDANCE SEMESTER %",
	"ELIGIBLE", "INDIRECT FAIL",
}

var studentHeader = []string{
	"NIM", "NAME", "MAJOR",
	"NUMBER OF ENROLLED COURSES", "NUMBER OF FAILED COURSES", "PERCENTAGE OF FAILED COURSES",
}

func newDelimitedWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(charmap.Windows1252.NewEncoder().Writer(w))
	cw.Comma = ';'
	return cw
}

// MarshalStudentCourseCSV renders the student x course aggregate table.
func MarshalStudentCourseCSV(rows []ScoredRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := newDelimitedWriter(&buf)
	if err := w.Write(studentCourseHeader); err != nil {
		return nil, err
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.StudentID), r.StudentName, r.Major, r.CourseCode, r.CourseName, r.Class, r.Component,
			strconv.Itoa(r.TotalSession), strconv.Itoa(r.SessionDone), strconv.Itoa(r.TotalPresent),
			FormatFloat(r.AttendancePct), FormatFloat(r.SemesterPct), FormatFloat(r.ProjectedSemesterPct),
			strconv.FormatBool(r.Eligible), strconv.FormatBool(r.IndirectFail),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalStudentCSV renders the per-student aggregate table.
func MarshalStudentCSV(rows []StudentSummary) ([]byte, error) {
	var buf bytes.Buffer
	w := newDelimitedWriter(&buf)
	if err := w.Write(studentHeader); err != nil {
		return nil, err
	}
	for _, s := range rows {
		record := []string{
			strconv.Itoa(s.StudentID), s.StudentName, s.Major,
			strconv.Itoa(s.EnrolledCourses), strconv.Itoa(s.FailedCourses), FormatFloat(s.FailedPct),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalStudentCourseCSV reads a stored student x course aggregate blob.
func UnmarshalStudentCourseCSV(data []byte) ([]ScoredRecord, error) {
	rows, err := newDelimitedReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, utils.Wrap(utils.KindInvalidData, err, "cannot parse stored aggregate")
	}
	if len(rows) < 1 {
		return nil, utils.InvalidData("stored aggregate is empty")
	}
	col := buildColumnIndex(rows[0])
	out := make([]ScoredRecord, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		get, getInt, getFloat := storedFieldGetters(col, row, i+1)

		var r ScoredRecord
		var err error
		if r.StudentID, err = getInt("NIM"); err != nil {
			return nil, err
		}
		r.StudentName = get("NAME")
		r.Major = get("MAJOR")
		r.CourseCode = get("COURSE CODE")
		r.CourseName = get("COURSE NAME")
		r.Class = get("CLASS")
		r.Component = get("COMPONENT")
		if r.TotalSession, err = getInt("TOTAL SEMESTER SESSIONS"); err != nil {
			return nil, err
		}
		if r.SessionDone, err = getInt("SESSIONS DONE"); err != nil {
			return nil, err
		}
		if r.TotalPresent, err = getInt("TOTAL PRESENT"); err != nil {
			return nil, err
		}
		if r.AttendancePct, err = getFloat("ATTENDANCE %"); err != nil {
			return nil, err
		}
		if r.SemesterPct, err = getFloat("ATTENDANCE SEMESTER %"); err != nil {
			return nil, err
		}
		if r.ProjectedSemesterPct, err = getFloat("PROJECTED ATTENDANCE SEMESTER %"); err != nil {
			return nil, err
		}
		r.Eligible = get("ELIGIBLE") == "true"
		r.IndirectFail = get("INDIRECT FAIL") == "true"
		out = append(out, r)
	}
	return out, nil
}

// UnmarshalStudentCSV reads a stored per-student aggregate blob.
func UnmarshalStudentCSV(data []byte) ([]StudentSummary, error) {
	rows, err := newDelimitedReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, utils.Wrap(utils.KindInvalidData, err, "cannot parse stored aggregate")
	}
	if len(rows) < 1 {
		return nil, utils.InvalidData("stored aggregate is empty")
	}
	col := buildColumnIndex(rows[0])
	out := make([]StudentSummary, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		get, getInt, getFloat := storedFieldGetters(col, row, i+1)

		var s StudentSummary
		var err error
		if s.StudentID, err = getInt("NIM"); err != nil {
			return nil, err
		}
		s.StudentName = get("NAME")
		s.Major = get("MAJOR")
		if s.EnrolledCourses, err = getInt("NUMBER OF ENROLLED COURSES"); err != nil {
			return nil, err
		}
		if s.FailedCourses, err = getInt("NUMBER OF FAILED COURSES"); err != nil {
			return nil, err
		}
		if s.FailedPct, err = getFloat("PERCENTAGE OF FAILED COURSES"); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// storedFieldGetters builds the field accessors for one row of a stored
// aggregate blob. Numeric fields that do not parse fail the whole read;
// a blob we wrote ourselves should never contain one.
func storedFieldGetters(col map[string]int, row []string, line int) (
	get func(string) string,
	getInt func(string) (int, error),
	getFloat func(string) (float64, error),
) {
	get = func(name string) string {
		if idx, ok := col[name]; ok && idx < len(row) {
			return row[idx]
		}
		return ""
	}
	getInt = func(name string) (int, error) {
		raw := get(name)
		if raw == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, utils.InvalidData("stored aggregate line %d: column %s: not a number: %q", line, name, raw)
		}
		return n, nil
	}
	getFloat = func(name string) (float64, error) {
		raw := get(name)
		if raw == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, utils.InvalidData("stored aggregate line %d: column %s: not a number: %q", line, name, raw)
		}
		return f, nil
	}
	return get, getInt, getFloat
}
