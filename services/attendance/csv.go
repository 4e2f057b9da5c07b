package attendance

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/BrandonSalimTheHuman/SASC/utils"

	"golang.org/x/text/encoding/charmap"
)

// Schema identifies which of the two export variants a file uses. It is
// detected once at ingestion; downstream code dispatches on the tag instead
// of probing for columns per row.
type Schema string

const (
	// AggregatedSchema carries one row per student x course-component with
	// absence counters already summed.
	AggregatedSchema Schema = "aggregated"
	// SessionLevelSchema carries one row per student x course-component x
	// session with a presence code.
	SessionLevelSchema Schema = "session_level"
)

// Record is one attendance row in either schema variant.
type Record struct {
	StudentID    int    `json:"nim"`
	StudentName  string `json:"name"`
	Major        string `json:"major"`
	CourseCode   string `json:"course_code"`
	CourseName   string `json:"course_name"`
	Class        string `json:"class"`
	Component    string `json:"component"` // LEC, LAB, EXL, BLK, ...
	CreditUnits  int    `json:"sks"`
	TotalSession int    `json:"total_session"`
	SessionDone  int    `json:"session_done"`
	TotalAbsence int    `json:"total_absence"`
	MaxAbsence   int    `json:"max_absence"`

	// PresenceCode is the raw two-valued code carried by SessionLevelSchema
	// rows; the normalizer maps it onto Present and clears it.
	PresenceCode string `json:"-"`
	// Present is set only for SessionLevelSchema rows.
	Present *bool `json:"present,omitempty"`
}

// Table is a parsed attendance export.
type Table struct {
	Schema  Schema
	Records []Record
}

// Raw export column names. Field separator is ';' and the byte encoding is
// Windows-1252 for round-trip compatibility with the existing exports.
const (
	colAcadCareer   = "ACAD CAREER"
	colStrm         = "STRM"
	colNIM          = "NIM"
	colBinusianID   = "BINUSIAN ID"
	colName         = "NAME"
	colMajor        = "MAJOR"
	colCourseCode   = "COURSE CODE"
	colCourseName   = "COURSE NAME"
	colClass        = "CLASS"
	colComponent    = "COMPONENT"
	colSKS          = "SKS"
	colTotalSession = "TOTAL SESSION"
	colSessionDone  = "SESSION DONE"
	colTotalAbsence = "TOTAL ABSENCE"
	colMaxAbsence   = "MAX ABSENCE"
	colPresence     = "PRESENCE"
)

var aggregatedRequired = []string{
	colNIM, colName, colMajor, colCourseCode, colCourseName, colComponent,
	colSKS, colTotalSession, colSessionDone, colTotalAbsence, colMaxAbsence,
}

var sessionLevelRequired = []string{
	colNIM, colName, colMajor, colCourseCode, colCourseName, colComponent,
	colSKS, colTotalSession, colSessionDone, colPresence,
}

func newDelimitedReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(charmap.Windows1252.NewDecoder().Reader(r))
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	return cr
}

// buildColumnIndex maps header names to positions.
func buildColumnIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	return col
}

// ParseCSV reads a raw attendance export, detects its schema variant and
// returns the typed rows. Missing required columns and malformed numeric
// fields fail with an invalid_data error.
func ParseCSV(r io.Reader) (*Table, error) {
	rows, err := newDelimitedReader(r).ReadAll()
	if err != nil {
		return nil, utils.Wrap(utils.KindInvalidData, err, "cannot parse CSV")
	}
	if len(rows) == 0 {
		return nil, utils.InvalidData("file is empty")
	}

	col := buildColumnIndex(rows[0])

	schema := AggregatedSchema
	required := aggregatedRequired
	if _, ok := col[colPresence]; ok {
		schema = SessionLevelSchema
		required = sessionLevelRequired
	}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, utils.InvalidData("missing column: %s", name)
		}
	}

	table := &Table{Schema: schema, Records: make([]Record, 0, len(rows)-1)}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		rec, err := parseRow(col, row, schema, i+1)
		if err != nil {
			return nil, err
		}
		table.Records = append(table.Records, rec)
	}
	return table, nil
}

func parseRow(col map[string]int, row []string, schema Schema, line int) (Record, error) {
	get := func(name string) string {
		if idx, ok := col[name]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}
	getInt := func(name string) (int, error) {
		raw := get(name)
		if raw == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, utils.InvalidData("line %d: column %s: not a number: %q", line, name, raw)
		}
		return n, nil
	}

	var rec Record
	var err error
	if rec.StudentID, err = getInt(colNIM); err != nil {
		return rec, err
	}
	rec.StudentName = get(colName)
	rec.Major = get(colMajor)
	rec.CourseCode = get(colCourseCode)
	rec.CourseName = get(colCourseName)
	rec.Class = get(colClass)
	rec.Component = get(colComponent)
	if rec.CreditUnits, err = getInt(colSKS); err != nil {
		return rec, err
	}
	if rec.TotalSession, err = getInt(colTotalSession); err != nil {
		return rec, err
	}
	if rec.SessionDone, err = getInt(colSessionDone); err != nil {
		return rec, err
	}

	if schema == AggregatedSchema {
		if rec.TotalAbsence, err = getInt(colTotalAbsence); err != nil {
			return rec, err
		}
		if rec.MaxAbsence, err = getInt(colMaxAbsence); err != nil {
			return rec, err
		}
		return rec, nil
	}

	// Session-level rows keep the raw presence code; the normalizer maps it
	// to a boolean and rejects unknown codes.
	rec.PresenceCode = get(colPresence)
	if rec.MaxAbsence, err = getInt(colMaxAbsence); err != nil {
		return rec, err
	}
	return rec, nil
}

// MarshalCSV renders a table back to the export format (';'-delimited,
// Windows-1252) so a stored blob round-trips byte for byte.
func (t *Table) MarshalCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(charmap.Windows1252.NewEncoder().Writer(&buf))
	w.Comma = ';'

	header := []string{
		colNIM, colName, colMajor, colCourseCode, colCourseName, colClass,
		colComponent, colSKS, colTotalSession, colSessionDone, colTotalAbsence, colMaxAbsence,
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, r := range t.Records {
		row := []string{
			strconv.Itoa(r.StudentID), r.StudentName, r.Major, r.CourseCode, r.CourseName, r.Class,
			r.Component, strconv.Itoa(r.CreditUnits), strconv.Itoa(r.TotalSession),
			strconv.Itoa(r.SessionDone), strconv.Itoa(r.TotalAbsence), strconv.Itoa(r.MaxAbsence),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatFloat renders a percentage with the 2-decimal display policy.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
