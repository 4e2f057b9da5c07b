package attendance

// ScoredRecord is one student x course-component row annotated with the three
// attendance metrics and the two-pass eligibility outcome.
type ScoredRecord struct {
	Record
	TotalPresent         int     `json:"total_present"`
	AttendancePct        float64 `json:"attendance_pct"`
	SemesterPct          float64 `json:"attendance_semester_pct"`
	ProjectedSemesterPct float64 `json:"projected_attendance_semester_pct"`
	Eligible             bool    `json:"eligible"`
	IndirectFail         bool    `json:"indirect_fail"`
}

// Score computes per-row metrics and the pass-1 (direct) eligibility verdict
// for every record. Rows with a zero denominator fail with a typed error
// instead of silently producing NaN.
func Score(records []Record) ([]ScoredRecord, error) {
	out := make([]ScoredRecord, 0, len(records))
	for _, rec := range records {
		total := rec.TotalSession
		if total == 0 {
			total = DerivedTotalSessions(rec.CreditUnits)
		}

		present := rec.SessionDone - rec.TotalAbsence

		attendance, err := AttendancePct(present, rec.SessionDone)
		if err != nil {
			return nil, err
		}
		semester, err := SemesterAttendancePct(present, total)
		if err != nil {
			return nil, err
		}
		projected, err := ProjectedPct(rec.TotalAbsence, total)
		if err != nil {
			return nil, err
		}

		scored := ScoredRecord{
			Record:               rec,
			TotalPresent:         present,
			AttendancePct:        attendance,
			SemesterPct:          semester,
			ProjectedSemesterPct: projected,
			Eligible:             !ExceedsMaxAbsence(rec),
		}
		scored.TotalSession = total
		out = append(out, scored)
	}
	return out, nil
}

// linked components subject to indirect-fail propagation
const (
	componentLEC = "LEC"
	componentLAB = "LAB"
)

func isLinkedComponent(c string) bool {
	return c == componentLEC || c == componentLAB
}

// PropagateLinkedFailures is pass 2 of the eligibility rule. For every course
// code that has both a LEC and a LAB component anywhere in the dataset, a
// student failing either component fails both. Rows flipped by this pass are
// marked IndirectFail; rows that already failed pass 1 are not. EXL, BLK and
// courses carrying only one of the two linked components are exempt.
func PropagateLinkedFailures(rows []ScoredRecord) {
	// Courses with both linked components present somewhere in the dataset.
	courseComponents := make(map[string]map[string]struct{})
	for _, r := range rows {
		if !isLinkedComponent(r.Component) {
			continue
		}
		if courseComponents[r.CourseCode] == nil {
			courseComponents[r.CourseCode] = make(map[string]struct{})
		}
		courseComponents[r.CourseCode][r.Component] = struct{}{}
	}
	linked := make(map[string]struct{})
	for code, comps := range courseComponents {
		if len(comps) > 1 {
			linked[code] = struct{}{}
		}
	}

	// Students who failed either linked component of a linked course.
	type studentCourse struct {
		nim    int
		course string
	}
	failed := make(map[studentCourse]struct{})
	for _, r := range rows {
		if _, ok := linked[r.CourseCode]; !ok {
			continue
		}
		if isLinkedComponent(r.Component) && !r.Eligible {
			failed[studentCourse{r.StudentID, r.CourseCode}] = struct{}{}
		}
	}

	for i := range rows {
		r := &rows[i]
		if !isLinkedComponent(r.Component) {
			continue
		}
		if _, ok := failed[studentCourse{r.StudentID, r.CourseCode}]; !ok {
			continue
		}
		if r.Eligible {
			r.IndirectFail = true
			r.Eligible = false
		}
	}
}
