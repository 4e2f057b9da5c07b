package services

import (
	"bytes"

	"github.com/BrandonSalimTheHuman/SASC/models"
	"github.com/BrandonSalimTheHuman/SASC/services/attendance"
	"github.com/BrandonSalimTheHuman/SASC/utils"
)

// Default window for per-student time series: the longest plausible study
// span, seven years of three semesters each.
const defaultMaxSemesters = 21

// tableStore is the slice of SemesterStore the chart queries need.
type tableStore interface {
	GetTable(key attendance.SemesterKey) (*models.AttendanceTable, error)
	GetAllTables() ([]models.AttendanceTable, error)
}

// ChartService turns stored semester tables into chart-ready series.
type ChartService struct {
	store tableStore
}

func NewChartService(store *SemesterStore) *ChartService {
	return &ChartService{store: store}
}

// SeriesPoint is one semester's value in a time series.
type SeriesPoint struct {
	Semester string `json:"semester"`
	Count    any    `json:"count"`
}

// ThresholdSplit buckets students around an attendance threshold.
type ThresholdSplit struct {
	Below any `json:"below_threshold"`
	Above any `json:"above_threshold"`
}

func (cs *ChartService) loadTable(key attendance.SemesterKey) (*attendance.Table, error) {
	entry, err := cs.store.GetTable(key)
	if err != nil {
		return nil, err
	}
	return attendance.ParseCSV(bytes.NewReader(entry.CSVData))
}

func parseStored(entry models.AttendanceTable) (attendance.SemesterKey, *attendance.Table, error) {
	semester, err := attendance.ParseSemesterType(entry.SemesterType)
	if err != nil {
		return attendance.SemesterKey{}, nil, err
	}
	key := attendance.SemesterKey{Year: entry.Year, Semester: semester}
	table, err := attendance.ParseCSV(bytes.NewReader(entry.CSVData))
	if err != nil {
		return key, nil, err
	}
	return key, table, nil
}

// studentGroups indexes a table's rows per student.
func studentGroups(records []attendance.Record) (map[int][]attendance.Record, []int) {
	groups := make(map[int][]attendance.Record)
	order := make([]int, 0)
	for _, r := range records {
		if _, ok := groups[r.StudentID]; !ok {
			order = append(order, r.StudentID)
		}
		groups[r.StudentID] = append(groups[r.StudentID], r)
	}
	return groups, order
}

// PieData buckets one major's students above/below a threshold for one
// semester, under the Present or Projected divisor.
func (cs *ChartService) PieData(key attendance.SemesterKey, major string, threshold float64, divisor attendance.Divisor, asPercentage bool) (*ThresholdSplit, error) {
	table, err := cs.loadTable(key)
	if err != nil {
		return nil, err
	}

	var rows []attendance.Record
	for _, r := range table.Records {
		if r.Major == major {
			rows = append(rows, r)
		}
	}

	groups, order := studentGroups(rows)
	below, above := 0, 0
	for _, nim := range order {
		pct, err := attendance.GroupAttendancePct(groups[nim], divisor)
		if err != nil {
			return nil, err
		}
		if pct < threshold {
			below++
		} else {
			above++
		}
	}

	if !asPercentage {
		return &ThresholdSplit{Below: below, Above: above}, nil
	}
	total := below + above
	if total == 0 {
		return nil, utils.NotFound("no students found for major %q in %s", major, key)
	}
	return &ThresholdSplit{
		Below: attendance.Round2(float64(below) / float64(total) * 100),
		Above: attendance.Round2(float64(above) / float64(total) * 100),
	}, nil
}

// MajorBarData counts below-threshold students per major for one semester.
func (cs *ChartService) MajorBarData(key attendance.SemesterKey, majors []string, threshold float64, divisor attendance.Divisor, asPercentage bool) (map[string]any, error) {
	table, err := cs.loadTable(key)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(majors))
	for _, m := range majors {
		wanted[m] = struct{}{}
	}

	perMajor := make(map[string][]attendance.Record)
	for _, r := range table.Records {
		if _, ok := wanted[r.Major]; ok {
			perMajor[r.Major] = append(perMajor[r.Major], r)
		}
	}

	out := make(map[string]any, len(perMajor))
	for major, rows := range perMajor {
		groups, order := studentGroups(rows)
		below := 0
		for _, nim := range order {
			pct, err := attendance.GroupAttendancePct(groups[nim], divisor)
			if err != nil {
				return nil, err
			}
			if pct < threshold {
				below++
			}
		}
		if asPercentage {
			out[major] = attendance.Round2(float64(below) / float64(len(order)) * 100)
		} else {
			out[major] = below
		}
	}
	return out, nil
}

// StudentSeries is the per-semester count of one student's below-threshold
// (or, under Max, over-absence) course rows, chronologically ordered, trimmed
// to the first enrolled semester and capped at the most recent maxSemesters.
// NotEnrolled covers the whole stored history, not just the data window.
type StudentSeries struct {
	Name        string        `json:"name"`
	NotEnrolled []string      `json:"not_enrolled"`
	Data        []SeriesPoint `json:"data"`
}

func (cs *ChartService) StudentSeries(nim int, threshold float64, divisor attendance.Divisor, maxSemesters int) (*StudentSeries, error) {
	if maxSemesters <= 0 {
		maxSemesters = defaultMaxSemesters
	}

	entries, err := cs.store.GetAllTables()
	if err != nil {
		return nil, err
	}

	type semesterCount struct {
		key   attendance.SemesterKey
		count int
	}
	var (
		series      []semesterCount
		notEnrolled = make(map[string]struct{})
		studentName string
		enrolledAny bool
	)

	for _, entry := range entries {
		key, table, err := parseStored(entry)
		if err != nil {
			return nil, err
		}

		var rows []attendance.Record
		for _, r := range table.Records {
			if r.StudentID == nim {
				rows = append(rows, r)
			}
		}
		if len(rows) == 0 {
			series = append(series, semesterCount{key: key})
			notEnrolled[key.String()] = struct{}{}
			continue
		}
		enrolledAny = true
		if studentName == "" {
			studentName = rows[0].StudentName
		}

		count := 0
		for _, r := range rows {
			if divisor == attendance.DivisorMax {
				if attendance.ExceedsMaxAbsence(r) {
					count++
				}
				continue
			}
			pct, err := attendance.RowAttendancePct(r, divisor)
			if err != nil {
				return nil, err
			}
			if pct < threshold {
				count++
			}
		}
		series = append(series, semesterCount{key: key, count: count})
	}

	if !enrolledAny {
		return nil, utils.NotFound("student %d not found in any semester", nim)
	}

	keys := make([]attendance.SemesterKey, len(series))
	counts := make(map[string]int, len(series))
	for i, sc := range series {
		keys[i] = sc.key
		counts[sc.key.String()] = sc.count
	}
	attendance.SortSemesters(keys)

	// Not-enrolled semesters are reported across the whole history, even the
	// ones the trim and the cap below push out of the data window.
	allNotEnrolled := make([]string, 0, len(notEnrolled))
	for _, key := range keys {
		if _, ok := notEnrolled[key.String()]; ok {
			allNotEnrolled = append(allNotEnrolled, key.String())
		}
	}

	// Drop semesters before the student first appears.
	start := 0
	for start < len(keys) {
		if _, skip := notEnrolled[keys[start].String()]; !skip {
			break
		}
		start++
	}
	keys = keys[start:]

	if len(keys) > maxSemesters {
		keys = keys[len(keys)-maxSemesters:]
	}

	out := &StudentSeries{Name: studentName, NotEnrolled: allNotEnrolled, Data: make([]SeriesPoint, 0, len(keys))}
	for _, key := range keys {
		out.Data = append(out.Data, SeriesPoint{Semester: key.String(), Count: counts[key.String()]})
	}
	return out, nil
}

// ComponentCount is one component's failing count inside a semester bucket.
type ComponentCount struct {
	Component string `json:"component"`
	Count     any    `json:"count"`
}

// CourseSemester is one semester bucket of a course series.
type CourseSemester struct {
	Semester string           `json:"semester"`
	Data     []ComponentCount `json:"data"`
}

// CourseSeries holds per-semester failing counts for a course, with LEC and
// LAB merged into one student set when the course carries both.
type CourseSeries struct {
	Name string           `json:"name"`
	Data []CourseSemester `json:"data"`
}

type courseSemesterResult struct {
	lecLabStudents map[int]struct{}
	lecLabTotal    *int
	components     map[string]any
}

func (cs *ChartService) CourseSeries(courseCode string, components []string, threshold float64, divisor attendance.Divisor, asPercentage bool, semesterCount int) (*CourseSeries, error) {
	// The combined option expands to both linked components.
	expanded := make([]string, 0, len(components)+1)
	wantsLecLab := false
	for _, comp := range components {
		if comp == "LEC/LAB" {
			wantsLecLab = true
			expanded = append(expanded, "LEC", "LAB")
			continue
		}
		expanded = append(expanded, comp)
	}

	entries, err := cs.store.GetAllTables()
	if err != nil {
		return nil, err
	}

	var (
		courseName   string
		courseHasLab bool
		dataFound    bool
	)
	results := make(map[string]*courseSemesterResult)
	keys := make([]attendance.SemesterKey, 0, len(entries))

	for _, entry := range entries {
		key, table, err := parseStored(entry)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)

		semester := &courseSemesterResult{
			lecLabStudents: make(map[int]struct{}),
			components:     make(map[string]any),
		}
		results[key.String()] = semester

		for _, comp := range expanded {
			var rows []attendance.Record
			for _, r := range table.Records {
				if r.CourseCode == courseCode && r.Component == comp {
					rows = append(rows, r)
				}
			}
			if len(rows) == 0 {
				continue
			}
			dataFound = true
			if comp == "LAB" {
				courseHasLab = true
			}
			if courseName == "" {
				courseName = rows[0].CourseName
			}

			failing := make(map[int]struct{})
			students := make(map[int]struct{})
			for _, r := range rows {
				students[r.StudentID] = struct{}{}
				if divisor == attendance.DivisorMax {
					if attendance.ExceedsMaxAbsence(r) {
						failing[r.StudentID] = struct{}{}
					}
					continue
				}
				pct, err := attendance.RowAttendancePct(r, divisor)
				if err != nil {
					return nil, err
				}
				if pct < threshold {
					failing[r.StudentID] = struct{}{}
				}
			}

			if comp == "LEC" || comp == "LAB" {
				if semester.lecLabTotal == nil {
					n := len(students)
					semester.lecLabTotal = &n
				}
				for nim := range failing {
					semester.lecLabStudents[nim] = struct{}{}
				}
				continue
			}

			if asPercentage {
				semester.components[comp] = attendance.Round2(float64(len(failing)) / float64(len(students)) * 100)
			} else {
				semester.components[comp] = len(failing)
			}
		}
	}

	if !dataFound {
		return nil, utils.NotFound("course %q not found in any semester", courseCode)
	}

	attendance.SortSemesters(keys)
	if semesterCount > 0 && len(keys) > semesterCount {
		keys = keys[len(keys)-semesterCount:]
	}

	linkedRequested := containsComponent(expanded, "LEC") || containsComponent(expanded, "LAB")

	out := &CourseSeries{Name: courseName, Data: make([]CourseSemester, 0, len(keys))}
	for _, key := range keys {
		semester := results[key.String()]
		bucket := CourseSemester{Semester: key.String()}

		if linkedRequested {
			label := "LEC"
			if !containsComponent(expanded, "LEC") {
				label = "LAB"
			}
			if wantsLecLab && courseHasLab {
				label = "LEC/LAB"
			}
			var count any = "N/A"
			if semester.lecLabTotal != nil {
				if asPercentage {
					count = attendance.Round2(float64(len(semester.lecLabStudents)) / float64(*semester.lecLabTotal) * 100)
				} else {
					count = len(semester.lecLabStudents)
				}
			}
			bucket.Data = append(bucket.Data, ComponentCount{Component: label, Count: count})
		}

		for _, comp := range []string{"EXL", "BLK"} {
			if !containsComponent(expanded, comp) {
				continue
			}
			count, ok := semester.components[comp]
			if !ok {
				count = "N/A"
			}
			bucket.Data = append(bucket.Data, ComponentCount{Component: comp, Count: count})
		}

		out.Data = append(out.Data, bucket)
	}
	return out, nil
}

func containsComponent(components []string, want string) bool {
	for _, c := range components {
		if c == want {
			return true
		}
	}
	return false
}

// StudentCourseSeries traces one (student, course, component) across
// semesters: present-session counts, or attendance percentage.
type StudentCourseSeries struct {
	CourseName  string        `json:"course_name"`
	StudentName string        `json:"student_name"`
	NotEnrolled []string      `json:"not_enrolled"`
	Data        []SeriesPoint `json:"data"`
}

func (cs *ChartService) StudentCourseSeries(nim int, courseCode, component string, asPercentage bool, maxSemesters int) (*StudentCourseSeries, error) {
	if maxSemesters <= 0 {
		maxSemesters = defaultMaxSemesters
	}

	entries, err := cs.store.GetAllTables()
	if err != nil {
		return nil, err
	}

	var (
		courseName  string
		studentName string
	)
	values := make(map[string]any)
	notEnrolled := make(map[string]struct{})
	keys := make([]attendance.SemesterKey, 0, len(entries))

	for _, entry := range entries {
		key, table, err := parseStored(entry)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)

		var match *attendance.Record
		for i, r := range table.Records {
			if r.StudentID == nim && r.CourseCode == courseCode && r.Component == component {
				match = &table.Records[i]
				break
			}
		}
		if match == nil {
			values[key.String()] = 0
			notEnrolled[key.String()] = struct{}{}
			continue
		}
		if courseName == "" || studentName == "" {
			courseName = match.CourseName
			studentName = match.StudentName
		}

		present := match.SessionDone - match.TotalAbsence
		if asPercentage {
			pct, err := attendance.AttendancePct(present, match.SessionDone)
			if err != nil {
				return nil, err
			}
			values[key.String()] = pct
		} else {
			values[key.String()] = present
		}
	}

	if len(notEnrolled) == len(keys) {
		return nil, utils.NotFound("course %q and student %d combination not found in any semester", courseCode, nim)
	}

	attendance.SortSemesters(keys)

	// First semester the student actually took the course.
	firstEnrolled := -1
	for i, key := range keys {
		if _, skip := notEnrolled[key.String()]; !skip {
			firstEnrolled = i
			break
		}
	}

	window := keys
	if len(window) > maxSemesters {
		window = window[len(window)-maxSemesters:]
	}
	// Drop leading not-enrolled semesters that predate the first enrollment.
	for len(window) > 0 {
		label := window[0].String()
		if _, skip := notEnrolled[label]; !skip {
			break
		}
		if firstEnrolled >= 0 && !window[0].Before(keys[firstEnrolled]) {
			break
		}
		delete(notEnrolled, label)
		window = window[1:]
	}

	out := &StudentCourseSeries{
		CourseName:  courseName,
		StudentName: studentName,
		NotEnrolled: make([]string, 0),
		Data:        make([]SeriesPoint, 0, len(window)),
	}
	for _, key := range window {
		label := key.String()
		if _, ok := notEnrolled[label]; ok {
			out.NotEnrolled = append(out.NotEnrolled, label)
		}
		out.Data = append(out.Data, SeriesPoint{Semester: label, Count: values[label]})
	}
	return out, nil
}
