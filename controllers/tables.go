package controllers

import (
	"bytes"
	"sort"
	"strings"

	"github.com/BrandonSalimTheHuman/SASC/middleware"
	"github.com/BrandonSalimTheHuman/SASC/models"
	"github.com/BrandonSalimTheHuman/SASC/services"
	"github.com/BrandonSalimTheHuman/SASC/services/attendance"
	"github.com/BrandonSalimTheHuman/SASC/utils"

	"github.com/gofiber/fiber/v2"
)

type TableController struct {
	store *services.SemesterStore
}

func NewTableController(store *services.SemesterStore) *TableController {
	return &TableController{store: store}
}

// semesterKeyFromParams reads the :year/:semester path segments.
func semesterKeyFromParams(c *fiber.Ctx) (attendance.SemesterKey, error) {
	year, err := c.ParamsInt("year")
	if err != nil {
		return attendance.SemesterKey{}, utils.InvalidData("invalid year: %s", c.Params("year"))
	}
	semester, err := attendance.ParseSemesterType(c.Params("semester"))
	if err != nil {
		return attendance.SemesterKey{}, err
	}
	return attendance.SemesterKey{Year: year, Semester: semester}, nil
}

// ListSemesters returns all stored semesters in chronological order.
func (tc *TableController) ListSemesters(c *fiber.Ctx) error {
	keys, err := tc.store.ListKeys()
	if err != nil {
		return err
	}

	out := make([]fiber.Map, 0, len(keys))
	for _, key := range keys {
		out = append(out, fiber.Map{
			"year":     key.Year,
			"semester": string(key.Semester),
			"label":    key.String(),
		})
	}
	return c.JSON(fiber.Map{"semesters": out})
}

// GetTable returns the stored rows of one semester as a fixed projection.
// Query params: major (exact match), filter_exl=true drops EXL components.
func (tc *TableController) GetTable(c *fiber.Ctx) error {
	key, err := semesterKeyFromParams(c)
	if err != nil {
		return err
	}

	entry, err := tc.store.GetTable(key)
	if err != nil {
		return err
	}
	table, err := attendance.ParseCSV(bytes.NewReader(entry.CSVData))
	if err != nil {
		return err
	}

	major := c.Query("major")
	filterEXL := c.Query("filter_exl") == "true"

	rows := make([]fiber.Map, 0, len(table.Records))
	for _, r := range table.Records {
		if major != "" && r.Major != major {
			continue
		}
		if filterEXL && r.Component == "EXL" {
			continue
		}
		rows = append(rows, fiber.Map{
			"NIM":           r.StudentID,
			"NAME":          r.StudentName,
			"MAJOR":         r.Major,
			"COURSE NAME":   r.CourseName,
			"COMPONENT":     r.Component,
			"SKS":           r.CreditUnits,
			"TOTAL SESSION": r.TotalSession,
			"SESSION DONE":  r.SessionDone,
			"TOTAL ABSENCE": r.TotalAbsence,
			"MAX ABSENCE":   r.MaxAbsence,
		})
	}

	return c.JSON(fiber.Map{
		"year":     key.Year,
		"semester": string(key.Semester),
		"source":   entry.SourceName,
		"rows":     rows,
	})
}

// ListMajors returns the distinct majors of one semester, sorted.
func (tc *TableController) ListMajors(c *fiber.Ctx) error {
	key, err := semesterKeyFromParams(c)
	if err != nil {
		return err
	}

	entry, err := tc.store.GetTable(key)
	if err != nil {
		return err
	}
	table, err := attendance.ParseCSV(bytes.NewReader(entry.CSVData))
	if err != nil {
		return err
	}

	seen := make(map[string]struct{})
	majors := make([]string, 0)
	for _, r := range table.Records {
		if _, ok := seen[r.Major]; ok {
			continue
		}
		seen[r.Major] = struct{}{}
		majors = append(majors, r.Major)
	}
	sort.Strings(majors)

	return c.JSON(fiber.Map{"majors": majors})
}

// RunAggregation computes both aggregate tables for one semester and stores
// them, replacing any previous run.
func (tc *TableController) RunAggregation(c *fiber.Ctx) error {
	key, err := semesterKeyFromParams(c)
	if err != nil {
		return err
	}

	entry, err := tc.store.GetTable(key)
	if err != nil {
		return err
	}
	table, err := attendance.ParseCSV(bytes.NewReader(entry.CSVData))
	if err != nil {
		return err
	}

	scored, summaries, err := attendance.Aggregate(table)
	if err != nil {
		return err
	}

	courseBlob, err := attendance.MarshalStudentCourseCSV(scored)
	if err != nil {
		return utils.Wrap(utils.KindInvalidData, err, "cannot serialize aggregate")
	}
	studentBlob, err := attendance.MarshalStudentCSV(summaries)
	if err != nil {
		return utils.Wrap(utils.KindInvalidData, err, "cannot serialize aggregate")
	}

	if err := tc.store.PutAggregate(key, models.AggregateStudentCourse, courseBlob, len(scored)); err != nil {
		return err
	}
	if err := tc.store.PutAggregate(key, models.AggregateStudent, studentBlob, len(summaries)); err != nil {
		return err
	}

	middleware.LogActivity(c, "AGGREGATE", "tables", 0, fiber.Map{
		"year":                key.Year,
		"semester":            string(key.Semester),
		"student_course_rows": len(scored),
		"student_rows":        len(summaries),
	})

	return c.JSON(fiber.Map{
		"success":           true,
		"studentCourseRows": len(scored),
		"studentRows":       len(summaries),
	})
}

// GetStudentCourseAggregate returns the stored student x course aggregate,
// optionally filtered by a case-insensitive major substring.
func (tc *TableController) GetStudentCourseAggregate(c *fiber.Ctx) error {
	key, err := semesterKeyFromParams(c)
	if err != nil {
		return err
	}

	entry, err := tc.store.GetAggregate(key, models.AggregateStudentCourse)
	if err != nil {
		return err
	}
	rows, err := attendance.UnmarshalStudentCourseCSV(entry.CSVData)
	if err != nil {
		return err
	}

	if major := strings.ToLower(c.Query("major")); major != "" {
		filtered := rows[:0]
		for _, r := range rows {
			if strings.Contains(strings.ToLower(r.Major), major) {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}

	return c.JSON(fiber.Map{
		"year":     key.Year,
		"semester": string(key.Semester),
		"rows":     rows,
	})
}

// GetStudentAggregate returns the stored per-student aggregate, optionally
// filtered by a case-insensitive major substring.
func (tc *TableController) GetStudentAggregate(c *fiber.Ctx) error {
	key, err := semesterKeyFromParams(c)
	if err != nil {
		return err
	}

	entry, err := tc.store.GetAggregate(key, models.AggregateStudent)
	if err != nil {
		return err
	}
	rows, err := attendance.UnmarshalStudentCSV(entry.CSVData)
	if err != nil {
		return err
	}

	if major := strings.ToLower(c.Query("major")); major != "" {
		filtered := rows[:0]
		for _, r := range rows {
			if strings.Contains(strings.ToLower(r.Major), major) {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}

	return c.JSON(fiber.Map{
		"year":     key.Year,
		"semester": string(key.Semester),
		"rows":     rows,
	})
}
