package controllers

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/BrandonSalimTheHuman/SASC/models"
	"github.com/BrandonSalimTheHuman/SASC/services"
	"github.com/BrandonSalimTheHuman/SASC/services/attendance"
	"github.com/BrandonSalimTheHuman/SASC/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

type ExportController struct {
	store *services.SemesterStore
}

func NewExportController(store *services.SemesterStore) *ExportController {
	return &ExportController{store: store}
}

// ExportXLSX renders one stored table as a spreadsheet download. The :kind
// segment selects raw rows or one of the two aggregates.
func (ec *ExportController) ExportXLSX(c *fiber.Ctx) error {
	key, err := semesterKeyFromParams(c)
	if err != nil {
		return err
	}
	kind := c.Params("kind")

	var (
		sheetRows [][]interface{}
		name      string
	)
	switch kind {
	case "raw":
		entry, err := ec.store.GetTable(key)
		if err != nil {
			return err
		}
		table, err := attendance.ParseCSV(bytes.NewReader(entry.CSVData))
		if err != nil {
			return err
		}
		sheetRows = rawSheetRows(table.Records)
		name = "attendance"
	case "student-course":
		entry, err := ec.store.GetAggregate(key, models.AggregateStudentCourse)
		if err != nil {
			return err
		}
		rows, err := attendance.UnmarshalStudentCourseCSV(entry.CSVData)
		if err != nil {
			return err
		}
		sheetRows = studentCourseSheetRows(rows)
		name = "student_course_aggregate"
	case "student":
		entry, err := ec.store.GetAggregate(key, models.AggregateStudent)
		if err != nil {
			return err
		}
		rows, err := attendance.UnmarshalStudentCSV(entry.CSVData)
		if err != nil {
			return err
		}
		sheetRows = studentSheetRows(rows)
		name = "student_aggregate"
	default:
		return utils.InvalidData("unknown export kind: %s", kind)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range sheetRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return utils.Wrap(utils.KindInvalidData, err, "cannot build spreadsheet")
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return utils.Wrap(utils.KindInvalidData, err, "cannot build spreadsheet")
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return utils.Wrap(utils.KindInvalidData, err, "cannot write spreadsheet")
	}

	filename := fmt.Sprintf("%s_%d_%s.xlsx", name, key.Year, strings.ToLower(string(key.Semester)))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.Send(buf.Bytes())
}

func rawSheetRows(records []attendance.Record) [][]interface{} {
	out := make([][]interface{}, 0, len(records)+1)
	out = append(out, []interface{}{
		"NIM", "NAME", "MAJOR", "COURSE CODE", "COURSE NAME", "CLASS",
		"COMPONENT", "SKS", "TOTAL SESSION", "SESSION DONE", "TOTAL ABSENCE", "MAX ABSENCE",
	})
	for _, r := range records {
		out = append(out, []interface{}{
			r.StudentID, r.StudentName, r.Major, r.CourseCode, r.CourseName, r.Class,
			r.Component, r.CreditUnits, r.TotalSession, r.SessionDone, r.TotalAbsence, r.MaxAbsence,
		})
	}
	return out
}

func studentCourseSheetRows(rows []attendance.ScoredRecord) [][]interface{} {
	out := make([][]interface{}, 0, len(rows)+1)
	out = append(out, []interface{}{
		"NIM", "NAME", "MAJOR", "COURSE CODE", "COURSE NAME", "CLASS", "COMPONENT",
		"TOTAL SEMESTER SESSIONS", "SESSIONS DONE", "TOTAL PRESENT",
		"ATTENDANCE %", "ATTENDANCE SEMESTER %", "PROJECTED ATTENDANCE SEMESTER %",
		"ELIGIBLE", "INDIRECT FAIL",
	})
	for _, r := range rows {
		out = append(out, []interface{}{
			r.StudentID, r.StudentName, r.Major, r.CourseCode, r.CourseName, r.Class, r.Component,
			r.TotalSession, r.SessionDone, r.TotalPresent,
			r.AttendancePct, r.SemesterPct, r.ProjectedSemesterPct,
			r.Eligible, r.IndirectFail,
		})
	}
	return out
}

func studentSheetRows(rows []attendance.StudentSummary) [][]interface{} {
	out := make([][]interface{}, 0, len(rows)+1)
	out = append(out, []interface{}{
		"NIM", "NAME", "MAJOR",
		"NUMBER OF ENROLLED COURSES", "NUMBER OF FAILED COURSES", "PERCENTAGE OF FAILED COURSES",
	})
	for _, s := range rows {
		out = append(out, []interface{}{
			s.StudentID, s.StudentName, s.Major,
			s.EnrolledCourses, s.FailedCourses, s.FailedPct,
		})
	}
	return out
}
