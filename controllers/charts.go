package controllers

import (
	"strconv"
	"strings"

	"github.com/BrandonSalimTheHuman/SASC/services"
	"github.com/BrandonSalimTheHuman/SASC/services/attendance"
	"github.com/BrandonSalimTheHuman/SASC/utils"

	"github.com/gofiber/fiber/v2"
)

type ChartController struct {
	charts *services.ChartService
}

func NewChartController(charts *services.ChartService) *ChartController {
	return &ChartController{charts: charts}
}

func queryThreshold(c *fiber.Ctx) (float64, error) {
	raw := c.Query("threshold", "80")
	threshold, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, utils.InvalidData("invalid threshold: %s", raw)
	}
	return threshold, nil
}

func queryDivisor(c *fiber.Ctx) (attendance.Divisor, error) {
	return attendance.ParseDivisor(c.Query("divisor", string(attendance.DivisorPresent)))
}

// asPercentage reports whether the caller wants relative counts.
func asPercentage(c *fiber.Ctx) bool {
	return strings.EqualFold(c.Query("value", "Number"), "Percentage")
}

// GetPieChart buckets one major's students around the attendance threshold.
func (cc *ChartController) GetPieChart(c *fiber.Ctx) error {
	key, err := semesterKeyFromParams(c)
	if err != nil {
		return err
	}
	major := c.Query("major")
	if major == "" {
		return utils.InvalidData("major is required")
	}
	threshold, err := queryThreshold(c)
	if err != nil {
		return err
	}
	divisor, err := queryDivisor(c)
	if err != nil {
		return err
	}

	split, err := cc.charts.PieData(key, major, threshold, divisor, asPercentage(c))
	if err != nil {
		return err
	}
	return c.JSON(split)
}

// GetMajorBarChart counts below-threshold students per major.
func (cc *ChartController) GetMajorBarChart(c *fiber.Ctx) error {
	key, err := semesterKeyFromParams(c)
	if err != nil {
		return err
	}
	majors := splitList(c.Query("majors"))
	if len(majors) == 0 {
		return utils.InvalidData("majors is required")
	}
	threshold, err := queryThreshold(c)
	if err != nil {
		return err
	}
	divisor, err := queryDivisor(c)
	if err != nil {
		return err
	}

	data, err := cc.charts.MajorBarData(key, majors, threshold, divisor, asPercentage(c))
	if err != nil {
		return err
	}
	return c.JSON(data)
}

// GetStudentSeries traces one student's failing-course counts across
// semesters.
func (cc *ChartController) GetStudentSeries(c *fiber.Ctx) error {
	nim, err := strconv.Atoi(c.Query("nim"))
	if err != nil {
		return utils.InvalidData("invalid nim: %s", c.Query("nim"))
	}
	threshold, err := queryThreshold(c)
	if err != nil {
		return err
	}
	divisor, err := queryDivisor(c)
	if err != nil {
		return err
	}
	maxSemesters := c.QueryInt("max_semesters", 0)

	series, err := cc.charts.StudentSeries(nim, threshold, divisor, maxSemesters)
	if err != nil {
		return err
	}
	return c.JSON(series)
}

// GetCourseSeries traces failing-student counts for one course across
// semesters, per component.
func (cc *ChartController) GetCourseSeries(c *fiber.Ctx) error {
	courseCode := c.Query("course_code")
	if courseCode == "" {
		return utils.InvalidData("course_code is required")
	}
	components := splitList(c.Query("components", "LEC/LAB"))
	threshold, err := queryThreshold(c)
	if err != nil {
		return err
	}
	divisor, err := queryDivisor(c)
	if err != nil {
		return err
	}
	semesterCount := c.QueryInt("semester_count", 0)

	series, err := cc.charts.CourseSeries(courseCode, components, threshold, divisor, asPercentage(c), semesterCount)
	if err != nil {
		return err
	}
	return c.JSON(series)
}

// GetStudentCourseSeries traces one (student, course, component) pair across
// semesters.
func (cc *ChartController) GetStudentCourseSeries(c *fiber.Ctx) error {
	nim, err := strconv.Atoi(c.Query("nim"))
	if err != nil {
		return utils.InvalidData("invalid nim: %s", c.Query("nim"))
	}
	courseCode := c.Query("course_code")
	if courseCode == "" {
		return utils.InvalidData("course_code is required")
	}
	component := c.Query("component", "LEC")
	maxSemesters := c.QueryInt("max_semesters", 0)

	series, err := cc.charts.StudentCourseSeries(nim, courseCode, component, asPercentage(c), maxSemesters)
	if err != nil {
		return err
	}
	return c.JSON(series)
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
