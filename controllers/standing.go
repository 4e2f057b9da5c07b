package controllers

import (
	"bytes"

	"github.com/BrandonSalimTheHuman/SASC/services"
	"github.com/BrandonSalimTheHuman/SASC/services/standing"
	"github.com/BrandonSalimTheHuman/SASC/utils"

	"github.com/gofiber/fiber/v2"
)

type StandingController struct {
	store *services.SemesterStore
}

func NewStandingController(store *services.SemesterStore) *StandingController {
	return &StandingController{store: store}
}

func (sc *StandingController) loadAdmissions() ([]standing.AdmissionRecord, error) {
	entry, err := sc.store.GetAdmissions()
	if err != nil {
		return nil, err
	}
	return standing.ParseAdmissionCSV(bytes.NewReader(entry.CSVData))
}

// evalTermFromQuery reads the evaluation term, either as a single term code
// or as separate year/semester/period params.
func evalTermFromQuery(c *fiber.Ctx) (standing.Term, error) {
	if code := c.Query("term"); code != "" {
		return standing.ParseBinusTerm(code)
	}

	year := c.QueryInt("year", 0)
	if year == 0 {
		return standing.Term{}, utils.InvalidData("term or year is required")
	}
	semester := c.QueryInt("semester", 0)
	period := c.QueryInt("period", 1)
	if semester < 1 || semester > 2 || period < 1 || period > 2 {
		return standing.Term{}, utils.InvalidData("semester and period must be 1 or 2")
	}
	return standing.Term{Year: year, Semester: semester, Period: period}, nil
}

// GetAdmissions returns the stored admission records.
func (sc *StandingController) GetAdmissions(c *fiber.Ctx) error {
	records, err := sc.loadAdmissions()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"records": records})
}

// Classify evaluates every stored admission record against the given term
// and returns the recommended action per student.
func (sc *StandingController) Classify(c *fiber.Ctx) error {
	eval, err := evalTermFromQuery(c)
	if err != nil {
		return err
	}

	records, err := sc.loadAdmissions()
	if err != nil {
		return err
	}

	classifications := standing.ClassifyBatch(records, eval)
	return c.JSON(fiber.Map{
		"term":    eval.EncodeBinus(),
		"count":   len(classifications),
		"results": classifications,
	})
}

// ClassifyStudent evaluates a single student by NIM.
func (sc *StandingController) ClassifyStudent(c *fiber.Ctx) error {
	nim, err := c.ParamsInt("nim")
	if err != nil {
		return utils.InvalidData("invalid nim: %s", c.Params("nim"))
	}
	eval, err := evalTermFromQuery(c)
	if err != nil {
		return err
	}

	records, err := sc.loadAdmissions()
	if err != nil {
		return err
	}

	for _, rec := range records {
		if rec.StudentID != nim {
			continue
		}
		result, ok := standing.Classify(rec, eval)
		if !ok {
			return c.JSON(fiber.Map{"term": eval.EncodeBinus(), "result": nil})
		}
		return c.JSON(fiber.Map{"term": eval.EncodeBinus(), "result": result})
	}
	return utils.NotFound("student %d not found in admission records", nim)
}
