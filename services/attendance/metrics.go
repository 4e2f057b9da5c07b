package attendance

import (
	"math"

	"github.com/BrandonSalimTheHuman/SASC/utils"
)

// Divisor selects the denominator policy for attendance metrics.
type Divisor string

const (
	// DivisorPresent divides present sessions by sessions held so far.
	DivisorPresent Divisor = "Present"
	// DivisorProjected assumes every future session will be attended and
	// divides by the full semester session count.
	DivisorProjected Divisor = "Projected"
	// DivisorMax is the threshold rule: fail when total absence exceeds the
	// allowed maximum. It yields a boolean, not a percentage.
	DivisorMax Divisor = "Max"
)

func ParseDivisor(s string) (Divisor, error) {
	switch Divisor(s) {
	case DivisorPresent, DivisorProjected, DivisorMax:
		return Divisor(s), nil
	}
	return "", utils.InvalidData("invalid divisor %q", s)
}

// Round2 applies the single rounding policy used for every percentage output:
// half-up to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DerivedTotalSessions reconstructs the semester session count from credit
// units when the export does not carry it: floor(SKS/2) x 13.
func DerivedTotalSessions(creditUnits int) int {
	return (creditUnits / 2) * 13
}

// AttendancePct is the Present-policy percentage for one row:
// present / sessions held so far.
func AttendancePct(present, sessionDone int) (float64, error) {
	if sessionDone == 0 {
		return 0, utils.DivisionByZero("attendance percentage with zero sessions done")
	}
	return Round2(float64(present) / float64(sessionDone) * 100), nil
}

// SemesterAttendancePct divides present sessions by the full semester count.
func SemesterAttendancePct(present, totalSession int) (float64, error) {
	if totalSession == 0 {
		return 0, utils.DivisionByZero("semester attendance percentage with zero total sessions")
	}
	return Round2(float64(present) / float64(totalSession) * 100), nil
}

// ProjectedPct assumes all remaining sessions are attended:
// (total - absence) / total.
func ProjectedPct(absence, totalSession int) (float64, error) {
	if totalSession == 0 {
		return 0, utils.DivisionByZero("projected percentage with zero total sessions")
	}
	return Round2((1 - float64(absence)/float64(totalSession)) * 100), nil
}

// ExceedsMaxAbsence is the Max-policy boolean for one row.
func ExceedsMaxAbsence(r Record) bool {
	return r.TotalAbsence > r.MaxAbsence
}

// GroupAttendancePct computes the attendance percentage for a whole group of
// rows (e.g. one student's rows, or one major's rows) under the Present or
// Projected policy, summing absences and denominators across the group.
func GroupAttendancePct(records []Record, divisor Divisor) (float64, error) {
	var absence, denom int
	for _, r := range records {
		absence += r.TotalAbsence
		switch divisor {
		case DivisorPresent:
			denom += r.SessionDone
		case DivisorProjected:
			denom += r.TotalSession
		default:
			return 0, utils.InvalidData("divisor %q is not a percentage policy", divisor)
		}
	}
	if denom == 0 {
		return 0, utils.DivisionByZero("group attendance with zero %s sessions", divisor)
	}
	return Round2((1 - float64(absence)/float64(denom)) * 100), nil
}

// RowAttendancePct computes the per-row percentage under Present or Projected.
func RowAttendancePct(r Record, divisor Divisor) (float64, error) {
	switch divisor {
	case DivisorPresent:
		if r.SessionDone == 0 {
			return 0, utils.DivisionByZero("row attendance for student %d with zero sessions done", r.StudentID)
		}
		return Round2((1 - float64(r.TotalAbsence)/float64(r.SessionDone)) * 100), nil
	case DivisorProjected:
		total := r.TotalSession
		if total == 0 {
			total = DerivedTotalSessions(r.CreditUnits)
		}
		if total == 0 {
			return 0, utils.DivisionByZero("row projection for student %d with zero total sessions", r.StudentID)
		}
		return Round2((1 - float64(r.TotalAbsence)/float64(total)) * 100), nil
	}
	return 0, utils.InvalidData("divisor %q is not a percentage policy", divisor)
}
