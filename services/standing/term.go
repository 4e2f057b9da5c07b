package standing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BrandonSalimTheHuman/SASC/utils"
)

// Term is one academic period in calendar-neutral form. The institution's two
// calendars encode the same triple differently:
//
//	Binus term code:  "YYYY.sp"  (semester digit first, period digit second)
//	PDPT code:        "YYYY.ps"  (digits in the opposite order)
//
// Semester is 1 (odd) or 2 (even); Period is the intake wave within the
// semester, 1 or 2. Conversion between the encodings swaps the digits
// explicitly rather than slicing strings, so the invariants stay checkable.
type Term struct {
	Year     int `json:"year"`
	Semester int `json:"semester"`
	Period   int `json:"period"`
}

// NoPDPT is the sentinel used by exports for records without an alternate
// calendar intake.
const NoPDPT = "-"

func parseTermDigits(s, calendar string) (year, d1, d2 int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 2 || len(parts[1]) != 2 {
		return 0, 0, 0, utils.InvalidData("malformed %s term code %q", calendar, s)
	}
	year, yerr := strconv.Atoi(parts[0])
	if yerr != nil {
		return 0, 0, 0, utils.InvalidData("malformed %s term year in %q", calendar, s)
	}
	d1 = int(parts[1][0] - '0')
	d2 = int(parts[1][1] - '0')
	if d1 < 1 || d1 > 2 || d2 < 1 || d2 > 2 {
		return 0, 0, 0, utils.InvalidData("%s term digits out of range in %q", calendar, s)
	}
	return year, d1, d2, nil
}

// ParseBinusTerm decodes a native term code, e.g. "2020.11".
func ParseBinusTerm(s string) (Term, error) {
	year, semester, period, err := parseTermDigits(s, "binus")
	if err != nil {
		return Term{}, err
	}
	return Term{Year: year, Semester: semester, Period: period}, nil
}

// ParsePDPTTerm decodes an alternate-calendar code; the two period digits are
// stored in the opposite order from the native encoding.
func ParsePDPTTerm(s string) (Term, error) {
	year, period, semester, err := parseTermDigits(s, "pdpt")
	if err != nil {
		return Term{}, err
	}
	return Term{Year: year, Semester: semester, Period: period}, nil
}

// EncodeBinus renders the native term code.
func (t Term) EncodeBinus() string {
	return fmt.Sprintf("%d.%d%d", t.Year, t.Semester, t.Period)
}

// EncodePDPT renders the alternate-calendar code.
func (t Term) EncodePDPT() string {
	return fmt.Sprintf("%d.%d%d", t.Year, t.Period, t.Semester)
}

// AddYears shifts the term by whole years; the period digits are unchanged.
func (t Term) AddYears(n int) Term {
	t.Year += n
	return t
}

// NextPeriod advances one semester-period increment: the semester digit
// flips, carrying into the year. The intake-wave digit never moves.
func (t Term) NextPeriod() Term {
	if t.Semester == 1 {
		t.Semester = 2
		return t
	}
	t.Semester = 1
	t.Year++
	return t
}

// Compare orders terms chronologically: year, then semester, then period.
func (t Term) Compare(o Term) int {
	if t.Year != o.Year {
		if t.Year < o.Year {
			return -1
		}
		return 1
	}
	if t.Semester != o.Semester {
		if t.Semester < o.Semester {
			return -1
		}
		return 1
	}
	if t.Period != o.Period {
		if t.Period < o.Period {
			return -1
		}
		return 1
	}
	return 0
}

// Deadlines holds the three max-study-period checkpoints for one calendar.
type Deadlines struct {
	Base      Term `json:"base"`
	FirstExt  Term `json:"first_extension"`
	SecondExt Term `json:"second_extension"`
}

// StudyDeadlines derives the checkpoints from an admission term: the base
// maximum study period is admission plus three years; each extension adds one
// semester-period increment on top of the base.
func StudyDeadlines(admit Term) Deadlines {
	base := admit.AddYears(3)
	first := base.NextPeriod()
	return Deadlines{
		Base:      base,
		FirstExt:  first,
		SecondExt: first.NextPeriod(),
	}
}
