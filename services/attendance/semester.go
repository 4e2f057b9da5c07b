package attendance

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/BrandonSalimTheHuman/SASC/utils"
)

// SemesterType identifies which part of the academic year an export covers.
type SemesterType string

const (
	Odd     SemesterType = "Odd"     // Sept - Jan
	Even    SemesterType = "Even"    // Feb - June
	Compact SemesterType = "Compact" // July - August
)

// Rank returns the within-year ordering of a semester type.
func (s SemesterType) Rank() int {
	switch s {
	case Odd:
		return 1
	case Even:
		return 2
	case Compact:
		return 3
	}
	return 0
}

func (s SemesterType) Valid() bool {
	return s.Rank() != 0
}

// ParseSemesterType accepts the stored string form of a semester type.
func ParseSemesterType(s string) (SemesterType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "odd":
		return Odd, nil
	case "even":
		return Even, nil
	case "compact":
		return Compact, nil
	}
	return "", utils.InvalidData("unknown semester type %q", s)
}

// SemesterKey identifies one stored attendance table.
type SemesterKey struct {
	Year     int          `json:"year"`
	Semester SemesterType `json:"semester_type"`
}

// String renders the display form used by chart labels, e.g. "Odd 2024".
func (k SemesterKey) String() string {
	return fmt.Sprintf("%s %d", k.Semester, k.Year)
}

// SortKey is a total order over semesters: year ascending, then Odd < Even < Compact.
func (k SemesterKey) SortKey() int {
	return k.Year*10 + k.Semester.Rank()
}

// Before reports whether k is chronologically earlier than other.
func (k SemesterKey) Before(other SemesterKey) bool {
	return k.SortKey() < other.SortKey()
}

// SortSemesters orders keys chronologically in place.
func SortSemesters(keys []SemesterKey) {
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Before(keys[j])
	})
}

// SemesterTypeForMonth maps an export month to its semester type.
func SemesterTypeForMonth(month int) (SemesterType, bool) {
	switch {
	case month >= 9 && month <= 12, month == 1:
		return Odd, true
	case month >= 2 && month <= 6:
		return Even, true
	case month == 7 || month == 8:
		return Compact, true
	}
	return "", false
}

// SemesterFromFilename derives the semester key from an upload filename whose
// last space-separated token carries a DD-MM-YYYY date, e.g.
// "attendance export 17-10-2024.csv". Months before September belong to the
// academic year that started the previous calendar year.
func SemesterFromFilename(name string) (SemesterKey, error) {
	base := strings.TrimSuffix(name, ".csv")
	parts := strings.Split(base, " ")
	datePart := strings.TrimLeft(parts[len(parts)-1], "-")

	fields := strings.Split(datePart, "-")
	if len(fields) != 3 {
		return SemesterKey{}, utils.InvalidFilename("no DD-MM-YYYY date in filename %q", name)
	}

	nums := make([]int, 3)
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return SemesterKey{}, utils.InvalidFilename("bad date component %q in filename %q", f, name)
		}
		nums[i] = n
	}
	month, year := nums[1], nums[2]

	semester, ok := SemesterTypeForMonth(month)
	if !ok {
		return SemesterKey{}, utils.InvalidFilename("month %d outside any semester in filename %q", month, name)
	}

	// January belongs to the previous year's odd semester
	if month < 9 {
		year--
	}

	return SemesterKey{Year: year, Semester: semester}, nil
}
