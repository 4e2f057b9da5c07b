package attendance

import (
	"github.com/BrandonSalimTheHuman/SASC/utils"
)

// NormalizeOptions controls the row normalizer. The zero value is not usable;
// start from DefaultNormalizeOptions.
type NormalizeOptions struct {
	// ExcludedCourses drops non-credit-bearing administrative courses.
	ExcludedCourses []string
	// ExcludedMajor drops the non-degree sentinel major.
	ExcludedMajor string
	// MajorAliases collapses alternate major spellings to a canonical name.
	MajorAliases map[string]string
	// PresenceCodes maps the two recognized session-level codes to a
	// presence boolean. Any other code is a data error.
	PresenceCodes map[string]bool
	// DropZeroSessions removes rows with no activity yet this term. When nil
	// the schema default applies: true for AggregatedSchema (the source
	// export filters these), false for SessionLevelSchema.
	DropZeroSessions *bool
}

// DefaultNormalizeOptions returns the production filter set.
func DefaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{
		ExcludedCourses: []string{
			"Excellence Program I",
			"English Plus Stage One",
			"English Plus Stage Two",
			"Academic Advisory",
		},
		ExcludedMajor: "Non Degree Program",
		MajorAliases: map[string]string{
			"Fashion Design":     "Fashion",
			"Fashion Management": "Fashion",
		},
		PresenceCodes: map[string]bool{
			"P": true,
			"A": false,
		},
	}
}

func (o NormalizeOptions) dropZeroSessions(schema Schema) bool {
	if o.DropZeroSessions != nil {
		return *o.DropZeroSessions
	}
	return schema == AggregatedSchema
}

// Normalize cleans a parsed table: excluded courses and the non-degree major
// are dropped, major aliases are collapsed, presence codes are mapped to
// booleans, and (per configuration) zero-session rows are removed. The input
// table is not mutated.
func Normalize(t *Table, opts NormalizeOptions) (*Table, error) {
	excluded := make(map[string]struct{}, len(opts.ExcludedCourses))
	for _, name := range opts.ExcludedCourses {
		excluded[name] = struct{}{}
	}
	dropZero := opts.dropZeroSessions(t.Schema)

	out := &Table{Schema: t.Schema, Records: make([]Record, 0, len(t.Records))}
	for _, rec := range t.Records {
		if _, skip := excluded[rec.CourseName]; skip {
			continue
		}
		if rec.Major == opts.ExcludedMajor {
			continue
		}
		if dropZero && rec.SessionDone == 0 {
			continue
		}
		if alias, ok := opts.MajorAliases[rec.Major]; ok {
			rec.Major = alias
		}
		if t.Schema == SessionLevelSchema {
			present, ok := opts.PresenceCodes[rec.PresenceCode]
			if !ok {
				return nil, utils.InvalidData("unrecognized presence code %q for student %d", rec.PresenceCode, rec.StudentID)
			}
			rec.Present = &present
			rec.PresenceCode = ""
		}
		out.Records = append(out.Records, rec)
	}
	return out, nil
}

// Rollup collapses session-level rows into the aggregated shape so the rest
// of the pipeline works on one variant. Rows group by (student, course code,
// component); each session contributes one SessionDone and absent sessions
// increment TotalAbsence. Aggregated tables pass through unchanged.
func Rollup(t *Table) *Table {
	if t.Schema != SessionLevelSchema {
		return t
	}

	type groupKey struct {
		nim       int
		course    string
		component string
	}
	index := make(map[groupKey]int)
	out := &Table{Schema: AggregatedSchema}

	for _, rec := range t.Records {
		key := groupKey{rec.StudentID, rec.CourseCode, rec.Component}
		idx, ok := index[key]
		if !ok {
			merged := rec
			merged.SessionDone = 0
			merged.TotalAbsence = 0
			merged.Present = nil
			index[key] = len(out.Records)
			out.Records = append(out.Records, merged)
			idx = index[key]
		}
		out.Records[idx].SessionDone++
		if rec.Present != nil && !*rec.Present {
			out.Records[idx].TotalAbsence++
		}
	}
	return out
}
