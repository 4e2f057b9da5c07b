package standing

// SCU threshold separating the extension track from the resignation/DO track.
const scuThreshold = 42

// Deduction magnitudes applied to accumulated SCU before rule evaluation.
const (
	deductionNone  = 0
	deductionHalf  = 8
	deductionWhole = 16
)

// ActionClassification is the outcome for one admission record at one
// evaluation period.
type ActionClassification struct {
	StudentID     int    `json:"nim"`
	FullName      string `json:"name"`
	Program       string `json:"program"`
	ProgramStatus string `json:"status"`
	AdmitTerm     string `json:"admit_term"`
	PDPTIntake    string `json:"pdpt_intake"`
	DeductedSCU   *int   `json:"deducted_scu,omitempty"`
	Action        string `json:"action"`
	Rule          string `json:"rule"`
}

// admitOffset is the whole-period distance between the admit period and the
// evaluation period in the record's own calendar (PDPT when present).
func admitOffset(rec AdmissionRecord, eval Term) int {
	admit := rec.AdmitTerm
	if rec.PDPTIntake != nil {
		admit = *rec.PDPTIntake
	}
	offset := 0
	cursor := admit
	for cursor.Compare(eval) < 0 && offset <= 2 {
		cursor = cursor.NextPeriod()
		offset++
	}
	return offset
}

// DeductSCU computes the study-period deduction applied before rule matching.
// Leave-of-absence students admitted in (or one period before) the evaluated
// period lose a full or half deduction; active students under the SCU
// threshold admitted in the evaluated period lose a half deduction.
func DeductSCU(rec AdmissionRecord, eval Term) int {
	if rec.TotalSCU == nil {
		return deductionNone
	}
	offset := admitOffset(rec, eval)

	if rec.ProgramStatus == StatusLeaveOfAbsence {
		switch offset {
		case 0:
			return deductionWhole
		case 1:
			return deductionHalf
		}
		return deductionNone
	}
	if *rec.TotalSCU < scuThreshold && offset == 0 {
		return deductionHalf
	}
	return deductionNone
}

// ruleContext carries everything a predicate may inspect.
type ruleContext struct {
	eval    Term
	binus   Deadlines
	pdpt    *Deadlines
	scu     *int // after deduction
	hasPDPT bool
}

type rule struct {
	name  string
	match func(ruleContext) bool
	label string
}

func scuAtLeast(ctx ruleContext, n int) bool {
	return ctx.scu != nil && *ctx.scu >= n
}

func scuBelow(ctx ruleContext, n int) bool {
	return ctx.scu != nil && *ctx.scu < n
}

func atPDPT(ctx ruleContext, pick func(Deadlines) Term) bool {
	return ctx.hasPDPT && ctx.eval.Compare(pick(*ctx.pdpt)) == 0
}

func at(ctx ruleContext, pick func(Deadlines) Term) bool {
	return ctx.eval.Compare(pick(ctx.binus)) == 0
}

func base(d Deadlines) Term      { return d.Base }
func firstExt(d Deadlines) Term  { return d.FirstExt }
func secondExt(d Deadlines) Term { return d.SecondExt }

// classificationRules is the ordered rule set; the first matching rule wins,
// so PDPT-calendar rules sit ahead of the native-calendar rule for the same
// checkpoint and reordering entries changes behavior.
var classificationRules = []rule{
	{"base-pdpt-ok", func(c ruleContext) bool { return scuAtLeast(c, scuThreshold) && atPDPT(c, base) }, "Confirm with operation (PDPT)"},
	{"base-ok", func(c ruleContext) bool { return scuAtLeast(c, scuThreshold) && at(c, base) }, "Confirm with operation"},
	{"base-pdpt-low", func(c ruleContext) bool { return scuBelow(c, scuThreshold) && atPDPT(c, base) }, "Recommend for resignation (PDPT)"},
	{"base-low", func(c ruleContext) bool { return scuBelow(c, scuThreshold) && at(c, base) }, "Recommend for resignation"},
	{"first-ext-pdpt-ok", func(c ruleContext) bool { return scuAtLeast(c, scuThreshold) && atPDPT(c, firstExt) }, "1st Extension (PDPT)"},
	{"first-ext-ok", func(c ruleContext) bool { return scuAtLeast(c, scuThreshold) && at(c, firstExt) }, "1st Extension"},
	{"first-ext-pdpt-low", func(c ruleContext) bool { return scuBelow(c, scuThreshold) && atPDPT(c, firstExt) }, "Add to DO list (PDPT)"},
	{"first-ext-low", func(c ruleContext) bool { return scuBelow(c, scuThreshold) && at(c, firstExt) }, "Add to DO list"},
	{"second-ext-pdpt-ok", func(c ruleContext) bool { return scuAtLeast(c, scuThreshold) && atPDPT(c, secondExt) }, "2nd Extension (PDPT)"},
	{"second-ext-ok", func(c ruleContext) bool { return scuAtLeast(c, scuThreshold) && at(c, secondExt) }, "2nd Extension"},
	{"second-ext-pdpt-low", func(c ruleContext) bool { return scuBelow(c, scuThreshold) && atPDPT(c, secondExt) }, "Add to DO list (PDPT)"},
	{"second-ext-low", func(c ruleContext) bool { return scuBelow(c, scuThreshold) && at(c, secondExt) }, "Add to DO list"},
	{"past-second-pdpt", func(c ruleContext) bool {
		return c.scu != nil && c.hasPDPT && c.eval.Compare(c.pdpt.SecondExt) > 0
	}, "Add to DO list (PDPT)"},
	{"past-second", func(c ruleContext) bool {
		return c.scu != nil && c.eval.Compare(c.binus.SecondExt) > 0
	}, "Add to DO list"},
	{"no-scu-base-pdpt", func(c ruleContext) bool { return c.scu == nil && atPDPT(c, base) }, "DO depends on SCU in this period (PDPT)"},
	{"no-scu-base", func(c ruleContext) bool { return c.scu == nil && at(c, base) }, "DO depends on SCU in this period"},
	{"no-scu-past-base", func(c ruleContext) bool {
		return c.scu == nil && c.eval.Compare(c.binus.Base) > 0
	}, "DO depends on SCU in this period"},
}

// noPDPTSuffix marks labels of records that have no alternate-calendar data
// and therefore need a manual check against the operation team's calendar.
const noPDPTSuffix = " (confirm with operation)"

// Classify evaluates one record against the ordered rule set. The boolean is
// false when no rule matches; such records are excluded from output.
func Classify(rec AdmissionRecord, eval Term) (ActionClassification, bool) {
	ctx := ruleContext{
		eval:    eval,
		binus:   StudyDeadlines(rec.AdmitTerm),
		hasPDPT: rec.HasPDPT(),
	}
	if rec.PDPTIntake != nil {
		d := StudyDeadlines(*rec.PDPTIntake)
		ctx.pdpt = &d
	}
	if rec.TotalSCU != nil {
		deducted := *rec.TotalSCU - DeductSCU(rec, eval)
		ctx.scu = &deducted
	}

	for _, r := range classificationRules {
		if !r.match(ctx) {
			continue
		}
		label := r.label
		if !ctx.hasPDPT {
			label += noPDPTSuffix
		}
		out := ActionClassification{
			StudentID:     rec.StudentID,
			FullName:      rec.FullName,
			Program:       rec.Program,
			ProgramStatus: rec.ProgramStatus,
			AdmitTerm:     rec.AdmitTerm.EncodeBinus(),
			PDPTIntake:    NoPDPT,
			DeductedSCU:   ctx.scu,
			Action:        label,
			Rule:          r.name,
		}
		if rec.PDPTIntake != nil {
			out.PDPTIntake = rec.PDPTIntake.EncodePDPT()
		}
		return out, true
	}
	return ActionClassification{}, false
}

// ClassifyBatch classifies every record at the evaluation period, dropping
// the ones no rule matches.
func ClassifyBatch(records []AdmissionRecord, eval Term) []ActionClassification {
	out := make([]ActionClassification, 0, len(records))
	for _, rec := range records {
		if c, ok := Classify(rec, eval); ok {
			out = append(out, c)
		}
	}
	return out
}
