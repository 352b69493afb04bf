package domain

// CoverageLevel is the rolled-up compliance status for one obligation.
type CoverageLevel string

const (
	CoverageFull    CoverageLevel = "Full"
	CoveragePartial CoverageLevel = "Partial"
	CoverageAbsent  CoverageLevel = "Absent"
	CoverageNA      CoverageLevel = "NA"
)

// ObligationCoverage is the rolled-up verdict for one obligation within one
// compiled plan.
type ObligationCoverage struct {
	PlanHash       string
	ObligationCode string
	Standard       string
	Level          CoverageLevel
}

// StandardSection groups obligation coverage rows under one standard/topic.
// Empty reports whether Rows is empty; coverage.Build only emits sections
// that have at least one row.
type StandardSection struct {
	Standard string
	Rows     []ObligationCoverage
	Empty    bool
}

// CoverageMatrix is the full, section-complete rendering of coverage for one
// compiled plan.
type CoverageMatrix struct {
	PlanHash string
	Sections []StandardSection
}
