// Package coverage rolls up per-datapoint assessments into the
// Full/Partial/Absent/NA obligation coverage matrix of spec §3/§4.13.
// Sections are derived from the plan itself: a standard with no obligation
// in the plan gets no section, so an empty section is never emitted.
package coverage

import (
	"sort"

	"github.com/verascope/verascope/internal/domain"
)

// Build computes the coverage matrix for plan from the run's persisted
// assessments. It emits one row per obligation that has at least one entry
// in plan.Datapoints, grouped by Standard, and one section per standard
// that has such a row, sorted by standard; no empty section is emitted.
func Build(plan *domain.CompiledPlan, assessments []*domain.Assessment) *domain.CoverageMatrix {
	statusByKey := make(map[string]domain.AssessmentStatus, len(assessments))
	for _, a := range assessments {
		statusByKey[a.DatapointKey] = a.Status
	}

	rowByObligation := make(map[string]domain.ObligationCoverage)
	standardOf := make(map[string]string)
	order := make([]string, 0)

	seen := make(map[string]bool)
	for _, pd := range plan.Datapoints {
		if !seen[pd.ObligationCode] {
			seen[pd.ObligationCode] = true
			order = append(order, pd.ObligationCode)
		}
	}

	obligationByCode := make(map[string]domain.Obligation)
	for _, o := range plan.Obligations {
		obligationByCode[o.ObligationCode] = o
		standardOf[o.ObligationCode] = o.Standard
	}

	for _, code := range order {
		obligation := obligationByCode[code]
		rowByObligation[code] = domain.ObligationCoverage{
			PlanHash:       plan.PlanHash,
			ObligationCode: code,
			Standard:       obligation.Standard,
			Level:          rollup(obligation, statusByKey),
		}
	}

	sections := make(map[string]*domain.StandardSection)
	var standardOrder []string
	for _, code := range order {
		standard := standardOf[code]
		section, ok := sections[standard]
		if !ok {
			section = &domain.StandardSection{Standard: standard}
			sections[standard] = section
			standardOrder = append(standardOrder, standard)
		}
		section.Rows = append(section.Rows, rowByObligation[code])
	}
	sort.Strings(standardOrder)

	matrix := &domain.CoverageMatrix{PlanHash: plan.PlanHash}
	for _, standard := range standardOrder {
		section := sections[standard]
		sort.Slice(section.Rows, func(i, j int) bool {
			return section.Rows[i].ObligationCode < section.Rows[j].ObligationCode
		})
		section.Empty = len(section.Rows) == 0
		matrix.Sections = append(matrix.Sections, *section)
	}
	return matrix
}

// rollup computes one obligation's coverage level: Full iff every
// mandatory datapoint is Present, Partial iff at least one is Present but
// not all, Absent iff none are Present, NA iff the obligation has no
// mandatory datapoints (or isn't mandatory at all).
func rollup(obligation domain.Obligation, statusByKey map[string]domain.AssessmentStatus) domain.CoverageLevel {
	if !obligation.Mandatory {
		return domain.CoverageNA
	}

	total, present := 0, 0
	for _, dp := range obligation.Datapoints {
		total++
		if statusByKey[dp.DatapointKey] == domain.StatusPresent {
			present++
		}
	}
	switch {
	case total == 0:
		return domain.CoverageNA
	case present == total:
		return domain.CoverageFull
	case present > 0:
		return domain.CoveragePartial
	default:
		return domain.CoverageAbsent
	}
}
