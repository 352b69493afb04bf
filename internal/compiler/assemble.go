package compiler

import (
	"sort"

	"github.com/verascope/verascope/internal/canonical"
	"github.com/verascope/verascope/internal/domain"
)

// assemble orders obligations lexicographically by obligation_code and
// flattens their datapoints (ordered first by obligation order, then by
// datapoint_key) into plan, per spec §4.6 step 5.
func assemble(plan *domain.CompiledPlan, applicable []domain.Obligation) {
	sort.Slice(applicable, func(i, j int) bool {
		return applicable[i].ObligationCode < applicable[j].ObligationCode
	})

	plan.Obligations = applicable

	for _, o := range applicable {
		datapoints := append([]domain.Datapoint(nil), o.Datapoints...)
		sort.Slice(datapoints, func(i, j int) bool {
			return datapoints[i].DatapointKey < datapoints[j].DatapointKey
		})
		for _, d := range datapoints {
			plan.Datapoints = append(plan.Datapoints, domain.PlanDatapoint{
				ObligationCode: o.ObligationCode,
				Datapoint:      d,
			})
		}
	}
}

// deriveCohort classifies the company profile into a reporting cohort.
// This is a simplified CSRD-style heuristic (large-undertaking vs
// listed-sme vs other) derived from the profile; it is never hashed
// separately into plan_hash since it carries no regulatory weight of its
// own — it only annotates the plan for display.
func deriveCohort(p *domain.CompanyProfile) string {
	const largeUndertakingEmployees = 250
	const largeUndertakingTurnoverEUR = 40_000_000

	switch {
	case p.Employees > largeUndertakingEmployees || p.TurnoverEUR > largeUndertakingTurnoverEUR:
		return "large-undertaking"
	case p.ListedStatus:
		return "listed-sme"
	default:
		return "other"
	}
}

// planHashPayload is the checksummed portion of a CompiledPlan. Permuting
// obligation authoring order inside a bundle never changes this payload
// since Obligations/Datapoints are already canonically sorted by assemble;
// changing an applicability rule (and thus which obligations/datapoints
// survive) always does.
type planHashPayload struct {
	CompanyID     string                 `json:"company_id"`
	ReportingYear int                    `json:"reporting_year"`
	BundleRefs    []domain.BundleRef     `json:"bundle_refs"`
	Obligations   []domain.Obligation    `json:"obligations"`
	Datapoints    []domain.PlanDatapoint `json:"datapoints"`
}

func computePlanHash(plan *domain.CompiledPlan) (string, error) {
	// A bundle checksum covers its obligations in authoring order, so only
	// the (bundle_id, version) identity of each ref enters the payload; the
	// resolved obligations and datapoints carry the content.
	refs := make([]domain.BundleRef, len(plan.BundleRefs))
	for i, r := range plan.BundleRefs {
		refs[i] = domain.BundleRef{BundleID: r.BundleID, Version: r.Version}
	}
	payload := planHashPayload{
		CompanyID:     plan.CompanyID,
		ReportingYear: plan.ReportingYear,
		BundleRefs:    refs,
		Obligations:   plan.Obligations,
		Datapoints:    plan.Datapoints,
	}
	return canonical.Checksum(payload)
}
