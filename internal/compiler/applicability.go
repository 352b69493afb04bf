package compiler

import (
	"errors"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/expr"
)

// evaluateApplicability evaluates each obligation's applicability_expr, then
// each surviving obligation's datapoints' phase_in_rule, against evalCtx.
func evaluateApplicability(obligations map[string]domain.Obligation, evalCtx expr.Context) (
	applicable []domain.Obligation,
	phaseInFlags map[string]bool,
	excludedDatapoints []domain.ExcludedDatapoint,
	excludedObligations []domain.ExcludedObligation,
) {
	phaseInFlags = make(map[string]bool)

	for _, o := range obligations {
		ok, reason, detail := evaluateExpr(o.ApplicabilityExpr, evalCtx)
		if !ok {
			if reason != "" {
				excludedObligations = append(excludedObligations, domain.ExcludedObligation{
					ObligationCode: o.ObligationCode,
					Reason:         reason,
					Detail:         detail,
				})
			}
			continue
		}

		kept := o
		kept.Datapoints = nil
		for _, d := range o.Datapoints {
			rule := ""
			if d.PhaseInRule != nil {
				rule = *d.PhaseInRule
			}
			phaseOK, phaseReason, phaseDetail := evaluateExpr(rule, evalCtx)
			if rule != "" {
				phaseInFlags[d.DatapointKey] = phaseOK
			}
			if !phaseOK {
				r := phaseReason
				if r == "" || r == domain.ExclusionNotApplicable {
					r = domain.ExclusionPhaseIn
				}
				excludedDatapoints = append(excludedDatapoints, domain.ExcludedDatapoint{
					ObligationCode: o.ObligationCode,
					DatapointKey:   d.DatapointKey,
					Reason:         r,
					Detail:         phaseDetail,
				})
				continue
			}
			kept.Datapoints = append(kept.Datapoints, d)
		}
		applicable = append(applicable, kept)
	}

	return applicable, phaseInFlags, excludedDatapoints, excludedObligations
}

// evaluateExpr evaluates expression against ctx. An empty expression is
// always applicable. UNKNOWN_SYMBOL is reported as an explicit exclusion
// reason rather than propagated as a hard error, per §4.7.
func evaluateExpr(expression string, ctx expr.Context) (ok bool, reason domain.ExclusionReason, detail string) {
	result, err := expr.Evaluate(expression, ctx)
	if err == nil {
		if !result {
			return false, domain.ExclusionNotApplicable, expression
		}
		return true, "", ""
	}

	var unknown *expr.UnknownSymbolError
	if errors.As(err, &unknown) {
		return false, domain.ExclusionUnknownSymbol, unknown.Error()
	}
	return false, domain.ExclusionNotApplicable, err.Error()
}
