package compiler

import (
	"sort"

	"github.com/verascope/verascope/internal/domain"
)

// mergeAndOverlay combines every selected bundle's obligations into one map
// keyed by obligation_code, then applies every bundle's overlays in the
// order (jurisdiction_code ascending, op_index ascending) — deterministic
// regardless of bundle authoring order, per spec §4.6 step 2.
func mergeAndOverlay(bundles []*domain.Bundle) (map[string]domain.Obligation, []domain.ExcludedObligation) {
	obligations := make(map[string]domain.Obligation)
	var overlays []domain.Overlay

	for _, b := range bundles {
		for _, o := range b.Obligations {
			obligations[o.ObligationCode] = o
		}
		overlays = append(overlays, b.Overlays...)
	}

	sort.SliceStable(overlays, func(i, j int) bool {
		if overlays[i].JurisdictionCode != overlays[j].JurisdictionCode {
			return overlays[i].JurisdictionCode < overlays[j].JurisdictionCode
		}
		return overlays[i].OpIndex < overlays[j].OpIndex
	})

	var excluded []domain.ExcludedObligation
	for _, ov := range overlays {
		switch ov.Op {
		case domain.OverlayAdd:
			if ov.Obligation != nil {
				obligations[ov.Obligation.ObligationCode] = *ov.Obligation
			}
		case domain.OverlayModify:
			if existing, ok := obligations[ov.ObligationCode]; ok {
				obligations[ov.ObligationCode] = applyModifyFields(existing, ov.Fields)
			}
		case domain.OverlayDisable:
			if _, ok := obligations[ov.ObligationCode]; ok {
				delete(obligations, ov.ObligationCode)
				excluded = append(excluded, domain.ExcludedObligation{
					ObligationCode: ov.ObligationCode,
					Reason:         domain.ExclusionOverlay,
					Detail:         ov.Reason,
				})
			}
		}
	}

	return obligations, excluded
}

// applyModifyFields replaces named fields on an obligation. Only the fields
// an overlay is allowed to modify are recognized; unknown keys, and known
// keys whose value has the wrong type, are ignored rather than erroring.
// bundle.Validate does not check the field names of a modify overlay.
func applyModifyFields(o domain.Obligation, fields map[string]any) domain.Obligation {
	if title, ok := fields["title"].(string); ok {
		o.Title = title
	}
	if standard, ok := fields["standard"].(string); ok {
		o.Standard = standard
	}
	if mandatory, ok := fields["mandatory"].(bool); ok {
		o.Mandatory = mandatory
	}
	if appExpr, ok := fields["applicability_expr"].(string); ok {
		o.ApplicabilityExpr = appExpr
	}
	return o
}
