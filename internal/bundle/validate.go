package bundle

import (
	"fmt"
	"regexp"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/expr"
	"github.com/verascope/verascope/internal/verrors"
)

const (
	CodeMissingField   = "BUNDLE_MISSING_FIELD"
	CodeUnknownEnum    = "BUNDLE_UNKNOWN_ENUM"
	CodeUnknownSymbol  = "BUNDLE_UNKNOWN_SYMBOL"
	CodeUnknownOverlay = "BUNDLE_OVERLAY_TARGET_MISSING"
)

// identifierPattern matches dotted identifiers, e.g. "company.employees".
var identifierPattern = regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)+`)

// Validate rejects a bundle missing required fields, carrying unknown enum
// values, referencing non-whitelisted applicability names, or declaring
// overlays that target obligations absent from the bundle, per spec §4.5.
func Validate(b *domain.Bundle) error {
	if b.Regime == "" {
		return missingField("regime")
	}
	if b.BundleID == "" {
		return missingField("bundle_id")
	}
	if b.Version == "" {
		return missingField("version")
	}
	if b.Jurisdiction == "" {
		return missingField("jurisdiction")
	}
	if len(b.Obligations) == 0 {
		return missingField("obligations")
	}

	known := make(map[string]bool, len(b.Obligations))
	for _, o := range b.Obligations {
		if o.ObligationCode == "" {
			return missingField("obligations[].obligation_code")
		}
		known[o.ObligationCode] = true

		if err := validateWhitelistedExpr("applicability_expr", o.ApplicabilityExpr); err != nil {
			return err
		}
		for _, d := range o.Datapoints {
			if d.DatapointKey == "" {
				return missingField(fmt.Sprintf("obligations[%s].datapoints[].datapoint_key", o.ObligationCode))
			}
			if !d.DatapointType.IsValid() {
				return unknownEnum("datapoint_type", string(d.DatapointType))
			}
			if d.PhaseInRule != nil {
				if err := validateWhitelistedExpr("phase_in_rule", *d.PhaseInRule); err != nil {
					return err
				}
			}
		}
	}

	for _, ov := range b.Overlays {
		if !isValidOverlayOp(ov.Op) {
			return unknownEnum("overlay.op", string(ov.Op))
		}
		if ov.Op != domain.OverlayAdd && !known[ov.ObligationCode] {
			return verrors.New(verrors.KindValidation, CodeUnknownOverlay,
				fmt.Sprintf("overlay targets non-existent obligation %q", ov.ObligationCode))
		}
		if ov.Op == domain.OverlayAdd && ov.Obligation != nil {
			known[ov.Obligation.ObligationCode] = true
		}
	}

	return nil
}

func isValidOverlayOp(op domain.OverlayOp) bool {
	return op == domain.OverlayAdd || op == domain.OverlayModify || op == domain.OverlayDisable
}

func validateWhitelistedExpr(field, expression string) error {
	if expression == "" {
		return nil
	}
	for _, match := range identifierPattern.FindAllString(expression, -1) {
		if !expr.WhitelistedIdentifiers[match] {
			return verrors.New(verrors.KindValidation, CodeUnknownSymbol,
				fmt.Sprintf("%s references unknown symbol %q", field, match))
		}
	}
	return nil
}

func missingField(name string) error {
	return verrors.New(verrors.KindValidation, CodeMissingField,
		fmt.Sprintf("bundle missing required field %q", name))
}

func unknownEnum(field, value string) error {
	return verrors.New(verrors.KindValidation, CodeUnknownEnum,
		fmt.Sprintf("%s has unknown value %q", field, value))
}
