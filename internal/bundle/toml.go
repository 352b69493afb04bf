package bundle

import "github.com/verascope/verascope/internal/domain"

// tomlBundle is the on-disk authoring schema for a regulatory bundle. It
// mirrors domain.Bundle field-for-field but uses TOML tags and the flatter
// shape that hand-editing favors; ParseFile converts it to domain.Bundle.
type tomlBundle struct {
	Regime       string           `toml:"regime"`
	BundleID     string           `toml:"bundle_id"`
	Version      string           `toml:"version"`
	Jurisdiction string           `toml:"jurisdiction"`
	Obligations  []tomlObligation `toml:"obligations"`
	Overlays     []tomlOverlay    `toml:"overlays,omitempty"`
}

type tomlObligation struct {
	ObligationCode    string          `toml:"obligation_code"`
	Standard          string          `toml:"standard"`
	Title             string          `toml:"title"`
	Mandatory         bool            `toml:"mandatory,omitempty"`
	ApplicabilityExpr string          `toml:"applicability_expr,omitempty"`
	Datapoints        []tomlDatapoint `toml:"datapoints"`
}

type tomlDatapoint struct {
	DatapointKey     string `toml:"datapoint_key"`
	Title            string `toml:"title"`
	DisclosureRef    string `toml:"disclosure_ref"`
	DatapointType    string `toml:"datapoint_type"`
	RequiresBaseline bool   `toml:"requires_baseline,omitempty"`
	PhaseInRule      string `toml:"phase_in_rule,omitempty"`
}

type tomlOverlay struct {
	JurisdictionCode string          `toml:"jurisdiction_code"`
	OpIndex          int             `toml:"op_index"`
	Op               string          `toml:"op"`
	ObligationCode   string          `toml:"obligation_code"`
	Obligation       *tomlObligation `toml:"obligation,omitempty"`
	Fields           map[string]any  `toml:"fields,omitempty"`
	Reason           string          `toml:"reason,omitempty"`
}

func (t *tomlBundle) toDomain() *domain.Bundle {
	b := &domain.Bundle{
		Regime:       t.Regime,
		BundleID:     t.BundleID,
		Version:      t.Version,
		Jurisdiction: t.Jurisdiction,
	}
	for _, o := range t.Obligations {
		b.Obligations = append(b.Obligations, o.toDomain())
	}
	for _, ov := range t.Overlays {
		b.Overlays = append(b.Overlays, ov.toDomain())
	}
	return b
}

func (t *tomlObligation) toDomain() domain.Obligation {
	o := domain.Obligation{
		ObligationCode:    t.ObligationCode,
		Standard:          t.Standard,
		Title:             t.Title,
		Mandatory:         t.Mandatory,
		ApplicabilityExpr: t.ApplicabilityExpr,
	}
	for _, d := range t.Datapoints {
		o.Datapoints = append(o.Datapoints, d.toDomain())
	}
	return o
}

func (t *tomlDatapoint) toDomain() domain.Datapoint {
	d := domain.Datapoint{
		DatapointKey:     t.DatapointKey,
		Title:            t.Title,
		DisclosureRef:    t.DisclosureRef,
		DatapointType:    domain.DatapointType(t.DatapointType),
		RequiresBaseline: t.RequiresBaseline,
	}
	if t.PhaseInRule != "" {
		rule := t.PhaseInRule
		d.PhaseInRule = &rule
	}
	return d
}

func (t *tomlOverlay) toDomain() domain.Overlay {
	ov := domain.Overlay{
		JurisdictionCode: t.JurisdictionCode,
		OpIndex:          t.OpIndex,
		Op:               domain.OverlayOp(t.Op),
		ObligationCode:   t.ObligationCode,
		Fields:           t.Fields,
		Reason:           t.Reason,
	}
	if t.Obligation != nil {
		obl := t.Obligation.toDomain()
		ov.Obligation = &obl
	}
	return ov
}
