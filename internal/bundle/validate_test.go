package bundle

import (
	"testing"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/verrors"
)

func validBundle() *domain.Bundle {
	return &domain.Bundle{
		Regime:       "CSRD",
		BundleID:     "esrs_mini",
		Version:      "1.0.0",
		Jurisdiction: "*",
		Obligations: []domain.Obligation{
			{
				ObligationCode: "E1-6",
				Standard:       "E1",
				Title:          "Gross Scopes 1, 2, 3 GHG emissions",
				Mandatory:      true,
				Datapoints: []domain.Datapoint{
					{DatapointKey: "e1-6-scope1", Title: "Scope 1 emissions", DatapointType: domain.DatapointMetric},
				},
			},
		},
	}
}

func TestValidate_RejectsMissingRequiredFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*domain.Bundle)
	}{
		{"regime", func(b *domain.Bundle) { b.Regime = "" }},
		{"bundle_id", func(b *domain.Bundle) { b.BundleID = "" }},
		{"version", func(b *domain.Bundle) { b.Version = "" }},
		{"jurisdiction", func(b *domain.Bundle) { b.Jurisdiction = "" }},
		{"obligations", func(b *domain.Bundle) { b.Obligations = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := validBundle()
			tc.mutate(b)
			if err := Validate(b); err == nil {
				t.Fatalf("Validate() = nil, want error for missing %s", tc.name)
			} else if verrors.KindOf(err) != verrors.KindValidation {
				t.Errorf("KindOf(err) = %v, want VALIDATION", verrors.KindOf(err))
			}
		})
	}
}

func TestValidate_RejectsUnknownDatapointType(t *testing.T) {
	b := validBundle()
	b.Obligations[0].Datapoints[0].DatapointType = "bogus"
	if err := Validate(b); err == nil {
		t.Fatal("Validate() = nil, want error for unknown datapoint_type")
	}
}

func TestValidate_RejectsNonWhitelistedApplicabilitySymbol(t *testing.T) {
	b := validBundle()
	b.Obligations[0].ApplicabilityExpr = "company.secret_field > 10"
	if err := Validate(b); err == nil {
		t.Fatal("Validate() = nil, want error for non-whitelisted symbol")
	}
}

func TestValidate_AcceptsWhitelistedApplicabilitySymbol(t *testing.T) {
	b := validBundle()
	b.Obligations[0].ApplicabilityExpr = "company.employees > 250 && company.listed_status == \"listed\""
	if err := Validate(b); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_RejectsOverlayTargetingNonExistentObligation(t *testing.T) {
	b := validBundle()
	b.Overlays = []domain.Overlay{
		{JurisdictionCode: "DE", OpIndex: 0, Op: domain.OverlayDisable, ObligationCode: "does-not-exist", Reason: "test"},
	}
	if err := Validate(b); err == nil {
		t.Fatal("Validate() = nil, want error for overlay targeting unknown obligation")
	}
}

func TestValidate_AllowsOverlayAddingNewObligation(t *testing.T) {
	b := validBundle()
	b.Overlays = []domain.Overlay{
		{
			JurisdictionCode: "DE",
			OpIndex:          0,
			Op:               domain.OverlayAdd,
			ObligationCode:   "DE-1",
			Obligation:       &domain.Obligation{ObligationCode: "DE-1", Standard: "Cross-cutting", Title: "German addendum"},
		},
	}
	if err := Validate(b); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
}
