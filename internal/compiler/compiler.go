// Package compiler builds a CompiledPlan for one (company profile,
// reporting year, selected bundles) triple: bundle selection, overlay
// application, applicability and phase-in evaluation, deterministic
// ordering, and plan_hash — the regulatory compiler of spec §4.6.
package compiler

import (
	"context"
	"fmt"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/expr"
	"github.com/verascope/verascope/internal/storage"
	"github.com/verascope/verascope/internal/verrors"
)

const CodeBundleChecksumMismatch = "BUNDLE_CHECKSUM_MISMATCH"

// Compiler produces CompiledPlans from the versioned bundle catalog.
type Compiler struct {
	bundles storage.BundleStore
}

// New creates a Compiler backed by bundles.
func New(bundles storage.BundleStore) *Compiler {
	return &Compiler{bundles: bundles}
}

// Compile resolves selectedBundles, applies their overlays, evaluates
// applicability and phase-in against profile at reportingYear, and returns
// the ordered, hashed CompiledPlan. It fails with an EMPTY_PLAN error
// (verrors.KindEmptyPlan) if selectedBundles is non-empty but the result
// contains zero applicable obligations — the plan must never be a silent
// vacuous pass.
func (c *Compiler) Compile(ctx context.Context, profile *domain.CompanyProfile, reportingYear int, selectedBundles []domain.BundleRef) (*domain.CompiledPlan, error) {
	if len(selectedBundles) == 0 {
		selectedBundles = profile.SelectedBundleRefs
	}

	bundles, err := c.resolveBundles(ctx, selectedBundles)
	if err != nil {
		return nil, err
	}

	obligations, excluded := mergeAndOverlay(bundles)

	evalCtx := expr.CompanyContext(profile)
	evalCtx["company.reporting_year"] = float64(reportingYear)

	applicable, phaseInFlags, excludedDatapoints, excludedObligations := evaluateApplicability(obligations, evalCtx)
	excluded = append(excluded, excludedObligations...)

	plan := &domain.CompiledPlan{
		CompanyID:          profile.CompanyID,
		ReportingYear:      reportingYear,
		Cohort:             deriveCohort(profile),
		PhaseInFlags:       phaseInFlags,
		BundleRefs:         selectedBundles,
		Excluded:           excluded,
		ExcludedDatapoints: excludedDatapoints,
	}

	assemble(plan, applicable)

	if len(selectedBundles) > 0 && len(plan.Obligations) == 0 {
		return nil, verrors.New(verrors.KindEmptyPlan, "EMPTY_PLAN",
			fmt.Sprintf("company %s is in scope for %d bundle(s) but zero obligations are applicable", profile.CompanyID, len(selectedBundles)))
	}

	planHash, err := computePlanHash(plan)
	if err != nil {
		return nil, fmt.Errorf("compiler: compute plan_hash: %w", err)
	}
	plan.PlanHash = planHash

	return plan, nil
}

func (c *Compiler) resolveBundles(ctx context.Context, refs []domain.BundleRef) ([]*domain.Bundle, error) {
	out := make([]*domain.Bundle, 0, len(refs))
	for _, ref := range refs {
		b, err := c.bundles.Get(ctx, ref.BundleID, ref.Version)
		if err != nil {
			return nil, fmt.Errorf("compiler: resolve bundle %s@%s: %w", ref.BundleID, ref.Version, err)
		}
		if ref.Checksum != "" && b.Checksum != ref.Checksum {
			return nil, verrors.New(verrors.KindIntegrity, CodeBundleChecksumMismatch,
				fmt.Sprintf("bundle %s@%s checksum %s does not match selected checksum %s", ref.BundleID, ref.Version, b.Checksum, ref.Checksum))
		}
		out = append(out, b)
	}
	return out, nil
}
