package orchestrator

import (
	"context"
	"os"
	"testing"

	"github.com/verascope/verascope/internal/bundle"
	"github.com/verascope/verascope/internal/compiler"
	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/extraction/provider"
	"github.com/verascope/verascope/internal/retrieval"
	"github.com/verascope/verascope/internal/storage/memory"
)

func seedBundle(t *testing.T, datapoints []domain.Datapoint) *domain.Bundle {
	t.Helper()
	b := &domain.Bundle{
		Regime:       "CSRD",
		BundleID:     "esrs_mini",
		Version:      "1.0.0",
		Jurisdiction: "*",
		Obligations: []domain.Obligation{
			{ObligationCode: "E1-6", Standard: "E1", Title: "GHG emissions", Mandatory: true, Datapoints: datapoints},
		},
	}
	if err := bundle.Stamp(b); err != nil {
		t.Fatalf("bundle.Stamp() error = %v", err)
	}
	return b
}

func baseProfile() *domain.CompanyProfile {
	return &domain.CompanyProfile{
		CompanyID:     "acme",
		Tenant:        "tenant-a",
		Employees:     500,
		TurnoverEUR:   100_000_000,
		ListedStatus:  true,
		ReportingYear: 2025,
		Jurisdictions: []string{"DE"},
	}
}

// harness bundles the in-memory stores and a built Orchestrator, wired with
// only the deterministic provider so extraction outcomes never depend on an
// external API key being present in the test environment.
type harness struct {
	opts    Options
	bundles *memory.BundleStore
	links   *memory.CompanyDocumentLinkStore
	chunks  *memory.ChunkStore
	runs    *memory.RunStore
	cache   *memory.RunCacheStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	for _, key := range []string{"ANTHROPIC_API_KEY", "GOOGLE_API_KEY", "GEMINI_API_KEY"} {
		old, had := os.LookupEnv(key)
		os.Unsetenv(key)
		if had {
			t.Cleanup(func() { os.Setenv(key, old) })
		}
	}

	bundles := memory.NewBundleStore()
	links := memory.NewCompanyDocumentLinkStore()
	chunks := memory.NewChunkStore()
	runs := memory.NewRunStore()
	cache := memory.NewRunCacheStore()

	retriever := retrieval.New(chunks, links, nil)
	factory := provider.NewFactory(context.Background(), "")

	h := &harness{bundles: bundles, links: links, chunks: chunks, runs: runs, cache: cache}
	h.opts = Options{
		Links:       links,
		Chunks:      chunks,
		Runs:        runs,
		Assessments: memory.NewAssessmentStore(),
		Diagnostics: memory.NewDiagnosticStore(),
		Coverage:    memory.NewCoverageStore(),
		Manifests:   memory.NewManifestStore(),
		RunCache:    cache,

		Compiler:        compiler.New(bundles),
		Retriever:       retriever,
		RetrievalParams: retrieval.DefaultParams(),
		ProviderFactory: factory,

		CompilerMode:          "standard",
		PromptTemplateVersion: "v1",
		CodeVersion:           "test",
		ReportTemplateVersion: "v1",
	}
	return h
}

func (h *harness) seedScope(t *testing.T, companyID string) {
	t.Helper()
	ctx := context.Background()
	const docHash = "doc-1"
	if err := h.links.Link(ctx, &domain.CompanyDocumentLink{Tenant: "tenant-a", CompanyID: companyID, DocHash: docHash}); err != nil {
		t.Fatalf("Link() error = %v", err)
	}
	if err := h.chunks.InsertBulk(ctx, []*domain.Chunk{
		{ChunkID: "chunk-1", DocHash: docHash, PageNumber: 1, StartOffset: 0, EndOffset: 40, Text: "Scope 1 emissions were 1200 tCO2e in 2025."},
	}); err != nil {
		t.Fatalf("InsertBulk() error = %v", err)
	}
}

func TestExecute_CompletesSuccessfullyWithDeterministicProvider(t *testing.T) {
	h := newHarness(t)
	b := seedBundle(t, []domain.Datapoint{{DatapointKey: "dp1", Title: "Scope 1 GHG emissions", DatapointType: domain.DatapointNarrative}})
	if err := h.bundles.Upsert(context.Background(), b); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	h.seedScope(t, "acme")

	orch, err := New(h.opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer orch.Close()

	refs := []domain.BundleRef{{BundleID: b.BundleID, Version: b.Version, Checksum: b.Checksum}}
	run, err := orch.Execute(context.Background(), "tenant-a", baseProfile(), 2025, refs)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if run.Status != domain.RunCompleted {
		t.Fatalf("Status = %q, want %q (reason: %s)", run.Status, domain.RunCompleted, run.FailureReason)
	}
	if run.RunHash == "" {
		t.Error("RunHash is empty, want a computed fingerprint")
	}

	stored, err := h.opts.Manifests.GetByRun(context.Background(), run.RunID)
	if err != nil {
		t.Fatalf("GetByRun() error = %v", err)
	}
	if stored.RunHash != run.RunHash {
		t.Errorf("manifest RunHash = %q, want %q", stored.RunHash, run.RunHash)
	}

	assessments, err := h.opts.Assessments.GetByRun(context.Background(), run.RunID)
	if err != nil {
		t.Fatalf("GetByRun() error = %v", err)
	}
	if len(assessments) != 1 || assessments[0].Status != domain.StatusAbsent {
		t.Fatalf("assessments = %+v, want one Absent datapoint (deterministic provider never finds evidence)", assessments)
	}
}

func TestExecute_EmptyChunkScopeFailsPreflight(t *testing.T) {
	h := newHarness(t)
	b := seedBundle(t, []domain.Datapoint{{DatapointKey: "dp1", Title: "Scope 1 GHG emissions", DatapointType: domain.DatapointNarrative}})
	if err := h.bundles.Upsert(context.Background(), b); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	// Company is linked to a document, but no chunks were ever indexed for it.
	if err := h.links.Link(context.Background(), &domain.CompanyDocumentLink{Tenant: "tenant-a", CompanyID: "acme", DocHash: "doc-1"}); err != nil {
		t.Fatalf("Link() error = %v", err)
	}

	orch, err := New(h.opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer orch.Close()

	refs := []domain.BundleRef{{BundleID: b.BundleID, Version: b.Version, Checksum: b.Checksum}}
	run, err := orch.Execute(context.Background(), "tenant-a", baseProfile(), 2025, refs)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if run.Status != domain.RunFailed {
		t.Fatalf("Status = %q, want %q", run.Status, domain.RunFailed)
	}
	if run.FailureReason == "" {
		t.Error("FailureReason is empty, want EMPTY_CORPUS explanation")
	}
}

func TestExecute_EmptyPlanFailsPreflight(t *testing.T) {
	h := newHarness(t)
	h.seedScope(t, "acme")

	// A bundle with zero obligations applicable to this profile: the
	// applicability expression can never be satisfied.
	b := &domain.Bundle{
		Regime:       "CSRD",
		BundleID:     "esrs_mini",
		Version:      "1.0.0",
		Jurisdiction: "*",
		Obligations: []domain.Obligation{
			{ObligationCode: "E1-6", Standard: "E1", Title: "GHG emissions", Mandatory: true,
				ApplicabilityExpr: "company.employees > 1000000",
				Datapoints:        []domain.Datapoint{{DatapointKey: "dp1", DatapointType: domain.DatapointNarrative}},
			},
		},
	}
	if err := bundle.Stamp(b); err != nil {
		t.Fatalf("bundle.Stamp() error = %v", err)
	}
	if err := h.bundles.Upsert(context.Background(), b); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	orch, err := New(h.opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer orch.Close()

	refs := []domain.BundleRef{{BundleID: b.BundleID, Version: b.Version, Checksum: b.Checksum}}
	run, err := orch.Execute(context.Background(), "tenant-a", baseProfile(), 2025, refs)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if run.Status != domain.RunFailed {
		t.Fatalf("Status = %q, want %q", run.Status, domain.RunFailed)
	}
}

func TestExecute_CacheHitShortCircuitsToCompleted(t *testing.T) {
	h := newHarness(t)
	b := seedBundle(t, []domain.Datapoint{{DatapointKey: "dp1", Title: "Scope 1 GHG emissions", DatapointType: domain.DatapointNarrative}})
	if err := h.bundles.Upsert(context.Background(), b); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	h.seedScope(t, "acme")

	orch, err := New(h.opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer orch.Close()

	refs := []domain.BundleRef{{BundleID: b.BundleID, Version: b.Version, Checksum: b.Checksum}}
	first, err := orch.Execute(context.Background(), "tenant-a", baseProfile(), 2025, refs)
	if err != nil {
		t.Fatalf("Execute() first run error = %v", err)
	}
	if first.Status != domain.RunCompleted {
		t.Fatalf("first run Status = %q, want %q", first.Status, domain.RunCompleted)
	}

	second, err := orch.Execute(context.Background(), "tenant-a", baseProfile(), 2025, refs)
	if err != nil {
		t.Fatalf("Execute() second run error = %v", err)
	}
	if second.Status != domain.RunCompleted {
		t.Fatalf("second run Status = %q, want %q", second.Status, domain.RunCompleted)
	}
	if second.RunHash != first.RunHash {
		t.Errorf("second run_hash = %q, want identical fingerprint %q", second.RunHash, first.RunHash)
	}
	if second.RunID == first.RunID {
		t.Error("second run reused the first run's RunID, want a distinct execution")
	}

	// The second run never reached iterate(), so nothing was ever persisted
	// under its own run_id — confirming the cache hit short-circuited before
	// any provider calls were made.
	assessments, err := h.opts.Assessments.GetByRun(context.Background(), second.RunID)
	if err != nil {
		t.Fatalf("GetByRun() error = %v", err)
	}
	if len(assessments) != 0 {
		t.Errorf("second run assessments = %+v, want none (cache hit skips iteration)", assessments)
	}
}

func TestExecute_NoIntegrityWarningWithoutVerificationFailures(t *testing.T) {
	h := newHarness(t)
	h.opts.IntegrityWarningThreshold = 0
	dps := []domain.Datapoint{
		{DatapointKey: "dp1", Title: "Scope 1 GHG emissions", DatapointType: domain.DatapointMetric, RequiresBaseline: false},
	}
	b := seedBundle(t, dps)
	if err := h.bundles.Upsert(context.Background(), b); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	h.seedScope(t, "acme")

	orch, err := New(h.opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer orch.Close()

	refs := []domain.BundleRef{{BundleID: b.BundleID, Version: b.Version, Checksum: b.Checksum}}
	run, err := orch.Execute(context.Background(), "tenant-a", baseProfile(), 2025, refs)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	// A zero threshold falls back to DefaultIntegrityWarningThreshold. The
	// deterministic provider always answers Absent with no failure reason
	// recorded, so the failure rate is zero and the run completes without
	// integrity_warning.
	if run.Status != domain.RunCompleted {
		t.Fatalf("Status = %q, want %q", run.Status, domain.RunCompleted)
	}
}
