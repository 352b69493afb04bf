// Package orchestrator drives one run of the assessment pipeline end to
// end: compile the plan, check the run-hash cache, retrieve/extract/verify
// every datapoint in plan order, persist, roll up coverage, and write the
// manifest — the state machine of spec §4.10.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verascope/verascope/internal/compiler"
	"github.com/verascope/verascope/internal/coverage"
	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/extraction"
	"github.com/verascope/verascope/internal/extraction/provider"
	"github.com/verascope/verascope/internal/manifest"
	"github.com/verascope/verascope/internal/retrieval"
	"github.com/verascope/verascope/internal/runcache"
	"github.com/verascope/verascope/internal/storage"
	"github.com/verascope/verascope/internal/verification"
	"github.com/verascope/verascope/internal/verrors"
)

// DefaultIntegrityWarningThreshold is the fraction of datapoints carrying a
// verification failure above which a completed run is marked
// integrity_warning instead of completed.
const DefaultIntegrityWarningThreshold = 0.2

// Options configures an Orchestrator.
type Options struct {
	Links       storage.CompanyDocumentLinkStore
	Chunks      storage.ChunkStore
	Runs        storage.RunStore
	Assessments storage.AssessmentStore
	Diagnostics storage.DiagnosticStore
	Coverage    storage.CoverageStore
	Manifests   storage.ManifestStore
	RunCache    storage.RunCacheStore

	Compiler        *compiler.Compiler
	Retriever       *retrieval.Retriever
	RetrievalParams retrieval.Params
	ProviderFactory *provider.Factory

	CompilerMode              string
	PromptTemplateVersion     string
	CodeVersion               string
	ReportTemplateVersion     string
	IntegrityWarningThreshold float64 // 0 means DefaultIntegrityWarningThreshold

	Logger *log.Logger
}

// Orchestrator coordinates one run's compile → cache-check → iterate →
// persist → aggregate → manifest pipeline.
type Orchestrator struct {
	links       storage.CompanyDocumentLinkStore
	chunks      storage.ChunkStore
	runs        storage.RunStore
	assessments storage.AssessmentStore
	diagnostics storage.DiagnosticStore
	coverage    storage.CoverageStore
	manifests   storage.ManifestStore
	runCache    storage.RunCacheStore

	compiler        *compiler.Compiler
	retriever       *retrieval.Retriever
	retrievalParams retrieval.Params
	providerFactory *provider.Factory
	extractor       *extraction.Adapter

	compilerMode              string
	promptTemplateVersion     string
	codeVersion               string
	reportTemplateVersion     string
	integrityWarningThreshold float64

	logger *log.Logger
}

// New creates an Orchestrator and starts its in-process extraction worker.
// Close must be called to release the worker's resources.
func New(opts Options) (*Orchestrator, error) {
	extractor, err := extraction.New(opts.Retriever, opts.RetrievalParams, opts.ProviderFactory)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: start extraction adapter: %w", err)
	}

	threshold := opts.IntegrityWarningThreshold
	if threshold == 0 {
		threshold = DefaultIntegrityWarningThreshold
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Orchestrator{
		links:       opts.Links,
		chunks:      opts.Chunks,
		runs:        opts.Runs,
		assessments: opts.Assessments,
		diagnostics: opts.Diagnostics,
		coverage:    opts.Coverage,
		manifests:   opts.Manifests,
		runCache:    opts.RunCache,

		compiler:        opts.Compiler,
		retriever:       opts.Retriever,
		retrievalParams: opts.RetrievalParams,
		providerFactory: opts.ProviderFactory,
		extractor:       extractor,

		compilerMode:              opts.CompilerMode,
		promptTemplateVersion:     opts.PromptTemplateVersion,
		codeVersion:               opts.CodeVersion,
		reportTemplateVersion:     opts.ReportTemplateVersion,
		integrityWarningThreshold: threshold,

		logger: logger,
	}, nil
}

// Close releases the orchestrator's extraction worker resources.
func (o *Orchestrator) Close() error {
	return o.extractor.Close()
}

// Execute creates a new run and drives it through the full pipeline,
// returning it in its terminal state.
func (o *Orchestrator) Execute(ctx context.Context, tenant string, profile *domain.CompanyProfile, reportingYear int, bundleRefs []domain.BundleRef) (*domain.Run, error) {
	run := &domain.Run{
		RunID:        uuid.NewString(),
		Tenant:       tenant,
		CompanyID:    profile.CompanyID,
		Status:       domain.RunQueued,
		CompilerMode: o.compilerMode,
		ProviderID:   o.providerFactory.Primary(),
		CreatedAt:    time.Now().UnixMilli(),
	}
	if err := o.runs.Insert(ctx, run); err != nil {
		return nil, fmt.Errorf("orchestrator: insert run: %w", err)
	}
	return o.ExecuteRun(ctx, run, profile, reportingYear, bundleRefs)
}

// ExecuteRun drives an already-created, queued run through the full
// compile → cache-check → iterate → persist → aggregate → manifest
// pipeline, per spec §4.10, and returns it in its terminal state. Used by
// the HTTP surface's two-phase POST /runs then POST /runs/{id}/execute
// flow, where the run row is created ahead of execution.
func (o *Orchestrator) ExecuteRun(ctx context.Context, run *domain.Run, profile *domain.CompanyProfile, reportingYear int, bundleRefs []domain.BundleRef) (*domain.Run, error) {
	tenant := run.Tenant
	if err := o.runs.UpdateStatus(ctx, run.RunID, domain.RunRunning, ""); err != nil {
		return nil, fmt.Errorf("orchestrator: transition run %s to running: %w", run.RunID, err)
	}
	run.Status = domain.RunRunning
	o.log("run %s: running", run.RunID)

	plan, docHashes, chunks, err := o.preflight(ctx, tenant, profile, reportingYear, bundleRefs)
	if err != nil {
		return o.fail(ctx, run, verrors.Explain(err))
	}

	fingerprint := runcache.Fingerprint{
		DocumentHashes:         docHashes,
		CompanyProfileSnapshot: *profile,
		BundleRefs:             plan.BundleRefs,
		CompilerMode:           o.compilerMode,
		RetrievalParams:        o.retrievalParams.ToRetrievalParams(),
		ProviderIdentity:       o.providerFactory.Primary(),
		PromptTemplateVersion:  o.promptTemplateVersion,
		CodeVersion:            o.codeVersion,
	}
	runHash, err := runcache.Hash(fingerprint)
	if err != nil {
		return o.fail(ctx, run, fmt.Sprintf("compute run_hash: %v", err))
	}
	if err := o.runs.SetRunHash(ctx, run.RunID, runHash); err != nil {
		return o.fail(ctx, run, fmt.Sprintf("record run_hash: %v", err))
	}
	run.RunHash = runHash

	if entry, hit, err := runcache.Lookup(ctx, o.runCache, runHash); err != nil {
		return o.fail(ctx, run, fmt.Sprintf("run-hash cache lookup: %v", err))
	} else if hit {
		o.log("run %s: cache hit on run_hash %s (manifest %s) — no provider calls", run.RunID, runHash, entry.ManifestRef)
		return o.completeWithStatus(ctx, run, domain.RunCompleted)
	}

	assessments, diagnostics, failures := o.iterate(ctx, run, tenant, profile.CompanyID, plan)

	for i := range assessments {
		if err := o.assessments.Insert(ctx, assessments[i]); err != nil {
			return o.fail(ctx, run, fmt.Sprintf("persist assessment %s: %v", assessments[i].DatapointKey, err))
		}
		if err := o.diagnostics.Insert(ctx, diagnostics[i]); err != nil {
			return o.fail(ctx, run, fmt.Sprintf("persist diagnostic %s: %v", diagnostics[i].DatapointKey, err))
		}
	}

	matrix := coverage.Build(plan, assessments)
	if err := o.persistCoverage(ctx, matrix); err != nil {
		return o.fail(ctx, run, fmt.Sprintf("persist coverage: %v", err))
	}

	if err := o.writeManifestAndCache(ctx, run, plan, runHash, docHashes); err != nil {
		return o.fail(ctx, run, fmt.Sprintf("write manifest: %v", err))
	}

	finalStatus := domain.RunCompleted
	if len(plan.Datapoints) > 0 && float64(failures)/float64(len(plan.Datapoints)) > o.integrityWarningThreshold {
		finalStatus = domain.RunIntegrityWarning
	}
	return o.completeWithStatus(ctx, run, finalStatus)
}

// preflight compiles the plan and resolves the chunk scope, per spec
// §4.10: a compiled plan must be non-empty, and when it is non-empty the
// company's chunk set must be non-empty too.
func (o *Orchestrator) preflight(ctx context.Context, tenant string, profile *domain.CompanyProfile, reportingYear int, bundleRefs []domain.BundleRef) (*domain.CompiledPlan, []string, []*domain.Chunk, error) {
	plan, err := o.compiler.Compile(ctx, profile, reportingYear, bundleRefs)
	if err != nil {
		return nil, nil, nil, err
	}

	docHashes, err := o.links.DocHashesForCompany(ctx, tenant, profile.CompanyID)
	if err != nil {
		return nil, nil, nil, verrors.Wrap(verrors.KindDependency, "DOCUMENT_SCOPE_UNAVAILABLE", "load linked document scope", err)
	}

	chunks, err := o.chunks.GetByScope(ctx, docHashes)
	if err != nil {
		return nil, nil, nil, verrors.Wrap(verrors.KindDependency, "CHUNK_SCOPE_UNAVAILABLE", "load chunk scope", err)
	}
	if len(chunks) == 0 {
		return nil, nil, nil, verrors.New(verrors.KindEmptyCorpus, "EMPTY_CORPUS", "no chunks available for company's linked documents")
	}

	return plan, docHashes, chunks, nil
}

// iterate runs the per-datapoint retrieve→extract→verify loop in plan
// order and returns the resulting assessments/diagnostics, still in plan
// order, plus the count that carried a non-empty failure reason.
func (o *Orchestrator) iterate(ctx context.Context, run *domain.Run, tenant, companyID string, plan *domain.CompiledPlan) ([]*domain.Assessment, []*domain.ExtractionDiagnostic, int) {
	assessments := make([]*domain.Assessment, len(plan.Datapoints))
	diagnostics := make([]*domain.ExtractionDiagnostic, len(plan.Datapoints))
	failures := 0

	for i, pd := range plan.Datapoints {
		result, err := o.extractor.ExtractOne(ctx, run.RunID, tenant, companyID, pd.Datapoint)
		if err != nil {
			o.log("run %s: datapoint %s extraction failed: %v", run.RunID, pd.Datapoint.DatapointKey, err)
			reason := domain.FailureEvidenceMissing
			if strings.Contains(err.Error(), provider.ErrSchemaViolation.Error()) {
				reason = domain.FailureSchemaViolation
			}
			assessments[i] = &domain.Assessment{RunID: run.RunID, DatapointKey: pd.Datapoint.DatapointKey, Status: domain.StatusAbsent, Rationale: err.Error()}
			diagnostics[i] = &domain.ExtractionDiagnostic{RunID: run.RunID, DatapointKey: pd.Datapoint.DatapointKey, VerificationStatus: domain.StatusAbsent, FailureReasonCode: reason}
			failures++
			continue
		}

		assessment, diagnostic := verification.Verify(ctx, o.chunks, pd.Datapoint, result.Assessment, result.Diagnostic)
		if diagnostic.FailureReasonCode != "" {
			failures++
		}
		assessments[i] = &assessment
		diagnostics[i] = &diagnostic
	}

	return assessments, diagnostics, failures
}

func (o *Orchestrator) persistCoverage(ctx context.Context, matrix *domain.CoverageMatrix) error {
	var rows []*domain.ObligationCoverage
	for _, section := range matrix.Sections {
		for i := range section.Rows {
			rows = append(rows, &section.Rows[i])
		}
	}
	return o.coverage.InsertBulk(ctx, rows)
}

func (o *Orchestrator) writeManifestAndCache(ctx context.Context, run *domain.Run, plan *domain.CompiledPlan, runHash string, docHashes []string) error {
	m := &domain.RunManifest{
		RunID:                 run.RunID,
		RunHash:               runHash,
		DocumentHashes:        docHashes,
		BundleRefs:            plan.BundleRefs,
		PlanHash:              plan.PlanHash,
		CompilerMode:          o.compilerMode,
		RetrievalParams:       o.retrievalParams.ToRetrievalParams(),
		ProviderID:            o.providerFactory.Primary(),
		PromptTemplateVersion: o.promptTemplateVersion,
		CodeVersion:           o.codeVersion,
		ReportTemplateVersion: o.reportTemplateVersion,
		CreatedAt:             time.Now().UnixMilli(),
	}
	if err := manifest.Persist(ctx, o.manifests, m); err != nil {
		return err
	}
	return runcache.Store(ctx, o.runCache, &domain.RunCacheEntry{
		RunHash:        runHash,
		ManifestRef:    run.RunID,
		AssessmentsRef: run.RunID,
		CoverageRef:    plan.PlanHash,
		CreatedAt:      m.CreatedAt,
	})
}

func (o *Orchestrator) fail(ctx context.Context, run *domain.Run, reason string) (*domain.Run, error) {
	if err := o.runs.UpdateStatus(ctx, run.RunID, domain.RunFailed, reason); err != nil {
		return nil, fmt.Errorf("orchestrator: record failure for run %s: %w", run.RunID, err)
	}
	run.Status = domain.RunFailed
	run.FailureReason = reason
	o.log("run %s: failed: %s", run.RunID, reason)
	return run, nil
}

func (o *Orchestrator) completeWithStatus(ctx context.Context, run *domain.Run, status domain.RunStatus) (*domain.Run, error) {
	if err := o.runs.UpdateStatus(ctx, run.RunID, status, ""); err != nil {
		return nil, fmt.Errorf("orchestrator: transition run %s to %s: %w", run.RunID, status, err)
	}
	run.Status = status
	o.log("run %s: %s", run.RunID, status)
	return run, nil
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	o.logger.Printf("[orchestrator] "+format, args...)
}
