package server

import (
	"net/http"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/manifest"
)

// handleEvidencePack packages and returns a completed run's deterministic
// tar+zstd evidence archive, per spec §4.12/§6.4. 409 if the run is not
// completed, per §6.1's export-readiness rule.
func (s *Server) handleEvidencePack(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r.Context())
	runID := r.PathValue("id")

	bundle, run, ok := s.buildEvidenceBundle(w, r, tenant, runID)
	if !ok {
		return
	}

	archive, err := manifest.Pack(*bundle)
	if err != nil {
		s.log("pack evidence archive for run %s: %v", runID, err)
		writeError(w, http.StatusInternalServerError, "PACK_FAILED", "could not build evidence archive")
		return
	}

	w.Header().Set("Content-Type", "application/zstd")
	w.Header().Set("Content-Disposition", "attachment; filename="+run.RunID+".tar.zst")
	w.WriteHeader(http.StatusOK)
	w.Write(archive)
}

// handleEvidencePackPreview reports what the evidence archive would contain
// without packaging the bytes, so a caller can confirm readiness cheaply.
func (s *Server) handleEvidencePackPreview(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r.Context())
	runID := r.PathValue("id")

	bundle, run, ok := s.buildEvidenceBundle(w, r, tenant, runID)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":            run.RunID,
		"run_hash":          run.RunHash,
		"document_count":    len(bundle.Documents),
		"assessment_count":  len(bundle.Assessments),
		"evidence_count":    len(bundle.Evidence),
		"obligation_count":  len(bundle.CompiledPlan.Obligations),
	})
}

// handleRegulatoryPlan recompiles and returns the obligation/datapoint plan
// a completed run was scored against.
func (s *Server) handleRegulatoryPlan(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r.Context())
	runID := r.PathValue("id")

	plan, _, ok := s.compilePlanForRun(w, r, tenant, runID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// buildEvidenceBundle assembles a manifest.Bundle for a completed run,
// writing the appropriate error response and returning ok=false on any
// readiness or lookup failure.
func (s *Server) buildEvidenceBundle(w http.ResponseWriter, r *http.Request, tenant, runID string) (*manifest.Bundle, *domain.Run, bool) {
	plan, run, ok := s.compilePlanForRun(w, r, tenant, runID)
	if !ok {
		return nil, nil, false
	}

	m, err := s.manifests.GetByRun(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORAGE_UNAVAILABLE", "could not load manifest")
		return nil, nil, false
	}

	assessments, err := s.assessments.GetByRun(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORAGE_UNAVAILABLE", "could not load assessments")
		return nil, nil, false
	}

	rows, err := s.coverage.GetByPlanHash(r.Context(), m.PlanHash)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORAGE_UNAVAILABLE", "could not load coverage")
		return nil, nil, false
	}
	matrix := &domain.CoverageMatrix{PlanHash: m.PlanHash, Sections: groupCoverageRows(rows)}

	documents := make(map[string][]byte, len(m.DocumentHashes))
	for _, docHash := range m.DocumentHashes {
		raw, err := s.docs.Bytes(r.Context(), docHash)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "DOCUMENT_UNAVAILABLE", "could not load document bytes for "+docHash)
			return nil, nil, false
		}
		documents[docHash] = raw
	}

	chunkIDs := make([]string, 0)
	for _, a := range assessments {
		chunkIDs = append(chunkIDs, a.EvidenceChunkIDs...)
	}
	chunks, err := s.chunks.GetByIDs(r.Context(), chunkIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORAGE_UNAVAILABLE", "could not load cited chunks")
		return nil, nil, false
	}
	evidence := make([]manifest.EvidenceRecord, len(chunks))
	for i, c := range chunks {
		evidence[i] = manifest.EvidenceRecordFromChunk(c)
	}

	return &manifest.Bundle{
		Manifest:       m,
		CompiledPlan:   plan,
		Assessments:    assessments,
		CoverageMatrix: matrix,
		Evidence:       evidence,
		Documents:      documents,
	}, run, true
}

// compilePlanForRun loads a completed run and recompiles the plan it was
// scored against from its manifest's recorded bundle refs. 409 if the run
// is not completed, 404 if unknown to tenant.
func (s *Server) compilePlanForRun(w http.ResponseWriter, r *http.Request, tenant, runID string) (*domain.CompiledPlan, *domain.Run, bool) {
	run, err := s.runs.Get(r.Context(), tenant, runID)
	if err != nil {
		s.writeRunLookupError(w, err)
		return nil, nil, false
	}
	if !run.Status.IsTerminal() || run.Status == domain.RunFailed {
		writeError(w, http.StatusConflict, "RUN_NOT_COMPLETED", "run is not in a completed state")
		return nil, nil, false
	}

	m, err := s.manifests.GetByRun(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORAGE_UNAVAILABLE", "could not load manifest")
		return nil, nil, false
	}

	profile, err := s.companies.Get(r.Context(), tenant, run.CompanyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORAGE_UNAVAILABLE", "could not load company profile")
		return nil, nil, false
	}

	plan, err := s.compiler.Compile(r.Context(), profile, profile.ReportingYear, m.BundleRefs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "COMPILE_FAILED", "could not recompile run's plan")
		return nil, nil, false
	}
	return plan, run, true
}
