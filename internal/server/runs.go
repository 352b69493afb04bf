package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

type createRunRequest struct {
	CompanyID string `json:"company_id"`
}

// handleCreateRun creates a queued run row per spec §6.1, ahead of the
// separate POST /runs/{id}/execute call that actually drives the pipeline.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r.Context())

	var req createRunRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
		return
	}
	if req.CompanyID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_COMPANY_ID", "company_id is required")
		return
	}

	if _, err := s.companies.Get(r.Context(), tenant, req.CompanyID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "COMPANY_NOT_FOUND", "no such company for this tenant")
			return
		}
		writeError(w, http.StatusInternalServerError, "STORAGE_UNAVAILABLE", "could not look up company")
		return
	}

	run := &domain.Run{
		RunID:     uuid.NewString(),
		Tenant:    tenant,
		CompanyID: req.CompanyID,
		Status:    domain.RunQueued,
		CreatedAt: time.Now().UnixMilli(),
	}
	if err := s.runs.Insert(r.Context(), run); err != nil {
		s.log("create run: %v", err)
		writeError(w, http.StatusInternalServerError, "STORAGE_UNAVAILABLE", "could not persist run")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"run_id": run.RunID, "status": run.Status})
}

type executeRunRequest struct {
	BundleID      string `json:"bundle_id"`
	BundleVersion string `json:"bundle_version"`
	ProviderID    string `json:"provider_id"`
	CompilerMode  string `json:"compiler_mode"`
}

// handleExecuteRun drives a queued run's pipeline to completion. Idempotent
// on run_hash match: a run already in a terminal state is returned as-is
// rather than re-executed, per spec §6.1.
func (s *Server) handleExecuteRun(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r.Context())
	runID := r.PathValue("id")

	var req executeRunRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
		return
	}
	if req.BundleID == "" || req.BundleVersion == "" {
		writeError(w, http.StatusBadRequest, "MISSING_BUNDLE_REF", "bundle_id and bundle_version are required")
		return
	}

	run, err := s.runs.Get(r.Context(), tenant, runID)
	if err != nil {
		s.writeRunLookupError(w, err)
		return
	}
	if run.Status.IsTerminal() {
		writeJSON(w, http.StatusOK, run)
		return
	}

	profile, err := s.companies.Get(r.Context(), tenant, run.CompanyID)
	if err != nil {
		writeError(w, http.StatusNotFound, "COMPANY_NOT_FOUND", "no such company for this tenant")
		return
	}

	bundleRefs := []domain.BundleRef{{BundleID: req.BundleID, Version: req.BundleVersion}}
	result, err := s.orchestrator.ExecuteRun(r.Context(), run, profile, profile.ReportingYear, bundleRefs)
	if err != nil {
		s.log("execute run %s: %v", runID, err)
		writeError(w, http.StatusInternalServerError, "EXECUTION_FAILED", "could not execute run")
		return
	}

	if s.hub != nil {
		s.hub.Publish(runID, result.Status)
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r.Context())
	run, err := s.runs.Get(r.Context(), tenant, r.PathValue("id"))
	if err != nil {
		s.writeRunLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleRunDiagnostics(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r.Context())
	runID := r.PathValue("id")

	if _, err := s.runs.Get(r.Context(), tenant, runID); err != nil {
		s.writeRunLookupError(w, err)
		return
	}

	diagnostics, err := s.diagnostics.GetByRun(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORAGE_UNAVAILABLE", "could not load diagnostics")
		return
	}
	writeJSON(w, http.StatusOK, diagnostics)
}

type reportResponse struct {
	Run         *domain.Run                   `json:"run"`
	Assessments []*domain.Assessment          `json:"assessments"`
	Coverage    []domain.StandardSection      `json:"coverage"`
}

// handleRunReport requires the run to be completed: 409 otherwise, per
// spec §6.1's export-readiness rule.
func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r.Context())
	runID := r.PathValue("id")

	run, err := s.runs.Get(r.Context(), tenant, runID)
	if err != nil {
		s.writeRunLookupError(w, err)
		return
	}
	if !run.Status.IsTerminal() || run.Status == domain.RunFailed {
		writeError(w, http.StatusConflict, "RUN_NOT_COMPLETED", "run is not in a completed state")
		return
	}

	assessments, err := s.assessments.GetByRun(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORAGE_UNAVAILABLE", "could not load assessments")
		return
	}

	manifest, err := s.manifests.GetByRun(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORAGE_UNAVAILABLE", "could not load manifest")
		return
	}

	rows, err := s.coverage.GetByPlanHash(r.Context(), manifest.PlanHash)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORAGE_UNAVAILABLE", "could not load coverage")
		return
	}

	writeJSON(w, http.StatusOK, reportResponse{
		Run:         run,
		Assessments: assessments,
		Coverage:    groupCoverageRows(rows),
	})
}

func (s *Server) writeRunLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "RUN_NOT_FOUND", "no such run for this tenant")
		return
	}
	writeError(w, http.StatusInternalServerError, "STORAGE_UNAVAILABLE", "could not look up run")
}

// groupCoverageRows rebuilds the CoverageMatrix's per-standard section
// structure from a flat slice of persisted rows, ordered the way
// coverage.Build itself groups and sorts them.
func groupCoverageRows(rows []*domain.ObligationCoverage) []domain.StandardSection {
	byStandard := make(map[string]*domain.StandardSection)
	var order []string
	for _, row := range rows {
		section, ok := byStandard[row.Standard]
		if !ok {
			section = &domain.StandardSection{Standard: row.Standard}
			byStandard[row.Standard] = section
			order = append(order, row.Standard)
		}
		section.Rows = append(section.Rows, *row)
	}

	sections := make([]domain.StandardSection, 0, len(order))
	for _, standard := range order {
		section := byStandard[standard]
		section.Empty = len(section.Rows) == 0
		sections = append(sections, *section)
	}
	return sections
}
