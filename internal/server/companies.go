package server

import (
	"errors"
	"net/http"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// createCompanyRequest mirrors the applicability evaluator's (C7) whitelist
// of company.* fields, per spec §4.7.
type createCompanyRequest struct {
	CompanyID          string            `json:"company_id"`
	Name               string            `json:"name"`
	Employees          int64             `json:"employees"`
	TurnoverEUR        float64           `json:"turnover_eur"`
	ListedStatus       bool              `json:"listed_status"`
	ReportingYear      int               `json:"reporting_year"`
	ReportingYearStart int64             `json:"reporting_year_start"`
	ReportingYearEnd   int64             `json:"reporting_year_end"`
	Jurisdictions      []string          `json:"jurisdictions"`
	SelectedBundleRefs []domain.BundleRef `json:"selected_bundle_refs"`
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r.Context())

	var req createCompanyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
		return
	}
	if req.CompanyID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_COMPANY_ID", "company_id is required")
		return
	}

	profile := &domain.CompanyProfile{
		CompanyID:          req.CompanyID,
		Tenant:             tenant,
		Name:               req.Name,
		Employees:          req.Employees,
		TurnoverEUR:        req.TurnoverEUR,
		ListedStatus:       req.ListedStatus,
		ReportingYear:      req.ReportingYear,
		ReportingYearStart: req.ReportingYearStart,
		ReportingYearEnd:   req.ReportingYearEnd,
		Jurisdictions:      req.Jurisdictions,
		SelectedBundleRefs: req.SelectedBundleRefs,
	}

	if err := s.companies.Insert(r.Context(), profile); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			writeError(w, http.StatusConflict, "COMPANY_EXISTS", "a company with this company_id already exists")
			return
		}
		if errors.Is(err, storage.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "INVALID_COMPANY", "company profile failed validation")
			return
		}
		s.log("create company: %v", err)
		writeError(w, http.StatusInternalServerError, "STORAGE_UNAVAILABLE", "could not persist company profile")
		return
	}

	writeJSON(w, http.StatusCreated, profile)
}
