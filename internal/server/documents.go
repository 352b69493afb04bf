package server

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/verascope/verascope/internal/discovery"
)

const maxUploadBytes = 64 << 20 // 64 MiB

// handleUploadDocument accepts a multipart (company_id, title, file) per
// spec §6.1, content-addresses it through docstore, and runs the
// extract/chunk pipeline so it is immediately retrievable.
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_MULTIPART", "could not parse multipart form")
		return
	}

	companyID := r.FormValue("company_id")
	title := r.FormValue("title")
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_COMPANY_ID", "company_id is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "MISSING_FILE", "file is required")
		return
	}
	defer file.Close()

	contentType := contentTypeOf(header)
	raw, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "UNREADABLE_FILE", "could not read uploaded file")
		return
	}

	doc, err := s.docs.Ingest(r.Context(), tenant, companyID, title, contentType, raw)
	if err != nil {
		s.log("upload document: %v", err)
		writeError(w, http.StatusInternalServerError, "INGEST_FAILED", "could not store uploaded document")
		return
	}

	duplicate, err := s.extractAndChunk(r.Context(), doc.DocHash, doc.ContentType, raw)
	if err != nil {
		s.log("extract document %s: %v", doc.DocHash, err)
		writeError(w, http.StatusUnprocessableEntity, "EXTRACTION_FAILED", "document stored but extraction failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"document_id": doc.DocHash,
		"duplicate":   duplicate,
	})
}

func contentTypeOf(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

type autoDiscoverRequest struct {
	CompanyID    string `json:"company_id"`
	MaxDocuments int    `json:"max_documents"`
}

type autoDiscoverResponse struct {
	Ingested []string                    `json:"ingested"`
	Rejected []discovery.RejectedCandidate `json:"rejected"`
}

// handleAutoDiscover surfaces candidates via the configured
// discovery.CandidateSource, filters them per policy, and ingests every
// accepted candidate as a PDF — non-PDF auto-discovery candidates are
// rejected by the filter's content-type allowlist, per spec §6.1.
func (s *Server) handleAutoDiscover(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r.Context())

	var req autoDiscoverRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
		return
	}
	if req.CompanyID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_COMPANY_ID", "company_id is required")
		return
	}
	maxDocuments := req.MaxDocuments
	if maxDocuments <= 0 {
		maxDocuments = discovery.DefaultPolicy().MaxDocuments
	}

	candidates, err := s.discoverySource.Search(req.CompanyID, maxDocuments)
	if err != nil {
		s.log("discover candidates for %s: %v", req.CompanyID, err)
		writeError(w, http.StatusBadGateway, "DISCOVERY_UNAVAILABLE", "candidate search failed")
		return
	}

	accepted, rejected := s.discoveryFilter.Apply(candidates)

	ingested := make([]string, 0, len(accepted))
	for _, c := range accepted {
		doc, err := s.docs.Ingest(r.Context(), tenant, req.CompanyID, c.Title, c.ContentType, []byte(c.Snippet))
		if err != nil {
			s.log("ingest discovered candidate %s: %v", c.URL, err)
			rejected = append(rejected, discovery.RejectedCandidate{Candidate: c, Reason: discovery.RejectionInvalidURL})
			continue
		}
		ingested = append(ingested, doc.DocHash)
	}

	writeJSON(w, http.StatusOK, autoDiscoverResponse{Ingested: ingested, Rejected: rejected})
}
