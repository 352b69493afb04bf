// Package server implements the HTTP surface of spec §6.1: tenant-scoped
// company/document/run endpoints, wired to the storage, docstore,
// discovery, compiler, and orchestrator packages. Grounded on the teacher's
// cmd/server/main.go shape (stdlib net/http + ServeMux, no web framework
// anywhere in the corpus for this kind of service) generalized from one
// trade-monitoring binary into a routed multi-resource API.
package server

import (
	"log"
	"net/http"

	"github.com/verascope/verascope/internal/chunk"
	"github.com/verascope/verascope/internal/compiler"
	"github.com/verascope/verascope/internal/discovery"
	"github.com/verascope/verascope/internal/docstore"
	"github.com/verascope/verascope/internal/extract"
	"github.com/verascope/verascope/internal/orchestrator"
	"github.com/verascope/verascope/internal/storage"
)

// Options configures a Server.
type Options struct {
	Companies    storage.CompanyStore
	Runs         storage.RunStore
	Assessments  storage.AssessmentStore
	Diagnostics  storage.DiagnosticStore
	Coverage     storage.CoverageStore
	Manifests    storage.ManifestStore
	Pages        storage.PageStore
	Chunks       storage.ChunkStore

	Docs             *docstore.Store
	ChunkParams      chunk.Params              // zero value uses chunk.DefaultParams
	DiscoverySource  discovery.CandidateSource // nil uses discovery.NoopSource
	DiscoveryPolicy  discovery.Policy          // zero value uses discovery.DefaultPolicy
	Orchestrator     *orchestrator.Orchestrator
	Compiler         *compiler.Compiler

	Auth   *TenantAuth
	Hub    *Hub // nil disables WebSocket run-event streaming
	Logger *log.Logger
}

// Server holds every dependency the HTTP surface needs and exposes the
// routed mux via Routes.
type Server struct {
	companies   storage.CompanyStore
	runs        storage.RunStore
	assessments storage.AssessmentStore
	diagnostics storage.DiagnosticStore
	coverage    storage.CoverageStore
	manifests   storage.ManifestStore
	pages       storage.PageStore
	chunks      storage.ChunkStore

	docs            *docstore.Store
	extractor       *extract.Registry
	chunker         *chunk.Chunker
	discoverySource discovery.CandidateSource
	discoveryFilter *discovery.Filter
	orchestrator    *orchestrator.Orchestrator
	compiler        *compiler.Compiler

	auth   *TenantAuth
	hub    *Hub
	logger *log.Logger
}

// New builds a Server from opts. Panics if a required dependency is nil,
// since a misconfigured server would otherwise fail obscurely per request.
func New(opts Options) *Server {
	if opts.Companies == nil || opts.Runs == nil || opts.Orchestrator == nil || opts.Auth == nil {
		panic("server: Companies, Runs, Orchestrator, and Auth are required")
	}

	source := opts.DiscoverySource
	if source == nil {
		source = discovery.NoopSource{}
	}
	policy := opts.DiscoveryPolicy
	if policy.MaxDocuments == 0 && len(policy.AllowedContentTypes) == 0 {
		policy = discovery.DefaultPolicy()
	}

	chunkParams := opts.ChunkParams
	if chunkParams.TargetLength == 0 {
		chunkParams = chunk.DefaultParams()
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Server{
		companies:   opts.Companies,
		runs:        opts.Runs,
		assessments: opts.Assessments,
		diagnostics: opts.Diagnostics,
		coverage:    opts.Coverage,
		manifests:   opts.Manifests,
		pages:       opts.Pages,
		chunks:      opts.Chunks,

		docs:            opts.Docs,
		extractor:       extract.NewRegistry(),
		chunker:         chunk.New(chunkParams),
		discoverySource: source,
		discoveryFilter: discovery.NewFilter(policy),
		orchestrator:    opts.Orchestrator,
		compiler:        opts.Compiler,

		auth:   opts.Auth,
		hub:    opts.Hub,
		logger: logger,
	}
}

// Routes builds the routed mux, with tenant-auth middleware wrapping every
// tenant-scoped handler. /health is unauthenticated, matching the teacher's
// own liveness-probe convention.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.Handle("POST /companies", s.auth.middleware(http.HandlerFunc(s.handleCreateCompany)))
	mux.Handle("POST /documents/upload", s.auth.middleware(http.HandlerFunc(s.handleUploadDocument)))
	mux.Handle("POST /documents/auto-discover", s.auth.middleware(http.HandlerFunc(s.handleAutoDiscover)))

	mux.Handle("POST /runs", s.auth.middleware(http.HandlerFunc(s.handleCreateRun)))
	mux.Handle("POST /runs/{id}/execute", s.auth.middleware(http.HandlerFunc(s.handleExecuteRun)))
	mux.Handle("GET /runs/{id}/status", s.auth.middleware(http.HandlerFunc(s.handleRunStatus)))
	mux.Handle("GET /runs/{id}/diagnostics", s.auth.middleware(http.HandlerFunc(s.handleRunDiagnostics)))
	mux.Handle("GET /runs/{id}/report", s.auth.middleware(http.HandlerFunc(s.handleRunReport)))
	mux.Handle("GET /runs/{id}/evidence-pack", s.auth.middleware(http.HandlerFunc(s.handleEvidencePack)))
	mux.Handle("GET /runs/{id}/evidence-pack-preview", s.auth.middleware(http.HandlerFunc(s.handleEvidencePackPreview)))
	mux.Handle("GET /runs/{id}/regulatory-plan", s.auth.middleware(http.HandlerFunc(s.handleRegulatoryPlan)))

	if s.hub != nil {
		mux.Handle("GET /runs/{id}/events", s.auth.middleware(http.HandlerFunc(s.handleRunEvents)))
	}

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) log(format string, args ...any) {
	s.logger.Printf(format, args...)
}
