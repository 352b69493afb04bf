package storage

import (
	"context"

	"github.com/verascope/verascope/internal/domain"
)

// CompanyStore provides access to tenant-scoped company profiles.
type CompanyStore interface {
	// Insert creates a new company profile. Returns ErrDuplicateKey if
	// (tenant, company_id) already exists.
	Insert(ctx context.Context, p *domain.CompanyProfile) error

	// Get retrieves a company profile, scoped to tenant. Returns
	// ErrNotFound if not exists or not owned by tenant.
	Get(ctx context.Context, tenant, companyID string) (*domain.CompanyProfile, error)
}

// DocumentStore provides access to content-addressed document bytes and
// metadata. Content-addressed: writing bytes that already exist returns the
// existing doc_hash with no rewrite.
type DocumentStore interface {
	// Put stores bytes content-addressed by its SHA-256 hash, returning the
	// resulting Document. If a document with the same doc_hash already
	// exists, it is returned unchanged (no rewrite).
	Put(ctx context.Context, contentType string, bytes []byte) (*domain.Document, error)

	// Get retrieves document metadata. Returns ErrNotFound if not exists.
	Get(ctx context.Context, docHash string) (*domain.Document, error)

	// GetBytes retrieves the original bytes. Returns ErrNotFound if not
	// exists, ErrIntegrityMismatch if re-hashed bytes differ from docHash.
	GetBytes(ctx context.Context, docHash string) ([]byte, error)

	// SetParserVersion stamps the parser version of the last successful
	// extraction onto a document.
	SetParserVersion(ctx context.Context, docHash, parserVersion string) error
}

// CompanyDocumentLinkStore provides access to company-scoped document
// visibility grants. Retrieval is always company-scoped, never tenant-wide.
type CompanyDocumentLinkStore interface {
	// Link grants companyID access to docHash. Idempotent: linking twice is
	// a no-op, never ErrDuplicateKey.
	Link(ctx context.Context, link *domain.CompanyDocumentLink) error

	// DocHashesForCompany returns every doc_hash linked to companyID within
	// tenant, ordered ascending by doc_hash.
	DocHashesForCompany(ctx context.Context, tenant, companyID string) ([]string, error)

	// IsLinked reports whether docHash is linked to companyID within tenant.
	IsLinked(ctx context.Context, tenant, companyID, docHash string) (bool, error)
}

// PageStore provides access to per-document extracted pages.
type PageStore interface {
	// InsertBulk stores pages for one document atomically. Fails entire
	// batch on a duplicate (doc_hash, page_number).
	InsertBulk(ctx context.Context, pages []*domain.Page) error

	// GetByDocHash returns every page of docHash, ordered ascending by
	// page_number.
	GetByDocHash(ctx context.Context, docHash string) ([]*domain.Page, error)
}

// ChunkStore provides access to chunked page text and optional embeddings.
type ChunkStore interface {
	// InsertBulk stores chunks atomically, idempotent by chunk_id: chunk IDs
	// already present are left unchanged, never duplicated or re-written.
	InsertBulk(ctx context.Context, chunks []*domain.Chunk) error

	// GetByDocHash returns every chunk of docHash, ordered ascending by
	// (page_number, start_offset).
	GetByDocHash(ctx context.Context, docHash string) ([]*domain.Chunk, error)

	// GetByScope returns every chunk whose doc_hash is in docHashes, ordered
	// ascending by (doc_hash, page_number, start_offset).
	GetByScope(ctx context.Context, docHashes []string) ([]*domain.Chunk, error)

	// GetByIDs returns the chunks named by chunkIDs that exist, in no
	// particular order; callers must detect missing IDs themselves.
	GetByIDs(ctx context.Context, chunkIDs []string) ([]*domain.Chunk, error)

	// SetEmbedding attaches a vector embedding to an existing chunk.
	SetEmbedding(ctx context.Context, chunkID string, embedding []float32) error
}

// BundleStore provides access to versioned regulatory bundles.
type BundleStore interface {
	// Upsert stores a bundle. Returns ErrDuplicateKey if (bundle_id,
	// version) already exists with a different checksum; re-syncing
	// identical bytes is a no-op.
	Upsert(ctx context.Context, b *domain.Bundle) error

	// Get retrieves one exact bundle version. Returns ErrNotFound if not
	// exists.
	Get(ctx context.Context, bundleID, version string) (*domain.Bundle, error)

	// ListVersions returns every known version of bundleID, ordered
	// ascending by semantic version.
	ListVersions(ctx context.Context, bundleID string) ([]string, error)

	// ListAll returns every active bundle, ordered ascending by
	// (bundle_id, version).
	ListAll(ctx context.Context) ([]*domain.Bundle, error)

	// Deactivate marks a bundle inactive (used by `bundles sync --mode
	// sync` to drop bundles absent from the source path).
	Deactivate(ctx context.Context, bundleID, version string) error
}

// RunStore provides access to run lifecycle records.
type RunStore interface {
	// Insert creates a new run in the queued state.
	Insert(ctx context.Context, r *domain.Run) error

	// Get retrieves a run by ID, scoped to tenant. Returns ErrNotFound if
	// not exists or not owned by tenant.
	Get(ctx context.Context, tenant, runID string) (*domain.Run, error)

	// UpdateStatus transitions a run's status. Terminal states are final:
	// implementations must reject a transition out of a terminal status.
	UpdateStatus(ctx context.Context, runID string, status domain.RunStatus, failureReason string) error

	// SetRunHash records the computed run_hash for a run.
	SetRunHash(ctx context.Context, runID, runHash string) error

	// GetByRunHash returns the most recent completed run with this
	// run_hash, if any. Returns ErrNotFound if none.
	GetByRunHash(ctx context.Context, runHash string) (*domain.Run, error)
}

// AssessmentStore provides access to persisted datapoint verdicts.
type AssessmentStore interface {
	// Insert persists one assessment. Returns ErrDuplicateKey if
	// (run_id, datapoint_key) already exists.
	Insert(ctx context.Context, a *domain.Assessment) error

	// GetByRun returns every assessment for runID, ordered ascending by
	// datapoint_key.
	GetByRun(ctx context.Context, runID string) ([]*domain.Assessment, error)
}

// DiagnosticStore provides access to append-only per-datapoint diagnostics.
type DiagnosticStore interface {
	// Insert appends one diagnostic record.
	Insert(ctx context.Context, d *domain.ExtractionDiagnostic) error

	// GetByRun returns every diagnostic for runID, ordered ascending by
	// datapoint_key.
	GetByRun(ctx context.Context, runID string) ([]*domain.ExtractionDiagnostic, error)
}

// CoverageStore provides access to the rolled-up obligation coverage matrix.
type CoverageStore interface {
	// InsertBulk stores coverage rows for one compiled plan atomically.
	InsertBulk(ctx context.Context, rows []*domain.ObligationCoverage) error

	// GetByPlanHash returns every coverage row for planHash, ordered
	// ascending by (standard, obligation_code).
	GetByPlanHash(ctx context.Context, planHash string) ([]*domain.ObligationCoverage, error)
}

// ManifestStore provides access to completed-run manifests.
type ManifestStore interface {
	// Insert writes a manifest once at run completion. Returns
	// ErrDuplicateKey if run_id already has a manifest.
	Insert(ctx context.Context, m *domain.RunManifest) error

	// GetByRun retrieves the manifest for runID. Returns ErrNotFound if not
	// exists.
	GetByRun(ctx context.Context, runID string) (*domain.RunManifest, error)
}

// RunCacheStore provides write-once lookup by run_hash.
type RunCacheStore interface {
	// Insert records a cache entry. A second concurrent completion with the
	// same run_hash is a no-op, not an error.
	Insert(ctx context.Context, e *domain.RunCacheEntry) error

	// GetByRunHash retrieves the cache entry for runHash. Returns
	// ErrNotFound if not exists.
	GetByRunHash(ctx context.Context, runHash string) (*domain.RunCacheEntry, error)
}
