package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// ManifestStore implements storage.ManifestStore using PostgreSQL.
type ManifestStore struct {
	pool *Pool
}

// NewManifestStore creates a new ManifestStore.
func NewManifestStore(pool *Pool) *ManifestStore {
	return &ManifestStore{pool: pool}
}

var _ storage.ManifestStore = (*ManifestStore)(nil)

func (s *ManifestStore) Insert(ctx context.Context, m *domain.RunManifest) error {
	docHashes, err := json.Marshal(m.DocumentHashes)
	if err != nil {
		return fmt.Errorf("marshal document hashes: %w", err)
	}
	bundleRefs, err := json.Marshal(m.BundleRefs)
	if err != nil {
		return fmt.Errorf("marshal bundle refs: %w", err)
	}
	retrieval, err := json.Marshal(m.RetrievalParams)
	if err != nil {
		return fmt.Errorf("marshal retrieval params: %w", err)
	}

	query := `
		INSERT INTO run_manifests (
			run_id, run_hash, document_hashes, bundle_refs, plan_hash, compiler_mode,
			retrieval_params, provider_id, provider_model, prompt_template_version,
			code_version, report_template_version, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = s.pool.Exec(ctx, query,
		m.RunID, m.RunHash, docHashes, bundleRefs, m.PlanHash, m.CompilerMode,
		retrieval, m.ProviderID, m.ProviderModel, m.PromptTemplateVersion,
		m.CodeVersion, m.ReportTemplateVersion, m.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run manifest: %w", err)
	}
	return nil
}

func (s *ManifestStore) GetByRun(ctx context.Context, runID string) (*domain.RunManifest, error) {
	query := `
		SELECT run_id, run_hash, document_hashes, bundle_refs, plan_hash, compiler_mode,
			retrieval_params, provider_id, provider_model, prompt_template_version,
			code_version, report_template_version, created_at
		FROM run_manifests
		WHERE run_id = $1
	`
	row := s.pool.QueryRow(ctx, query, runID)
	m, err := scanManifest(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run manifest: %w", err)
	}
	return m, nil
}

func scanManifest(row pgx.Row) (*domain.RunManifest, error) {
	var m domain.RunManifest
	var docHashes, bundleRefs, retrieval []byte

	err := row.Scan(
		&m.RunID, &m.RunHash, &docHashes, &bundleRefs, &m.PlanHash, &m.CompilerMode,
		&retrieval, &m.ProviderID, &m.ProviderModel, &m.PromptTemplateVersion,
		&m.CodeVersion, &m.ReportTemplateVersion, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(docHashes, &m.DocumentHashes); err != nil {
		return nil, fmt.Errorf("unmarshal document hashes: %w", err)
	}
	if err := json.Unmarshal(bundleRefs, &m.BundleRefs); err != nil {
		return nil, fmt.Errorf("unmarshal bundle refs: %w", err)
	}
	if err := json.Unmarshal(retrieval, &m.RetrievalParams); err != nil {
		return nil, fmt.Errorf("unmarshal retrieval params: %w", err)
	}
	return &m, nil
}
