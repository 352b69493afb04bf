package postgres

import (
	"context"
	"fmt"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// CompanyDocumentLinkStore implements storage.CompanyDocumentLinkStore using
// PostgreSQL.
type CompanyDocumentLinkStore struct {
	pool *Pool
}

// NewCompanyDocumentLinkStore creates a new CompanyDocumentLinkStore.
func NewCompanyDocumentLinkStore(pool *Pool) *CompanyDocumentLinkStore {
	return &CompanyDocumentLinkStore{pool: pool}
}

var _ storage.CompanyDocumentLinkStore = (*CompanyDocumentLinkStore)(nil)

func (s *CompanyDocumentLinkStore) Link(ctx context.Context, link *domain.CompanyDocumentLink) error {
	query := `
		INSERT INTO company_document_links (tenant, company_id, doc_hash, title, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant, company_id, doc_hash) DO NOTHING
	`
	_, err := s.pool.Exec(ctx, query, link.Tenant, link.CompanyID, link.DocHash, link.Title, link.CreatedAt)
	if err != nil {
		return fmt.Errorf("link company document: %w", err)
	}
	return nil
}

func (s *CompanyDocumentLinkStore) DocHashesForCompany(ctx context.Context, tenant, companyID string) ([]string, error) {
	query := `
		SELECT doc_hash FROM company_document_links
		WHERE tenant = $1 AND company_id = $2
		ORDER BY doc_hash ASC
	`
	rows, err := s.pool.Query(ctx, query, tenant, companyID)
	if err != nil {
		return nil, fmt.Errorf("list company document hashes: %w", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan doc hash: %w", err)
		}
		hashes = append(hashes, h)
	}
	return hashes, rows.Err()
}

func (s *CompanyDocumentLinkStore) IsLinked(ctx context.Context, tenant, companyID, docHash string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM company_document_links
			WHERE tenant = $1 AND company_id = $2 AND doc_hash = $3
		)
	`
	var linked bool
	if err := s.pool.QueryRow(ctx, query, tenant, companyID, docHash).Scan(&linked); err != nil {
		return false, fmt.Errorf("check company document link: %w", err)
	}
	return linked, nil
}
