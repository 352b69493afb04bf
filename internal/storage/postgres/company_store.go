package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// CompanyStore implements storage.CompanyStore using PostgreSQL.
// Jurisdictions and selected_bundle_refs are stored as JSONB columns.
type CompanyStore struct {
	pool *Pool
}

// NewCompanyStore creates a new CompanyStore.
func NewCompanyStore(pool *Pool) *CompanyStore {
	return &CompanyStore{pool: pool}
}

var _ storage.CompanyStore = (*CompanyStore)(nil)

func (s *CompanyStore) Insert(ctx context.Context, p *domain.CompanyProfile) error {
	jurisdictions, err := json.Marshal(p.Jurisdictions)
	if err != nil {
		return fmt.Errorf("marshal jurisdictions: %w", err)
	}
	bundleRefs, err := json.Marshal(p.SelectedBundleRefs)
	if err != nil {
		return fmt.Errorf("marshal selected bundle refs: %w", err)
	}

	query := `
		INSERT INTO companies (
			company_id, tenant, name, employees, turnover_eur, listed_status,
			reporting_year, reporting_year_start, reporting_year_end,
			jurisdictions, selected_bundle_refs
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.pool.Exec(ctx, query,
		p.CompanyID, p.Tenant, p.Name, p.Employees, p.TurnoverEUR, p.ListedStatus,
		p.ReportingYear, p.ReportingYearStart, p.ReportingYearEnd,
		jurisdictions, bundleRefs,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

func (s *CompanyStore) Get(ctx context.Context, tenant, companyID string) (*domain.CompanyProfile, error) {
	query := `
		SELECT company_id, tenant, name, employees, turnover_eur, listed_status,
			reporting_year, reporting_year_start, reporting_year_end,
			jurisdictions, selected_bundle_refs
		FROM companies
		WHERE company_id = $1 AND tenant = $2
	`
	row := s.pool.QueryRow(ctx, query, companyID, tenant)

	var p domain.CompanyProfile
	var jurisdictions, bundleRefs []byte
	err := row.Scan(
		&p.CompanyID, &p.Tenant, &p.Name, &p.Employees, &p.TurnoverEUR, &p.ListedStatus,
		&p.ReportingYear, &p.ReportingYearStart, &p.ReportingYearEnd,
		&jurisdictions, &bundleRefs,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	if err := json.Unmarshal(jurisdictions, &p.Jurisdictions); err != nil {
		return nil, fmt.Errorf("unmarshal jurisdictions: %w", err)
	}
	if err := json.Unmarshal(bundleRefs, &p.SelectedBundleRefs); err != nil {
		return nil, fmt.Errorf("unmarshal selected bundle refs: %w", err)
	}
	return &p, nil
}
