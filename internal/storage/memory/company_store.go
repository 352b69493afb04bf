package memory

import (
	"context"
	"sync"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// CompanyStore is an in-memory implementation of storage.CompanyStore.
type CompanyStore struct {
	mu        sync.RWMutex
	companies map[string]map[string]*domain.CompanyProfile // tenant -> company_id
}

// NewCompanyStore creates a new in-memory company store.
func NewCompanyStore() *CompanyStore {
	return &CompanyStore{companies: make(map[string]map[string]*domain.CompanyProfile)}
}

func (s *CompanyStore) Insert(_ context.Context, p *domain.CompanyProfile) error {
	if p == nil || p.Tenant == "" || p.CompanyID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byCompany, ok := s.companies[p.Tenant]
	if !ok {
		byCompany = make(map[string]*domain.CompanyProfile)
		s.companies[p.Tenant] = byCompany
	}
	if _, exists := byCompany[p.CompanyID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *p
	cp.Jurisdictions = append([]string(nil), p.Jurisdictions...)
	cp.SelectedBundleRefs = append([]domain.BundleRef(nil), p.SelectedBundleRefs...)
	byCompany[p.CompanyID] = &cp
	return nil
}

func (s *CompanyStore) Get(_ context.Context, tenant, companyID string) (*domain.CompanyProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.companies[tenant][companyID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *p
	cp.Jurisdictions = append([]string(nil), p.Jurisdictions...)
	cp.SelectedBundleRefs = append([]domain.BundleRef(nil), p.SelectedBundleRefs...)
	return &cp, nil
}

var _ storage.CompanyStore = (*CompanyStore)(nil)
