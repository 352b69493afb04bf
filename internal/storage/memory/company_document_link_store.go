package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// CompanyDocumentLinkStore is an in-memory implementation of
// storage.CompanyDocumentLinkStore.
type CompanyDocumentLinkStore struct {
	mu    sync.RWMutex
	links map[string]map[string]map[string]*domain.CompanyDocumentLink // tenant -> company -> doc_hash
}

// NewCompanyDocumentLinkStore creates a new in-memory link store.
func NewCompanyDocumentLinkStore() *CompanyDocumentLinkStore {
	return &CompanyDocumentLinkStore{
		links: make(map[string]map[string]map[string]*domain.CompanyDocumentLink),
	}
}

func (s *CompanyDocumentLinkStore) Link(_ context.Context, link *domain.CompanyDocumentLink) error {
	if link == nil || link.Tenant == "" || link.CompanyID == "" || link.DocHash == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byCompany, ok := s.links[link.Tenant]
	if !ok {
		byCompany = make(map[string]map[string]*domain.CompanyDocumentLink)
		s.links[link.Tenant] = byCompany
	}
	byDoc, ok := byCompany[link.CompanyID]
	if !ok {
		byDoc = make(map[string]*domain.CompanyDocumentLink)
		byCompany[link.CompanyID] = byDoc
	}
	if _, exists := byDoc[link.DocHash]; exists {
		return nil // idempotent
	}

	cp := *link
	byDoc[link.DocHash] = &cp
	return nil
}

func (s *CompanyDocumentLinkStore) DocHashesForCompany(_ context.Context, tenant, companyID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hashes []string
	if byDoc, ok := s.links[tenant][companyID]; ok {
		for h := range byDoc {
			hashes = append(hashes, h)
		}
	}
	sort.Strings(hashes)
	return hashes, nil
}

func (s *CompanyDocumentLinkStore) IsLinked(_ context.Context, tenant, companyID, docHash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDoc, ok := s.links[tenant][companyID]
	if !ok {
		return false, nil
	}
	_, linked := byDoc[docHash]
	return linked, nil
}

var _ storage.CompanyDocumentLinkStore = (*CompanyDocumentLinkStore)(nil)
