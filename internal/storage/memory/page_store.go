package memory

import (
	"sort"
	"sync"

	"context"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// PageStore is an in-memory implementation of storage.PageStore.
type PageStore struct {
	mu    sync.RWMutex
	pages map[string]map[int]*domain.Page // doc_hash -> page_number
}

// NewPageStore creates a new in-memory page store.
func NewPageStore() *PageStore {
	return &PageStore{pages: make(map[string]map[int]*domain.Page)}
}

func (s *PageStore) InsertBulk(_ context.Context, pages []*domain.Page) error {
	if len(pages) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range pages {
		if byPage, ok := s.pages[p.DocHash]; ok {
			if _, exists := byPage[p.PageNumber]; exists {
				return storage.ErrDuplicateKey
			}
		}
	}

	for _, p := range pages {
		byPage, ok := s.pages[p.DocHash]
		if !ok {
			byPage = make(map[int]*domain.Page)
			s.pages[p.DocHash] = byPage
		}
		cp := *p
		byPage[p.PageNumber] = &cp
	}
	return nil
}

func (s *PageStore) GetByDocHash(_ context.Context, docHash string) ([]*domain.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byPage, ok := s.pages[docHash]
	if !ok {
		return nil, nil
	}

	out := make([]*domain.Page, 0, len(byPage))
	for _, p := range byPage {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PageNumber < out[j].PageNumber })
	return out, nil
}

var _ storage.PageStore = (*PageStore)(nil)
