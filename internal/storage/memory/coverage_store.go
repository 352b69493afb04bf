package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// CoverageStore is an in-memory implementation of storage.CoverageStore.
type CoverageStore struct {
	mu     sync.RWMutex
	byPlan map[string]map[string]*domain.ObligationCoverage // plan_hash -> obligation_code
}

// NewCoverageStore creates a new in-memory coverage store.
func NewCoverageStore() *CoverageStore {
	return &CoverageStore{byPlan: make(map[string]map[string]*domain.ObligationCoverage)}
}

func (s *CoverageStore) InsertBulk(_ context.Context, rows []*domain.ObligationCoverage) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rows {
		byCode, ok := s.byPlan[r.PlanHash]
		if !ok {
			byCode = make(map[string]*domain.ObligationCoverage)
			s.byPlan[r.PlanHash] = byCode
		}
		cp := *r
		byCode[r.ObligationCode] = &cp
	}
	return nil
}

func (s *CoverageStore) GetByPlanHash(_ context.Context, planHash string) ([]*domain.ObligationCoverage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byCode, ok := s.byPlan[planHash]
	if !ok {
		return nil, nil
	}

	out := make([]*domain.ObligationCoverage, 0, len(byCode))
	for _, r := range byCode {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Standard != out[j].Standard {
			return out[i].Standard < out[j].Standard
		}
		return out[i].ObligationCode < out[j].ObligationCode
	})
	return out, nil
}

var _ storage.CoverageStore = (*CoverageStore)(nil)
