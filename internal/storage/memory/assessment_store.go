package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// AssessmentStore is an in-memory implementation of storage.AssessmentStore.
type AssessmentStore struct {
	mu    sync.RWMutex
	byRun map[string]map[string]*domain.Assessment // run_id -> datapoint_key
}

// NewAssessmentStore creates a new in-memory assessment store.
func NewAssessmentStore() *AssessmentStore {
	return &AssessmentStore{byRun: make(map[string]map[string]*domain.Assessment)}
}

func (s *AssessmentStore) Insert(_ context.Context, a *domain.Assessment) error {
	if a == nil || a.RunID == "" || a.DatapointKey == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byKey, ok := s.byRun[a.RunID]
	if !ok {
		byKey = make(map[string]*domain.Assessment)
		s.byRun[a.RunID] = byKey
	}
	if _, exists := byKey[a.DatapointKey]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *a
	cp.EvidenceChunkIDs = append([]string(nil), a.EvidenceChunkIDs...)
	byKey[a.DatapointKey] = &cp
	return nil
}

func (s *AssessmentStore) GetByRun(_ context.Context, runID string) ([]*domain.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byKey, ok := s.byRun[runID]
	if !ok {
		return nil, nil
	}

	out := make([]*domain.Assessment, 0, len(byKey))
	for _, a := range byKey {
		cp := *a
		cp.EvidenceChunkIDs = append([]string(nil), a.EvidenceChunkIDs...)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DatapointKey < out[j].DatapointKey })
	return out, nil
}

var _ storage.AssessmentStore = (*AssessmentStore)(nil)
