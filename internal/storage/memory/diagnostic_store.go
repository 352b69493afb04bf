package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// DiagnosticStore is an in-memory implementation of storage.DiagnosticStore.
type DiagnosticStore struct {
	mu    sync.RWMutex
	byRun map[string][]*domain.ExtractionDiagnostic
}

// NewDiagnosticStore creates a new in-memory diagnostic store.
func NewDiagnosticStore() *DiagnosticStore {
	return &DiagnosticStore{byRun: make(map[string][]*domain.ExtractionDiagnostic)}
}

func (s *DiagnosticStore) Insert(_ context.Context, d *domain.ExtractionDiagnostic) error {
	if d == nil || d.RunID == "" || d.DatapointKey == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *d
	cp.RetrievedChunkIDs = append([]string(nil), d.RetrievedChunkIDs...)
	s.byRun[d.RunID] = append(s.byRun[d.RunID], &cp)
	return nil
}

func (s *DiagnosticStore) GetByRun(_ context.Context, runID string) ([]*domain.ExtractionDiagnostic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	existing := s.byRun[runID]
	out := make([]*domain.ExtractionDiagnostic, len(existing))
	for i, d := range existing {
		cp := *d
		cp.RetrievedChunkIDs = append([]string(nil), d.RetrievedChunkIDs...)
		out[i] = &cp
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DatapointKey < out[j].DatapointKey })
	return out, nil
}

var _ storage.DiagnosticStore = (*DiagnosticStore)(nil)
