package memory

import (
	"context"
	"sync"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu     sync.RWMutex
	runs   map[string]*domain.Run // run_id -> run
	byHash map[string]string      // run_hash -> run_id, last completed wins
	clock  func() int64
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs:   make(map[string]*domain.Run),
		byHash: make(map[string]string),
		clock:  func() int64 { return 0 },
	}
}

// WithClock sets a custom clock for deterministic timestamp stamping.
func (s *RunStore) WithClock(clock func() int64) *RunStore {
	s.clock = clock
	return s
}

func (s *RunStore) Insert(_ context.Context, r *domain.Run) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *r
	s.runs[r.RunID] = &cp
	return nil
}

func (s *RunStore) Get(_ context.Context, tenant, runID string) (*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[runID]
	if !ok || r.Tenant != tenant {
		return nil, storage.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *RunStore) UpdateStatus(_ context.Context, runID string, status domain.RunStatus, failureReason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[runID]
	if !ok {
		return storage.ErrNotFound
	}
	if r.Status.IsTerminal() {
		return storage.ErrInvalidInput
	}

	r.Status = status
	r.FailureReason = failureReason
	if status.IsTerminal() {
		r.CompletedAt = s.clock()
		if status == domain.RunCompleted && r.RunHash != "" {
			s.byHash[r.RunHash] = runID
		}
	}
	return nil
}

func (s *RunStore) SetRunHash(_ context.Context, runID, runHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[runID]
	if !ok {
		return storage.ErrNotFound
	}
	r.RunHash = runHash
	if r.Status == domain.RunCompleted {
		s.byHash[runHash] = runID
	}
	return nil
}

func (s *RunStore) GetByRunHash(_ context.Context, runHash string) (*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runID, ok := s.byHash[runHash]
	if !ok {
		return nil, storage.ErrNotFound
	}
	r, ok := s.runs[runID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

var _ storage.RunStore = (*RunStore)(nil)
