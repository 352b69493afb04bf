package memory

import (
	"context"
	"sync"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// RunCacheStore is an in-memory implementation of storage.RunCacheStore.
type RunCacheStore struct {
	mu      sync.RWMutex
	entries map[string]*domain.RunCacheEntry // run_hash -> entry
}

// NewRunCacheStore creates a new in-memory run cache store.
func NewRunCacheStore() *RunCacheStore {
	return &RunCacheStore{entries: make(map[string]*domain.RunCacheEntry)}
}

func (s *RunCacheStore) Insert(_ context.Context, e *domain.RunCacheEntry) error {
	if e == nil || e.RunHash == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[e.RunHash]; exists {
		return nil // a second concurrent completion with the same run_hash is a no-op
	}

	cp := *e
	s.entries[e.RunHash] = &cp
	return nil
}

func (s *RunCacheStore) GetByRunHash(_ context.Context, runHash string) (*domain.RunCacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[runHash]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

var _ storage.RunCacheStore = (*RunCacheStore)(nil)
