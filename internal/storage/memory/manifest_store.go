package memory

import (
	"context"
	"sync"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// ManifestStore is an in-memory implementation of storage.ManifestStore.
type ManifestStore struct {
	mu        sync.RWMutex
	manifests map[string]*domain.RunManifest // run_id -> manifest
}

// NewManifestStore creates a new in-memory manifest store.
func NewManifestStore() *ManifestStore {
	return &ManifestStore{manifests: make(map[string]*domain.RunManifest)}
}

func (s *ManifestStore) Insert(_ context.Context, m *domain.RunManifest) error {
	if m == nil || m.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.manifests[m.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *m
	cp.DocumentHashes = append([]string(nil), m.DocumentHashes...)
	cp.BundleRefs = append([]domain.BundleRef(nil), m.BundleRefs...)
	s.manifests[m.RunID] = &cp
	return nil
}

func (s *ManifestStore) GetByRun(_ context.Context, runID string) (*domain.RunManifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.manifests[runID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *m
	cp.DocumentHashes = append([]string(nil), m.DocumentHashes...)
	cp.BundleRefs = append([]domain.BundleRef(nil), m.BundleRefs...)
	return &cp, nil
}

var _ storage.ManifestStore = (*ManifestStore)(nil)
