package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// BundleStore is an in-memory implementation of storage.BundleStore.
type BundleStore struct {
	mu       sync.RWMutex
	bundles  map[string]map[string]*domain.Bundle // bundle_id -> version
	inactive map[string]map[string]bool           // bundle_id -> version -> deactivated
}

// NewBundleStore creates a new in-memory bundle store.
func NewBundleStore() *BundleStore {
	return &BundleStore{
		bundles:  make(map[string]map[string]*domain.Bundle),
		inactive: make(map[string]map[string]bool),
	}
}

func (s *BundleStore) Upsert(_ context.Context, b *domain.Bundle) error {
	if b == nil || b.BundleID == "" || b.Version == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byVersion, ok := s.bundles[b.BundleID]
	if !ok {
		byVersion = make(map[string]*domain.Bundle)
		s.bundles[b.BundleID] = byVersion
	}

	if existing, exists := byVersion[b.Version]; exists {
		if existing.Checksum != b.Checksum {
			return storage.ErrDuplicateKey
		}
		return nil // identical re-sync, no-op
	}

	cp := *b
	cp.Obligations = append([]domain.Obligation(nil), b.Obligations...)
	cp.Overlays = append([]domain.Overlay(nil), b.Overlays...)
	byVersion[b.Version] = &cp

	if inactiveVersions, ok := s.inactive[b.BundleID]; ok {
		delete(inactiveVersions, b.Version)
	}
	return nil
}

func (s *BundleStore) Get(_ context.Context, bundleID, version string) (*domain.Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byVersion, ok := s.bundles[bundleID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	b, ok := byVersion[version]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *BundleStore) ListVersions(_ context.Context, bundleID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byVersion, ok := s.bundles[bundleID]
	if !ok {
		return nil, nil
	}

	versions := make([]string, 0, len(byVersion))
	for v := range byVersion {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool {
		vi, erri := semver.NewVersion(versions[i])
		vj, errj := semver.NewVersion(versions[j])
		if erri != nil || errj != nil {
			return versions[i] < versions[j]
		}
		return vi.LessThan(vj)
	})
	return versions, nil
}

func (s *BundleStore) ListAll(_ context.Context) ([]*domain.Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Bundle
	for bundleID, byVersion := range s.bundles {
		for version, b := range byVersion {
			if s.inactive[bundleID][version] {
				continue
			}
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BundleID != out[j].BundleID {
			return out[i].BundleID < out[j].BundleID
		}
		return out[i].Version < out[j].Version
	})
	return out, nil
}

func (s *BundleStore) Deactivate(_ context.Context, bundleID, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byVersion, ok := s.bundles[bundleID]
	if !ok {
		return storage.ErrNotFound
	}
	if _, ok := byVersion[version]; !ok {
		return storage.ErrNotFound
	}

	versions, ok := s.inactive[bundleID]
	if !ok {
		versions = make(map[string]bool)
		s.inactive[bundleID] = versions
	}
	versions[version] = true
	return nil
}

var _ storage.BundleStore = (*BundleStore)(nil)
