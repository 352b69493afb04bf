// Package runcache computes run_hash, the fingerprint over everything that
// influences a run's outputs, and provides the write-once cache lookup
// that lets the orchestrator (C10) skip re-running a run whose fingerprint
// has already completed successfully — spec §4.11.
package runcache

import (
	"context"
	"errors"
	"sort"

	"github.com/verascope/verascope/internal/canonical"
	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// Fingerprint is every input that determines a run's outputs. Two runs
// with an identical Fingerprint must produce byte-identical artifacts.
type Fingerprint struct {
	DocumentHashes        []string          `json:"document_hashes"`
	CompanyProfileSnapshot domain.CompanyProfile `json:"company_profile_snapshot"`
	MaterialitySnapshot   map[string]bool   `json:"materiality_snapshot"`
	BundleRefs            []domain.BundleRef `json:"bundle_refs"`
	CompilerMode          string            `json:"compiler_mode"`
	RetrievalParams       domain.RetrievalParams `json:"retrieval_params"`
	ProviderIdentity      string            `json:"provider_identity"`
	PromptTemplateVersion string            `json:"prompt_template_version"`
	CodeVersion           string            `json:"code_version"`
}

// Hash computes run_hash = SHA-256(canonical(Fingerprint)). document_hashes
// is sorted ascending first so run_hash does not depend on document fetch
// or link-insertion order.
func Hash(f Fingerprint) (string, error) {
	sorted := append([]string(nil), f.DocumentHashes...)
	sort.Strings(sorted)
	f.DocumentHashes = sorted
	return canonical.Checksum(f)
}

// Lookup checks the write-once cache for an existing completed run with
// runHash. It returns (entry, true, nil) on a hit, (nil, false, nil) on a
// clean miss, and a non-nil error only on a genuine store failure.
func Lookup(ctx context.Context, cache storage.RunCacheStore, runHash string) (*domain.RunCacheEntry, bool, error) {
	entry, err := cache.GetByRunHash(ctx, runHash)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return entry, true, nil
}

// Store records a cache entry for a newly completed run. A second
// concurrent completion with the same run_hash is a no-op at the store
// layer, not an error.
func Store(ctx context.Context, cache storage.RunCacheStore, entry *domain.RunCacheEntry) error {
	return cache.Insert(ctx, entry)
}
