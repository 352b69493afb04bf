package runcache

import (
	"context"
	"testing"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage/memory"
)

func baseFingerprint() Fingerprint {
	return Fingerprint{
		DocumentHashes: []string{"b", "a"},
		CompanyProfileSnapshot: domain.CompanyProfile{
			CompanyID: "acme", Tenant: "tenant-a",
		},
		BundleRefs:            []domain.BundleRef{{BundleID: "esrs_mini", Version: "1.0.0", Checksum: "abc"}},
		CompilerMode:          "standard",
		ProviderIdentity:      "deterministic",
		PromptTemplateVersion: "v1",
		CodeVersion:           "v1",
	}
}

func TestHash_OrderInsensitiveOverDocumentHashes(t *testing.T) {
	a := baseFingerprint()
	b := baseFingerprint()
	b.DocumentHashes = []string{"a", "b"}

	h1, err := Hash(a)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	h2, err := Hash(b)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if h1 != h2 {
		t.Errorf("Hash differs across document_hashes permutation: %s vs %s", h1, h2)
	}
}

func TestHash_DiffersOnProviderIdentity(t *testing.T) {
	a := baseFingerprint()
	b := baseFingerprint()
	b.ProviderIdentity = "anthropic:claude-opus"

	h1, _ := Hash(a)
	h2, _ := Hash(b)
	if h1 == h2 {
		t.Error("Hash did not change when provider identity changed")
	}
}

func TestLookup_MissThenHit(t *testing.T) {
	cache := memory.NewRunCacheStore()
	ctx := context.Background()

	_, hit, err := Lookup(ctx, cache, "deadbeef")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if hit {
		t.Fatal("Lookup() hit on empty cache")
	}

	if err := Store(ctx, cache, &domain.RunCacheEntry{RunHash: "deadbeef", ManifestRef: "m1"}); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	entry, hit, err := Lookup(ctx, cache, "deadbeef")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if !hit {
		t.Fatal("Lookup() miss after Store()")
	}
	if entry.ManifestRef != "m1" {
		t.Errorf("ManifestRef = %q, want m1", entry.ManifestRef)
	}
}
