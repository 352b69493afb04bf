// Package bundle implements the TOML bundle authoring format, validation,
// canonicalization, and directory-to-store synchronization for regulatory
// bundles (spec §4.5/§6.2).
package bundle

import (
	"context"
	"errors"
	"fmt"

	"github.com/verascope/verascope/internal/storage"
)

// SyncMode controls whether a sync deactivates bundles absent from the
// source directory.
type SyncMode string

const (
	// ModeMerge upserts every bundle found; bundles missing from the
	// directory are left untouched.
	ModeMerge SyncMode = "merge"
	// ModeSync upserts every bundle found and deactivates any previously
	// active (bundle_id, version) pair no longer present on disk.
	ModeSync SyncMode = "sync"
)

// SyncReport summarizes the outcome of one Sync call.
type SyncReport struct {
	Synced      []string // "bundle_id@version" newly inserted or updated
	Unchanged   []string // "bundle_id@version" identical to the stored copy
	Deactivated []string // "bundle_id@version" deactivated (sync mode only)
	Signatures  map[string]SignatureOutcome
}

// Sync loads every TOML bundle under dir and upserts it into store. In
// ModeSync, any (bundle_id, version) active in store but absent from dir is
// deactivated. keyring is optional; pass nil to skip signature checks
// entirely (SignatureNotConfigured is recorded for every bundle). Sync reads
// no signature files: with a non-nil keyring every bundle is recorded as
// SignatureUnsigned.
func Sync(ctx context.Context, store storage.BundleStore, dir string, mode SyncMode, keyring *Keyring) (*SyncReport, error) {
	bundles, err := NewLoader(dir).LoadAll()
	if err != nil {
		return nil, err
	}

	report := &SyncReport{Signatures: make(map[string]SignatureOutcome)}
	present := make(map[string]map[string]bool)

	for _, b := range bundles {
		ref := fmt.Sprintf("%s@%s", b.BundleID, b.Version)

		if present[b.BundleID] == nil {
			present[b.BundleID] = make(map[string]bool)
		}
		present[b.BundleID][b.Version] = true

		canonicalBytes, _, err := Canonicalize(b)
		if err != nil {
			return nil, fmt.Errorf("bundle: canonicalize %s: %w", ref, err)
		}
		sigOutcome, sigErr := keyring.VerifyDetached(canonicalBytes, nil)
		if sigErr != nil {
			return nil, fmt.Errorf("bundle: %s: %w", ref, sigErr)
		}
		report.Signatures[ref] = sigOutcome

		existing, getErr := store.Get(ctx, b.BundleID, b.Version)
		alreadyPresent := getErr == nil && existing.Checksum == b.Checksum

		if err := store.Upsert(ctx, b); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				return nil, fmt.Errorf("bundle: %s: checksum conflicts with a previously synced version: %w", ref, err)
			}
			return nil, fmt.Errorf("bundle: upsert %s: %w", ref, err)
		}

		if alreadyPresent {
			report.Unchanged = append(report.Unchanged, ref)
		} else {
			report.Synced = append(report.Synced, ref)
		}
	}

	if mode == ModeSync {
		if err := deactivateMissing(ctx, store, present, report); err != nil {
			return nil, err
		}
	}

	return report, nil
}

func deactivateMissing(ctx context.Context, store storage.BundleStore, present map[string]map[string]bool, report *SyncReport) error {
	active, err := store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("bundle: list active bundles: %w", err)
	}
	for _, b := range active {
		if present[b.BundleID][b.Version] {
			continue
		}
		if err := store.Deactivate(ctx, b.BundleID, b.Version); err != nil {
			return fmt.Errorf("bundle: deactivate %s@%s: %w", b.BundleID, b.Version, err)
		}
		report.Deactivated = append(report.Deactivated, fmt.Sprintf("%s@%s", b.BundleID, b.Version))
	}
	return nil
}
