package bundle

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/verascope/verascope/internal/storage/memory"
)

func TestSync_MergeModeUpsertsWithoutDeactivating(t *testing.T) {
	dir := t.TempDir()
	writeTestBundle(t, dir, "esrs_mini.toml", testBundleTOML)

	store := memory.NewBundleStore()
	report, err := Sync(context.Background(), store, dir, ModeMerge, nil)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if len(report.Synced) != 1 {
		t.Fatalf("report.Synced = %v, want one entry", report.Synced)
	}

	all, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("ListAll() = %d bundles, want 1", len(all))
	}
}

func TestSync_RepeatedSyncIsUnchanged(t *testing.T) {
	dir := t.TempDir()
	writeTestBundle(t, dir, "esrs_mini.toml", testBundleTOML)
	store := memory.NewBundleStore()

	if _, err := Sync(context.Background(), store, dir, ModeMerge, nil); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	report, err := Sync(context.Background(), store, dir, ModeMerge, nil)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if len(report.Synced) != 0 || len(report.Unchanged) != 1 {
		t.Errorf("report = %+v, want zero Synced and one Unchanged", report)
	}
}

func TestSync_SyncModeDeactivatesMissingBundles(t *testing.T) {
	dir := t.TempDir()
	writeTestBundle(t, dir, "esrs_mini.toml", testBundleTOML)
	store := memory.NewBundleStore()

	if _, err := Sync(context.Background(), store, dir, ModeSync, nil); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if err := os.Remove(filepath.Join(dir, "esrs_mini.toml")); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	report, err := Sync(context.Background(), store, dir, ModeSync, nil)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if len(report.Deactivated) != 1 {
		t.Fatalf("report.Deactivated = %v, want one entry", report.Deactivated)
	}

	all, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 0 {
		t.Errorf("ListAll() = %d active bundles after deactivation, want 0", len(all))
	}
}
