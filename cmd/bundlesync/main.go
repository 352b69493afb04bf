// Command bundlesync imports TOML-authored regulatory bundles from a
// directory into the bundle store, per spec.md §6.6.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/verascope/verascope/internal/bundle"
	"github.com/verascope/verascope/internal/exitcode"
	"github.com/verascope/verascope/internal/storage"
	pgstore "github.com/verascope/verascope/internal/storage/postgres"
)

func main() {
	path := flag.String("path", "", "directory of TOML bundle files to sync")
	mode := flag.String("mode", "merge", "sync mode: merge | sync")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	keyringDir := flag.String("keyring", "", "directory of trusted .asc public keys (optional)")
	flag.Parse()

	ctx := context.Background()

	if *path == "" || *postgresDSN == "" {
		fmt.Fprintln(os.Stderr, "Error: --path and --postgres-dsn are required")
		os.Exit(exitcode.UserError)
	}

	syncMode := bundle.SyncMode(*mode)
	if syncMode != bundle.ModeMerge && syncMode != bundle.ModeSync {
		fmt.Fprintf(os.Stderr, "Error: --mode must be %q or %q\n", bundle.ModeMerge, bundle.ModeSync)
		os.Exit(exitcode.UserError)
	}

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to postgres: %v\n", err)
		os.Exit(exitcode.DependencyUnavailable)
	}
	defer pool.Close()

	var store storage.BundleStore = pgstore.NewBundleStore(pool)

	var keyring *bundle.Keyring
	if *keyringDir != "" {
		paths, err := keyPathsInDir(*keyringDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing keyring directory: %v\n", err)
			os.Exit(exitcode.UserError)
		}
		keyring, err = bundle.LoadKeyring(paths)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading keyring: %v\n", err)
			os.Exit(exitcode.UserError)
		}
	}

	report, err := bundle.Sync(ctx, store, *path, syncMode, keyring)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error syncing bundles: %v\n", err)
		os.Exit(exitcode.IntegrityFailure)
	}

	fmt.Printf("synced: %d, unchanged: %d, deactivated: %d\n", len(report.Synced), len(report.Unchanged), len(report.Deactivated))
	for _, ref := range report.Synced {
		fmt.Printf("  + %s (signature: %s)\n", ref, report.Signatures[ref])
	}
	for _, ref := range report.Deactivated {
		fmt.Printf("  - %s\n", ref)
	}
}

func keyPathsInDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, dir+"/"+e.Name())
	}
	return out, nil
}
