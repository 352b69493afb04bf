// Command bundlelist prints every active bundle and its known versions,
// per spec.md §6.6.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/verascope/verascope/internal/bundle"
	"github.com/verascope/verascope/internal/exitcode"
	"github.com/verascope/verascope/internal/storage"
	"github.com/verascope/verascope/internal/storage/memory"
	pgstore "github.com/verascope/verascope/internal/storage/postgres"
)

func main() {
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	registryDir := flag.String("registry", "", "directory of TOML bundle files to list instead of the store")
	flag.Parse()

	ctx := context.Background()

	if *registryDir != "" {
		bundles, err := bundle.NewLoader(*registryDir).LoadAll()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading registry: %v\n", err)
			os.Exit(exitcode.UserError)
		}
		store := memory.NewBundleStore()
		for _, b := range bundles {
			if err := store.Upsert(ctx, b); err != nil {
				fmt.Fprintf(os.Stderr, "Error loading %s@%s: %v\n", b.BundleID, b.Version, err)
				os.Exit(exitcode.IntegrityFailure)
			}
		}
		printBundles(ctx, store)
		return
	}

	if *postgresDSN == "" {
		fmt.Fprintln(os.Stderr, "Error: --postgres-dsn or --registry is required")
		os.Exit(exitcode.UserError)
	}

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to postgres: %v\n", err)
		os.Exit(exitcode.DependencyUnavailable)
	}
	defer pool.Close()

	printBundles(ctx, pgstore.NewBundleStore(pool))
}

func printBundles(ctx context.Context, store storage.BundleStore) {
	bundles, err := store.ListAll(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing bundles: %v\n", err)
		os.Exit(exitcode.DependencyUnavailable)
	}

	for _, b := range bundles {
		versions, err := store.ListVersions(ctx, b.BundleID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing versions for %s: %v\n", b.BundleID, err)
			os.Exit(exitcode.DependencyUnavailable)
		}
		fmt.Printf("%s (%s, %s) versions=%v checksum=%s\n", b.BundleID, b.Regime, b.Jurisdiction, versions, b.Checksum)
	}
}
