// Command compilepreview compiles a plan for a company/reporting-year pair
// and prints the resulting obligations, datapoints, and exclusions without
// executing a run, per spec.md §6.6's "bundles compile-preview" operation.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/verascope/verascope/internal/compiler"
	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/exitcode"
	pgstore "github.com/verascope/verascope/internal/storage/postgres"
)

func main() {
	tenant := flag.String("tenant", "", "owning tenant")
	companyID := flag.String("company", "", "company_id to compile for")
	year := flag.Int("year", 0, "reporting year")
	bundleRefs := flag.String("bundles", "", "comma-separated bundle_id@version list; empty uses the company's selected bundles")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	flag.Parse()

	ctx := context.Background()

	if *tenant == "" || *companyID == "" || *year == 0 || *postgresDSN == "" {
		fmt.Fprintln(os.Stderr, "Error: --tenant, --company, --year, and --postgres-dsn are required")
		os.Exit(exitcode.UserError)
	}

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to postgres: %v\n", err)
		os.Exit(exitcode.DependencyUnavailable)
	}
	defer pool.Close()

	companies := pgstore.NewCompanyStore(pool)
	profile, err := companies.Get(ctx, *tenant, *companyID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading company %s: %v\n", *companyID, err)
		os.Exit(exitcode.UserError)
	}

	refs := profile.SelectedBundleRefs
	if *bundleRefs != "" {
		refs, err = parseBundleRefs(*bundleRefs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing --bundles: %v\n", err)
			os.Exit(exitcode.UserError)
		}
	}

	bundles := pgstore.NewBundleStore(pool)
	plan, err := compiler.New(bundles).Compile(ctx, profile, *year, refs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error compiling plan: %v\n", err)
		os.Exit(exitcode.IntegrityFailure)
	}

	printPlan(plan)
}

func parseBundleRefs(s string) ([]domain.BundleRef, error) {
	parts := strings.Split(s, ",")
	refs := make([]domain.BundleRef, 0, len(parts))
	for _, p := range parts {
		idVersion := strings.SplitN(strings.TrimSpace(p), "@", 2)
		if len(idVersion) != 2 || idVersion[0] == "" || idVersion[1] == "" {
			return nil, fmt.Errorf("%q: expected bundle_id@version", p)
		}
		refs = append(refs, domain.BundleRef{BundleID: idVersion[0], Version: idVersion[1]})
	}
	return refs, nil
}

func printPlan(plan *domain.CompiledPlan) {
	fmt.Printf("plan_hash=%s cohort=%s obligations=%d datapoints=%d excluded_obligations=%d excluded_datapoints=%d\n",
		plan.PlanHash, plan.Cohort, len(plan.Obligations), len(plan.Datapoints), len(plan.Excluded), len(plan.ExcludedDatapoints))

	for _, o := range plan.Obligations {
		fmt.Printf("  [%s] %s (%s) mandatory=%v\n", o.ObligationCode, o.Title, o.Standard, o.Mandatory)
	}
	for _, x := range plan.Excluded {
		fmt.Printf("  excluded obligation %s: %s (%s)\n", x.ObligationCode, x.Reason, x.Detail)
	}
	for _, x := range plan.ExcludedDatapoints {
		fmt.Printf("  excluded datapoint %s/%s: %s (%s)\n", x.ObligationCode, x.DatapointKey, x.Reason, x.Detail)
	}
}
