// Command rundiagnose prints the per-datapoint diagnostic trail recorded
// for a completed run, per spec.md §6.6's "run diagnose --run-id" operation.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/verascope/verascope/internal/exitcode"
	"github.com/verascope/verascope/internal/storage/clickhouse"
)

func main() {
	runID := flag.String("run-id", "", "run_id to diagnose")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")
	flag.Parse()

	ctx := context.Background()

	if *runID == "" || *clickhouseDSN == "" {
		fmt.Fprintln(os.Stderr, "Error: --run-id and --clickhouse-dsn are required")
		os.Exit(exitcode.UserError)
	}

	conn, err := clickhouse.NewConn(ctx, *clickhouseDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to clickhouse: %v\n", err)
		os.Exit(exitcode.DependencyUnavailable)
	}
	defer conn.Close()

	diagnostics, err := clickhouse.NewDiagnosticStore(conn).GetByRun(ctx, *runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading diagnostics for run %s: %v\n", *runID, err)
		os.Exit(exitcode.DependencyUnavailable)
	}

	if len(diagnostics) == 0 {
		fmt.Printf("run %s: no diagnostic records\n", *runID)
		return
	}

	failures := 0
	for _, d := range diagnostics {
		status := string(d.VerificationStatus)
		if d.FailureReasonCode != "" {
			failures++
			status = fmt.Sprintf("%s (%s)", status, d.FailureReasonCode)
		}
		fmt.Printf("  %-40s status=%-18s retrieved_chunks=%d numeric_matches=%d\n",
			d.DatapointKey, status, len(d.RetrievedChunkIDs), d.NumericMatchesFound)
	}
	fmt.Printf("run %s: %d datapoints, %d with a recorded failure reason\n", *runID, len(diagnostics), failures)
}
