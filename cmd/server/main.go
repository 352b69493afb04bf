// Command server runs the compliance assessment HTTP API of spec §6.1:
// company/document intake, run lifecycle, diagnostics, reporting, and
// evidence-pack export, backed by PostgreSQL for relational state and
// ClickHouse for the append-only pages/chunks/coverage/diagnostics tables.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/verascope/verascope/internal/chunk"
	"github.com/verascope/verascope/internal/compiler"
	"github.com/verascope/verascope/internal/docstore"
	"github.com/verascope/verascope/internal/extraction/provider"
	"github.com/verascope/verascope/internal/orchestrator"
	"github.com/verascope/verascope/internal/retrieval"
	"github.com/verascope/verascope/internal/server"
	"github.com/verascope/verascope/internal/storage"
	"github.com/verascope/verascope/internal/storage/clickhouse"
	"github.com/verascope/verascope/internal/storage/memory"
	"github.com/verascope/verascope/internal/storage/postgres"
)

func main() {
	loadEnvFile()

	addr := flag.String("addr", ":8080", "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	primaryProvider := flag.String("primary-provider", os.Getenv("PRIMARY_PROVIDER"), "Primary extraction provider (deterministic, anthropic, gemini)")
	tenantKeys := flag.String("tenant-keys", os.Getenv("TENANT_API_KEYS"), "Comma-separated tenant:api_key pairs")
	enableEvents := flag.Bool("enable-events", true, "Enable the optional WebSocket run-events endpoint")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	keys := parseTenantKeys(*tenantKeys)
	if len(keys) == 0 {
		logger.Println("Warning: no tenant API keys configured; every request will be rejected")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	docs := docstore.New(docstore.Options{
		DocumentStore:            stores.documents,
		CompanyDocumentLinkStore: stores.links,
	})

	comp := compiler.New(stores.bundles)
	retriever := retrieval.New(stores.chunks, stores.links, nil)
	providerFactory := provider.NewFactory(ctx, *primaryProvider)

	orch, err := orchestrator.New(orchestrator.Options{
		Links:       stores.links,
		Chunks:      stores.chunks,
		Runs:        stores.runs,
		Assessments: stores.assessments,
		Diagnostics: stores.diagnostics,
		Coverage:    stores.coverage,
		Manifests:   stores.manifests,
		RunCache:    stores.runCache,

		Compiler:        comp,
		Retriever:       retriever,
		RetrievalParams: retrieval.DefaultParams(),
		ProviderFactory: providerFactory,

		CompilerMode: "standard",
		Logger:       log.New(os.Stdout, "[orchestrator] ", log.LstdFlags),
	})
	if err != nil {
		logger.Fatalf("Failed to start orchestrator: %v", err)
	}
	defer orch.Close()

	var hub *server.Hub
	if *enableEvents {
		hub = server.NewHub(log.New(os.Stdout, "[events] ", log.LstdFlags))
	}

	srv := server.New(server.Options{
		Companies:   stores.companies,
		Runs:        stores.runs,
		Assessments: stores.assessments,
		Diagnostics: stores.diagnostics,
		Coverage:    stores.coverage,
		Manifests:   stores.manifests,
		Pages:       stores.pages,
		Chunks:      stores.chunks,

		Docs:        docs,
		ChunkParams: chunk.DefaultParams(),
		Orchestrator: orch,
		Compiler:     comp,

		Auth:   server.NewTenantAuth(keys),
		Hub:    hub,
		Logger: log.New(os.Stdout, "[http] ", log.LstdFlags),
	})

	httpServer := &http.Server{
		Addr:    *addr,
		Handler: srv.Routes(),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Printf("Listening on %s", *addr)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server error: %v", err)
		}
	case sig := <-sigCh:
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Graceful shutdown failed: %v, forcing close", err)
			httpServer.Close()
		}
	}

	logger.Println("Shutdown complete")
}

// parseTenantKeys parses a "tenant1:key1,tenant2:key2" list into a map.
func parseTenantKeys(s string) map[string]string {
	keys := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		keys[parts[0]] = parts[1]
	}
	return keys
}

// allStores collects every storage backend the server depends on, split
// across PostgreSQL (relational/OLTP: companies, documents, runs,
// assessments, manifests, bundles, run cache) and ClickHouse (append-only
// analytical tables: pages, chunks, coverage, diagnostics).
type allStores struct {
	companies    storage.CompanyStore
	documents    storage.DocumentStore
	links        storage.CompanyDocumentLinkStore
	bundles      storage.BundleStore
	runs         storage.RunStore
	assessments  storage.AssessmentStore
	manifests    storage.ManifestStore
	runCache     storage.RunCacheStore
	pages        storage.PageStore
	chunks       storage.ChunkStore
	coverage     storage.CoverageStore
	diagnostics  storage.DiagnosticStore
}

func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			companies:   memory.NewCompanyStore(),
			documents:   memory.NewDocumentStore(),
			links:       memory.NewCompanyDocumentLinkStore(),
			bundles:     memory.NewBundleStore(),
			runs:        memory.NewRunStore(),
			assessments: memory.NewAssessmentStore(),
			manifests:   memory.NewManifestStore(),
			runCache:    memory.NewRunCacheStore(),
			pages:       memory.NewPageStore(),
			chunks:      memory.NewChunkStore(),
			coverage:    memory.NewCoverageStore(),
			diagnostics: memory.NewDiagnosticStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	conn, err := clickhouse.NewConn(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	stores := &allStores{
		companies:   postgres.NewCompanyStore(pool),
		documents:   postgres.NewDocumentStore(pool),
		links:       postgres.NewCompanyDocumentLinkStore(pool),
		bundles:     postgres.NewBundleStore(pool),
		runs:        postgres.NewRunStore(pool),
		assessments: postgres.NewAssessmentStore(pool),
		manifests:   postgres.NewManifestStore(pool),
		runCache:    postgres.NewRunCacheStore(pool),

		pages:       clickhouse.NewPageStore(conn),
		chunks:      clickhouse.NewChunkStore(conn),
		coverage:    clickhouse.NewCoverageStore(conn),
		diagnostics: clickhouse.NewDiagnosticStore(conn),
	}

	cleanup := func() {
		conn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// loadEnvFile populates process environment variables from a .env file in
// the working directory, if present, without overriding ones already set.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
