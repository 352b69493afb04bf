package extraction

import (
	"context"
	"testing"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/extraction/provider"
	"github.com/verascope/verascope/internal/extraction/workerpb"
	"github.com/verascope/verascope/internal/retrieval"
	"github.com/verascope/verascope/internal/storage/memory"
)

func newTestAdapter(t *testing.T) (*Adapter, func()) {
	t.Helper()

	chunks := memory.NewChunkStore()
	links := memory.NewCompanyDocumentLinkStore()
	if err := links.Link(context.Background(), &domain.CompanyDocumentLink{
		Tenant: "tenant-a", CompanyID: "acme", DocHash: "doc1",
	}); err != nil {
		t.Fatalf("Link() error = %v", err)
	}
	if err := chunks.InsertBulk(context.Background(), []*domain.Chunk{
		{ChunkID: "chunk-1", DocHash: "doc1", PageNumber: 1, StartOffset: 0, EndOffset: 20, Text: "emissions were 100 tCO2e in 2024"},
	}); err != nil {
		t.Fatalf("InsertBulk() error = %v", err)
	}

	retriever := retrieval.New(chunks, links, nil)
	factory := provider.NewFactory(context.Background(), "")

	adapter, err := New(retriever, retrieval.DefaultParams(), factory)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return adapter, func() { adapter.Close() }
}

func TestExtractOne_DeterministicProviderYieldsAbsentWithPromptHash(t *testing.T) {
	adapter, closeFn := newTestAdapter(t)
	defer closeFn()

	dp := domain.Datapoint{
		DatapointKey:  "dp1",
		Title:         "GHG emissions",
		DisclosureRef: "ESRS E1-6 §34",
		DatapointType: domain.DatapointMetric,
	}

	result, err := adapter.ExtractOne(context.Background(), "run-1", "tenant-a", "acme", dp)
	if err != nil {
		t.Fatalf("ExtractOne() error = %v", err)
	}

	if result.Assessment.Status != domain.StatusAbsent {
		t.Errorf("Status = %v, want Absent (deterministic provider never calls out)", result.Assessment.Status)
	}
	if result.Assessment.PromptHash == "" {
		t.Error("PromptHash left empty")
	}
	if result.Diagnostic.DatapointKey != "dp1" {
		t.Errorf("Diagnostic.DatapointKey = %q, want dp1", result.Diagnostic.DatapointKey)
	}
	if len(result.Diagnostic.RetrievedChunkIDs) != 1 || result.Diagnostic.RetrievedChunkIDs[0] != "chunk-1" {
		t.Errorf("RetrievedChunkIDs = %v, want [chunk-1]", result.Diagnostic.RetrievedChunkIDs)
	}
}

func TestExtractOne_PromptHashIsDeterministicAcrossRuns(t *testing.T) {
	adapter, closeFn := newTestAdapter(t)
	defer closeFn()

	dp := domain.Datapoint{
		DatapointKey:  "dp1",
		Title:         "GHG emissions",
		DisclosureRef: "ESRS E1-6 §34",
		DatapointType: domain.DatapointMetric,
	}

	r1, err := adapter.ExtractOne(context.Background(), "run-1", "tenant-a", "acme", dp)
	if err != nil {
		t.Fatalf("ExtractOne() error = %v", err)
	}
	r2, err := adapter.ExtractOne(context.Background(), "run-2", "tenant-a", "acme", dp)
	if err != nil {
		t.Fatalf("ExtractOne() error = %v", err)
	}

	if r1.Assessment.PromptHash != r2.Assessment.PromptHash {
		t.Errorf("PromptHash differs across identical inputs: %s vs %s", r1.Assessment.PromptHash, r2.Assessment.PromptHash)
	}
}

func TestApplyEvidenceGate_DowngradesPresentWithNoEvidence(t *testing.T) {
	assessment, diagnostic := applyEvidenceGate("run-1", "dp1", "hash", domain.RetrievalParams{}, []string{"chunk-1"},
		&workerpb.ExtractResponse{Status: "Present"})

	if assessment.Status != domain.StatusAbsent {
		t.Errorf("Status = %v, want Absent", assessment.Status)
	}
	if diagnostic.FailureReasonCode != domain.FailureEvidenceMissing {
		t.Errorf("FailureReasonCode = %v, want EVIDENCE_MISSING", diagnostic.FailureReasonCode)
	}
}

func TestApplyEvidenceGate_KeepsPresentWithEvidence(t *testing.T) {
	assessment, diagnostic := applyEvidenceGate("run-1", "dp1", "hash", domain.RetrievalParams{}, []string{"chunk-1"},
		&workerpb.ExtractResponse{Status: "Present", EvidenceChunkIds: []string{"chunk-1"}, Rationale: "cited"})

	if assessment.Status != domain.StatusPresent {
		t.Errorf("Status = %v, want Present", assessment.Status)
	}
	if diagnostic.FailureReasonCode != "" {
		t.Errorf("FailureReasonCode = %v, want empty", diagnostic.FailureReasonCode)
	}
}
