package verification

import (
	"context"
	"testing"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage/memory"
)

func seedChunks(t *testing.T, chunks ...*domain.Chunk) *memory.ChunkStore {
	t.Helper()
	store := memory.NewChunkStore()
	if err := store.InsertBulk(context.Background(), chunks); err != nil {
		t.Fatalf("InsertBulk() error = %v", err)
	}
	return store
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }

func TestVerify_PassesThroughAbsentAndNA(t *testing.T) {
	store := seedChunks(t)
	dp := domain.Datapoint{DatapointKey: "dp1", DatapointType: domain.DatapointNarrative}

	for _, status := range []domain.AssessmentStatus{domain.StatusAbsent, domain.StatusNA} {
		a := domain.Assessment{Status: status}
		d := domain.ExtractionDiagnostic{}
		got, gotD := Verify(context.Background(), store, dp, a, d)
		if got.Status != status {
			t.Errorf("status = %v, want unchanged %v", got.Status, status)
		}
		if gotD.FailureReasonCode != "" {
			t.Errorf("FailureReasonCode = %v, want empty", gotD.FailureReasonCode)
		}
	}
}

func TestVerify_NarrativeWithValidCitationStaysPresent(t *testing.T) {
	store := seedChunks(t, &domain.Chunk{ChunkID: "c1", DocHash: "d1", Text: "we publish a climate transition plan"})
	dp := domain.Datapoint{DatapointKey: "dp1", DatapointType: domain.DatapointNarrative}
	a := domain.Assessment{Status: domain.StatusPresent, EvidenceChunkIDs: []string{"c1"}}

	got, gotD := Verify(context.Background(), store, dp, a, domain.ExtractionDiagnostic{})
	if got.Status != domain.StatusPresent {
		t.Errorf("Status = %v, want Present", got.Status)
	}
	if gotD.FailureReasonCode != "" {
		t.Errorf("FailureReasonCode = %v, want empty", gotD.FailureReasonCode)
	}
}

func TestVerify_MissingCitedChunkDowngradesToAbsent(t *testing.T) {
	store := seedChunks(t)
	dp := domain.Datapoint{DatapointKey: "dp1", DatapointType: domain.DatapointNarrative}
	a := domain.Assessment{Status: domain.StatusPresent, EvidenceChunkIDs: []string{"missing"}}

	got, gotD := Verify(context.Background(), store, dp, a, domain.ExtractionDiagnostic{})
	if got.Status != domain.StatusAbsent {
		t.Errorf("Status = %v, want Absent", got.Status)
	}
	if gotD.FailureReasonCode != domain.FailureChunkNotFound {
		t.Errorf("FailureReasonCode = %v, want CHUNK_NOT_FOUND", gotD.FailureReasonCode)
	}
}

func TestVerify_EmptyCitedChunkTextDowngradesToAbsent(t *testing.T) {
	store := seedChunks(t, &domain.Chunk{ChunkID: "c1", DocHash: "d1", Text: ""})
	dp := domain.Datapoint{DatapointKey: "dp1", DatapointType: domain.DatapointNarrative}
	a := domain.Assessment{Status: domain.StatusPartial, EvidenceChunkIDs: []string{"c1"}}

	got, gotD := Verify(context.Background(), store, dp, a, domain.ExtractionDiagnostic{})
	if got.Status != domain.StatusAbsent {
		t.Errorf("Status = %v, want Absent", got.Status)
	}
	if gotD.FailureReasonCode != domain.FailureEmptyChunk {
		t.Errorf("FailureReasonCode = %v, want EMPTY_CHUNK", gotD.FailureReasonCode)
	}
}

func TestVerify_MetricWithMatchingValueStaysPresent(t *testing.T) {
	store := seedChunks(t, &domain.Chunk{ChunkID: "c1", DocHash: "d1", Text: "total Scope 1 emissions were 1,234.5 tCO2e in 2024"})
	dp := domain.Datapoint{DatapointKey: "dp1", DatapointType: domain.DatapointMetric}
	a := domain.Assessment{
		Status:           domain.StatusPresent,
		Value:            floatPtr(1234.5),
		Unit:             strPtr("tCO2e"),
		Year:             intPtr(2024),
		EvidenceChunkIDs: []string{"c1"},
	}

	got, gotD := Verify(context.Background(), store, dp, a, domain.ExtractionDiagnostic{})
	if got.Status != domain.StatusPresent {
		t.Errorf("Status = %v, want Present", got.Status)
	}
	if gotD.NumericMatchesFound != 1 {
		t.Errorf("NumericMatchesFound = %d, want 1", gotD.NumericMatchesFound)
	}
}

func TestVerify_MetricValueNotCitedDowngradesPresentToPartial(t *testing.T) {
	store := seedChunks(t, &domain.Chunk{ChunkID: "c1", DocHash: "d1", Text: "emissions trended downward"})
	dp := domain.Datapoint{DatapointKey: "dp1", DatapointType: domain.DatapointMetric}
	a := domain.Assessment{
		Status:           domain.StatusPresent,
		Value:            floatPtr(1234.5),
		Unit:             strPtr("tCO2e"),
		Year:             intPtr(2024),
		EvidenceChunkIDs: []string{"c1"},
	}

	got, gotD := Verify(context.Background(), store, dp, a, domain.ExtractionDiagnostic{})
	if got.Status != domain.StatusPartial {
		t.Errorf("Status = %v, want Partial", got.Status)
	}
	if gotD.FailureReasonCode != domain.FailureNumericMismatch {
		t.Errorf("FailureReasonCode = %v, want NUMERIC_MISMATCH", gotD.FailureReasonCode)
	}
}

func TestVerify_MetricValueNotCitedDowngradesPartialToAbsent(t *testing.T) {
	store := seedChunks(t, &domain.Chunk{ChunkID: "c1", DocHash: "d1", Text: "emissions trended downward"})
	dp := domain.Datapoint{DatapointKey: "dp1", DatapointType: domain.DatapointMetric}
	a := domain.Assessment{
		Status:           domain.StatusPartial,
		Value:            floatPtr(1234.5),
		Unit:             strPtr("tCO2e"),
		Year:             intPtr(2024),
		EvidenceChunkIDs: []string{"c1"},
	}

	got, gotD := Verify(context.Background(), store, dp, a, domain.ExtractionDiagnostic{})
	if got.Status != domain.StatusAbsent {
		t.Errorf("Status = %v, want Absent", got.Status)
	}
}

func TestVerify_MissingYearIsDowngraded(t *testing.T) {
	store := seedChunks(t, &domain.Chunk{ChunkID: "c1", DocHash: "d1", Text: "1,234.5 tCO2e"})
	dp := domain.Datapoint{DatapointKey: "dp1", DatapointType: domain.DatapointMetric}
	a := domain.Assessment{
		Status:           domain.StatusPresent,
		Value:            floatPtr(1234.5),
		Unit:             strPtr("tCO2e"),
		EvidenceChunkIDs: []string{"c1"},
	}

	_, gotD := Verify(context.Background(), store, dp, a, domain.ExtractionDiagnostic{})
	if gotD.FailureReasonCode != domain.FailureYearMissing {
		t.Errorf("FailureReasonCode = %v, want YEAR_MISSING", gotD.FailureReasonCode)
	}
}

func TestVerify_MissingBaselineIsDowngradedWhenRequired(t *testing.T) {
	store := seedChunks(t, &domain.Chunk{ChunkID: "c1", DocHash: "d1", Text: "1,234.5 tCO2e"})
	dp := domain.Datapoint{DatapointKey: "dp1", DatapointType: domain.DatapointMetric, RequiresBaseline: true}
	a := domain.Assessment{
		Status:           domain.StatusPresent,
		Value:            floatPtr(1234.5),
		Unit:             strPtr("tCO2e"),
		Year:             intPtr(2024),
		EvidenceChunkIDs: []string{"c1"},
	}

	_, gotD := Verify(context.Background(), store, dp, a, domain.ExtractionDiagnostic{})
	if gotD.FailureReasonCode != domain.FailureBaselineMissing {
		t.Errorf("FailureReasonCode = %v, want BASELINE_MISSING", gotD.FailureReasonCode)
	}
}

func TestVerify_UndeclaredUnitIsUnitMismatch(t *testing.T) {
	store := seedChunks(t, &domain.Chunk{ChunkID: "c1", DocHash: "d1", Text: "1,234.5 furlongs"})
	dp := domain.Datapoint{DatapointKey: "dp1", DatapointType: domain.DatapointMetric}
	a := domain.Assessment{
		Status:           domain.StatusPresent,
		Value:            floatPtr(1234.5),
		Unit:             strPtr("furlongs"),
		Year:             intPtr(2024),
		EvidenceChunkIDs: []string{"c1"},
	}

	_, gotD := Verify(context.Background(), store, dp, a, domain.ExtractionDiagnostic{})
	if gotD.FailureReasonCode != domain.FailureUnitMismatch {
		t.Errorf("FailureReasonCode = %v, want UNIT_MISMATCH", gotD.FailureReasonCode)
	}
}

func TestFindNumericMatch_PercentageAndFractionEquivalence(t *testing.T) {
	if !FindNumericMatch(0.42, "renewable share reached 42% of total consumption") {
		t.Error("want fraction 0.42 to match percentage text \"42%\"")
	}
	if !FindNumericMatch(42, "42 percent of suppliers are certified") {
		t.Error("want 42 to match literal \"42\"")
	}
}

func TestFindNumericMatch_ThousandSeparatorIgnored(t *testing.T) {
	if !FindNumericMatch(1234567, "total assets of 1,234,567 were reported") {
		t.Error("want thousand-separated text to match unseparated value")
	}
}
