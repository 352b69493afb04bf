package provider

import (
	"context"
	"testing"
)

func TestDeterministicProvider_AlwaysReturnsAbsent(t *testing.T) {
	p := NewDeterministicProvider()
	if p.Name() != "deterministic" {
		t.Errorf("Name() = %q, want deterministic", p.Name())
	}

	rec, err := p.Extract(context.Background(), &Request{DatapointKey: "dp1"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if rec.Status != "Absent" {
		t.Errorf("Status = %q, want Absent", rec.Status)
	}
	if rec.Rationale != DeterministicFixedRationale {
		t.Errorf("Rationale = %q, want fixed rationale", rec.Rationale)
	}
	if len(rec.EvidenceChunkIDs) != 0 {
		t.Errorf("EvidenceChunkIDs = %v, want empty", rec.EvidenceChunkIDs)
	}
}
