package manifest

import (
	"archive/tar"
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/verascope/verascope/internal/domain"
)

func sampleBundle() Bundle {
	doc := []byte("hello world")
	docHash := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	return Bundle{
		Manifest:     &domain.RunManifest{RunID: "run-1", RunHash: "rh1"},
		CompiledPlan: &domain.CompiledPlan{CompanyID: "acme", PlanHash: "ph1"},
		Assessments: []*domain.Assessment{
			{RunID: "run-1", DatapointKey: "dp1", Status: domain.StatusPresent},
		},
		CoverageMatrix: &domain.CoverageMatrix{PlanHash: "ph1"},
		Evidence: []EvidenceRecord{
			{ChunkID: "c1", DocHash: docHash, Text: "hello world"},
		},
		Documents: map[string][]byte{docHash: doc},
	}
}

func TestPack_ProducesLexicographicEntryOrder(t *testing.T) {
	archive, err := Pack(sampleBundle())
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}

	names := readTarNames(t, archive)
	var sorted []string
	sorted = append(sorted, names...)
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1] > sorted[i] {
			t.Fatalf("entries not lexicographic: %v", names)
		}
	}
	if len(names) != 6 {
		t.Fatalf("len(names) = %d, want 6, got %v", len(names), names)
	}
}

func TestPack_DeterministicAcrossRuns(t *testing.T) {
	a1, err := Pack(sampleBundle())
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	a2, err := Pack(sampleBundle())
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if !bytes.Equal(a1, a2) {
		t.Error("Pack() produced different archives for identical input")
	}
}

func TestPack_FailsOnDocumentIntegrityMismatch(t *testing.T) {
	b := sampleBundle()
	b.Documents["deadbeef"] = []byte("tampered")

	if _, err := Pack(b); err == nil {
		t.Fatal("Pack() = nil error, want integrity failure on mismatched doc_hash")
	}
}

func readTarNames(t *testing.T, archive []byte) []string {
	t.Helper()
	zr, err := zstd.NewReader(bytes.NewReader(archive))
	if err != nil {
		t.Fatalf("zstd.NewReader() error = %v", err)
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("tar read error = %v", err)
		}
		names = append(names, hdr.Name)
	}
	return names
}
