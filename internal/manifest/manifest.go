// Package manifest writes the RunManifest and packages a completed run's
// evidence archive: a deterministic tar+zstd bundle of manifest.json,
// assessments.jsonl, evidence.jsonl, documents/, compiled_plan.json, and
// coverage_matrix.json, per spec §4.12.
package manifest

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/verascope/verascope/internal/canonical"
	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// normalizedModTime and normalizedMode are stamped on every archive entry
// so two runs with identical content produce byte-identical archives: real
// mtimes and the umask of whatever process packaged the run never leak in.
const (
	normalizedModTime = 0
	normalizedMode    = 0o644
)

// EvidenceRecord is one cited chunk as packaged into evidence.jsonl.
type EvidenceRecord struct {
	ChunkID     string `json:"chunk_id"`
	DocHash     string `json:"doc_hash"`
	PageNumber  int    `json:"page_number"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
	Text        string `json:"text"`
}

// EvidenceRecordFromChunk builds the evidence.jsonl row for one cited chunk.
func EvidenceRecordFromChunk(c *domain.Chunk) EvidenceRecord {
	return EvidenceRecord{
		ChunkID: c.ChunkID, DocHash: c.DocHash, PageNumber: c.PageNumber,
		StartOffset: c.StartOffset, EndOffset: c.EndOffset, Text: c.Text,
	}
}

// Bundle is everything one completed run packages into its evidence archive.
type Bundle struct {
	Manifest       *domain.RunManifest
	CompiledPlan   *domain.CompiledPlan
	Assessments    []*domain.Assessment // already in datapoint order
	CoverageMatrix *domain.CoverageMatrix
	Evidence       []EvidenceRecord
	Documents      map[string][]byte // doc_hash -> original bytes
}

// Persist writes the run's manifest row. Call this once, at run completion.
func Persist(ctx context.Context, store storage.ManifestStore, m *domain.RunManifest) error {
	return store.Insert(ctx, m)
}

// Pack builds the deterministic tar+zstd evidence archive for b. Archive
// entries are written in lexicographic path order with normalized
// metadata. Before writing anything, Pack re-hashes every document's bytes
// against its doc_hash and fails the packaging if any differs — the
// integrity pass of spec §4.12.
func Pack(b Bundle) ([]byte, error) {
	for docHash, raw := range b.Documents {
		if got := canonical.ChecksumBytes(raw); got != docHash {
			return nil, fmt.Errorf("manifest: document integrity mismatch: doc_hash %s re-hashes to %s", docHash, got)
		}
	}

	entries, err := buildEntries(b)
	if err != nil {
		return nil, err
	}
	return writeTarZst(entries)
}

func buildEntries(b Bundle) (map[string][]byte, error) {
	entries := make(map[string][]byte)

	manifestBytes, err := canonical.Marshal(b.Manifest)
	if err != nil {
		return nil, fmt.Errorf("manifest: marshal manifest.json: %w", err)
	}
	entries["manifest.json"] = manifestBytes

	planBytes, err := canonical.Marshal(b.CompiledPlan)
	if err != nil {
		return nil, fmt.Errorf("manifest: marshal compiled_plan.json: %w", err)
	}
	entries["compiled_plan.json"] = planBytes

	coverageBytes, err := canonical.Marshal(b.CoverageMatrix)
	if err != nil {
		return nil, fmt.Errorf("manifest: marshal coverage_matrix.json: %w", err)
	}
	entries["coverage_matrix.json"] = coverageBytes

	assessmentsJSONL, err := jsonLines(len(b.Assessments), func(i int) (any, string) {
		return b.Assessments[i], b.Assessments[i].DatapointKey
	})
	if err != nil {
		return nil, fmt.Errorf("manifest: marshal assessments.jsonl: %w", err)
	}
	entries["assessments.jsonl"] = assessmentsJSONL

	evidenceJSONL, err := jsonLines(len(b.Evidence), func(i int) (any, string) {
		return b.Evidence[i], b.Evidence[i].ChunkID
	})
	if err != nil {
		return nil, fmt.Errorf("manifest: marshal evidence.jsonl: %w", err)
	}
	entries["evidence.jsonl"] = evidenceJSONL

	for docHash, raw := range b.Documents {
		entries["documents/"+docHash] = raw
	}
	return entries, nil
}

// jsonLines canonically marshals n rows, one per line, for a .jsonl entry.
func jsonLines(n int, at func(i int) (row any, label string)) ([]byte, error) {
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		row, label := at(i)
		line, err := canonical.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("row %s: %w", label, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func writeTarZst(entries map[string][]byte) ([]byte, error) {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	fixedTime := time.Unix(normalizedModTime, 0).UTC()
	for _, name := range names {
		content := entries[name]
		hdr := &tar.Header{
			Name:     name,
			Size:     int64(len(content)),
			Mode:     normalizedMode,
			ModTime:  fixedTime,
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, fmt.Errorf("manifest: write tar header %s: %w", name, err)
		}
		if _, err := tw.Write(content); err != nil {
			return nil, fmt.Errorf("manifest: write tar entry %s: %w", name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("manifest: close tar writer: %w", err)
	}

	var zBuf bytes.Buffer
	zw, err := zstd.NewWriter(&zBuf)
	if err != nil {
		return nil, fmt.Errorf("manifest: create zstd writer: %w", err)
	}
	if _, err := zw.Write(tarBuf.Bytes()); err != nil {
		zw.Close()
		return nil, fmt.Errorf("manifest: zstd-compress archive: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("manifest: close zstd writer: %w", err)
	}
	return zBuf.Bytes(), nil
}
