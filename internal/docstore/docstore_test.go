package docstore

import (
	"bytes"
	"compress/gzip"
	"context"
	"testing"

	"github.com/verascope/verascope/internal/storage"
	"github.com/verascope/verascope/internal/storage/memory"
)

func newTestStore() *Store {
	return New(Options{
		DocumentStore:            memory.NewDocumentStore(),
		CompanyDocumentLinkStore: memory.NewCompanyDocumentLinkStore(),
	})
}

func TestIngest_ContentAddressedAndLinked(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	doc, err := s.Ingest(ctx, "tenant-a", "company-1", "10-K 2025", "text/plain", []byte("hello disclosure"))
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}

	if err := s.RequireVisible(ctx, "tenant-a", "company-1", doc.DocHash); err != nil {
		t.Fatalf("RequireVisible() error: %v", err)
	}

	if err := s.RequireVisible(ctx, "tenant-a", "company-2", doc.DocHash); err != storage.ErrNotFound {
		t.Errorf("RequireVisible() for unlinked company = %v, want ErrNotFound", err)
	}
}

func TestIngest_DeduplicatesIdenticalBytes(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	d1, err := s.Ingest(ctx, "tenant-a", "company-1", "doc", "text/plain", []byte("same content"))
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}
	d2, err := s.Ingest(ctx, "tenant-a", "company-2", "doc", "text/plain", []byte("same content"))
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}

	if d1.DocHash != d2.DocHash {
		t.Errorf("DocHash = %s, %s, want equal for identical bytes", d1.DocHash, d2.DocHash)
	}

	hashes, err := s.VisibleDocHashes(ctx, "tenant-a", "company-2")
	if err != nil {
		t.Fatalf("VisibleDocHashes() error: %v", err)
	}
	if len(hashes) != 1 || hashes[0] != d2.DocHash {
		t.Errorf("VisibleDocHashes() = %v, want [%s]", hashes, d2.DocHash)
	}
}

func TestIngest_DecompressesGzip(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write([]byte("plain text payload")); err != nil {
		t.Fatalf("gzip write error: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close error: %v", err)
	}

	doc, err := s.Ingest(ctx, "tenant-a", "company-1", "compressed", "application/gzip+text/plain", buf.Bytes())
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}
	if doc.ContentType != "text/plain" {
		t.Errorf("ContentType = %s, want text/plain", doc.ContentType)
	}

	raw, err := s.Bytes(ctx, doc.DocHash)
	if err != nil {
		t.Fatalf("Bytes() error: %v", err)
	}
	if string(raw) != "plain text payload" {
		t.Errorf("Bytes() = %q, want %q", raw, "plain text payload")
	}
}
