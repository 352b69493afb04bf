// Package docstore provides content-addressed document ingestion with
// company-scoped visibility and transparent decompression of compressed
// source files.
package docstore

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sorairolake/lzip-go"
	"github.com/ulikunitz/xz"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// Store ingests raw document bytes, decompressing transparently when the
// content type names a supported compression, and grants company-scoped
// retrieval visibility.
type Store struct {
	docs  storage.DocumentStore
	links storage.CompanyDocumentLinkStore
}

// Options configures a Store.
type Options struct {
	DocumentStore            storage.DocumentStore
	CompanyDocumentLinkStore storage.CompanyDocumentLinkStore
}

// New creates a new Store with the provided backing stores.
func New(opts Options) *Store {
	return &Store{
		docs:  opts.DocumentStore,
		links: opts.CompanyDocumentLinkStore,
	}
}

// Ingest decompresses raw (if its contentType names a supported wrapper),
// content-addresses the result, and links it to companyID within tenant.
// Returns the stored Document.
func (s *Store) Ingest(ctx context.Context, tenant, companyID, title, contentType string, raw []byte) (*domain.Document, error) {
	decoded, innerType, err := decompress(contentType, raw)
	if err != nil {
		return nil, fmt.Errorf("decompress document: %w", err)
	}

	doc, err := s.docs.Put(ctx, innerType, decoded)
	if err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	link := &domain.CompanyDocumentLink{
		Tenant:    tenant,
		CompanyID: companyID,
		DocHash:   doc.DocHash,
		Title:     title,
	}
	if err := s.links.Link(ctx, link); err != nil {
		return nil, fmt.Errorf("link document to company: %w", err)
	}

	return doc, nil
}

// VisibleDocHashes returns every doc_hash companyID may retrieve within
// tenant, never tenant-wide.
func (s *Store) VisibleDocHashes(ctx context.Context, tenant, companyID string) ([]string, error) {
	return s.links.DocHashesForCompany(ctx, tenant, companyID)
}

// RequireVisible returns storage.ErrNotFound if docHash is not linked to
// companyID within tenant.
func (s *Store) RequireVisible(ctx context.Context, tenant, companyID, docHash string) error {
	ok, err := s.links.IsLinked(ctx, tenant, companyID, docHash)
	if err != nil {
		return err
	}
	if !ok {
		return storage.ErrNotFound
	}
	return nil
}

// Bytes returns a document's original (decompressed) bytes, re-verifying
// content-hash integrity.
func (s *Store) Bytes(ctx context.Context, docHash string) ([]byte, error) {
	return s.docs.GetBytes(ctx, docHash)
}

// decompress strips a known compression wrapper named by contentType,
// returning the decompressed bytes and the underlying content type. A
// contentType with no recognized wrapper is returned unchanged.
func decompress(contentType string, raw []byte) ([]byte, string, error) {
	wrapper, inner, ok := strings.Cut(contentType, "+")
	if !ok {
		return raw, contentType, nil
	}

	var r io.Reader
	switch wrapper {
	case "application/x-xz":
		xr, err := xz.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, "", fmt.Errorf("open xz stream: %w", err)
		}
		r = xr
	case "application/x-lzip":
		lr, err := lzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, "", fmt.Errorf("open lzip stream: %w", err)
		}
		r = lr
	case "application/gzip":
		gr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, "", fmt.Errorf("open gzip stream: %w", err)
		}
		defer gr.Close()
		r = gr
	default:
		return raw, contentType, nil
	}

	decoded, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("decompress stream: %w", err)
	}
	return decoded, inner, nil
}
