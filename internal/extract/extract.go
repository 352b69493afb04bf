// Package extract produces ordered pages of text from stored document bytes.
package extract

import (
	"fmt"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/verrors"
)

// CodeUnsupportedFormat is the failure code when a content type cannot be
// handled by any registered Extractor.
const CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"

// ParserVersion is stamped on every page this package produces. Bump it
// whenever extraction logic changes in a way that could alter page text, so
// downstream chunk_ids correctly invalidate.
const ParserVersion = "extract-v1"

// Extractor produces an ordered sequence of pages from document bytes. Must
// be deterministic: identical bytes with the same ParserVersion constant
// always produce byte-identical page text.
type Extractor interface {
	// Extract splits raw into ordered, 1-indexed pages. Non-text pages yield
	// empty text with CharCount 0, never omitted.
	Extract(raw []byte) ([]domain.Page, error)
}

// Registry dispatches to the Extractor registered for a content type.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry builds a Registry with the standard extractors for
// "application/pdf", "text/plain", and "text/html".
func NewRegistry() *Registry {
	return &Registry{
		extractors: map[string]Extractor{
			"application/pdf": PDFExtractor{},
			"text/plain":      PlainTextExtractor{},
			"text/html":       HTMLExtractor{},
		},
	}
}

// Extract dispatches to the extractor registered for contentType, stamping
// DocHash and ParserVersion onto every resulting page.
func (r *Registry) Extract(docHash, contentType string, raw []byte) ([]domain.Page, error) {
	ex, ok := r.extractors[contentType]
	if !ok {
		return nil, verrors.New(verrors.KindValidation, CodeUnsupportedFormat,
			fmt.Sprintf("no extractor registered for content type %q", contentType))
	}

	pages, err := ex.Extract(raw)
	if err != nil {
		return nil, err
	}

	for i := range pages {
		pages[i].DocHash = docHash
		pages[i].ParserVersion = ParserVersion
	}
	return pages, nil
}
