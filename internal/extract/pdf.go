package extract

import (
	"strings"

	"github.com/verascope/verascope/internal/domain"
)

// formFeed is the page-break marker this heuristic splits on. Real PDF
// parsers expose page boundaries directly; lacking one in the dependency
// set, pre-processed PDF text is expected to carry a form-feed (0x0C)
// between pages, matching the convention emitted by common pdftotext -layout
// output. A document with no form-feed is treated as a single page.
const formFeed = "\f"

// PDFExtractor splits pre-processed PDF text on form-feed page markers. Pages
// with no extractable text (scanned images, etc.) yield an empty page rather
// than being dropped, per the non-omission invariant.
type PDFExtractor struct{}

func (PDFExtractor) Extract(raw []byte) ([]domain.Page, error) {
	parts := strings.Split(string(raw), formFeed)

	pages := make([]domain.Page, len(parts))
	for i, part := range parts {
		pages[i] = domain.Page{
			PageNumber: i + 1,
			Text:       part,
			CharCount:  len(part),
		}
	}
	return pages, nil
}
