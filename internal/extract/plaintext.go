package extract

import "github.com/verascope/verascope/internal/domain"

// PlainTextExtractor treats the entire document as a single page.
type PlainTextExtractor struct{}

func (PlainTextExtractor) Extract(raw []byte) ([]domain.Page, error) {
	text := string(raw)
	return []domain.Page{{
		PageNumber: 1,
		Text:       text,
		CharCount:  len(text),
	}}, nil
}
