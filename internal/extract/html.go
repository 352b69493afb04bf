package extract

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/verascope/verascope/internal/domain"
)

// HTMLExtractor renders an HTML document's visible text as a single page,
// skipping <script> and <style> content.
type HTMLExtractor struct{}

func (HTMLExtractor) Extract(raw []byte) ([]domain.Page, error) {
	doc, err := html.Parse(strings.NewReader(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var sb strings.Builder
	collectText(doc, &sb)

	text := strings.TrimSpace(sb.String())
	return []domain.Page{{
		PageNumber: 1,
		Text:       text,
		CharCount:  len(text),
	}}, nil
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
		return
	}
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.P, atom.Br, atom.Div, atom.Li, atom.Tr:
			sb.WriteString("\n")
		}
	}
}
