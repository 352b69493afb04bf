package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/verascope/verascope/internal/verrors"
)

func TestRegistry_Extract_PlainText(t *testing.T) {
	r := NewRegistry()

	pages, err := r.Extract("abc123", "text/plain", []byte("hello world"))
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("len(pages) = %d, want 1", len(pages))
	}
	if pages[0].Text != "hello world" {
		t.Errorf("Text = %q, want %q", pages[0].Text, "hello world")
	}
	if pages[0].DocHash != "abc123" {
		t.Errorf("DocHash = %q, want abc123", pages[0].DocHash)
	}
	if pages[0].ParserVersion != ParserVersion {
		t.Errorf("ParserVersion = %q, want %q", pages[0].ParserVersion, ParserVersion)
	}
}

func TestRegistry_Extract_PDF_SplitsOnFormFeed(t *testing.T) {
	r := NewRegistry()

	pages, err := r.Extract("h", "application/pdf", []byte("page one\fpage two\fpage three"))
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("len(pages) = %d, want 3", len(pages))
	}
	for i, want := range []string{"page one", "page two", "page three"} {
		if pages[i].Text != want {
			t.Errorf("pages[%d].Text = %q, want %q", i, pages[i].Text, want)
		}
		if pages[i].PageNumber != i+1 {
			t.Errorf("pages[%d].PageNumber = %d, want %d", i, pages[i].PageNumber, i+1)
		}
	}
}

func TestRegistry_Extract_PDF_NonTextPageNotOmitted(t *testing.T) {
	r := NewRegistry()

	pages, err := r.Extract("h", "application/pdf", []byte("text\f\fmore text"))
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("len(pages) = %d, want 3 (blank page preserved)", len(pages))
	}
	if pages[1].Text != "" || pages[1].CharCount != 0 {
		t.Errorf("pages[1] = %+v, want empty text and zero char count", pages[1])
	}
}

func TestRegistry_Extract_HTML_StripsScriptAndTags(t *testing.T) {
	r := NewRegistry()

	html := `<html><body><p>Hello</p><script>evil()</script><p>World</p></body></html>`
	pages, err := r.Extract("h", "text/html", []byte(html))
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("len(pages) = %d, want 1", len(pages))
	}
	text := pages[0].Text
	if !strings.Contains(text, "Hello") || !strings.Contains(text, "World") {
		t.Errorf("Text = %q, want to contain Hello and World", text)
	}
	if strings.Contains(text, "evil()") {
		t.Errorf("Text = %q, should not contain script content", text)
	}
}

func TestRegistry_Extract_UnsupportedFormat(t *testing.T) {
	r := NewRegistry()

	_, err := r.Extract("h", "application/octet-stream", []byte("binary"))
	if err == nil {
		t.Fatal("Extract() error = nil, want UNSUPPORTED_FORMAT")
	}

	var verr *verrors.Error
	if !errors.As(err, &verr) {
		t.Fatalf("Extract() error = %v, want *verrors.Error", err)
	}
	if verr.Code != CodeUnsupportedFormat {
		t.Errorf("Code = %s, want %s", verr.Code, CodeUnsupportedFormat)
	}
}
