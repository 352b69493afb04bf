package discovery

import "testing"

func TestFilter_DedupesByNormalizedURL(t *testing.T) {
	f := NewFilter(DefaultPolicy())
	accepted, rejected := f.Apply([]Candidate{
		{URL: "https://Example.com/report.pdf/", ContentType: "application/pdf"},
		{URL: "https://example.com/report.pdf", ContentType: "application/pdf"},
	})
	if len(accepted) != 1 {
		t.Fatalf("len(accepted) = %d, want 1", len(accepted))
	}
	if len(rejected) != 1 || rejected[0].Reason != RejectionDuplicateURL {
		t.Fatalf("rejected = %+v, want one DUPLICATE_URL", rejected)
	}
}

func TestFilter_RejectsDisallowedContentType(t *testing.T) {
	f := NewFilter(DefaultPolicy())
	accepted, rejected := f.Apply([]Candidate{
		{URL: "https://example.com/a.html", ContentType: "text/html"},
	})
	if len(accepted) != 0 {
		t.Fatalf("len(accepted) = %d, want 0", len(accepted))
	}
	if len(rejected) != 1 || rejected[0].Reason != RejectionContentTypeDisallowed {
		t.Fatalf("rejected = %+v, want one CONTENT_TYPE_DISALLOWED", rejected)
	}
}

func TestFilter_CapsAtMaxDocuments(t *testing.T) {
	f := NewFilter(Policy{MaxDocuments: 1, AllowedContentTypes: []string{"application/pdf"}})
	accepted, rejected := f.Apply([]Candidate{
		{URL: "https://example.com/a.pdf", ContentType: "application/pdf"},
		{URL: "https://example.com/b.pdf", ContentType: "application/pdf"},
	})
	if len(accepted) != 1 || accepted[0].URL != "https://example.com/a.pdf" {
		t.Fatalf("accepted = %+v, want only a.pdf (input order wins the cap)", accepted)
	}
	if len(rejected) != 1 || rejected[0].Reason != RejectionMaxCountExceeded {
		t.Fatalf("rejected = %+v, want one MAX_COUNT_EXCEEDED", rejected)
	}
}

func TestFilter_RejectsInvalidURL(t *testing.T) {
	f := NewFilter(DefaultPolicy())
	accepted, rejected := f.Apply([]Candidate{{URL: "not-a-url", ContentType: "application/pdf"}})
	if len(accepted) != 0 {
		t.Fatalf("len(accepted) = %d, want 0", len(accepted))
	}
	if len(rejected) != 1 || rejected[0].Reason != RejectionInvalidURL {
		t.Fatalf("rejected = %+v, want one INVALID_URL", rejected)
	}
}

func TestNoopSource_ReturnsNoCandidates(t *testing.T) {
	candidates, err := NoopSource{}.Search("acme", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("candidates = %v, want none", candidates)
	}
}
