// Package discovery turns a set of externally-found document candidates
// into an accept/reject decision per spec §6.1's auto-discover endpoint:
// dedupe by normalized URL, enforce a content-type allowlist, and cap the
// accepted count, recording a reason for every rejection.
package discovery

import (
	"errors"
	"net/url"
	"strings"
)

var errInvalidURL = errors.New("discovery: candidate URL is not absolute")

// RejectionReason names why a candidate was not ingested.
type RejectionReason string

const (
	RejectionDuplicateURL        RejectionReason = "DUPLICATE_URL"
	RejectionContentTypeDisallowed RejectionReason = "CONTENT_TYPE_DISALLOWED"
	RejectionMaxCountExceeded    RejectionReason = "MAX_COUNT_EXCEEDED"
	RejectionInvalidURL          RejectionReason = "INVALID_URL"
)

// Candidate is one document surfaced by a CandidateSource, not yet fetched.
type Candidate struct {
	URL         string
	Title       string
	Snippet     string
	ContentType string // best-effort guess from the source, e.g. from a URL extension
}

// CandidateSource surfaces document candidates for a company. The real
// web-search client is out of scope (spec.md §1); this interface exists so
// one can be plugged in without changing the filter policy below.
type CandidateSource interface {
	Search(companyID string, maxDocuments int) ([]Candidate, error)
}

// NoopSource is a CandidateSource that never surfaces candidates. It is the
// default when no external search client is configured.
type NoopSource struct{}

// Search always returns no candidates.
func (NoopSource) Search(_ string, _ int) ([]Candidate, error) {
	return nil, nil
}

// Policy holds the filtering thresholds applied to discovered candidates.
type Policy struct {
	MaxDocuments        int      // accepted-candidate cap per call
	AllowedContentTypes []string // empty means "application/pdf" only
}

// DefaultPolicy returns the filter policy applied when none is configured:
// PDF-only, capped at 10 accepted candidates per call.
func DefaultPolicy() Policy {
	return Policy{
		MaxDocuments:        10,
		AllowedContentTypes: []string{"application/pdf"},
	}
}

// RejectedCandidate is a candidate the filter declined, with its reason.
type RejectedCandidate struct {
	Candidate Candidate
	Reason    RejectionReason
}

// Filter applies Policy to a set of discovered candidates.
type Filter struct {
	policy Policy
}

// NewFilter creates a Filter bound to policy.
func NewFilter(policy Policy) *Filter {
	return &Filter{policy: policy}
}

// Apply dedupes candidates by normalized URL, rejects any whose content
// type isn't in the policy's allowlist, and caps the accepted set at
// MaxDocuments — in input order, so earlier candidates win ties for the
// cap. Every rejected candidate carries a reason.
func (f *Filter) Apply(candidates []Candidate) (accepted []Candidate, rejected []RejectedCandidate) {
	seen := make(map[string]bool, len(candidates))

	for _, c := range candidates {
		normalized, err := normalizeURL(c.URL)
		if err != nil {
			rejected = append(rejected, RejectedCandidate{Candidate: c, Reason: RejectionInvalidURL})
			continue
		}
		if seen[normalized] {
			rejected = append(rejected, RejectedCandidate{Candidate: c, Reason: RejectionDuplicateURL})
			continue
		}
		if !f.contentTypeAllowed(c.ContentType) {
			rejected = append(rejected, RejectedCandidate{Candidate: c, Reason: RejectionContentTypeDisallowed})
			continue
		}
		if len(accepted) >= f.maxDocuments() {
			rejected = append(rejected, RejectedCandidate{Candidate: c, Reason: RejectionMaxCountExceeded})
			continue
		}
		seen[normalized] = true
		accepted = append(accepted, c)
	}

	return accepted, rejected
}

func (f *Filter) maxDocuments() int {
	if f.policy.MaxDocuments <= 0 {
		return DefaultPolicy().MaxDocuments
	}
	return f.policy.MaxDocuments
}

func (f *Filter) contentTypeAllowed(contentType string) bool {
	allowed := f.policy.AllowedContentTypes
	if len(allowed) == 0 {
		allowed = DefaultPolicy().AllowedContentTypes
	}
	for _, a := range allowed {
		if strings.EqualFold(a, contentType) {
			return true
		}
	}
	return false
}

// normalizeURL lower-cases scheme/host, strips a trailing slash and any
// fragment, so equivalent URLs dedupe regardless of superficial formatting.
func normalizeURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", errInvalidURL
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String(), nil
}
