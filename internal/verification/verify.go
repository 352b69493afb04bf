// Package verification applies the pre-persistence downgrade rules of
// spec §4.9 to every Present/Partial extraction candidate: citation
// existence, tolerant numeric matching, baseline-required metric
// validation, and unit/year checks against a controlled vocabulary.
// Downgrade decisions are always recorded in the diagnostic, never
// hidden.
package verification

import (
	"context"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// Verify checks one datapoint's extraction candidate against its cited
// chunks and, for metrics, against its declared value/unit/year/baseline,
// returning the possibly-downgraded Assessment and the Diagnostic
// recording why. NA and already-Absent candidates pass through unchanged;
// spec §4.9 applies only to Present/Partial candidates.
func Verify(ctx context.Context, store storage.ChunkStore, dp domain.Datapoint, assessment domain.Assessment, diagnostic domain.ExtractionDiagnostic) (domain.Assessment, domain.ExtractionDiagnostic) {
	if !assessment.Status.RequiresEvidence() {
		return assessment, diagnostic
	}

	chunks, reason := CheckCitations(ctx, store, assessment.EvidenceChunkIDs)
	if reason != "" {
		return toAbsent(assessment, diagnostic, reason)
	}

	if dp.DatapointType != domain.DatapointMetric {
		diagnostic.VerificationStatus = assessment.Status
		return assessment, diagnostic
	}

	if assessment.Year == nil {
		return downgrade(assessment, diagnostic, domain.FailureYearMissing)
	}
	if dp.RequiresBaseline && (assessment.BaselineYear == nil || assessment.BaselineValue == nil) {
		return downgrade(assessment, diagnostic, domain.FailureBaselineMissing)
	}
	if assessment.Unit == nil || !IsKnownUnit(*assessment.Unit) {
		return downgrade(assessment, diagnostic, domain.FailureUnitMismatch)
	}
	if assessment.Value == nil {
		return downgrade(assessment, diagnostic, domain.FailureNumericMismatch)
	}

	matches := 0
	for _, c := range chunks {
		if FindNumericMatch(*assessment.Value, c.Text) {
			matches++
		}
	}
	diagnostic.NumericMatchesFound = matches
	if matches == 0 {
		return downgrade(assessment, diagnostic, domain.FailureNumericMismatch)
	}

	diagnostic.VerificationStatus = assessment.Status
	return assessment, diagnostic
}

// toAbsent drops the candidate straight to Absent: used for citation
// failures, where there is no partial-credit tier below Present/Partial.
func toAbsent(assessment domain.Assessment, diagnostic domain.ExtractionDiagnostic, reason domain.FailureReasonCode) (domain.Assessment, domain.ExtractionDiagnostic) {
	assessment.Status = domain.StatusAbsent
	diagnostic.VerificationStatus = domain.StatusAbsent
	diagnostic.FailureReasonCode = reason
	return assessment, diagnostic
}

// downgrade steps the candidate down one tier (Present→Partial,
// Partial→Absent) and records reason. A single Verify call applies at
// most one such step; a datapoint re-extracted and re-verified in a later
// run can accumulate further steps, which is how a first numeric-mismatch
// strike becomes a second.
func downgrade(assessment domain.Assessment, diagnostic domain.ExtractionDiagnostic, reason domain.FailureReasonCode) (domain.Assessment, domain.ExtractionDiagnostic) {
	switch assessment.Status {
	case domain.StatusPresent:
		assessment.Status = domain.StatusPartial
	case domain.StatusPartial:
		assessment.Status = domain.StatusAbsent
	}
	diagnostic.VerificationStatus = assessment.Status
	diagnostic.FailureReasonCode = reason
	return assessment, diagnostic
}
