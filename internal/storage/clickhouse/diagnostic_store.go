package clickhouse

import (
	"context"
	"fmt"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// DiagnosticStore implements storage.DiagnosticStore using ClickHouse.
type DiagnosticStore struct {
	conn *Conn
}

// NewDiagnosticStore creates a new DiagnosticStore.
func NewDiagnosticStore(conn *Conn) *DiagnosticStore {
	return &DiagnosticStore{conn: conn}
}

var _ storage.DiagnosticStore = (*DiagnosticStore)(nil)

func (s *DiagnosticStore) Insert(ctx context.Context, d *domain.ExtractionDiagnostic) error {
	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO extraction_diagnostics (
			run_id, datapoint_key, retrieved_chunk_ids, numeric_matches_found,
			verification_status, failure_reason_code
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		d.RunID, d.DatapointKey, d.RetrievedChunkIDs, uint32(d.NumericMatchesFound),
		string(d.VerificationStatus), string(d.FailureReasonCode),
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	return batch.Send()
}

func (s *DiagnosticStore) GetByRun(ctx context.Context, runID string) ([]*domain.ExtractionDiagnostic, error) {
	query := `
		SELECT run_id, datapoint_key, retrieved_chunk_ids, numeric_matches_found,
			verification_status, failure_reason_code
		FROM extraction_diagnostics
		WHERE run_id = ?
		ORDER BY datapoint_key ASC
	`
	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics by run: %w", err)
	}
	defer rows.Close()

	var out []*domain.ExtractionDiagnostic
	for rows.Next() {
		var d domain.ExtractionDiagnostic
		var numericMatches uint32
		var verificationStatus, failureReasonCode string

		err := rows.Scan(
			&d.RunID, &d.DatapointKey, &d.RetrievedChunkIDs, &numericMatches,
			&verificationStatus, &failureReasonCode,
		)
		if err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}

		d.NumericMatchesFound = int(numericMatches)
		d.VerificationStatus = domain.AssessmentStatus(verificationStatus)
		d.FailureReasonCode = domain.FailureReasonCode(failureReasonCode)
		out = append(out, &d)
	}
	return out, rows.Err()
}
