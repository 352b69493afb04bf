package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// AssessmentStore implements storage.AssessmentStore using PostgreSQL.
type AssessmentStore struct {
	pool *Pool
}

// NewAssessmentStore creates a new AssessmentStore.
func NewAssessmentStore(pool *Pool) *AssessmentStore {
	return &AssessmentStore{pool: pool}
}

var _ storage.AssessmentStore = (*AssessmentStore)(nil)

func (s *AssessmentStore) Insert(ctx context.Context, a *domain.Assessment) error {
	evidence, err := json.Marshal(a.EvidenceChunkIDs)
	if err != nil {
		return fmt.Errorf("marshal evidence chunk ids: %w", err)
	}
	retrieval, err := json.Marshal(a.RetrievalParams)
	if err != nil {
		return fmt.Errorf("marshal retrieval params: %w", err)
	}

	query := `
		INSERT INTO assessments (
			run_id, datapoint_key, status, value, unit, year, baseline_year,
			baseline_value, rationale, evidence_chunk_ids, prompt_hash, retrieval_params
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.pool.Exec(ctx, query,
		a.RunID, a.DatapointKey, a.Status, a.Value, a.Unit, a.Year, a.BaselineYear,
		a.BaselineValue, a.Rationale, evidence, a.PromptHash, retrieval,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

func (s *AssessmentStore) GetByRun(ctx context.Context, runID string) ([]*domain.Assessment, error) {
	query := `
		SELECT run_id, datapoint_key, status, value, unit, year, baseline_year,
			baseline_value, rationale, evidence_chunk_ids, prompt_hash, retrieval_params
		FROM assessments
		WHERE run_id = $1
		ORDER BY datapoint_key ASC
	`
	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	var out []*domain.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAssessment(row pgx.Row) (*domain.Assessment, error) {
	var a domain.Assessment
	var evidence, retrieval []byte

	err := row.Scan(
		&a.RunID, &a.DatapointKey, &a.Status, &a.Value, &a.Unit, &a.Year, &a.BaselineYear,
		&a.BaselineValue, &a.Rationale, &evidence, &a.PromptHash, &retrieval,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(evidence, &a.EvidenceChunkIDs); err != nil {
		return nil, fmt.Errorf("unmarshal evidence chunk ids: %w", err)
	}
	if err := json.Unmarshal(retrieval, &a.RetrievalParams); err != nil {
		return nil, fmt.Errorf("unmarshal retrieval params: %w", err)
	}
	return &a, nil
}
