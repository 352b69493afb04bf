package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

var _ storage.RunStore = (*RunStore)(nil)

func (s *RunStore) Insert(ctx context.Context, r *domain.Run) error {
	query := `
		INSERT INTO runs (
			run_id, tenant, company_id, status, failure_reason, compiler_mode,
			provider_id, run_hash, created_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0)
	`
	_, err := s.pool.Exec(ctx, query,
		r.RunID, r.Tenant, r.CompanyID, r.Status, r.FailureReason, r.CompilerMode,
		r.ProviderID, r.RunHash, r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *RunStore) Get(ctx context.Context, tenant, runID string) (*domain.Run, error) {
	query := `
		SELECT run_id, tenant, company_id, status, failure_reason, compiler_mode,
			provider_id, run_hash, created_at, completed_at
		FROM runs
		WHERE run_id = $1 AND tenant = $2
	`
	row := s.pool.QueryRow(ctx, query, runID, tenant)
	r, err := scanRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

func (s *RunStore) UpdateStatus(ctx context.Context, runID string, status domain.RunStatus, failureReason string) error {
	query := `
		UPDATE runs
		SET status = $2, failure_reason = $3,
			completed_at = CASE WHEN $4 THEN extract(epoch from now())::bigint ELSE completed_at END
		WHERE run_id = $1
			AND status NOT IN ('completed', 'failed', 'integrity_warning')
	`
	tag, err := s.pool.Exec(ctx, query, runID, status, failureReason, status.IsTerminal())
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrInvalidInput
	}
	return nil
}

func (s *RunStore) SetRunHash(ctx context.Context, runID, runHash string) error {
	query := `UPDATE runs SET run_hash = $2 WHERE run_id = $1`
	tag, err := s.pool.Exec(ctx, query, runID, runHash)
	if err != nil {
		return fmt.Errorf("set run hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *RunStore) GetByRunHash(ctx context.Context, runHash string) (*domain.Run, error) {
	query := `
		SELECT run_id, tenant, company_id, status, failure_reason, compiler_mode,
			provider_id, run_hash, created_at, completed_at
		FROM runs
		WHERE run_hash = $1 AND status = 'completed'
		ORDER BY completed_at DESC
		LIMIT 1
	`
	row := s.pool.QueryRow(ctx, query, runHash)
	r, err := scanRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run by hash: %w", err)
	}
	return r, nil
}

func scanRun(row pgx.Row) (*domain.Run, error) {
	var r domain.Run
	err := row.Scan(
		&r.RunID, &r.Tenant, &r.CompanyID, &r.Status, &r.FailureReason, &r.CompilerMode,
		&r.ProviderID, &r.RunHash, &r.CreatedAt, &r.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
