package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// RunCacheStore implements storage.RunCacheStore using PostgreSQL.
type RunCacheStore struct {
	pool *Pool
}

// NewRunCacheStore creates a new RunCacheStore.
func NewRunCacheStore(pool *Pool) *RunCacheStore {
	return &RunCacheStore{pool: pool}
}

var _ storage.RunCacheStore = (*RunCacheStore)(nil)

func (s *RunCacheStore) Insert(ctx context.Context, e *domain.RunCacheEntry) error {
	query := `
		INSERT INTO run_cache_entries (run_hash, manifest_ref, assessments_ref, coverage_ref, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (run_hash) DO NOTHING
	`
	_, err := s.pool.Exec(ctx, query, e.RunHash, e.ManifestRef, e.AssessmentsRef, e.CoverageRef, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert run cache entry: %w", err)
	}
	return nil
}

func (s *RunCacheStore) GetByRunHash(ctx context.Context, runHash string) (*domain.RunCacheEntry, error) {
	query := `
		SELECT run_hash, manifest_ref, assessments_ref, coverage_ref, created_at
		FROM run_cache_entries
		WHERE run_hash = $1
	`
	row := s.pool.QueryRow(ctx, query, runHash)
	e, err := scanRunCacheEntry(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run cache entry: %w", err)
	}
	return e, nil
}

func scanRunCacheEntry(row pgx.Row) (*domain.RunCacheEntry, error) {
	var e domain.RunCacheEntry
	err := row.Scan(&e.RunHash, &e.ManifestRef, &e.AssessmentsRef, &e.CoverageRef, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
