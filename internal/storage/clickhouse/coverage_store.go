package clickhouse

import (
	"context"
	"fmt"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// CoverageStore implements storage.CoverageStore using ClickHouse.
type CoverageStore struct {
	conn *Conn
}

// NewCoverageStore creates a new CoverageStore.
func NewCoverageStore(conn *Conn) *CoverageStore {
	return &CoverageStore{conn: conn}
}

var _ storage.CoverageStore = (*CoverageStore)(nil)

func (s *CoverageStore) InsertBulk(ctx context.Context, rows []*domain.ObligationCoverage) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO obligation_coverage (plan_hash, obligation_code, standard, level)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		if err := batch.Append(r.PlanHash, r.ObligationCode, r.Standard, string(r.Level)); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	return batch.Send()
}

func (s *CoverageStore) GetByPlanHash(ctx context.Context, planHash string) ([]*domain.ObligationCoverage, error) {
	query := `
		SELECT plan_hash, obligation_code, standard, level
		FROM obligation_coverage
		WHERE plan_hash = ?
		ORDER BY standard ASC, obligation_code ASC
	`
	rows, err := s.conn.Query(ctx, query, planHash)
	if err != nil {
		return nil, fmt.Errorf("query coverage by plan hash: %w", err)
	}
	defer rows.Close()

	var out []*domain.ObligationCoverage
	for rows.Next() {
		var c domain.ObligationCoverage
		var level string

		if err := rows.Scan(&c.PlanHash, &c.ObligationCode, &c.Standard, &level); err != nil {
			return nil, fmt.Errorf("scan obligation coverage: %w", err)
		}
		c.Level = domain.CoverageLevel(level)
		out = append(out, &c)
	}
	return out, rows.Err()
}
