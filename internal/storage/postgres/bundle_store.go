package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/jackc/pgx/v5"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// BundleStore implements storage.BundleStore using PostgreSQL. Obligations
// and overlays are stored as JSONB columns; only identity and checksum
// columns are queryable.
type BundleStore struct {
	pool *Pool
}

// NewBundleStore creates a new BundleStore.
func NewBundleStore(pool *Pool) *BundleStore {
	return &BundleStore{pool: pool}
}

var _ storage.BundleStore = (*BundleStore)(nil)

func (s *BundleStore) Upsert(ctx context.Context, b *domain.Bundle) error {
	if existing, err := s.Get(ctx, b.BundleID, b.Version); err == nil {
		if existing.Checksum != b.Checksum {
			return storage.ErrDuplicateKey
		}
		return nil
	} else if err != storage.ErrNotFound {
		return err
	}

	obligations, err := json.Marshal(b.Obligations)
	if err != nil {
		return fmt.Errorf("marshal obligations: %w", err)
	}
	overlays, err := json.Marshal(b.Overlays)
	if err != nil {
		return fmt.Errorf("marshal overlays: %w", err)
	}

	query := `
		INSERT INTO bundles (regime, bundle_id, version, jurisdiction, obligations, overlays, checksum, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true)
		ON CONFLICT (bundle_id, version) DO NOTHING
	`
	_, err = s.pool.Exec(ctx, query, b.Regime, b.BundleID, b.Version, b.Jurisdiction, obligations, overlays, b.Checksum)
	if err != nil {
		return fmt.Errorf("insert bundle: %w", err)
	}
	return nil
}

func (s *BundleStore) Get(ctx context.Context, bundleID, version string) (*domain.Bundle, error) {
	query := `
		SELECT regime, bundle_id, version, jurisdiction, obligations, overlays, checksum
		FROM bundles
		WHERE bundle_id = $1 AND version = $2
	`
	row := s.pool.QueryRow(ctx, query, bundleID, version)
	b, err := scanBundle(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get bundle: %w", err)
	}
	return b, nil
}

func (s *BundleStore) ListVersions(ctx context.Context, bundleID string) ([]string, error) {
	query := `SELECT version FROM bundles WHERE bundle_id = $1`
	rows, err := s.pool.Query(ctx, query, bundleID)
	if err != nil {
		return nil, fmt.Errorf("list bundle versions: %w", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan bundle version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortSemver(versions)
	return versions, nil
}

func (s *BundleStore) ListAll(ctx context.Context) ([]*domain.Bundle, error) {
	query := `
		SELECT regime, bundle_id, version, jurisdiction, obligations, overlays, checksum
		FROM bundles
		WHERE active
		ORDER BY bundle_id ASC, version ASC
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list bundles: %w", err)
	}
	defer rows.Close()

	var out []*domain.Bundle
	for rows.Next() {
		b, err := scanBundle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bundle: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *BundleStore) Deactivate(ctx context.Context, bundleID, version string) error {
	query := `UPDATE bundles SET active = false WHERE bundle_id = $1 AND version = $2`
	tag, err := s.pool.Exec(ctx, query, bundleID, version)
	if err != nil {
		return fmt.Errorf("deactivate bundle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanBundle(row pgx.Row) (*domain.Bundle, error) {
	var b domain.Bundle
	var obligations, overlays []byte

	err := row.Scan(&b.Regime, &b.BundleID, &b.Version, &b.Jurisdiction, &obligations, &overlays, &b.Checksum)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(obligations, &b.Obligations); err != nil {
		return nil, fmt.Errorf("unmarshal obligations: %w", err)
	}
	if err := json.Unmarshal(overlays, &b.Overlays); err != nil {
		return nil, fmt.Errorf("unmarshal overlays: %w", err)
	}
	return &b, nil
}

func sortSemver(versions []string) {
	sort.Slice(versions, func(i, j int) bool {
		vi, erri := semver.NewVersion(versions[i])
		vj, errj := semver.NewVersion(versions[j])
		if erri != nil || errj != nil {
			return versions[i] < versions[j]
		}
		return vi.LessThan(vj)
	})
}
