package postgres

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// DocumentStore implements storage.DocumentStore using PostgreSQL. Document
// bytes are stored alongside metadata; content addressing is enforced by a
// unique index on doc_hash.
type DocumentStore struct {
	pool *Pool
}

// NewDocumentStore creates a new DocumentStore.
func NewDocumentStore(pool *Pool) *DocumentStore {
	return &DocumentStore{pool: pool}
}

var _ storage.DocumentStore = (*DocumentStore)(nil)

func (s *DocumentStore) Put(ctx context.Context, contentType string, raw []byte) (*domain.Document, error) {
	sum := sha256.Sum256(raw)
	docHash := hex.EncodeToString(sum[:])

	if existing, err := s.Get(ctx, docHash); err == nil {
		return existing, nil
	} else if err != storage.ErrNotFound {
		return nil, err
	}

	query := `
		INSERT INTO documents (doc_hash, size_bytes, content_type, parser_version, bytes, created_at)
		VALUES ($1, $2, $3, '', $4, extract(epoch from now())::bigint)
		ON CONFLICT (doc_hash) DO NOTHING
	`
	_, err := s.pool.Exec(ctx, query, docHash, int64(len(raw)), contentType, raw)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}

	return s.Get(ctx, docHash)
}

func (s *DocumentStore) Get(ctx context.Context, docHash string) (*domain.Document, error) {
	query := `
		SELECT doc_hash, size_bytes, content_type, parser_version, created_at
		FROM documents
		WHERE doc_hash = $1
	`

	row := s.pool.QueryRow(ctx, query, docHash)
	d, err := scanDocument(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

func (s *DocumentStore) GetBytes(ctx context.Context, docHash string) ([]byte, error) {
	query := `SELECT bytes FROM documents WHERE doc_hash = $1`

	var raw []byte
	err := s.pool.QueryRow(ctx, query, docHash).Scan(&raw)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get document bytes: %w", err)
	}

	sum := sha256.Sum256(raw)
	if hex.EncodeToString(sum[:]) != docHash {
		return nil, storage.ErrIntegrityMismatch
	}
	return raw, nil
}

func (s *DocumentStore) SetParserVersion(ctx context.Context, docHash, parserVersion string) error {
	query := `UPDATE documents SET parser_version = $2 WHERE doc_hash = $1`

	tag, err := s.pool.Exec(ctx, query, docHash, parserVersion)
	if err != nil {
		return fmt.Errorf("set parser version: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var d domain.Document
	err := row.Scan(&d.DocHash, &d.SizeBytes, &d.ContentType, &d.ParserVersion, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
