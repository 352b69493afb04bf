package clickhouse

import (
	"context"
	"fmt"
	"sort"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// ChunkStore implements storage.ChunkStore using ClickHouse.
type ChunkStore struct {
	conn *Conn
}

// NewChunkStore creates a new ChunkStore.
func NewChunkStore(conn *Conn) *ChunkStore {
	return &ChunkStore{conn: conn}
}

var _ storage.ChunkStore = (*ChunkStore)(nil)

func (s *ChunkStore) InsertBulk(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO chunks (chunk_id, doc_hash, page_number, start_offset, end_offset, text, token_count, embedding)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range chunks {
		exists, err := s.exists(ctx, c.ChunkID)
		if err != nil {
			return fmt.Errorf("check chunk exists: %w", err)
		}
		if exists {
			continue // idempotent: existing chunk IDs are left unchanged
		}

		if err := batch.Append(
			c.ChunkID, c.DocHash, uint32(c.PageNumber), uint32(c.StartOffset), uint32(c.EndOffset),
			c.Text, uint32(c.TokenCount), c.Embedding,
		); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	return batch.Send()
}

func (s *ChunkStore) GetByDocHash(ctx context.Context, docHash string) ([]*domain.Chunk, error) {
	query := `
		SELECT chunk_id, doc_hash, page_number, start_offset, end_offset, text, token_count, embedding
		FROM chunks
		WHERE doc_hash = ?
		ORDER BY page_number ASC, start_offset ASC
	`
	rows, err := s.conn.Query(ctx, query, docHash)
	if err != nil {
		return nil, fmt.Errorf("query chunks by doc hash: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

func (s *ChunkStore) GetByScope(ctx context.Context, docHashes []string) ([]*domain.Chunk, error) {
	if len(docHashes) == 0 {
		return nil, nil
	}

	query := `
		SELECT chunk_id, doc_hash, page_number, start_offset, end_offset, text, token_count, embedding
		FROM chunks
		WHERE doc_hash IN ?
	`
	rows, err := s.conn.Query(ctx, query, docHashes)
	if err != nil {
		return nil, fmt.Errorf("query chunks by scope: %w", err)
	}
	defer rows.Close()

	out, err := scanChunks(rows)
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DocHash != out[j].DocHash {
			return out[i].DocHash < out[j].DocHash
		}
		if out[i].PageNumber != out[j].PageNumber {
			return out[i].PageNumber < out[j].PageNumber
		}
		return out[i].StartOffset < out[j].StartOffset
	})
	return out, nil
}

func (s *ChunkStore) GetByIDs(ctx context.Context, chunkIDs []string) ([]*domain.Chunk, error) {
	if len(chunkIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT chunk_id, doc_hash, page_number, start_offset, end_offset, text, token_count, embedding
		FROM chunks
		WHERE chunk_id IN ?
	`
	rows, err := s.conn.Query(ctx, query, chunkIDs)
	if err != nil {
		return nil, fmt.Errorf("query chunks by ids: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

func (s *ChunkStore) SetEmbedding(ctx context.Context, chunkID string, embedding []float32) error {
	exists, err := s.exists(ctx, chunkID)
	if err != nil {
		return fmt.Errorf("check chunk exists: %w", err)
	}
	if !exists {
		return storage.ErrNotFound
	}

	query := `ALTER TABLE chunks UPDATE embedding = ? WHERE chunk_id = ?`
	return s.conn.Exec(ctx, query, embedding, chunkID)
}

func (s *ChunkStore) exists(ctx context.Context, chunkID string) (bool, error) {
	query := `SELECT count(*) FROM chunks WHERE chunk_id = ?`

	var count uint64
	err := s.conn.QueryRow(ctx, query, chunkID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanChunks(rows chRows) ([]*domain.Chunk, error) {
	var out []*domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		var pageNumber, startOffset, endOffset, tokenCount uint32

		err := rows.Scan(
			&c.ChunkID, &c.DocHash, &pageNumber, &startOffset, &endOffset,
			&c.Text, &tokenCount, &c.Embedding,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}

		c.PageNumber = int(pageNumber)
		c.StartOffset = int(startOffset)
		c.EndOffset = int(endOffset)
		c.TokenCount = int(tokenCount)
		out = append(out, &c)
	}
	return out, rows.Err()
}

// Rows interface for scanning, shared across clickhouse stores.
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}
