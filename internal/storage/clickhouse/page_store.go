package clickhouse

import (
	"context"
	"fmt"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// PageStore implements storage.PageStore using ClickHouse.
type PageStore struct {
	conn *Conn
}

// NewPageStore creates a new PageStore.
func NewPageStore(conn *Conn) *PageStore {
	return &PageStore{conn: conn}
}

var _ storage.PageStore = (*PageStore)(nil)

func (s *PageStore) InsertBulk(ctx context.Context, pages []*domain.Page) error {
	if len(pages) == 0 {
		return nil
	}

	for _, p := range pages {
		exists, err := s.exists(ctx, p.DocHash, p.PageNumber)
		if err != nil {
			return fmt.Errorf("check page exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO pages (doc_hash, page_number, text, char_count, parser_version)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range pages {
		if err := batch.Append(p.DocHash, uint32(p.PageNumber), p.Text, uint32(p.CharCount), p.ParserVersion); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	return batch.Send()
}

func (s *PageStore) GetByDocHash(ctx context.Context, docHash string) ([]*domain.Page, error) {
	query := `
		SELECT doc_hash, page_number, text, char_count, parser_version
		FROM pages
		WHERE doc_hash = ?
		ORDER BY page_number ASC
	`
	rows, err := s.conn.Query(ctx, query, docHash)
	if err != nil {
		return nil, fmt.Errorf("query pages by doc hash: %w", err)
	}
	defer rows.Close()

	var out []*domain.Page
	for rows.Next() {
		var p domain.Page
		var pageNumber, charCount uint32
		if err := rows.Scan(&p.DocHash, &pageNumber, &p.Text, &charCount, &p.ParserVersion); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		p.PageNumber = int(pageNumber)
		p.CharCount = int(charCount)
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *PageStore) exists(ctx context.Context, docHash string, pageNumber int) (bool, error) {
	query := `SELECT count(*) FROM pages WHERE doc_hash = ? AND page_number = ?`

	var count uint64
	err := s.conn.QueryRow(ctx, query, docHash, uint32(pageNumber)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
