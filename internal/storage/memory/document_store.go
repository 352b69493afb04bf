package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// DocumentStore is an in-memory implementation of storage.DocumentStore.
type DocumentStore struct {
	mu    sync.RWMutex
	docs  map[string]*domain.Document // keyed by doc_hash
	bytes map[string][]byte
	clock func() int64
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs:  make(map[string]*domain.Document),
		bytes: make(map[string][]byte),
		clock: func() int64 { return 0 },
	}
}

// WithClock sets a custom clock for deterministic CreatedAt stamping.
func (s *DocumentStore) WithClock(clock func() int64) *DocumentStore {
	s.clock = clock
	return s
}

func (s *DocumentStore) Put(_ context.Context, contentType string, raw []byte) (*domain.Document, error) {
	sum := sha256.Sum256(raw)
	docHash := hex.EncodeToString(sum[:])

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.docs[docHash]; ok {
		cp := *existing
		return &cp, nil
	}

	doc := &domain.Document{
		DocHash:     docHash,
		SizeBytes:   int64(len(raw)),
		ContentType: contentType,
		CreatedAt:   s.clock(),
	}
	s.docs[docHash] = doc
	rawCopy := make([]byte, len(raw))
	copy(rawCopy, raw)
	s.bytes[docHash] = rawCopy

	cp := *doc
	return &cp, nil
}

func (s *DocumentStore) Get(_ context.Context, docHash string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[docHash]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (s *DocumentStore) GetBytes(_ context.Context, docHash string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.bytes[docHash]
	if !ok {
		return nil, storage.ErrNotFound
	}

	sum := sha256.Sum256(raw)
	if hex.EncodeToString(sum[:]) != docHash {
		return nil, storage.ErrIntegrityMismatch
	}

	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

func (s *DocumentStore) SetParserVersion(_ context.Context, docHash, parserVersion string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[docHash]
	if !ok {
		return storage.ErrNotFound
	}
	doc.ParserVersion = parserVersion
	return nil
}

var _ storage.DocumentStore = (*DocumentStore)(nil)
