package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// ChunkStore is an in-memory implementation of storage.ChunkStore.
type ChunkStore struct {
	mu     sync.RWMutex
	chunks map[string]*domain.Chunk       // chunk_id -> chunk
	byDoc  map[string]map[string]struct{} // doc_hash -> set of chunk_id
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks: make(map[string]*domain.Chunk),
		byDoc:  make(map[string]map[string]struct{}),
	}
}

func (s *ChunkStore) InsertBulk(_ context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range chunks {
		if _, exists := s.chunks[c.ChunkID]; exists {
			continue
		}
		cp := *c
		cp.Embedding = cloneFloat32(c.Embedding)
		s.chunks[c.ChunkID] = &cp

		set, ok := s.byDoc[c.DocHash]
		if !ok {
			set = make(map[string]struct{})
			s.byDoc[c.DocHash] = set
		}
		set[c.ChunkID] = struct{}{}
	}
	return nil
}

func (s *ChunkStore) GetByDocHash(_ context.Context, docHash string) ([]*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.chunksForDocLocked(docHash)
	sortChunks(out)
	return out, nil
}

func (s *ChunkStore) GetByScope(_ context.Context, docHashes []string) ([]*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Chunk
	for _, dh := range docHashes {
		out = append(out, s.chunksForDocLocked(dh)...)
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

func (s *ChunkStore) GetByIDs(_ context.Context, chunkIDs []string) ([]*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Chunk
	for _, id := range chunkIDs {
		if c, ok := s.chunks[id]; ok {
			cp := *c
			cp.Embedding = cloneFloat32(c.Embedding)
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *ChunkStore) SetEmbedding(_ context.Context, chunkID string, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chunks[chunkID]
	if !ok {
		return storage.ErrNotFound
	}
	c.Embedding = cloneFloat32(embedding)
	return nil
}

func (s *ChunkStore) chunksForDocLocked(docHash string) []*domain.Chunk {
	set, ok := s.byDoc[docHash]
	if !ok {
		return nil
	}
	out := make([]*domain.Chunk, 0, len(set))
	for id := range set {
		c := s.chunks[id]
		cp := *c
		cp.Embedding = cloneFloat32(c.Embedding)
		out = append(out, &cp)
	}
	return out
}

func sortChunks(chunks []*domain.Chunk) {
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].PageNumber != chunks[j].PageNumber {
			return chunks[i].PageNumber < chunks[j].PageNumber
		}
		return chunks[i].StartOffset < chunks[j].StartOffset
	})
}

func cloneFloat32(v []float32) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

var _ storage.ChunkStore = (*ChunkStore)(nil)
