package verification

import (
	"context"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// CheckCitations resolves evidenceChunkIDs against store, in order, and
// reports the first failure: a missing ID yields CHUNK_NOT_FOUND, an
// existing chunk with empty text yields EMPTY_CHUNK. On success it returns
// the resolved chunks in evidenceChunkIDs order and an empty reason.
func CheckCitations(ctx context.Context, store storage.ChunkStore, evidenceChunkIDs []string) ([]*domain.Chunk, domain.FailureReasonCode) {
	if len(evidenceChunkIDs) == 0 {
		return nil, domain.FailureEvidenceMissing
	}

	found, err := store.GetByIDs(ctx, evidenceChunkIDs)
	if err != nil {
		return nil, domain.FailureChunkNotFound
	}

	byID := make(map[string]*domain.Chunk, len(found))
	for _, c := range found {
		byID[c.ChunkID] = c
	}

	resolved := make([]*domain.Chunk, len(evidenceChunkIDs))
	for i, id := range evidenceChunkIDs {
		c, ok := byID[id]
		if !ok {
			return nil, domain.FailureChunkNotFound
		}
		if c.Text == "" {
			return nil, domain.FailureEmptyChunk
		}
		resolved[i] = c
	}
	return resolved, ""
}
