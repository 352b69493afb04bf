// Package chunk splits extracted pages into fixed-rule, content-addressed
// chunks for retrieval.
package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/verascope/verascope/internal/domain"
)

// DefaultTargetLength and DefaultOverlap are the chunker's default
// parameters; both participate in the run fingerprint, so callers that
// override them must carry the override through to manifest construction.
const (
	DefaultTargetLength = 1200 // characters
	DefaultOverlap      = 200  // characters
)

// Params are the chunker's configuration, part of the run_hash fingerprint.
type Params struct {
	TargetLength int
	Overlap      int
}

// DefaultParams returns the chunker's default configuration.
func DefaultParams() Params {
	return Params{TargetLength: DefaultTargetLength, Overlap: DefaultOverlap}
}

// Chunker splits pages into fixed-rule chunks.
type Chunker struct {
	params Params
}

// New creates a Chunker with the given parameters.
func New(params Params) *Chunker {
	return &Chunker{params: params}
}

// Split chunks every page independently, never across page boundaries,
// emitting chunks in (page, start_offset) order. Re-chunking identical page
// text with identical Params always yields identical chunk_ids.
func (c *Chunker) Split(pages []domain.Page) []domain.Chunk {
	var out []domain.Chunk
	for _, p := range pages {
		out = append(out, c.splitPage(p)...)
	}
	return out
}

func (c *Chunker) splitPage(p domain.Page) []domain.Chunk {
	target := c.params.TargetLength
	overlap := c.params.Overlap
	if target <= 0 {
		target = DefaultTargetLength
	}
	if overlap < 0 || overlap >= target {
		overlap = 0
	}

	text := p.Text
	if len(text) == 0 {
		return nil
	}

	var chunks []domain.Chunk
	start := 0
	step := target - overlap

	for start < len(text) {
		end := start + target
		if end > len(text) {
			end = len(text)
		}

		chunkText := text[start:end]
		chunks = append(chunks, domain.Chunk{
			ChunkID:     computeChunkID(p.DocHash, p.PageNumber, start, end),
			DocHash:     p.DocHash,
			PageNumber:  p.PageNumber,
			StartOffset: start,
			EndOffset:   end,
			Text:        chunkText,
			TokenCount:  countTokens(chunkText),
		})

		if end == len(text) {
			break
		}
		start += step
	}

	return chunks
}

// computeChunkID implements the chunk_id formula defined in spec.md §3:
// SHA-256(doc_hash || ':' || page_number || ':' || start_offset || ':' || end_offset).
func computeChunkID(docHash string, pageNumber, start, end int) string {
	input := fmt.Sprintf("%s:%d:%d:%d", docHash, pageNumber, start, end)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

func countTokens(text string) int {
	return len(strings.Fields(text))
}
