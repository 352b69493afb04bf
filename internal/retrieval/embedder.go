package retrieval

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// EmbeddingDimension is the fixed-length output of DeterministicEmbedder.
const EmbeddingDimension = 32

// Embedder produces a vector embedding for a chunk of text.
type Embedder interface {
	Embed(text string) []float32
}

// DeterministicEmbedder hashes text into a fixed-dimension pseudo-embedding
// with no external call, so the pipeline runs deterministically with zero
// network access — the same mandate §4.8 applies to extraction providers,
// carried over here.
type DeterministicEmbedder struct{}

func (DeterministicEmbedder) Embed(text string) []float32 {
	out := make([]float32, EmbeddingDimension)
	block := sha256.Sum256([]byte(text))

	for i := 0; i < EmbeddingDimension; i++ {
		byteIdx := (i * 4) % len(block)
		seed := binary.BigEndian.Uint32(rotate(block[:], byteIdx))
		out[i] = float32(float64(seed)/float64(math.MaxUint32)*2 - 1)
	}
	return out
}

// rotate returns a 4-byte window starting at offset, wrapping around buf.
func rotate(buf []byte, offset int) []byte {
	out := make([]byte, 4)
	for i := 0; i < 4; i++ {
		out[i] = buf[(offset+i)%len(buf)]
	}
	return out
}
