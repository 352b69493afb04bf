// Package retrieval implements the hybrid lexical+vector chunk retriever.
package retrieval

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/verascope/verascope/internal/domain"
	"github.com/verascope/verascope/internal/storage"
)

// Params are the retriever's configuration. Every field participates in the
// run fingerprint and is captured verbatim into each datapoint's Assessment
// (RetrievalParams) so the retrieval state is replayable.
type Params struct {
	TopK              int
	LexicalWeight     float64
	VectorWeight      float64
	NormalizationMode string
}

// DefaultParams returns the retriever's default configuration.
func DefaultParams() Params {
	return Params{TopK: 8, LexicalWeight: 0.5, VectorWeight: 0.5, NormalizationMode: "bm25-cosine"}
}

// ToRetrievalParams converts Params to its persisted domain form.
func (p Params) ToRetrievalParams() domain.RetrievalParams {
	return domain.RetrievalParams{
		TopK:              p.TopK,
		LexicalWeight:     p.LexicalWeight,
		VectorWeight:      p.VectorWeight,
		NormalizationMode: p.NormalizationMode,
	}
}

// Result is one retrieved chunk with its scoring breakdown.
type Result struct {
	Chunk         domain.Chunk
	LexicalScore  float64
	VectorScore   float64
	CombinedScore float64
}

// Retriever performs company-scoped hybrid retrieval over chunk text and
// embeddings.
type Retriever struct {
	chunks storage.ChunkStore
	links  storage.CompanyDocumentLinkStore
	embed  Embedder
}

// New creates a Retriever.
func New(chunks storage.ChunkStore, links storage.CompanyDocumentLinkStore, embed Embedder) *Retriever {
	if embed == nil {
		embed = DeterministicEmbedder{}
	}
	return &Retriever{chunks: chunks, links: links, embed: embed}
}

// Retrieve returns the top-k chunks for query within tenant/companyID's
// linked document scope, in strict deterministic order: descending combined
// score, ties broken by ascending chunk_id.
func (r *Retriever) Retrieve(ctx context.Context, tenant, companyID, query string, p Params) ([]Result, error) {
	docHashes, err := r.links.DocHashesForCompany(ctx, tenant, companyID)
	if err != nil {
		return nil, err
	}
	if len(docHashes) == 0 {
		return nil, nil
	}

	candidates, err := r.chunks.GetByScope(ctx, docHashes)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	idx := buildLexicalIndex(candidates)
	queryEmbedding := r.embed.Embed(query)

	results := make([]Result, len(candidates))
	for i, c := range candidates {
		lex := idx.score(query, c.ChunkID)
		vec := 0.0
		if c.HasEmbedding() {
			vec = cosine(queryEmbedding, c.Embedding)
		}
		results[i] = Result{
			Chunk:         *c,
			LexicalScore:  lex,
			VectorScore:   vec,
			CombinedScore: p.LexicalWeight*lex + p.VectorWeight*vec,
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].CombinedScore != results[j].CombinedScore {
			return results[i].CombinedScore > results[j].CombinedScore
		}
		return results[i].Chunk.ChunkID < results[j].Chunk.ChunkID
	})

	k := p.TopK
	if k <= 0 || k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}
