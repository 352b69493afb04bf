package retrieval

import (
	"math"

	"github.com/verascope/verascope/internal/domain"
)

// bm25K1 and bm25B are the standard Okapi BM25 tuning constants.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// lexicalIndex is an in-process inverted index over a fixed chunk scope,
// scoring query terms with a BM25-like formula.
type lexicalIndex struct {
	docLength  map[string]int            // chunk_id -> token count
	termFreq   map[string]map[string]int // term -> chunk_id -> count
	avgDocLen  float64
	corpusSize int
}

func buildLexicalIndex(chunks []*domain.Chunk) *lexicalIndex {
	idx := &lexicalIndex{
		docLength: make(map[string]int),
		termFreq:  make(map[string]map[string]int),
	}

	var totalLen int
	for _, c := range chunks {
		tokens := tokenize(c.Text)
		idx.docLength[c.ChunkID] = len(tokens)
		totalLen += len(tokens)

		counts := make(map[string]int)
		for _, tok := range tokens {
			counts[tok]++
		}
		for term, count := range counts {
			if idx.termFreq[term] == nil {
				idx.termFreq[term] = make(map[string]int)
			}
			idx.termFreq[term][c.ChunkID] = count
		}
	}

	idx.corpusSize = len(chunks)
	if idx.corpusSize > 0 {
		idx.avgDocLen = float64(totalLen) / float64(idx.corpusSize)
	}
	if idx.avgDocLen == 0 {
		idx.avgDocLen = 1
	}
	return idx
}

// score computes the BM25-like relevance of chunkID against query.
func (idx *lexicalIndex) score(query, chunkID string) float64 {
	if idx.corpusSize == 0 {
		return 0
	}

	docLen := float64(idx.docLength[chunkID])
	var total float64

	for _, term := range tokenize(query) {
		postings, ok := idx.termFreq[term]
		if !ok {
			continue
		}
		tf := float64(postings[chunkID])
		if tf == 0 {
			continue
		}

		df := float64(len(postings))
		idf := math.Log(1 + (float64(idx.corpusSize)-df+0.5)/(df+0.5))

		denom := tf + bm25K1*(1-bm25B+bm25B*docLen/idx.avgDocLen)
		total += idf * (tf * (bm25K1 + 1) / denom)
	}

	return total
}
