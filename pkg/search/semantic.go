package search

import (
	"context"
	"sort"

	"ai-devguide-be/pkg/content"
	"ai-devguide-be/pkg/embedding"
	"ai-devguide-be/pkg/vector"
)

// Result is a ranked corpus chunk with its cosine score in [-1, 1].
type Result struct {
	Chunk content.ContentChunk `json:"chunk"`
	Score float64              `json:"score"`
}

// Rank scores every chunk against queryVec and returns them best first. Equal
// scores keep corpus order. limit <= 0 returns everything.
func Rank(queryVec []float32, corpus []content.EmbeddedContentChunk, limit int) []Result {
	results := make([]Result, len(corpus))
	for i, c := range corpus {
		results[i] = Result{
			Chunk: c.ContentChunk,
			Score: vector.CosineSimilarity(queryVec, c.Embedding),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Searcher embeds queries and ranks them against a corpus with a linear scan.
type Searcher struct {
	embedder embedding.Embedder
}

func NewSearcher(embedder embedding.Embedder) *Searcher {
	return &Searcher{embedder: embedder}
}

func (s *Searcher) Search(ctx context.Context, query string, corpus []content.EmbeddedContentChunk, limit int) []Result {
	if len(corpus) == 0 {
		return []Result{}
	}
	queryVec := s.embedder.GetEmbedding(ctx, query)
	if !sameSpace(queryVec, corpus) {
		// a degraded query or corpus is only comparable in hash space
		queryVec = embedding.Fallback(query)
		corpus = content.WithFallbackEmbeddings(corpus)
	}
	return Rank(queryVec, corpus, limit)
}

func sameSpace(queryVec []float32, corpus []content.EmbeddedContentChunk) bool {
	vecs := make([][]float32, 0, len(corpus)+1)
	vecs = append(vecs, queryVec)
	for _, c := range corpus {
		vecs = append(vecs, c.Embedding)
	}
	return embedding.SameDimensions(vecs...)
}
