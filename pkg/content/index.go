package content

import (
	"context"
	"sync"
	"time"

	"ai-devguide-be/internal/pkg/logger"
	"ai-devguide-be/pkg/embedding"

	"golang.org/x/sync/errgroup"
)

// DefaultEmbedConcurrency caps parallel embedding requests during Init.
const DefaultEmbedConcurrency = 4

// Index holds the embedded site corpus for the process lifetime. It is built
// once by Init and read-only afterwards.
type Index struct {
	chunks      []ContentChunk
	embedder    embedding.Embedder
	logger      logger.ILogger
	concurrency int

	mu       sync.RWMutex
	embedded []EmbeddedContentChunk
	ready    bool
}

func NewIndex(chunks []ContentChunk, embedder embedding.Embedder, log logger.ILogger) *Index {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Index{
		chunks:      chunks,
		embedder:    embedder,
		logger:      log,
		concurrency: DefaultEmbedConcurrency,
	}
}

// Init embeds every chunk. Calling it again after success is a no-op.
func (i *Index) Init(ctx context.Context) error {
	i.mu.RLock()
	ready := i.ready
	i.mu.RUnlock()
	if ready {
		return nil
	}

	start := time.Now()
	embedded := make([]EmbeddedContentChunk, len(i.chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)

	for idx := range i.chunks {
		idx := idx
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c := i.chunks[idx]
			embedded[idx] = EmbeddedContentChunk{
				ContentChunk: c,
				Embedding:    i.embedder.GetEmbedding(gctx, c.EmbeddingText()),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		i.logger.Error("ContentIndex", "Content indexing aborted", map[string]interface{}{"error": err.Error()})
		return err
	}

	if !uniformEmbeddings(embedded) {
		i.logger.Warn("ContentIndex", "Mixed embedding sizes, indexing with hash fallback", map[string]interface{}{
			"chunks": len(embedded),
		})
		embedded = WithFallbackEmbeddings(embedded)
	}

	i.mu.Lock()
	i.embedded = embedded
	i.ready = true
	i.mu.Unlock()

	i.logger.Info("ContentIndex", "Content index ready", map[string]interface{}{
		"chunks":      len(embedded),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// Chunks returns the embedded corpus in index order, or nil before Init.
func (i *Index) Chunks() []EmbeddedContentChunk {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.embedded
}

func (i *Index) Ready() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.ready
}

// Len is the number of chunks the index was built from.
func (i *Index) Len() int {
	return len(i.chunks)
}

// WithFallbackEmbeddings returns a copy of chunks embedded with
// embedding.Fallback, comparable with a Fallback query vector.
func WithFallbackEmbeddings(chunks []EmbeddedContentChunk) []EmbeddedContentChunk {
	out := make([]EmbeddedContentChunk, len(chunks))
	for idx, c := range chunks {
		out[idx] = EmbeddedContentChunk{
			ContentChunk: c.ContentChunk,
			Embedding:    embedding.Fallback(c.EmbeddingText()),
		}
	}
	return out
}

func uniformEmbeddings(chunks []EmbeddedContentChunk) bool {
	vecs := make([][]float32, len(chunks))
	for idx, c := range chunks {
		vecs[idx] = c.Embedding
	}
	return embedding.SameDimensions(vecs...)
}
