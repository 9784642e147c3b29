package embedding

import "context"

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string) (*EmbeddingResponse, error)
}

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}

// Embedder is what search, indexing and clustering need: text in, vector out,
// never an error. *Adapter is the production implementation.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) []float32
}
