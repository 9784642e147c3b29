package content

// ContentChunk is one searchable section of a documentation page.
type ContentChunk struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Source   string   `json:"source"`
	Path     string   `json:"path"`
	Section  string   `json:"section"`
	Keywords []string `json:"keywords"`
	Priority float64  `json:"priority"`
}

// EmbeddedContentChunk pairs a chunk with its embedding. Embeddings live in
// memory only and are recomputed on restart.
type EmbeddedContentChunk struct {
	ContentChunk
	Embedding []float32 `json:"-"`
}

// EmbeddingText is the text fed to the embedder for this chunk.
func (c ContentChunk) EmbeddingText() string {
	return c.Title + "\n" + c.Section + "\n" + c.Content
}

// HasKeyword reports whether kw is one of the chunk's keywords.
func (c ContentChunk) HasKeyword(kw string) bool {
	for _, k := range c.Keywords {
		if k == kw {
			return true
		}
	}
	return false
}
