package content

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"ai-devguide-be/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `Intro paragraph before any heading.

# Building Tools

Tools are functions the model may call.

## Schemas

Every tool declares a JSON schema.

Setext Section
--------------

Underlined headings work too.
`

func TestIndexMarkdownSections(t *testing.T) {
	chunks := IndexMarkdown("tools.md", "/docs/tools", []byte(samplePage))
	require.Len(t, chunks, 4)

	assert.Equal(t, "Building Tools", chunks[0].Section)
	assert.Equal(t, "Intro paragraph before any heading.", chunks[0].Content)
	assert.Equal(t, 1.0, chunks[0].Priority)

	assert.Equal(t, "Building Tools", chunks[1].Section)
	assert.Equal(t, "Tools are functions the model may call.", chunks[1].Content)

	assert.Equal(t, "Schemas", chunks[2].Section)
	assert.Equal(t, 0.8, chunks[2].Priority)

	assert.Equal(t, "Setext Section", chunks[3].Section)
	assert.Equal(t, "Underlined headings work too.", chunks[3].Content)

	for _, c := range chunks {
		assert.Equal(t, "Building Tools", c.Title)
		assert.Equal(t, "/docs/tools", c.Path)
		assert.Equal(t, "tools.md", c.Source)
	}
	assert.True(t, chunks[2].HasKeyword("schema"))
}

func TestIndexMarkdownSplitsLongSections(t *testing.T) {
	body := strings.Repeat("word ", 700) // 3500 runes
	chunks := IndexMarkdown("long.md", "/docs/long", []byte("# Long\n\n"+body))

	assert.Len(t, chunks, 3)
	ids := map[string]bool{}
	for _, c := range chunks {
		ids[c.ID] = true
	}
	assert.Len(t, ids, 3, "chunk ids must be unique")
}

func TestLoadFSRoutes(t *testing.T) {
	fsys := fstest.MapFS{
		"docs/index.md":       {Data: []byte("# Home\n\nWelcome home.")},
		"docs/mcp/servers.md": {Data: []byte("# Servers\n\nServers expose tools.")},
		"docs/notes.txt":      {Data: []byte("ignored")},
	}

	chunks, err := LoadFS(fsys, "docs")
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "/docs", chunks[0].Path)
	assert.Equal(t, "/docs/mcp/servers", chunks[1].Path)
}

func TestLoadBuiltin(t *testing.T) {
	chunks, err := LoadBuiltin()
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
}

type countingEmbedder struct{ calls int32 }

func (c *countingEmbedder) GetEmbedding(ctx context.Context, text string) []float32 {
	atomic.AddInt32(&c.calls, 1)
	return []float32{float32(len(text)), 1}
}

func TestIndexInit(t *testing.T) {
	chunks := IndexMarkdown("tools.md", "/docs/tools", []byte(samplePage))
	emb := &countingEmbedder{}
	idx := NewIndex(chunks, emb, nil)

	assert.False(t, idx.Ready())
	assert.Nil(t, idx.Chunks())

	require.NoError(t, idx.Init(context.Background()))
	require.NoError(t, idx.Init(context.Background()))

	assert.True(t, idx.Ready())
	assert.Equal(t, int32(len(chunks)), atomic.LoadInt32(&emb.calls))

	got := idx.Chunks()
	require.Len(t, got, len(chunks))
	for i := range chunks {
		assert.Equal(t, chunks[i].ID, got[i].ID, "index order preserved")
		assert.NotEmpty(t, got[i].Embedding)
	}
}

// onceProvider answers the first call and fails every later one.
type onceProvider struct{ calls int32 }

func (p *onceProvider) Generate(ctx context.Context, text string) (*embedding.EmbeddingResponse, error) {
	if atomic.AddInt32(&p.calls, 1) > 1 {
		return nil, errors.New("provider unavailable")
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 2, 3}}}, nil
}

func TestIndexInitFallsBackTogether(t *testing.T) {
	chunks := IndexMarkdown("tools.md", "/docs/tools", []byte(samplePage))
	idx := NewIndex(chunks, embedding.NewAdapter(&onceProvider{}, nil), nil)

	require.NoError(t, idx.Init(context.Background()))

	got := idx.Chunks()
	require.Len(t, got, len(chunks))
	for _, c := range got {
		assert.Equal(t, embedding.Fallback(c.EmbeddingText()), c.Embedding, c.ID)
	}
}
