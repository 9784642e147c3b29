package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	calls  int32
	err    error
	values []float32
}

func (s *stubProvider) Generate(ctx context.Context, text string) (*EmbeddingResponse, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: s.values}}, nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestHashEmbeddingDeterministic(t *testing.T) {
	a := HashEmbedding("Model Context Protocol servers expose tools", HashDimensions)
	b := HashEmbedding("Model Context Protocol servers expose tools", HashDimensions)

	assert.Equal(t, a, b)
	assert.Len(t, a, HashDimensions)
	assert.InDelta(t, 1.0, norm(a), 1e-5)
}

func TestHashEmbeddingEmptyText(t *testing.T) {
	v := HashEmbedding("   ", HashDimensions)
	assert.Len(t, v, HashDimensions)
	assert.Zero(t, norm(v))
}

func TestAdapterFallsBackWithoutProvider(t *testing.T) {
	a := NewAdapter(nil, nil)

	got := a.GetEmbedding(context.Background(), "hello world")
	assert.Equal(t, HashEmbedding("hello world", HashDimensions), got)
	assert.True(t, a.Degraded())
}

func TestAdapterFallsBackOnProviderError(t *testing.T) {
	p := &stubProvider{err: errors.New("boom")}
	a := NewAdapter(p, nil)

	got := a.GetEmbedding(context.Background(), "hello world")
	assert.Equal(t, HashEmbedding("hello world", HashDimensions), got)

	// failures are retried on the next call
	a.GetEmbedding(context.Background(), "hello world")
	assert.Equal(t, int32(2), atomic.LoadInt32(&p.calls))
}

func TestAdapterCachesProviderResults(t *testing.T) {
	p := &stubProvider{values: []float32{0.1, 0.2, 0.3}}
	a := NewAdapter(p, nil)

	first := a.GetEmbedding(context.Background(), "cache me")
	second := a.GetEmbedding(context.Background(), "cache me")

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&p.calls))
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", MaxInputChars+500)
	assert.Len(t, Truncate(long), MaxInputChars)
	assert.Equal(t, "short", Truncate("short"))
}

func TestOpenAIProviderGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body openAIEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body.Model)
		assert.Equal(t, "some input", body.Input)

		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[0.5,0.25]}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("secret", srv.URL, "test-model")
	res, err := p.Generate(context.Background(), "some input")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, res.Embedding.Values)
}

func TestOpenAIProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("nope", srv.URL, "")
	_, err := p.Generate(context.Background(), "x")
	assert.Error(t, err)
}
