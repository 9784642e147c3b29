package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-devguide-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderChat(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello back"}}]}`))
	}))
	defer srv.Close()

	p := NewProvider("secret", srv.URL+"/", "openai/gpt-4o-mini")
	reply, err := p.Chat(context.Background(),
		[]llm.Message{{Role: "system", Content: "be brief"}, {Role: "user", Content: "hello"}},
		llm.WithTemperature(0.2), llm.WithMaxTokens(64))

	require.NoError(t, err)
	assert.Equal(t, "hello back", reply)
	assert.Equal(t, "openai/gpt-4o-mini", got.Model)
	assert.Equal(t, 0.2, got.Temperature)
	assert.Equal(t, 64, got.MaxTokens)
	assert.Len(t, got.Messages, 2)
}

func TestProviderChatErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http status", http.StatusBadGateway, `upstream down`},
		{"api error", http.StatusOK, `{"error":{"message":"quota exceeded"}}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"bad json", http.StatusOK, `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewProvider("", srv.URL, "m").Generate(context.Background(), "hi")
			assert.Error(t, err)
		})
	}
}
