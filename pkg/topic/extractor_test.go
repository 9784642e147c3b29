package topic

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"ai-devguide-be/internal/entity"
	"ai-devguide-be/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(id, role, content string) entity.ChatMessage {
	return entity.ChatMessage{Id: id, Role: role, Content: content}
}

type emptyEmbedder struct{}

func (emptyEmbedder) GetEmbedding(ctx context.Context, text string) []float32 { return nil }

func conversation() []entity.ChatMessage {
	return []entity.ChatMessage{
		msg("s", entity.RoleSystem, "You are a helpful assistant for the developer guide site."),
		msg("1", entity.RoleUser, "How do MCP servers expose tools to an assistant?"),
		msg("2", entity.RoleAssistant, "MCP servers advertise tools with a JSON schema during initialisation."),
		msg("3", entity.RoleUser, "Can MCP servers also expose resources and prompts?"),
		msg("4", entity.RoleUser, "What belongs in the decisions section of a status report?"),
		msg("5", entity.RoleAssistant, "The decisions section of the status report records who decided what."),
		msg("6", entity.RoleUser, "Should the status report list next steps with owners?"),
		msg("short", entity.RoleUser, "thanks!"),
	}
}

func TestExtractTopicsTooFewMessages(t *testing.T) {
	e := NewExtractor(embedding.NewAdapter(nil, nil), nil)

	tests := []struct {
		name     string
		messages []entity.ChatMessage
	}{
		{"empty", nil},
		{"two long messages", []entity.ChatMessage{
			msg("1", entity.RoleUser, "How do MCP servers expose tools to an assistant?"),
			msg("2", entity.RoleAssistant, "MCP servers advertise tools with a JSON schema."),
		}},
		{"system and short messages do not count", []entity.ChatMessage{
			msg("s", entity.RoleSystem, "You are a helpful assistant for the developer guide site."),
			msg("1", entity.RoleUser, "How do MCP servers expose tools to an assistant?"),
			msg("2", entity.RoleAssistant, "MCP servers advertise tools with a JSON schema."),
			msg("3", entity.RoleUser, "exactly twenty chars"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ExtractTopics(context.Background(), tt.messages)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestExtractTopicsClustersEveryQualifyingMessage(t *testing.T) {
	e := NewExtractor(embedding.NewAdapter(nil, nil), nil)

	topics := e.ExtractTopics(context.Background(), conversation())
	require.NotEmpty(t, topics)
	assert.LessOrEqual(t, len(topics), 2)

	var ids []string
	for i, tp := range topics {
		assert.NotEmpty(t, tp.Topic)
		assert.GreaterOrEqual(t, tp.Relevance, 0.0)
		assert.LessOrEqual(t, tp.Relevance, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, topics[i-1].Relevance, tp.Relevance)
		}
		ids = append(ids, tp.MessageIds...)
	}
	sort.Strings(ids)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, ids)
}

func TestExtractTopicsDeterministic(t *testing.T) {
	e := NewExtractor(embedding.NewAdapter(nil, nil), nil)

	first := e.ExtractTopics(context.Background(), conversation())
	second := e.ExtractTopics(context.Background(), conversation())
	assert.Equal(t, first, second)
}

func TestExtractTopicsFailuresYieldEmpty(t *testing.T) {
	t.Run("empty embeddings", func(t *testing.T) {
		e := NewExtractor(emptyEmbedder{}, nil)
		assert.Empty(t, e.ExtractTopics(context.Background(), conversation()))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		e := NewExtractor(embedding.NewAdapter(nil, nil), nil)
		assert.Empty(t, e.ExtractTopics(ctx, conversation()))
	})
}

func TestClusterCount(t *testing.T) {
	tests := []struct{ n, want int }{
		{3, 2}, {9, 2}, {10, 2}, {15, 3}, {25, 5}, {100, 5},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.n), func(t *testing.T) {
			if got := clusterCount(tt.n); got != tt.want {
				t.Errorf("clusterCount(%d) = %d, want %d", tt.n, got, tt.want)
			}
		})
	}
}

// partialEmbedder returns a remote-sized vector for one message and the hash
// fallback for every other.
type partialEmbedder struct{ remote string }

func (p partialEmbedder) GetEmbedding(ctx context.Context, text string) []float32 {
	if text == p.remote {
		return []float32{1, 0, 0}
	}
	return embedding.Fallback(text)
}

func TestExtractTopicsMixedEmbeddingSizes(t *testing.T) {
	msgs := conversation()
	mixed := NewExtractor(partialEmbedder{remote: msgs[1].Content}, nil)
	hashed := NewExtractor(embedding.NewAdapter(nil, nil), nil)

	got := mixed.ExtractTopics(context.Background(), msgs)
	require.NotEmpty(t, got)
	assert.Equal(t, hashed.ExtractTopics(context.Background(), msgs), got)
}
