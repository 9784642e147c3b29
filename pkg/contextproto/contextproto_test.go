package contextproto

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"ai-devguide-be/pkg/content"
	"ai-devguide-be/pkg/recommend"
	"ai-devguide-be/pkg/search"
	"ai-devguide-be/pkg/topic"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type axisEmbedder struct{}

func (axisEmbedder) GetEmbedding(ctx context.Context, text string) []float32 {
	if strings.Contains(strings.ToLower(text), "protocol") {
		return []float32{1, 0}
	}
	return []float32{0, 1}
}

type corpus []content.EmbeddedContentChunk

func (c corpus) Chunks() []content.EmbeddedContentChunk { return c }

func newDispatcher() *Dispatcher {
	c := corpus{
		{ContentChunk: content.ContentChunk{ID: "mcp", Title: "Protocol", Path: "/docs/mcp"}, Embedding: []float32{1, 0}},
		{ContentChunk: content.ContentChunk{ID: "report", Title: "Reports", Path: "/docs/report"}, Embedding: []float32{0, 1}},
	}
	searcher := search.NewSearcher(axisEmbedder{})
	rec := recommend.NewRecommender(c, searcher, topic.NewExtractor(axisEmbedder{}, nil), nil)
	return NewDispatcher(nil, NewSearchContentTool(c, searcher), NewRecommendContentTool(rec))
}

func TestDecodeRequest(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Request
		wantErr bool
	}{
		{"list tools", `{"method":"list_tools"}`, ListToolsRequest{}, false},
		{"call tool", `{"method":"call_tool","params":{"name":"search_content","arguments":{"query":"x"}}}`,
			CallToolRequest{Name: "search_content", Arguments: json.RawMessage(`{"query":"x"}`)}, false},
		{"get context", `{"method":"get_context","params":{"sessionId":"s1"}}`, GetContextRequest{SessionId: "s1"}, false},
		{"set context", `{"method":"set_context","params":{"sessionId":"s1","context":{"page":"/docs"}}}`,
			SetContextRequest{SessionId: "s1", Context: map[string]interface{}{"page": "/docs"}}, false},
		{"unknown", `{"method":"delete_everything"}`, nil, true},
		{"garbage", `not json`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeRequest([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := DecodeRequest([]byte(`{"method":"nope"}`))
	assert.True(t, errors.Is(err, ErrUnknownMethod))
}

func TestEncodeRequestRoundTrip(t *testing.T) {
	for _, req := range []Request{
		ListToolsRequest{},
		GetContextRequest{SessionId: "s1"},
		CallToolRequest{Name: ToolSearchContent, Arguments: json.RawMessage(`{"query":"protocol"}`)},
	} {
		data, err := EncodeRequest(req)
		require.NoError(t, err)
		got, err := DecodeRequest(data)
		require.NoError(t, err)
		assert.Equal(t, req, got)
	}
}

func TestDispatcherListTools(t *testing.T) {
	resp := newDispatcher().Handle(context.Background(), ListToolsRequest{})
	list, ok := resp.(ListToolsResponse)
	require.True(t, ok)
	require.Len(t, list.Tools, 2)
	assert.Equal(t, ToolRecommendContent, list.Tools[0].Name)
	assert.Equal(t, ToolSearchContent, list.Tools[1].Name)
}

func TestDispatcherCallTool(t *testing.T) {
	d := newDispatcher()
	ctx := context.Background()

	resp := d.Handle(ctx, CallToolRequest{Name: ToolSearchContent, Arguments: json.RawMessage(`{"query":"protocol tools","limit":1}`)})
	call, ok := resp.(CallToolResponse)
	require.True(t, ok, "got %#v", resp)
	results := call.Result.([]search.Result)
	require.Len(t, results, 1)
	assert.Equal(t, "mcp", results[0].Chunk.ID)

	resp = d.Handle(ctx, CallToolRequest{Name: ToolRecommendContent, Arguments: json.RawMessage(`{"messages":[{"role":"user","content":"explain the protocol"}]}`)})
	call, ok = resp.(CallToolResponse)
	require.True(t, ok, "got %#v", resp)
	recs := call.Result.([]recommend.ContentRecommendation)
	require.NotEmpty(t, recs)
	assert.Equal(t, "mcp", recs[0].Chunk.ID)

	tests := []struct {
		name string
		req  CallToolRequest
		code string
	}{
		{"unknown tool", CallToolRequest{Name: "nope"}, CodeUnknownTool},
		{"missing query", CallToolRequest{Name: ToolSearchContent, Arguments: json.RawMessage(`{}`)}, CodeInvalidRequest},
		{"bad json", CallToolRequest{Name: ToolSearchContent, Arguments: json.RawMessage(`[1,2]`)}, CodeInvalidRequest},
		{"no messages", CallToolRequest{Name: ToolRecommendContent}, CodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := d.Handle(ctx, tt.req).(ErrorResponse)
			require.True(t, ok)
			assert.Equal(t, tt.code, e.Code)
		})
	}
}

func TestDispatcherContext(t *testing.T) {
	d := newDispatcher()
	ctx := context.Background()

	got := d.Handle(ctx, GetContextRequest{SessionId: "s1"}).(GetContextResponse)
	assert.Empty(t, got.Context)

	set := d.Handle(ctx, SetContextRequest{SessionId: "s1", Context: map[string]interface{}{"page": "/docs/mcp", "level": "beginner"}}).(SetContextResponse)
	assert.Equal(t, 2, set.Keys)

	// nil values delete keys, others merge
	set = d.Handle(ctx, SetContextRequest{SessionId: "s1", Context: map[string]interface{}{"level": nil, "goal": "ship"}}).(SetContextResponse)
	assert.Equal(t, 2, set.Keys)

	got = d.Handle(ctx, GetContextRequest{SessionId: "s1"}).(GetContextResponse)
	assert.Equal(t, map[string]interface{}{"page": "/docs/mcp", "goal": "ship"}, got.Context)

	_, isErr := d.Handle(ctx, GetContextRequest{}).(ErrorResponse)
	assert.True(t, isErr)
}

func TestDispatcherHandleJSON(t *testing.T) {
	d := newDispatcher()

	out, err := d.HandleJSON(context.Background(), []byte(`{"method":"frobnicate"}`))
	require.NoError(t, err)
	var env struct {
		Kind   string        `json:"kind"`
		Result ErrorResponse `json:"result"`
	}
	require.NoError(t, json.Unmarshal(out, &env))
	assert.Equal(t, KindError, env.Kind)
	assert.Equal(t, CodeUnknownMethod, env.Result.Code)

	out, err = d.HandleJSON(context.Background(), []byte(`{"method":"list_tools"}`))
	require.NoError(t, err)
	assert.Contains(t, string(out), `"kind":"list_tools"`)
}
