package contextproto

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ai-devguide-be/internal/entity"
	"ai-devguide-be/pkg/recommend"
	"ai-devguide-be/pkg/search"
)

const (
	ToolSearchContent    = "search_content"
	ToolRecommendContent = "recommend_content"

	defaultSearchLimit = 5
	maxSearchLimit     = 20
)

func decodeArgs(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}

// SearchContentTool runs semantic search over the documentation corpus.
type SearchContentTool struct {
	corpus   recommend.Corpus
	searcher *search.Searcher
}

func NewSearchContentTool(corpus recommend.Corpus, searcher *search.Searcher) *SearchContentTool {
	return &SearchContentTool{corpus: corpus, searcher: searcher}
}

type searchArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func (t *SearchContentTool) Descriptor() ToolDescriptor {
	return ToolDescriptor{
		Name:        ToolSearchContent,
		Description: "Semantic search over the guide's documentation pages.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{"type": "string"},
				"limit": map[string]interface{}{"type": "integer", "minimum": 1, "maximum": maxSearchLimit},
			},
			"required": []string{"query"},
		},
	}
}

func (t *SearchContentTool) Call(ctx context.Context, arguments json.RawMessage) (interface{}, error) {
	var args searchArgs
	if err := decodeArgs(arguments, &args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.Query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidArguments)
	}
	limit := args.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	return t.searcher.Search(ctx, args.Query, t.corpus.Chunks(), limit), nil
}

// RecommendContentTool recommends pages for a conversation.
type RecommendContentTool struct {
	recommender *recommend.Recommender
}

func NewRecommendContentTool(recommender *recommend.Recommender) *RecommendContentTool {
	return &RecommendContentTool{recommender: recommender}
}

type recommendArgs struct {
	Messages  []entity.ChatMessage `json:"messages"`
	Limit     int                  `json:"limit"`
	Threshold float64              `json:"threshold"`
}

func (t *RecommendContentTool) Descriptor() ToolDescriptor {
	return ToolDescriptor{
		Name:        ToolRecommendContent,
		Description: "Recommend documentation pages related to a conversation.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"messages": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"role":    map[string]interface{}{"type": "string"},
							"content": map[string]interface{}{"type": "string"},
						},
					},
				},
				"limit":     map[string]interface{}{"type": "integer"},
				"threshold": map[string]interface{}{"type": "number"},
			},
			"required": []string{"messages"},
		},
	}
}

func (t *RecommendContentTool) Call(ctx context.Context, arguments json.RawMessage) (interface{}, error) {
	var args recommendArgs
	if err := decodeArgs(arguments, &args); err != nil {
		return nil, err
	}
	if len(args.Messages) == 0 {
		return nil, fmt.Errorf("%w: messages are required", ErrInvalidArguments)
	}
	return t.recommender.GetContentRecommendations(ctx, args.Messages, recommend.ContentOptions{
		Limit:     args.Limit,
		Threshold: args.Threshold,
	}), nil
}
